package trie

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Trie", func() {
	var sut *Trie[int]

	BeforeEach(func() {
		sut = NewTrie[int](SplitTLD, JoinTLD)
	})

	Describe("Basic operations", func() {
		When("Trie is created", func() {
			It("should be empty", func() {
				Expect(sut.IsEmpty()).Should(BeTrue())
			})

			It("should not find anything", func() {
				res := sut.Find("example.com")
				Expect(res.HasExact).Should(BeFalse())
				Expect(res.Ancestors).Should(BeEmpty())
			})

			It("should create a slot for the empty string that makes the trie non-empty", func() {
				_, isNew := sut.GetOrCreate("")
				Expect(isNew).Should(BeTrue())
				Expect(sut.IsEmpty()).Should(BeFalse())
			})
		})

		When("Adding data for a domain", func() {
			var (
				domainOkTLD = "com"
				domainOk    = "example." + domainOkTLD

				domainKo = "example.org"
			)

			BeforeEach(func() {
				res := sut.Find(domainOk)
				Expect(res.HasExact).Should(BeFalse())

				data, isNew := sut.GetOrCreate(domainOk)
				Expect(isNew).Should(BeTrue())
				*data = 42

				res = sut.Find(domainOk)
				Expect(res.HasExact).Should(BeTrue())
				Expect(res.Exact).Should(Equal(42))
			})

			It("should be found exactly", func() {})

			It("should surface as an ancestor for subdomains", func() {
				subdomain := "www." + domainOk

				res := sut.Find(subdomain)
				Expect(res.HasExact).Should(BeFalse())
				Expect(res.Ancestors).Should(Equal([]int{42}))
			})

			It("should support inserting subdomains independently", func() {
				subdomain := "www." + domainOk

				data, isNew := sut.GetOrCreate(subdomain)
				Expect(isNew).Should(BeTrue())
				*data = 7

				res := sut.Find(subdomain)
				Expect(res.HasExact).Should(BeTrue())
				Expect(res.Exact).Should(Equal(7))
				Expect(res.Ancestors).Should(Equal([]int{42}))
			})

			It("should not find unrelated domains", func() {
				res := sut.Find(domainKo)
				Expect(res.HasExact).Should(BeFalse())
				Expect(res.Ancestors).Should(BeEmpty())
			})

			It("should not report an exact match for an uninserted parent", func() {
				res := sut.Find(domainOkTLD)
				Expect(res.HasExact).Should(BeFalse())
			})

			It("should return GetOrCreate on the same key without overwriting", func() {
				data, isNew := sut.GetOrCreate(domainOk)
				Expect(isNew).Should(BeFalse())
				Expect(*data).Should(Equal(42))
			})
		})

		When("Deleting data", func() {
			It("should remove the exact match and prune dataless leaves", func() {
				data, _ := sut.GetOrCreate("example.com")
				*data = 1

				sut.Delete("example.com")

				res := sut.Find("example.com")
				Expect(res.HasExact).Should(BeFalse())
				Expect(sut.IsEmpty()).Should(BeTrue())
			})

			It("should keep an ancestor that still has data after deleting a child", func() {
				parent, _ := sut.GetOrCreate("example.com")
				*parent = 1
				child, _ := sut.GetOrCreate("www.example.com")
				*child = 2

				sut.Delete("www.example.com")

				res := sut.Find("www.example.com")
				Expect(res.HasExact).Should(BeFalse())
				Expect(res.Ancestors).Should(Equal([]int{1}))
			})

			It("should be a no-op for a key that was never inserted", func() {
				Expect(func() { sut.Delete("never.example.com") }).ShouldNot(Panic())
			})
		})

		When("Walking the trie", func() {
			It("should visit every stored key in sorted order", func() {
				for i, key := range []string{"b.example.com", "a.example.com", "example.org"} {
					data, _ := sut.GetOrCreate(key)
					*data = i
				}

				var seen []string

				sut.Walk(func(key string, _ int) bool {
					seen = append(seen, key)
					return true
				})

				Expect(seen).Should(Equal([]string{
					"a.example.com",
					"b.example.com",
					"example.org",
				}))
			})

			It("should stop early when fn returns false", func() {
				for _, key := range []string{"a.example.com", "b.example.com", "c.example.com"} {
					sut.GetOrCreate(key)
				}

				var seen []string

				sut.Walk(func(key string, _ int) bool {
					seen = append(seen, key)
					return len(seen) < 2
				})

				Expect(seen).Should(HaveLen(2))
			})
		})
	})
})
