package rpz

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BeginLoad / Ready", func() {
	var sut *Index

	BeforeEach(func() {
		sut = NewIndex()
	})

	When("a zone is loaded for the first time", func() {
		It("should make its triggers visible only after Ready", func() {
			st := sut.BeginLoad(ZoneNum(1), "zone1.example.")
			Expect(st).ShouldNot(BeNil())

			Expect(st.Add("evil.example.com.")).ShouldNot(HaveOccurred())

			Expect(sut.FindName("evil.example.com.", TriggerQNAME, ^ZoneBits(0)).Found).Should(BeFalse())

			sut.Ready(st)

			Expect(sut.FindName("evil.example.com.", TriggerQNAME, ^ZoneBits(0)).Found).Should(BeTrue())
		})
	})

	When("a zone is reloaded with a different trigger set", func() {
		BeforeEach(func() {
			st := sut.BeginLoad(ZoneNum(1), "zone1.example.")
			Expect(st.Add("old.example.com.")).ShouldNot(HaveOccurred())
			sut.Ready(st)
		})

		It("should preserve other zones' triggers across the reload", func() {
			Expect(sut.Add(ZoneNum(2), "other.example.com.")).ShouldNot(HaveOccurred())

			st := sut.BeginLoad(ZoneNum(1), "zone1.example.")
			Expect(st.Add("new.example.com.")).ShouldNot(HaveOccurred())
			sut.Ready(st)

			Expect(sut.FindName("other.example.com.", TriggerQNAME, ^ZoneBits(0)).Found).Should(BeTrue())
			Expect(sut.FindName("new.example.com.", TriggerQNAME, ^ZoneBits(0)).Found).Should(BeTrue())
			Expect(sut.FindName("old.example.com.", TriggerQNAME, ^ZoneBits(0)).Found).Should(BeFalse())
		})
	})

	When("the admin wait-for-recursion toggle was set before a reload", func() {
		It("should carry the toggle forward into the staging counters", func() {
			sut.SetQnameWaitRecurse(true)

			st := sut.BeginLoad(ZoneNum(1), "zone1.example.")
			Expect(st.Add("evil.example.com.")).ShouldNot(HaveOccurred())
			sut.Ready(st)

			Expect(sut.SkipRecurseMask()).Should(Equal(ZoneBits(0)))
		})
	})
})
