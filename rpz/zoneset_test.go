package rpz

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Index", func() {
	var sut *Index

	BeforeEach(func() {
		sut = NewIndex()
	})

	It("should start with a reference count of 1", func() {
		Expect(sut.RefCount()).Should(Equal(int32(1)))
	})

	It("should track Attach/Detach symmetrically", func() {
		sut.Attach()
		sut.Attach()
		Expect(sut.RefCount()).Should(Equal(int32(3)))

		sut.Detach()
		Expect(sut.RefCount()).Should(Equal(int32(2)))
	})

	It("should reject a malformed owner name on Add", func() {
		Expect(sut.Add(ZoneNum(0), "")).Should(HaveOccurred())
	})

	When("a QNAME trigger is added", func() {
		BeforeEach(func() {
			Expect(sut.Add(ZoneNum(1), "evil.example.com.")).ShouldNot(HaveOccurred())
		})

		It("should be found by FindName", func() {
			res := sut.FindName("evil.example.com.", TriggerQNAME, ^ZoneBits(0))
			Expect(res.Found).Should(BeTrue())
			Expect(res.Zone).Should(Equal(ZoneNum(1)))
		})

		It("should leave SkipRecurse unaffected by a QNAME-only trigger", func() {
			// I3 keys off IP/NSIP/NSDNAME triggers, not QNAME itself.
			Expect(sut.SkipRecurse()).Should(BeTrue())
		})

		It("should respect an active-zone mask that excludes it", func() {
			res := sut.FindName("evil.example.com.", TriggerQNAME, Bit(2))
			Expect(res.Found).Should(BeFalse())
		})

		It("should report the zone's trigger count", func() {
			zd, ok := sut.ZoneDesc(ZoneNum(1))
			Expect(ok).Should(BeTrue())
			Expect(zd.Counts()["QNAME"]).Should(Equal(1))
		})

		It("should be gone after Delete", func() {
			Expect(sut.Delete(ZoneNum(1), "evil.example.com.")).ShouldNot(HaveOccurred())

			res := sut.FindName("evil.example.com.", TriggerQNAME, ^ZoneBits(0))
			Expect(res.Found).Should(BeFalse())
		})
	})

	It("should report SkipRecurse true when no zone has any name trigger", func() {
		Expect(sut.SkipRecurse()).Should(BeTrue())
	})

	Describe("SkipRecurseMask", func() {
		It("is all-ones when no zone has an IP/NSIP/NSDNAME trigger", func() {
			Expect(sut.SkipRecurseMask()).Should(Equal(^ZoneBits(0)))
		})

		It("masks up to the lowest zone with an NSDNAME trigger", func() {
			Expect(sut.Add(ZoneNum(3), "ns.evil.example.rpz-nsdname")).ShouldNot(HaveOccurred())
			Expect(sut.SkipRecurseMask()).Should(Equal(MaskUpTo(ZoneNum(3))))
		})

		It("masks up to the lowest zone across IP and NSDNAME triggers", func() {
			Expect(sut.Add(ZoneNum(5), "ns.evil.example.rpz-nsdname")).ShouldNot(HaveOccurred())
			Expect(sut.Add(ZoneNum(2), "32.1.100.51.198.rpz-ip.")).ShouldNot(HaveOccurred())
			Expect(sut.SkipRecurseMask()).Should(Equal(MaskUpTo(ZoneNum(2))))
		})

		It("is zero once the admin requests wait-for-recursion, regardless of triggers", func() {
			Expect(sut.Add(ZoneNum(1), "ns.evil.example.rpz-nsdname")).ShouldNot(HaveOccurred())
			sut.SetQnameWaitRecurse(true)
			Expect(sut.SkipRecurseMask()).Should(Equal(ZoneBits(0)))
			Expect(sut.SkipRecurse()).Should(BeFalse())
		})

		It("is unaffected by a QNAME-only trigger", func() {
			Expect(sut.Add(ZoneNum(1), "evil.example.com.")).ShouldNot(HaveOccurred())
			Expect(sut.SkipRecurseMask()).Should(Equal(^ZoneBits(0)))
		})
	})

	It("should report a status snapshot across zones and kinds", func() {
		Expect(sut.Add(ZoneNum(1), "evil.example.com.")).ShouldNot(HaveOccurred())
		Expect(sut.Add(ZoneNum(2), "32.1.100.51.198.rpz-ip.")).ShouldNot(HaveOccurred())

		status := sut.Status()
		Expect(status.Have["QNAME"]).Should(BeTrue())
		Expect(status.Have["NSDNAME"]).Should(BeFalse())
		Expect(status.Zones).Should(HaveLen(2))
		Expect(status.Zones[0].Num).Should(Equal(ZoneNum(1)))
		Expect(status.Zones[1].Num).Should(Equal(ZoneNum(2)))
	})
})
