package rpz

import (
	"github.com/miekg/dns"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecodeCNAME", func() {
	const owner = "evil.example.com."

	It("classifies the zone root as NXDOMAIN", func() {
		Expect(DecodeCNAME(owner, &dns.CNAME{Target: "."})).Should(Equal(PolicyNXDOMAIN))
	})

	It("classifies a 2-label wildcard as NODATA", func() {
		Expect(DecodeCNAME(owner, &dns.CNAME{Target: "*.com."})).Should(Equal(PolicyNODATA))
	})

	It("classifies a deeper wildcard as WILDCNAME", func() {
		Expect(DecodeCNAME(owner, &dns.CNAME{Target: "*.other.example.com."})).Should(Equal(PolicyWildcardCNAME))
	})

	It("classifies the passthru sentinel as PASSTHRU", func() {
		Expect(DecodeCNAME(owner, &dns.CNAME{Target: "rpz-passthru."})).Should(Equal(PolicyPassthru))
	})

	It("classifies a CNAME target equal to its own owner as PASSTHRU", func() {
		Expect(DecodeCNAME(owner, &dns.CNAME{Target: owner})).Should(Equal(PolicyPassthru))
	})

	It("classifies anything else as RECORD", func() {
		Expect(DecodeCNAME(owner, &dns.CNAME{Target: "good.example.net."})).Should(Equal(PolicyRecord))
	})

	It("reports ERROR for a nil record", func() {
		Expect(DecodeCNAME(owner, nil)).Should(Equal(PolicyError))
	})
})

var _ = Describe("Type2Str / Str2Policy", func() {
	It("round-trips every known policy verb", func() {
		for _, p := range []PolicyVerb{
			PolicyPassthru, PolicyNXDOMAIN, PolicyNODATA, PolicyRecord,
			PolicyWildcardCNAME, PolicyDisabled, PolicyGiven,
		} {
			s := Type2Str(p)
			parsed, ok := Str2Policy(s)
			Expect(ok).Should(BeTrue())
			Expect(parsed).Should(Equal(p))
		}
	})

	It("reports not-ok for an unknown string", func() {
		_, ok := Str2Policy("NOT_A_POLICY")
		Expect(ok).Should(BeFalse())
	})
})
