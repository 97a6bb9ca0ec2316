package rpz

import (
	"strings"

	"github.com/miekg/dns"
)

// PolicyVerb is the outcome DecodeCNAME reports for a policy rewrite
// record, mirroring rpz.c's dns_rpz_policy_t enum.
type PolicyVerb int

const (
	// PolicyError means the CNAME could not be classified.
	PolicyError PolicyVerb = iota
	// PolicyPassthru means the trigger matched but no rewrite applies.
	PolicyPassthru
	// PolicyNXDOMAIN means the query should be answered NXDOMAIN.
	PolicyNXDOMAIN
	// PolicyNODATA means the query should be answered with an empty,
	// non-error response.
	PolicyNODATA
	// PolicyRecord means the CNAME target is itself the answer to
	// return (a literal rewrite, not a further indirection).
	PolicyRecord
	// PolicyWildcardCNAME means the target is a wildcard CNAME whose
	// owner must be substituted for the query name before resolving it
	// further.
	PolicyWildcardCNAME
	// PolicyDisabled means the zone that owns this trigger is
	// currently disabled and should be treated as not matching.
	PolicyDisabled
	// PolicyGiven means "apply whatever policy the zone itself names"
	// -- the default when a zone specifies no override.
	PolicyGiven
	// PolicyCNAME means "rewrite the answer to the zone's CNAME target",
	// the verb an operator names with the "cname" policy token.
	PolicyCNAME
)

//nolint:gochecknoglobals
var policyNames = map[PolicyVerb]string{
	PolicyError:          "ERROR",
	PolicyPassthru:       "PASSTHRU",
	PolicyNXDOMAIN:       "NXDOMAIN",
	PolicyNODATA:         "NODATA",
	PolicyRecord:         "RECORD",
	PolicyWildcardCNAME:  "WILDCNAME",
	PolicyDisabled:       "DISABLED",
	PolicyGiven:          "GIVEN",
	PolicyCNAME:          "CNAME",
}

// Type2Str renders a PolicyVerb the way rpz.c's dns_rpz_type2str does,
// for log lines and the status API.
func Type2Str(p PolicyVerb) string {
	if s, ok := policyNames[p]; ok {
		return s
	}

	return "UNKNOWN"
}

// Str2Policy is the inverse of Type2Str, used to parse a policy
// override from configuration.
func Str2Policy(s string) (PolicyVerb, bool) {
	for p, name := range policyNames {
		if strings.EqualFold(name, s) {
			return p, true
		}
	}

	return PolicyError, false
}

// Policy2Str is an alias kept for symmetry with rpz.c's naming of a
// second, equivalent stringifier used in its log module; both call the
// same table here.
func Policy2Str(p PolicyVerb) string {
	return Type2Str(p)
}

// passthruSentinel is the reserved CNAME target that means "match the
// trigger but apply no rewrite", written "rpz-passthru." in a zone file.
const passthruSentinel = "rpz-passthru."

// DecodeCNAME classifies a CNAME record found at a matched trigger's
// owner, following rpz.c's dns_rpz_decode_cname: the shape of the
// target name (not the trigger) determines the policy to apply.
//
//   - target is the zone root (".")                    -> NXDOMAIN
//   - target is a 2-label wildcard ("*.<tld>")          -> NODATA
//   - target is a wildcard with more than 2 labels      -> WILDCNAME
//   - target is the passthru sentinel, or equals owner  -> PASSTHRU
//   - anything else                                     -> RECORD
func DecodeCNAME(owner string, cname *dns.CNAME) PolicyVerb {
	if cname == nil {
		return PolicyError
	}

	target := dns.Fqdn(cname.Target)

	if target == "." {
		return PolicyNXDOMAIN
	}

	if target == passthruSentinel || strings.EqualFold(target, dns.Fqdn(owner)) {
		return PolicyPassthru
	}

	labels := dns.SplitDomainName(target)
	if len(labels) > 0 && labels[0] == "*" {
		if len(labels) == 2 {
			return PolicyNODATA
		}

		return PolicyWildcardCNAME
	}

	return PolicyRecord
}
