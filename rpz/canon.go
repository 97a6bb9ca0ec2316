package rpz

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hashicorp/golang-lru"
	"github.com/miekg/dns"
)

// TriggerType classifies which structure an owner name's trigger lives
// in and what it matches against at lookup time.
type TriggerType int

const (
	// TriggerQNAME matches the name being queried.
	TriggerQNAME TriggerType = iota
	// TriggerNSDNAME matches the name of an authoritative nameserver.
	TriggerNSDNAME
	// TriggerIP matches a response IP address, via the CIDR tree.
	TriggerIP
	// TriggerNSIP matches an authoritative nameserver's IP address, via
	// the same CIDR tree as TriggerIP with a separate bit plane.
	TriggerNSIP
)

func (t TriggerType) String() string {
	switch t {
	case TriggerQNAME:
		return "QNAME"
	case TriggerNSDNAME:
		return "NSDNAME"
	case TriggerIP:
		return "IP"
	case TriggerNSIP:
		return "NSIP"
	default:
		return "UNKNOWN"
	}
}

// Special labels that mark the policy-carrying prefix of an RPZ owner
// name, mirroring rpz.c's dns_rpz_ip/dns_rpz_nsdname/dns_rpz_nsip zone
// label constants.
const (
	labelIP      = "rpz-ip"
	labelNSDNAME = "rpz-nsdname"
	labelNSIP    = "rpz-nsip"
)

// ipNameCache memoizes ParseOwnerName for IP/NSIP triggers, since the
// parse-then-encode round trip check it performs is pure and repeated
// for every hot owner name during bulk zone loads.
//
//nolint:gochecknoglobals
var ipNameCache = mustNewARC(4096)

func mustNewARC(size int) *lru.ARCCache {
	c, err := lru.NewARC(size)
	if err != nil {
		panic(fmt.Sprintf("rpz: building canonicalizer cache: %v", err))
	}

	return c
}

type ipNameResult struct {
	kind   TriggerType
	key    IpKey
	prefix Prefix
	err    error
}

// ParseOwnerName classifies owner (a fully-qualified name relative to
// the zone apex) and, for IP/NSIP triggers, decodes the address it
// encodes. For QNAME/NSDNAME triggers, name is owner's domain-name part
// with the policy label removed, ready for insertion into the name
// summary tree.
func ParseOwnerName(owner string) (kind TriggerType, key IpKey, prefix Prefix, name string, err error) {
	labels := dns.SplitDomainName(owner)
	if len(labels) == 0 {
		return 0, IpKey{}, 0, "", fmt.Errorf("%w: empty owner name", ErrBadOwnerFormat)
	}

	// The policy label, when present, is the first label after the
	// address/name portion -- i.e. the *last* label of owner before the
	// zone apex, since dns.SplitDomainName returns labels left-to-right
	// and RPZ triggers are written "<address-or-name>.<policy-label>".
	last := labels[len(labels)-1]

	switch last {
	case labelIP, labelNSIP:
		t := TriggerIP
		if last == labelNSIP {
			t = TriggerNSIP
		}

		k, p, perr := parseIPOwner(labels[:len(labels)-1])
		if perr != nil {
			return 0, IpKey{}, 0, "", perr
		}

		return t, k, p, "", nil

	case labelNSDNAME:
		return TriggerNSDNAME, IpKey{}, 0, dns.Fqdn(joinLabels(labels[:len(labels)-1])), nil

	default:
		return TriggerQNAME, IpKey{}, 0, dns.Fqdn(owner), nil
	}
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ".")
}

// parseIPOwner decodes the canonical "<prefix>.<address labels>" form
// used by both rpz-ip and rpz-nsip triggers. addrLabels is in owner
// order (leftmost label first), e.g. ["32", "4", "3", "2", "1"]
// for prefix 32 over 1.2.3.4.
func parseIPOwner(addrLabels []string) (IpKey, Prefix, error) {
	cacheKey := strings.Join(addrLabels, ".")

	if v, ok := ipNameCache.Get(cacheKey); ok {
		r := v.(ipNameResult)
		return r.key, r.prefix, r.err
	}

	key, prefix, err := decodeIPOwner(addrLabels)

	ipNameCache.Add(cacheKey, ipNameResult{key: key, prefix: prefix, err: err})

	return key, prefix, err
}

func decodeIPOwner(addrLabels []string) (IpKey, Prefix, error) {
	if len(addrLabels) < 2 {
		return IpKey{}, 0, fmt.Errorf("%w: address owner too short", ErrBadOwnerFormat)
	}

	plen, err := strconv.Atoi(addrLabels[0])
	if err != nil || plen < 0 || plen > 128 {
		return IpKey{}, 0, fmt.Errorf("%w: invalid prefix length %q", ErrBadOwnerFormat, addrLabels[0])
	}

	addrPart := addrLabels[1:]

	var (
		ip  net.IP
		off int
	)

	if len(addrPart) <= 4 && !containsColonForm(addrPart) {
		ip, err = decodeIPv4Labels(addrPart)
		off = v4MappedPrefixOffset
	} else {
		ip, err = decodeIPv6Labels(addrPart)
		off = 0
	}

	if err != nil {
		return IpKey{}, 0, err
	}

	key, natPrefix, kerr := NewIPKey(ip)
	if kerr != nil {
		return IpKey{}, 0, kerr
	}

	prefix := Prefix(off + plen)
	if prefix > natPrefix {
		return IpKey{}, 0, fmt.Errorf("%w: prefix length exceeds address width", ErrBadOwnerFormat)
	}

	// Round trip: re-encode and require it to match what we parsed.
	// This is rpz.c's badname() check -- canonical form must be unique.
	reencoded, rerr := EncodeOwnerName(TriggerIP, key, prefix)
	if rerr != nil {
		return IpKey{}, 0, rerr
	}

	if canonAddrPortion(reencoded) != joinLabels(append([]string{addrLabels[0]}, addrPart...)) {
		return IpKey{}, 0, fmt.Errorf("%w: %q is not canonical", ErrBadOwnerFormat, joinLabels(addrPart))
	}

	return key, prefix, nil
}

func canonAddrPortion(owner string) string {
	labels := dns.SplitDomainName(owner)
	return joinLabels(labels[:len(labels)-1])
}

func containsColonForm(labels []string) bool {
	for _, l := range labels {
		if l == "zz" {
			return true
		}

		if n, err := strconv.ParseUint(l, 16, 16); err != nil || n > 0xffff || len(l) > 4 {
			return true
		}
	}

	return false
}

func decodeIPv4Labels(labels []string) (net.IP, error) {
	if len(labels) != 4 {
		return nil, fmt.Errorf("%w: IPv4 owner needs 4 labels, got %d", ErrBadOwnerFormat, len(labels))
	}

	b := make([]byte, 4)

	for i := 0; i < 4; i++ {
		// Canonical form lists octets least-significant first as
		// "d.c.b.a" for address a.b.c.d, i.e. reversed relative to
		// dotted-decimal notation.
		v, err := strconv.Atoi(labels[i])
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: invalid IPv4 octet %q", ErrBadOwnerFormat, labels[i])
		}

		b[3-i] = byte(v)
	}

	return net.IP(b), nil
}

// decodeIPv6Labels parses the canonical reversed-hextet form: reading
// the owner's address labels left to right gives the address's 8
// hextets from last to first (the label closest to the policy suffix
// is the address's first hextet), mirroring the IPv4 d.c.b.a
// convention. One "zz" label is permitted standing in for the single
// longest run of zero hextets.
func decodeIPv6Labels(labels []string) (net.IP, error) {
	zzCount := 0
	zzIdx := -1

	for i, l := range labels {
		if l == "zz" {
			zzCount++
			zzIdx = i
		}
	}

	if zzCount > 1 {
		return nil, fmt.Errorf("%w: more than one zz run", ErrBadOwnerFormat)
	}

	words := make([]uint16, 0, 8)

	if zzIdx == -1 {
		if len(labels) != 8 {
			return nil, fmt.Errorf("%w: IPv6 owner needs 8 words without zz, got %d", ErrBadOwnerFormat, len(labels))
		}

		for _, l := range labels {
			w, err := parseHexWord(l)
			if err != nil {
				return nil, err
			}

			words = append(words, w)
		}
	} else {
		before := labels[:zzIdx]
		after := labels[zzIdx+1:]

		fill := 8 - len(before) - len(after)
		if fill < 1 {
			return nil, fmt.Errorf("%w: zz does not abbreviate any words", ErrBadOwnerFormat)
		}

		for _, l := range before {
			w, err := parseHexWord(l)
			if err != nil {
				return nil, err
			}

			words = append(words, w)
		}

		for i := 0; i < fill; i++ {
			words = append(words, 0)
		}

		for _, l := range after {
			w, err := parseHexWord(l)
			if err != nil {
				return nil, err
			}

			words = append(words, w)
		}
	}

	// words is in left-to-right label order; the address's hextets
	// run in the opposite order (last label = first hextet).
	ip := make(net.IP, 16)
	for i := 0; i < 8; i++ {
		w := words[7-i]
		ip[i*2] = byte(w >> 8)
		ip[i*2+1] = byte(w)
	}

	return ip, nil
}

func parseHexWord(l string) (uint16, error) {
	n, err := strconv.ParseUint(l, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid IPv6 word %q", ErrBadOwnerFormat, l)
	}

	return uint16(n), nil
}

// EncodeOwnerName builds the canonical owner name for a trigger. For
// TriggerQNAME/TriggerNSDNAME, key/prefix are ignored and name must be
// set by the caller via a separate path (the name summary tree stores
// names directly); this function only handles the address forms.
func EncodeOwnerName(kind TriggerType, key IpKey, prefix Prefix) (string, error) {
	var label string

	switch kind {
	case TriggerIP:
		label = labelIP
	case TriggerNSIP:
		label = labelNSIP
	default:
		return "", fmt.Errorf("%w: EncodeOwnerName only handles address triggers", ErrInternalInvariantViolated)
	}

	if prefix.IsIPv4() && key[0] == 0 && key[1] == 0 && key[2] == 0x0000ffff {
		plen := int(prefix) - v4MappedPrefixOffset

		// key[3] holds the address as o0<<24|o1<<16|o2<<8|o3 for address
		// "o0.o1.o2.o3". Canonical owner form lists the octet labels
		// reversed: prefix.o3.o2.o1.o0.
		o0 := byte(key[3] >> 24)
		o1 := byte(key[3] >> 16)
		o2 := byte(key[3] >> 8)
		o3 := byte(key[3])

		return fmt.Sprintf("%d.%d.%d.%d.%d.%s", plen, o3, o2, o1, o0, label), nil
	}

	words := [8]uint16{
		uint16(key[0] >> 16), uint16(key[0]),
		uint16(key[1] >> 16), uint16(key[1]),
		uint16(key[2] >> 16), uint16(key[2]),
		uint16(key[3] >> 16), uint16(key[3]),
	}

	zeroStart, zeroLen := longestZeroRun(words[:])
	zeroEnd := zeroStart + zeroLen - 1 // inclusive, in word-index terms

	var parts []string

	parts = append(parts, strconv.Itoa(int(prefix)))

	for i := 7; i >= 0; i-- {
		if zeroLen >= 2 && i <= zeroEnd && i >= zeroStart {
			parts = append(parts, "zz")
			i = zeroStart // loop decrement moves past the whole run

			continue
		}

		parts = append(parts, strconv.FormatUint(uint64(words[i]), 16))
	}

	return strings.Join(parts, ".") + "." + label, nil
}

// longestZeroRun finds the longest run of zero-valued words, returning
// its start index and length (length 0 if no run of length >= 2 exists).
func longestZeroRun(words []uint16) (start, length int) {
	bestStart, bestLen := -1, 0
	curStart, curLen := -1, 0

	for i, w := range words {
		if w == 0 {
			if curLen == 0 {
				curStart = i
			}

			curLen++

			if curLen > bestLen {
				bestStart, bestLen = curStart, curLen
			}
		} else {
			curLen = 0
		}
	}

	if bestLen < 2 {
		return -1, 0
	}

	return bestStart, bestLen
}
