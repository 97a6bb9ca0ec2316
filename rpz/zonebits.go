package rpz

import "math/bits"

// MaxZones bounds how many policy zones a single Index can track. It is
// compile-time fixed rather than configurable: ZoneBits is a uint64 bit
// vector and every zone number must fit in it.
const MaxZones = 64

// ZoneNum identifies a policy zone by its load order, 0 being the
// highest-precedence zone. Lower numbers win when more than one zone
// triggers for the same query.
type ZoneNum uint8

// ZoneBits is a bit vector over zone numbers: bit n set means zone n is
// a member of the set. It backs both the "which zones trigger here" and
// "which zones have any trigger of this kind" (have-summary) uses.
type ZoneBits uint64

// Bit returns the singleton ZoneBits with only z's bit set.
func Bit(z ZoneNum) ZoneBits {
	return ZoneBits(1) << ZoneBits(z)
}

// ZonePair carries the two independent bit vectors a CIDR or name node
// needs: D for QNAME (name tree) or IP (CIDR tree) trigger membership,
// and NS for NSDNAME (name tree) or NSIP (CIDR tree) trigger
// membership. A node's effective trigger set for a lookup is whichever
// of these the caller asks for, intersected with the query's mask.
type ZonePair struct {
	D  ZoneBits
	NS ZoneBits
}

// IsZero reports whether the pair carries no membership at all.
func (p ZonePair) IsZero() bool {
	return p.D == 0 && p.NS == 0
}

// Union returns the pair with each field OR-ed together.
func (p ZonePair) Union(o ZonePair) ZonePair {
	return ZonePair{D: p.D | o.D, NS: p.NS | o.NS}
}

// AndNot clears every bit o sets, in both fields. Used when re-deriving
// a subtree's summary pair with one zone's contribution masked out
// during a reload copy (rpz.c's `pair & ~bit(zone)` pattern).
func (p ZonePair) AndNot(o ZonePair) ZonePair {
	return ZonePair{D: p.D &^ o.D, NS: p.NS &^ o.NS}
}

// ZBitToNum returns the lowest-numbered zone set in bits and whether any
// bit was set at all. This implements the "lowest zone number wins"
// precedence rule: callers intersect a found pair's bits with the
// query's active-zone mask, then take the lowest surviving zone.
func ZBitToNum(b ZoneBits) (zone ZoneNum, ok bool) {
	if b == 0 {
		return 0, false
	}

	return ZoneNum(bits.TrailingZeros64(uint64(b))), true
}

// MaskUpTo returns a ZoneBits with bits [0,n) set: every zone numbered
// below n. CIDRTree.Find and the qname skip-recurse mask use it.
func MaskUpTo(n ZoneNum) ZoneBits {
	if n == 0 {
		return 0
	}

	if n >= MaxZones {
		return ^ZoneBits(0)
	}

	return ZoneBits(1)<<ZoneBits(n) - 1
}

// TrimZBits clears from cur every bit not present in keep. A node whose
// summary trims to zero carries no surviving trigger and its subtree's
// contribution to an ancestor's summary can be dropped.
func TrimZBits(cur, keep ZoneBits) ZoneBits {
	return cur & keep
}
