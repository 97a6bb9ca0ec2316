package rpz

import (
	"strings"

	"github.com/0xERR0R/rpzindex/trie"
)

// nameEntry is the payload stored per node of the name summary tree.
// pair is the zone membership for an exact (non-wildcard) owner at this
// name; wild is the zone membership contributed by a "*.<name>" owner,
// which matches every name below this one but not this name itself.
type nameEntry struct {
	pair ZonePair
	wild ZonePair
}

// NameTree is the name summary tree of spec.md §4.3: a generic label
// trie (trie.Trie) carrying ZonePair membership, split across QNAME and
// NSDNAME bit planes the same way the CIDR tree splits across IP/NSIP.
type NameTree struct {
	t *trie.Trie[nameEntry]
}

// NewNameTree builds an empty name summary tree.
func NewNameTree() *NameTree {
	return &NameTree{t: trie.NewTrie[nameEntry](trie.SplitTLD, trie.JoinTLD)}
}

// IsEmpty reports whether the tree holds no data.
func (nt *NameTree) IsEmpty() bool {
	return nt.t.IsEmpty()
}

// Add records zone z as triggering for owner under kind (QNAME or
// NSDNAME). A wildcard owner is written "*.example.com" and is stored
// against "example.com" with only the wild field touched, matching
// rpz.c's add_nm convention of treating a leading "*" label specially.
func (nt *NameTree) Add(kind TriggerType, owner string, z ZoneNum) {
	name, wildcard := splitWildcard(owner)

	data, _ := nt.t.GetOrCreate(name)

	bit := Bit(z)
	if wildcard {
		data.wild = setKind(data.wild, kind, bit)
	} else {
		data.pair = setKind(data.pair, kind, bit)
	}
}

// Delete removes zone z's membership for owner under kind, pruning the
// node if it becomes empty.
func (nt *NameTree) Delete(kind TriggerType, owner string, z ZoneNum) {
	name, wildcard := splitWildcard(owner)

	res := nt.t.Find(name)
	if !res.HasExact {
		return
	}

	data, _ := nt.t.GetOrCreate(name)

	bit := Bit(z)
	if wildcard {
		data.wild = clearKind(data.wild, kind, bit)
	} else {
		data.pair = clearKind(data.pair, kind, bit)
	}

	if data.pair.IsZero() && data.wild.IsZero() {
		nt.t.Delete(name)
	}
}

// Find performs the longest-suffix lookup rpz.c's dns_rpz_find_name
// does: an exact match contributes only its own pair, and every strict
// ancestor contributes only its wild field, since "*.ancestor" matches
// names below ancestor but not ancestor itself, and a wildcard owner at
// the queried name's own node matches only its descendants.
func (nt *NameTree) Find(kind TriggerType, name string) ZoneBits {
	res := nt.t.Find(name)

	var bits ZoneBits

	if res.HasExact {
		bits |= kindBits(res.Exact.pair, kind)
	}

	for _, anc := range res.Ancestors {
		bits |= kindBits(anc.wild, kind)
	}

	return bits
}

// Walk visits every stored name entry in deterministic order, used by
// the reload copy (reload.go) to rebuild a staging tree with one zone's
// contribution masked out.
func (nt *NameTree) Walk(fn func(name string, wildcard bool, kind TriggerType, z ZoneNum)) {
	nt.t.Walk(func(name string, e nameEntry) bool {
		if name != "" {
			name += "."
		}

		walkPair(name, false, e.pair, fn)
		walkPair(name, true, e.wild, fn)

		return true
	})
}

func walkPair(name string, wildcard bool, p ZonePair, fn func(string, bool, TriggerType, ZoneNum)) {
	forEachZone(p.D, func(z ZoneNum) { fn(name, wildcard, TriggerQNAME, z) })
	forEachZone(p.NS, func(z ZoneNum) { fn(name, wildcard, TriggerNSDNAME, z) })
}

func forEachZone(b ZoneBits, fn func(ZoneNum)) {
	for b != 0 {
		z, ok := ZBitToNum(b)
		if !ok {
			return
		}

		fn(z)
		b &^= Bit(z)
	}
}

func splitWildcard(owner string) (name string, wildcard bool) {
	if strings.HasPrefix(owner, "*.") {
		return strings.TrimPrefix(owner, "*."), true
	}

	if owner == "*" {
		return "", true
	}

	return owner, false
}

func setKind(p ZonePair, kind TriggerType, bit ZoneBits) ZonePair {
	switch kind {
	case TriggerNSDNAME, TriggerNSIP:
		p.NS |= bit
	default:
		p.D |= bit
	}

	return p
}

func clearKind(p ZonePair, kind TriggerType, bit ZoneBits) ZonePair {
	switch kind {
	case TriggerNSDNAME, TriggerNSIP:
		p.NS &^= bit
	default:
		p.D &^= bit
	}

	return p
}

func kindBits(p ZonePair, kind TriggerType) ZoneBits {
	if kind == TriggerNSDNAME || kind == TriggerNSIP {
		return p.NS
	}

	return p.D
}
