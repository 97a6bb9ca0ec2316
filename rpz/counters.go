package rpz

import (
	"sync"

	"github.com/0xERR0R/rpzindex/evt"
)

// haveKind enumerates the four trigger kinds the have-summary tracks
// independently of which zone contributed them.
type haveKind int

const (
	haveQNAME haveKind = iota
	haveNSDNAME
	haveIP
	haveNSIP
	haveKindCount
)

func haveKindOf(t TriggerType) haveKind {
	switch t {
	case TriggerQNAME:
		return haveQNAME
	case TriggerNSDNAME:
		return haveNSDNAME
	case TriggerIP:
		return haveIP
	case TriggerNSIP:
		return haveNSIP
	default:
		return haveQNAME
	}
}

func (k haveKind) String() string {
	switch k {
	case haveQNAME:
		return "QNAME"
	case haveNSDNAME:
		return "NSDNAME"
	case haveIP:
		return "IP"
	case haveNSIP:
		return "NSIP"
	default:
		return "UNKNOWN"
	}
}

// ZoneDesc holds the per-zone trigger counts the index maintains
// alongside the search structures, one per loaded zone.
type ZoneDesc struct {
	Num    ZoneNum
	Origin string
	counts [haveKindCount]int
}

// Counts returns a snapshot of this zone's per-kind trigger counts.
func (z *ZoneDesc) Counts() map[string]int {
	out := make(map[string]int, haveKindCount)
	for k := haveKind(0); k < haveKindCount; k++ {
		out[k.String()] = z.counts[k]
	}

	return out
}

// counterSet tracks per-zone trigger counts and the cross-zone
// have-summary: for each kind, whether *any* loaded zone currently has
// at least one trigger of that kind, and which zones those are. This
// lets a resolver short-circuit work (e.g. skip a QNAME lookup
// entirely) when no zone could possibly match, per spec.md's invariant
// I3 (fix_qname_skip_recurse in rpz.c).
type counterSet struct {
	mu sync.Mutex

	zones map[ZoneNum]*ZoneDesc
	have  [haveKindCount]int      // number of zones currently contributing this kind
	whose [haveKindCount]ZoneBits // which zones currently contribute this kind

	// waitRecurse mirrors config.Config.QnameWaitRecurse: when set, the
	// admin has asked that qname_skip_recurse never skip recursion.
	waitRecurse bool
}

func newCounterSet() *counterSet {
	return &counterSet{zones: make(map[ZoneNum]*ZoneDesc)}
}

// setOrigin records the zone's origin name, called once a Staging
// commits so the ZoneDesc snapshot the status API reads carries it.
func (c *counterSet) setOrigin(z ZoneNum, origin string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	zd, ok := c.zones[z]
	if !ok {
		zd = &ZoneDesc{Num: z}
		c.zones[z] = zd
	}

	zd.Origin = origin
}

// adjust applies delta (+1 on Add, -1 on Delete) to zone z's count of
// kind, toggling and publishing the have-summary bit on a 0<->1
// transition (rpz.c's adj_trigger_cnt).
func (c *counterSet) adjust(z ZoneNum, kind TriggerType, delta int) {
	k := haveKindOf(kind)

	c.mu.Lock()

	zd := c.zones[z]
	if zd == nil {
		zd = &ZoneDesc{Num: z}
		c.zones[z] = zd
	}

	before := zd.counts[k]
	zd.counts[k] += delta

	if zd.counts[k] < 0 {
		zd.counts[k] = 0
	}

	after := zd.counts[k]

	haveBefore := c.have[k]

	switch {
	case before == 0 && after > 0:
		c.have[k]++
		c.whose[k] |= Bit(z)
	case before > 0 && after == 0:
		c.have[k]--
		c.whose[k] &^= Bit(z)
	}

	haveAfter := c.have[k]

	c.mu.Unlock()

	if delta > 0 {
		evt.Bus().Publish(evt.TriggerAdded, z, kind)
	} else if delta < 0 {
		evt.Bus().Publish(evt.TriggerDeleted, z, kind)
	}

	if (haveBefore == 0) != (haveAfter == 0) {
		evt.Bus().Publish(evt.HaveSummaryChanged, kind, haveAfter > 0)
	}
}

// hasAny reports whether any loaded zone currently has a trigger of kind.
func (c *counterSet) hasAny(kind TriggerType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.have[haveKindOf(kind)] > 0
}

// setQnameWaitRecurse wires the admin's wait-for-recursion toggle
// (config.Config.QnameWaitRecurse) into the have-summary.
func (c *counterSet) setQnameWaitRecurse(wait bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waitRecurse = wait
}

// qnameWaitRecurse reports the current admin toggle, so a reload's
// staging counterSet can carry it forward rather than reset to false.
func (c *counterSet) qnameWaitRecurse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.waitRecurse
}

// qnameSkipRecurseMask implements spec.md's invariant I3: 0 if the
// admin requested wait-for-recursion; otherwise, if any zone has an
// IP/NSIP/NSDNAME trigger, mask_up_to(lowest_such_zone) -- those zones
// outrank every zone whose triggers need recursion to evaluate, so
// recursion can be skipped for them; with no such zone, skippable
// everywhere (all-ones).
func (c *counterSet) qnameSkipRecurseMask() ZoneBits {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.waitRecurse {
		return 0
	}

	triggering := c.whose[haveIP] | c.whose[haveNSIP] | c.whose[haveNSDNAME]

	lowest, ok := ZBitToNum(triggering)
	if !ok {
		return ^ZoneBits(0)
	}

	return MaskUpTo(lowest)
}
