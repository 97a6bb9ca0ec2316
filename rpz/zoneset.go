package rpz

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/0xERR0R/rpzindex/evt"
	"github.com/0xERR0R/rpzindex/instanceid"
	"github.com/0xERR0R/rpzindex/log"
	"github.com/sirupsen/logrus"
)

// Index is the zone-set container of spec.md §3/§6: it owns the CIDR
// tree, the name summary tree, and the per-zone counters, and exposes
// the full external surface (Add/Delete/FindIP/FindName plus the
// reload protocol in reload.go).
//
// Two locks guard it, matching spec.md §5: maintLock serializes
// structural mutation (Add/Delete/BeginLoad/Ready) and counter updates;
// searchLock is a RWMutex held for reading during FindIP/FindName and
// taken exclusively by Add/Delete and for the tree-root swap in Ready,
// so a lookup waits only while one of those holds it; a reload's
// staging build does not block lookups.
type Index struct {
	id instanceid.InstanceID

	maintLock sync.Mutex
	counters  *counterSet

	searchLock sync.RWMutex
	cidr       *CIDRTree
	names      *NameTree

	refs int32

	log *logrus.Entry
}

// NewIndex builds an empty index, ready for Add/Delete and lookups.
// A freshly built index starts with a reference count of 1, held by
// the caller; call Detach when done with it.
func NewIndex() *Index {
	idx := &Index{
		id:       instanceid.NewInstanceID(),
		counters: newCounterSet(),
		cidr:     NewCIDRTree(),
		names:    NewNameTree(),
		refs:     1,
		log:      log.PrefixedLog("rpz"),
	}

	return idx
}

// Attach increments the reference count, matching rpz.c's
// dns_rpz_attach_rpzs: callers that hand the same *Index to multiple
// concurrent consumers (e.g. per-query resolver goroutines) must Attach
// before handing out a reference and Detach when that consumer is done,
// so the index is torn down only once every holder has released it.
func (idx *Index) Attach() {
	atomic.AddInt32(&idx.refs, 1)
}

// Detach decrements the reference count. It is a no-op beyond the
// decrement: unlike rpz.c, this index has no external resources to
// free on last release (no file descriptors, no C heap), but the count
// remains available via RefCount for callers that want to assert
// teardown ordering in tests.
func (idx *Index) Detach() {
	atomic.AddInt32(&idx.refs, -1)
}

// RefCount returns the current reference count.
func (idx *Index) RefCount() int32 {
	return atomic.LoadInt32(&idx.refs)
}

// Add inserts a trigger for zone z, given its canonical owner name
// (relative to the zone apex). It dispatches to the CIDR tree or name
// tree based on what ParseOwnerName decodes from owner.
func (idx *Index) Add(z ZoneNum, owner string) error {
	kind, key, prefix, name, err := ParseOwnerName(owner)
	if err != nil {
		return fmt.Errorf("zone %d: %w", z, err)
	}

	idx.maintLock.Lock()
	defer idx.maintLock.Unlock()

	idx.searchLock.Lock()
	defer idx.searchLock.Unlock()

	switch kind {
	case TriggerIP, TriggerNSIP:
		idx.cidr.Add(key, prefix, kind, z)
	default:
		idx.names.Add(kind, name, z)
	}

	idx.counters.adjust(z, kind, 1)

	return nil
}

// Delete removes a trigger for zone z.
func (idx *Index) Delete(z ZoneNum, owner string) error {
	kind, key, prefix, name, err := ParseOwnerName(owner)
	if err != nil {
		return fmt.Errorf("zone %d: %w", z, err)
	}

	idx.maintLock.Lock()
	defer idx.maintLock.Unlock()

	idx.searchLock.Lock()
	defer idx.searchLock.Unlock()

	switch kind {
	case TriggerIP, TriggerNSIP:
		idx.cidr.Delete(key, prefix, kind, z)
	default:
		idx.names.Delete(kind, name, z)
	}

	idx.counters.adjust(z, kind, -1)

	return nil
}

// FindResult reports the winning zone for a lookup, if any.
type FindResult struct {
	Zone  ZoneNum
	Found bool
}

// FindIP looks up ip against the IP (kind=TriggerIP) or NSIP
// (kind=TriggerNSIP) trigger plane, restricted to the zones set in
// active (callers pass a mask of currently-enabled zones; pass ^0 for
// "all zones").
func (idx *Index) FindIP(ip net.IP, kind TriggerType, active ZoneBits) FindResult {
	if kind != TriggerIP && kind != TriggerNSIP {
		return FindResult{}
	}

	if kind == TriggerIP && !idx.counters.hasAny(TriggerIP) {
		return FindResult{}
	}

	if kind == TriggerNSIP && !idx.counters.hasAny(TriggerNSIP) {
		return FindResult{}
	}

	key, _, err := NewIPKey(ip)
	if err != nil {
		return FindResult{}
	}

	idx.searchLock.RLock()
	bits := idx.cidr.Find(key, kind, active)
	idx.searchLock.RUnlock()

	z, ok := ZBitToNum(bits)

	return FindResult{Zone: z, Found: ok}
}

// FindName looks up name against the QNAME or NSDNAME trigger plane.
// Callers should consult SkipRecurseMask first (spec.md I3) to avoid
// recursing into a resolution whose result no eligible zone could act
// on.
func (idx *Index) FindName(name string, kind TriggerType, active ZoneBits) FindResult {
	if kind != TriggerQNAME && kind != TriggerNSDNAME {
		return FindResult{}
	}

	if !idx.counters.hasAny(kind) {
		return FindResult{}
	}

	idx.searchLock.RLock()
	bits := idx.names.Find(kind, name)
	idx.searchLock.RUnlock()

	bits = TrimZBits(bits, active)

	z, ok := ZBitToNum(bits)

	return FindResult{Zone: z, Found: ok}
}

// SkipRecurseMask returns the qname_skip_recurse have-summary of
// spec.md's invariant I3: 0 under wait-for-recursion; otherwise every
// zone numbered below the lowest zone that has an IP/NSIP/NSDNAME
// trigger (all zones when none has one). No zone in the mask is
// outranked by a zone whose triggers need recursion to evaluate.
func (idx *Index) SkipRecurseMask() ZoneBits {
	return idx.counters.qnameSkipRecurseMask()
}

// SkipRecurse reports whether SkipRecurseMask covers every zone, i.e.
// no loaded zone has any IP/NSIP/NSDNAME trigger and the admin has not
// requested wait-for-recursion.
func (idx *Index) SkipRecurse() bool {
	return idx.counters.qnameSkipRecurseMask() == ^ZoneBits(0)
}

// SetQnameWaitRecurse wires the admin's wait-for-recursion toggle
// (config.Config.QnameWaitRecurse) into the have-summary.
func (idx *Index) SetQnameWaitRecurse(wait bool) {
	idx.counters.setQnameWaitRecurse(wait)
}

// ZoneDesc returns a snapshot of zone z's trigger counters, or false if
// the zone has never had a trigger added.
func (idx *Index) ZoneDesc(z ZoneNum) (ZoneDesc, bool) {
	idx.counters.mu.Lock()
	defer idx.counters.mu.Unlock()

	zd, ok := idx.counters.zones[z]
	if !ok {
		return ZoneDesc{}, false
	}

	return *zd, true
}

// Status is a snapshot of the index's cross-zone have-summary and
// every loaded zone's trigger counts, the shape the admin status
// endpoint reports.
type Status struct {
	Have  map[string]bool
	Zones []ZoneDesc
}

// Status returns a consistent snapshot of the index's current
// have-summary and per-zone counters.
func (idx *Index) Status() Status {
	idx.counters.mu.Lock()
	defer idx.counters.mu.Unlock()

	have := make(map[string]bool, haveKindCount)
	for k := haveKind(0); k < haveKindCount; k++ {
		have[k.String()] = idx.counters.have[k] > 0
	}

	zones := make([]ZoneDesc, 0, len(idx.counters.zones))
	for _, zd := range idx.counters.zones {
		zones = append(zones, *zd)
	}

	sort.Slice(zones, func(i, j int) bool { return zones[i].Num < zones[j].Num })

	return Status{Have: have, Zones: zones}
}

// ID returns the index's instance identifier, logged by Ready to
// correlate a reload's staging container across log lines.
func (idx *Index) ID() instanceid.InstanceID {
	return idx.id
}

func invariantViolation(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	evt.Bus().Publish(evt.InvariantViolated, msg)

	return fmt.Errorf("%w: %s", ErrInternalInvariantViolated, msg)
}
