package rpz

import (
	"fmt"
	"time"

	"github.com/0xERR0R/rpzindex/evt"
	"github.com/0xERR0R/rpzindex/instanceid"
	"github.com/hako/durafmt"
)

// Staging is an in-progress reload of one zone's triggers, created by
// Index.BeginLoad and committed with Index.Ready. It holds its own
// copy of the search structures so a reload never mutates the live
// index a concurrent lookup might be reading, matching spec.md §4.5.
type Staging struct {
	id        instanceid.InstanceID
	zone      ZoneNum
	origin    string
	firstLoad bool
	started   time.Time

	cidr  *CIDRTree
	names *NameTree

	counters *counterSet
}

// BeginLoad starts a reload of zone z against the given origin name.
// The staging index always starts as a full copy of every *other*
// zone's current entries (this zone's own old entries are left out,
// since the caller is about to supply its full replacement set), so
// that Ready can swap it in as the new live tree in one atomic step
// without a window where some zones' triggers are briefly missing. A
// zone's first load takes the same copying path; there is no separate
// path that loads straight into the live index.
func (idx *Index) BeginLoad(z ZoneNum, origin string) *Staging {
	idx.maintLock.Lock()
	defer idx.maintLock.Unlock()

	st := &Staging{
		id:       instanceid.NewInstanceID(),
		zone:     z,
		origin:   origin,
		started:  time.Now(),
		cidr:     NewCIDRTree(),
		names:    NewNameTree(),
		counters: newCounterSet(),
	}

	idx.searchLock.RLock()
	defer idx.searchLock.RUnlock()

	_, firstLoad := idx.counters.zones[z]
	st.firstLoad = !firstLoad

	st.counters.setQnameWaitRecurse(idx.counters.qnameWaitRecurse())

	// Either way the staging tree must contain every other zone's
	// current entries before Ready can swap it in as the new live
	// tree: on a first load this is simply "everything", since z
	// contributed nothing yet.
	idx.copyOtherZonesInto(st, z)

	return st
}

// copyOtherZonesInto walks the live trees and re-adds every trigger not
// owned by `exclude` into st, masking that zone's own bit out of any
// node it might otherwise have contributed to (rpz.c's
// `search(create=true, pair & ~bit(zone))` pattern during
// dns_rpz_ready's full reload copy).
func (idx *Index) copyOtherZonesInto(st *Staging, exclude ZoneNum) {
	idx.cidr.Walk(func(key IpKey, prefix Prefix, kind TriggerType, z ZoneNum) {
		if z == exclude {
			return
		}

		st.cidr.Add(key, prefix, kind, z)
		st.counters.adjust(z, kind, 1)
	})

	idx.names.Walk(func(name string, wildcard bool, kind TriggerType, z ZoneNum) {
		if z == exclude {
			return
		}

		owner := name
		if wildcard {
			owner = "*." + name
		}

		st.names.Add(kind, owner, z)
		st.counters.adjust(z, kind, 1)
	})
}

// Add records a trigger for the zone being staged, given its canonical
// owner name.
func (st *Staging) Add(owner string) error {
	kind, key, prefix, name, err := ParseOwnerName(owner)
	if err != nil {
		return fmt.Errorf("zone %d: %w", st.zone, err)
	}

	switch kind {
	case TriggerIP, TriggerNSIP:
		st.cidr.Add(key, prefix, kind, st.zone)
	default:
		st.names.Add(kind, name, st.zone)
	}

	st.counters.adjust(st.zone, kind, 1)

	return nil
}

// Ready commits a staging reload: the live index's search trees and
// counters are atomically replaced by the staging copy, under an
// exclusive hold of searchLock (the only point a concurrent lookup can
// ever observe a partially-updated tree, and even then only for the
// duration of pointer reassignment, not a tree walk).
func (idx *Index) Ready(st *Staging) {
	idx.maintLock.Lock()
	defer idx.maintLock.Unlock()

	st.counters.setOrigin(st.zone, st.origin)

	idx.searchLock.Lock()
	idx.cidr = st.cidr
	idx.names = st.names
	idx.counters = st.counters
	idx.searchLock.Unlock()

	elapsed := time.Since(st.started)

	idx.log.Infof(
		"zone %d (%s) reloaded from staging index %s in %s",
		st.zone, st.origin, st.id, durafmt.Parse(elapsed),
	)

	evt.Bus().Publish(evt.ZoneReloaded, st.zone, elapsed)
}
