package evt

import (
	"github.com/asaskevich/EventBus"
)

const (
	// TriggerAdded fires when a trigger is added for a zone. Parameters:
	// zone number, trigger type.
	TriggerAdded = "rpz:triggerAdded"

	// TriggerDeleted fires when a trigger is removed for a zone.
	// Parameters: zone number, trigger type.
	TriggerDeleted = "rpz:triggerDeleted"

	// HaveSummaryChanged fires when a trigger kind transitions between
	// "no zone has any" and "at least one zone has one", or back.
	// Parameters: trigger type, new state (bool).
	HaveSummaryChanged = "rpz:haveSummaryChanged"

	// ZoneReloaded fires when a zone's staging index is swapped in by
	// Ready. Parameters: zone number, reload duration.
	ZoneReloaded = "rpz:zoneReloaded"

	// InvariantViolated fires if an internal consistency check fails.
	// Parameter: description string.
	InvariantViolated = "rpz:invariantViolated"

	// ApplicationStarted fires on start of the application. Parameter:
	// version number, build time.
	ApplicationStarted = "application:started"
)

// nolint
var evtBus = EventBus.New()

// Bus returns the global bus instance
func Bus() EventBus.Bus {
	return evtBus
}
