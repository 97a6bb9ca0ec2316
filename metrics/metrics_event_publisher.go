package metrics

import (
	"fmt"
	"time"

	"github.com/0xERR0R/rpzindex/evt"
	"github.com/0xERR0R/rpzindex/rpz"
	"github.com/0xERR0R/rpzindex/util"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterEventListeners registers every metric handler on the event
// bus, grounded on blocky's own registerXEventListeners split per
// subsystem.
func RegisterEventListeners() {
	registerTriggerEventListeners()
	registerReloadEventListeners()
}

func registerTriggerEventListeners() {
	adjCnt := adjTriggerCountVec()
	haveGauge := haveSummaryGauge()

	RegisterMetric(adjCnt)
	RegisterMetric(haveGauge)

	subscribe(evt.TriggerAdded, func(z rpz.ZoneNum, kind rpz.TriggerType) {
		adjCnt.WithLabelValues(fmt.Sprint(z), kind.String(), "added").Inc()
	})

	subscribe(evt.TriggerDeleted, func(z rpz.ZoneNum, kind rpz.TriggerType) {
		adjCnt.WithLabelValues(fmt.Sprint(z), kind.String(), "deleted").Inc()
	})

	subscribe(evt.HaveSummaryChanged, func(kind rpz.TriggerType, state bool) {
		v := 0.0
		if state {
			v = 1
		}

		haveGauge.WithLabelValues(kind.String()).Set(v)
	})
}

func adjTriggerCountVec() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpzindex_adj_trigger_count",
			Help: "Number of trigger add/delete transitions per zone and kind",
		}, []string{"zone", "kind", "op"},
	)
}

func haveSummaryGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rpzindex_have_summary",
			Help: "Whether any loaded zone currently contributes a trigger of this kind",
		}, []string{"kind"},
	)
}

func registerReloadEventListeners() {
	reloadDuration := reloadDurationHistogram()

	RegisterMetric(reloadDuration)

	subscribe(evt.ZoneReloaded, func(_ rpz.ZoneNum, elapsed time.Duration) {
		reloadDuration.Observe(elapsed.Seconds())
	})
}

func reloadDurationHistogram() prometheus.Histogram {
	return prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rpzindex_reload_duration_seconds",
			Help:    "Duration of a zone reload from BeginLoad to Ready",
			Buckets: prometheus.DefBuckets,
		},
	)
}

func subscribe(topic string, fn interface{}) {
	util.FatalOnError(fmt.Sprintf("can't subscribe topic '%s'", topic), evt.Bus().Subscribe(topic, fn))
}
