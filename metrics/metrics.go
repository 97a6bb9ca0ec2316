package metrics

import (
	"net/http"

	"github.com/0xERR0R/rpzindex/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// nolint:gochecknoglobals
var reg = prometheus.NewRegistry()

// nolint:gochecknoglobals
var enabled bool

// RegisterMetric adds c to the registry exposed on the Prometheus
// endpoint, the way blocky's resolver chain registers its own
// collectors at construction time.
func RegisterMetric(c prometheus.Collector) {
	_ = reg.Register(c)
}

// Start wires the configured Prometheus endpoint into the default
// http.ServeMux; it does nothing if metrics are disabled.
func Start(cfg config.PrometheusConfig) {
	enabled = cfg.Enable

	if cfg.Enable {
		reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		reg.MustRegister(prometheus.NewGoCollector())
		http.Handle(cfg.Path, promhttp.InstrumentMetricHandler(reg,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
}

func IsEnabled() bool {
	return enabled
}

// Registry returns the process-wide metrics registry, mainly for tests
// that need to assert on what got collected.
func Registry() *prometheus.Registry {
	return reg
}
