package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors aggregates the supervisor's Prometheus metrics. It implements
// events.Observer and heartbeat.Observer.
type Collectors struct {
	registry *prometheus.Registry

	heartbeatPublishes prometheus.Counter
	heartbeatFailures  prometheus.Counter
	syncRuns           *prometheus.CounterVec
	queueDepth         *prometheus.GaugeVec
}

// NewCollectors builds a registry with the supervisor metric set.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	return &Collectors{
		registry: reg,
		heartbeatPublishes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sluice_heartbeat_publishes_total",
			Help: "Total liveness records published to the coordination service",
		}),
		heartbeatFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sluice_heartbeat_failures_total",
			Help: "Total heartbeat publish attempts that failed",
		}),
		syncRuns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sluice_sync_callbacks_total",
			Help: "Synchronization callbacks executed per queue",
		}, []string{"queue", "result"}),
		queueDepth: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "sluice_sync_queue_depth",
			Help: "Pending callbacks per event queue",
		}, []string{"queue"}),
	}
}

// Registry returns the backing registry for the /metrics handler.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// HeartbeatPublished implements heartbeat.Observer.
func (c *Collectors) HeartbeatPublished(err error) {
	c.heartbeatPublishes.Inc()
	if err != nil {
		c.heartbeatFailures.Inc()
	}
}

// CallbackDone implements events.Observer.
func (c *Collectors) CallbackDone(queue string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.syncRuns.WithLabelValues(queue, result).Inc()
}

// DepthChanged implements events.Observer.
func (c *Collectors) DepthChanged(queue string, depth int) {
	c.queueDepth.WithLabelValues(queue).Set(float64(depth))
}
