// Package obs carries the simulation core's ambient observability
// stack: prometheus metrics and a loopback-only pprof debug server,
// adapted from the teacher's internal/api/observability.go.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the teacher's RecordTick/RecordRender/
// RecordConnectionRejected style, retargeted at the simulation core's
// own hot paths instead of render frames.
type Metrics struct {
	TickDuration      prometheus.Histogram
	ActiveEntities    prometheus.Gauge
	SnapshotBytesSent prometheus.Counter
	RateLimitDrops    prometheus.Counter
	PoolExhaustions   prometheus.Counter
	ABAMismatches     prometheus.Counter
	EventsOverflowed  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "jellyrush_room_tick_duration_seconds",
			Help:    "Duration of a single Room tick.",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveEntities: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jellyrush_room_active_entities",
			Help: "Number of ACTIVE entities in the room's World.",
		}),
		SnapshotBytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jellyrush_room_snapshot_bytes_total",
			Help: "Total bytes of snapshot payload sent to clients.",
		}),
		RateLimitDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jellyrush_room_rate_limit_drops_total",
			Help: "Input messages dropped for exceeding the per-session rate limit or the message size cap.",
		}),
		PoolExhaustions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jellyrush_room_pool_exhaustions_total",
			Help: "Entity allocations refused due to pool exhaustion.",
		}),
		ABAMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jellyrush_room_aba_mismatches_total",
			Help: "Session input dropped due to a stale entity handle.",
		}),
		EventsOverflowed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jellyrush_room_events_overflowed_total",
			Help: "Engine events dropped because the ring buffer was full.",
		}),
	}
}
