package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_scans_received_total",
		Help: "Total scan batches received over MQTT",
	})
	SignalsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_signals_processed_total",
		Help: "Total individual signals folded into positioning cycles",
	})
	FixesComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_fixes_computed_total",
		Help: "Position fixes computed, by solver source",
	}, []string{"source"})
	NoFixCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_no_fix_cycles_total",
		Help: "Positioning cycles that exhausted the fallback chain",
	})
	StepsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_steps_detected_total",
		Help: "Steps detected from motion samples",
	})
	PresenceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_presence_transitions_total",
		Help: "Building enter/exit transitions",
	}, []string{"direction"})
	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_parse_errors_total",
		Help: "Undecodable MQTT payloads, by message kind",
	}, []string{"kind"})
	SolveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_solve_latency_seconds",
		Help:    "Latency of one positioning cycle",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveSolveLatency(start time.Time) {
	SolveLatency.Observe(time.Since(start).Seconds())
}
