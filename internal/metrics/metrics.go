// Package metrics is the counters sink threaded through the shared
// application context alongside the config snapshot and clock. It backs the
// control channel's stats view and satisfies the narrow adsb.Counters /
// tracker / dispatch counting capabilities without those packages importing
// Prometheus directly.
//
// Built on a prometheus.NewCounterVec/NewGaugeVec-on-a-namespace pattern,
// scoped down to the counters this system actually names; there is no HTTP
// surface or tracing middleware here since the core has no HTTP server.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "go1090"

// Sink is a labeled-counter/gauge registry. The zero value is not usable;
// construct with New.
type Sink struct {
	counters *prometheus.CounterVec
	gauges   *prometheus.GaugeVec

	mu     sync.Mutex
	totals map[string]float64
}

// New creates a Sink and registers its vectors against reg. Pass
// prometheus.NewRegistry() in tests to avoid polluting the default
// registry; pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Sink {
	s := &Sink{
		counters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "events_total",
			Help:      "Counted pipeline events (frames in/out, CRC pass/fail, CPR fixes, alerts, expiry, decode errors), labeled by event name.",
		}, []string{"name"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "state",
			Help:      "Point-in-time state gauges (aircraft count, per-source/interface connection state), labeled by name.",
		}, []string{"name"}),
		totals: make(map[string]float64),
	}
	reg.MustRegister(s.counters, s.gauges)
	return s
}

// Inc increments the named counter by 1. Satisfies adsb.Counters, the
// counting interface the tracker and dispatcher also take.
func (s *Sink) Inc(name string) {
	s.Add(name, 1)
}

// Add increments the named counter by delta, used where a caller already
// knows a batch size (e.g. dropped_frames per source).
func (s *Sink) Add(name string, delta float64) {
	s.counters.WithLabelValues(name).Add(delta)
	s.mu.Lock()
	s.totals[name] += delta
	s.mu.Unlock()
}

// Set pins a gauge (aircraft count, connection-state enum value) to v.
func (s *Sink) Set(name string, v float64) {
	s.gauges.WithLabelValues(name).Set(v)
}

// Snapshot returns a point-in-time copy of every counter total seen so far,
// keyed by name, for the control channel's stats command and the
// shutdown counters dump.
func (s *Sink) Snapshot() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.totals))
	for k, v := range s.totals {
		out[k] = v
	}
	return out
}
