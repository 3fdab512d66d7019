package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestSink_IncIncrementsByOne(t *testing.T) {
	s := New(prometheus.NewRegistry())

	s.Inc("frames_in")
	s.Inc("frames_in")

	assert.Equal(t, 2.0, s.Snapshot()["frames_in"])
}

func TestSink_AddIncrementsByDelta(t *testing.T) {
	s := New(prometheus.NewRegistry())

	s.Add("dropped_frames", 5)

	assert.Equal(t, 5.0, s.Snapshot()["dropped_frames"])
}

func TestSink_SnapshotIsIndependentCopy(t *testing.T) {
	s := New(prometheus.NewRegistry())
	s.Inc("frames_in")

	snap := s.Snapshot()
	snap["frames_in"] = 999
	s.Inc("frames_in")

	assert.Equal(t, 2.0, s.Snapshot()["frames_in"])
}

func TestSink_SnapshotUnseenNameAbsent(t *testing.T) {
	s := New(prometheus.NewRegistry())

	_, ok := s.Snapshot()["never_incremented"]

	assert.False(t, ok)
}

func TestSink_SetDoesNotAffectCounterSnapshot(t *testing.T) {
	s := New(prometheus.NewRegistry())

	s.Set("aircraft_count", 42)

	assert.NotContains(t, s.Snapshot(), "aircraft_count")
}
