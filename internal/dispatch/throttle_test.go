package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle_AllowsFirstAlert(t *testing.T) {
	thr := NewThrottle(300*time.Second, 10)
	now := time.Now()

	assert.True(t, thr.Allow(0x4840D6, PriorityNormal, now))
}

func TestThrottle_SuppressesWithinCooldown(t *testing.T) {
	thr := NewThrottle(300*time.Second, 10)
	now := time.Now()

	assert.True(t, thr.Allow(0x4840D6, PriorityNormal, now))
	assert.False(t, thr.Allow(0x4840D6, PriorityNormal, now.Add(60*time.Second)))
	assert.Equal(t, 1, thr.Suppressed(0x4840D6))
}

func TestThrottle_AllowsAfterCooldownElapses(t *testing.T) {
	thr := NewThrottle(300*time.Second, 10)
	now := time.Now()

	thr.Allow(0x4840D6, PriorityNormal, now)

	assert.True(t, thr.Allow(0x4840D6, PriorityNormal, now.Add(301*time.Second)))
}

func TestThrottle_CriticalBypassesCooldown(t *testing.T) {
	thr := NewThrottle(300*time.Second, 10)
	now := time.Now()

	thr.Allow(0x4840D6, PriorityNormal, now)

	assert.True(t, thr.Allow(0x4840D6, PriorityCritical, now.Add(time.Second)))
}

func TestThrottle_CriticalNeverBypassesHourlyCap(t *testing.T) {
	thr := NewThrottle(0, 2)
	now := time.Now()

	assert.True(t, thr.Allow(0x4840D6, PriorityCritical, now))
	assert.True(t, thr.Allow(0x4840D6, PriorityCritical, now.Add(time.Second)))
	assert.False(t, thr.Allow(0x4840D6, PriorityCritical, now.Add(2*time.Second)))
}

func TestThrottle_HourlyWindowSlides(t *testing.T) {
	thr := NewThrottle(0, 1)
	now := time.Now()

	assert.True(t, thr.Allow(0x4840D6, PriorityNormal, now))
	assert.False(t, thr.Allow(0x4840D6, PriorityNormal, now.Add(30*time.Minute)))
	assert.True(t, thr.Allow(0x4840D6, PriorityNormal, now.Add(61*time.Minute)))
}

func TestThrottle_TracksPerAircraftIndependently(t *testing.T) {
	thr := NewThrottle(300*time.Second, 10)
	now := time.Now()

	assert.True(t, thr.Allow(0x000001, PriorityNormal, now))
	assert.True(t, thr.Allow(0x000002, PriorityNormal, now))
}
