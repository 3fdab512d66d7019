package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDecodeGlobalAirborneKnownVector uses the commonly published CPR
// worked example (even/odd airborne position pair decoding to roughly
// 52.2572N, 3.91937E when the even frame is the more recent one) as a
// sanity check on the global decode math.
func TestDecodeGlobalAirborneKnownVector(t *testing.T) {
	even := CPRFrame{LatCPR: 93000, LonCPR: 51372, Odd: false}
	odd := CPRFrame{LatCPR: 74158, LonCPR: 50194, Odd: true}

	lat, lon, ok := DecodeGlobalAirborne(even, odd, false)
	assert.True(t, ok)
	assert.InDelta(t, 52.2572, lat, 0.01)
	assert.InDelta(t, 3.91937, lon, 0.01)
}

func TestDecodeGlobalAirborneCrossedZoneRejected(t *testing.T) {
	// The even latitude decodes to ~10.440 (NL 59) and the odd one to
	// ~10.481 (NL 58): the pair straddles the 10.47047 NL boundary.
	even := CPRFrame{LatCPR: 96993, LonCPR: 0, Odd: false}
	odd := CPRFrame{LatCPR: 94070, LonCPR: 0, Odd: true}
	_, _, ok := DecodeGlobalAirborne(even, odd, true)
	assert.False(t, ok)
}

func TestDecodeLocalAirborneNearReference(t *testing.T) {
	even := CPRFrame{LatCPR: 93000, LonCPR: 51372, Odd: false}
	lat, lon, ok := DecodeLocalAirborne(even, 52.0, 4.0)
	assert.True(t, ok)
	assert.InDelta(t, 52.26, lat, 0.5)
	assert.InDelta(t, 3.9, lon, 0.5)
}

func TestDecodeLocalSurfaceUsesQuarterSpan(t *testing.T) {
	frame := CPRFrame{LatCPR: 40000, LonCPR: 40000, Odd: false}
	_, _, ok := DecodeLocalSurface(frame, 40.0, -75.0)
	assert.True(t, ok)
}

func TestNearestQuadrant(t *testing.T) {
	assert.InDelta(t, 5.0, nearestQuadrant(95.0, 0.0, 90.0), 0.0001)
	assert.InDelta(t, -5.0, nearestQuadrant(-95.0, 0.0, 90.0), 0.0001)
}

func TestCPRNLMonotonic(t *testing.T) {
	assert.Equal(t, 59, cprNL(0))
	assert.Equal(t, 1, cprNL(89.9))
}
