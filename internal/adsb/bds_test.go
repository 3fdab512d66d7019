package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBDS60HeadingAndSpeed(t *testing.T) {
	mb := make([]byte, 7)
	setBits(mb, 1, 1, 1)
	setBits(mb, 2, 12, 512) // heading status bit + field -> 90 degrees
	setBits(mb, 13, 13, 1)
	setBits(mb, 14, 22, 250) // IAS

	register, fields, ok := decodeBDS(mb)
	require.True(t, ok)
	assert.Equal(t, "6,0", register)
	assert.InDelta(t, 90.0, fields["magnetic_heading_deg"], 0.1)
	assert.Equal(t, 250.0, fields["indicated_airspeed_kt"])
}

func TestDecodeBDS50TrackAndTurn(t *testing.T) {
	mb := make([]byte, 7)
	setBits(mb, 24, 24, 1)
	setBits(mb, 25, 34, 100) // ground speed

	register, fields, ok := decodeBDS(mb)
	require.True(t, ok)
	assert.Equal(t, "5,0", register)
	assert.Equal(t, 200.0, fields["ground_speed_kt"])
}

func TestDecodeBDS40SelectedVertical(t *testing.T) {
	mb := make([]byte, 7)
	setBits(mb, 14, 14, 1)
	setBits(mb, 15, 26, 2000) // FMS selected altitude, avoids the bit-1 status
	// flag shared with BDS 5,0/6,0's first field so only BDS 4,0 matches.

	register, fields, ok := decodeBDS(mb)
	require.True(t, ok)
	assert.Equal(t, "4,0", register)
	assert.Equal(t, 32000.0, fields["fms_selected_alt_ft"])
}

func TestDecodeBDSAllZeroIsUnrecognized(t *testing.T) {
	mb := make([]byte, 7)
	_, _, ok := decodeBDS(mb)
	assert.False(t, ok)
}

func TestDecodeBDSShortField(t *testing.T) {
	_, _, ok := decodeBDS([]byte{0x00})
	assert.False(t, ok)
}
