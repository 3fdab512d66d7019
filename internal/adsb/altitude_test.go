package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAC13BinaryEncoding(t *testing.T) {
	// ac13 = 0x194: Q=1, N=100 -> (100*25)-1000 = 1500ft, packed into bits 20-32.
	data := []byte{0x00, 0x00, 0x01, 0x94, 0x00, 0x00, 0x00}
	alt, ok := DecodeAC13(data)
	assert.True(t, ok)
	assert.Equal(t, 1500, alt)
}

func TestDecodeAC12BinaryEncoding(t *testing.T) {
	// ac12 = 0xD4: Q=1, N=100 -> 1500ft, packed into ME bits 9-20.
	me := []byte{0x00, 0x0D, 0x40, 0x00, 0x00, 0x00, 0x00}
	alt, ok := DecodeAC12(me)
	assert.True(t, ok)
	assert.Equal(t, 1500, alt)
}

func TestDecodeAC13ShortFrame(t *testing.T) {
	_, ok := DecodeAC13([]byte{0x00, 0x00})
	assert.False(t, ok)
}

func TestModeAToModeCRejectsAllZero(t *testing.T) {
	// C1..C4 cannot all be zero: an all-zero Gillham field is illegal.
	_, ok := modeAToModeC(0)
	assert.False(t, ok)
}

func TestDecodeID13FieldRoundTripsBitPositions(t *testing.T) {
	// Bit 12 (C1) of the raw 13-bit field must land on bit 0x0010 of the
	// Gillham-ordered output.
	got := decodeID13Field(0x1000)
	assert.Equal(t, uint32(0x0010), got)
}
