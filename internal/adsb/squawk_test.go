package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSquawkVFRCode(t *testing.T) {
	// id13 = 0x808 encodes squawk 1200, packed into bits 20-32.
	data := []byte{0x00, 0x00, 0x08, 0x08, 0x00, 0x00, 0x00}
	assert.Equal(t, uint16(1200), DecodeSquawk(data))
}

func TestDecodeSquawkShortFrame(t *testing.T) {
	assert.Equal(t, uint16(0), DecodeSquawk([]byte{0x00}))
}

func TestDecodeSquawkAllZero(t *testing.T) {
	data := make([]byte, 7)
	assert.Equal(t, uint16(0), DecodeSquawk(data))
}
