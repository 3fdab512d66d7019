package avr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeShortFrame(t *testing.T) {
	payload, err := Decode("*8D4840D6202CC371C32CE0;")
	require.NoError(t, err)
	assert.Len(t, payload, 7)
}

func TestDecodeLongFrame(t *testing.T) {
	payload, err := Decode("*8D4840D6202CC371C32CE0576098;")
	require.NoError(t, err)
	assert.Len(t, payload, 14)
}

func TestDecodeStripsMLATPrefix(t *testing.T) {
	payload, err := Decode("@000000000000*8D4840D6202CC371C32CE0576098;")
	require.NoError(t, err)
	assert.Len(t, payload, 14)
}

func TestDecodeRejectsBadLength(t *testing.T) {
	_, err := Decode("*8D4840D6;")
	assert.Error(t, err)
}

func TestDecodeRejectsMissingSync(t *testing.T) {
	_, err := Decode("8D4840D6202CC371C32CE0576098;")
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := []byte{0x8D, 0x48, 0x40, 0xD6, 0x20, 0x2C, 0xC3, 0x71, 0xC3, 0x2C, 0xE0, 0x57, 0x60, 0x98}
	line := Encode(original)
	decoded, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}
