package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIcaoCache_RememberAndKnown(t *testing.T) {
	c := NewIcaoCache(time.Minute)

	assert.False(t, c.Known(0x4840D6))
	c.Remember(0x4840D6)
	assert.True(t, c.Known(0x4840D6))
}

func TestIcaoCache_UnknownICAOStaysUnknown(t *testing.T) {
	c := NewIcaoCache(time.Minute)
	c.Remember(0x4840D6)

	assert.False(t, c.Known(0xABCDEF))
}

func TestIcaoCache_ZeroTTLFallsBackToDefault(t *testing.T) {
	c := NewIcaoCache(0)

	c.Remember(0x4840D6)

	assert.True(t, c.Known(0x4840D6))
}

func TestIcaoCache_SeenRecentlyFirstTimeFalse(t *testing.T) {
	c := NewIcaoCache(time.Minute)

	assert.False(t, c.SeenRecently([]byte{0x8D, 0x48, 0x40, 0xD6}))
}

func TestIcaoCache_SeenRecentlyDuplicateTrue(t *testing.T) {
	c := NewIcaoCache(time.Minute)
	payload := []byte{0x8D, 0x48, 0x40, 0xD6}

	c.SeenRecently(payload)

	assert.True(t, c.SeenRecently(payload))
}

func TestIcaoCache_SeenRecentlyDifferentPayloadsIndependent(t *testing.T) {
	c := NewIcaoCache(time.Minute)

	c.SeenRecently([]byte{0x01})

	assert.False(t, c.SeenRecently([]byte{0x02}))
}
