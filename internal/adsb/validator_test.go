package adsb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCounters records Inc calls for assertions without pulling in
// internal/metrics.
type fakeCounters struct {
	counts map[string]int
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{counts: make(map[string]int)}
}

func (f *fakeCounters) Inc(name string) {
	f.counts[name]++
}

// withCRC returns a copy of data with its trailing 3-byte CRC field
// computed and filled in, producing a frame CalculateCRC treats as valid.
func withCRC(data []byte) []byte {
	out := append([]byte(nil), data...)
	n := len(out)
	out[n-3], out[n-2], out[n-1] = 0, 0, 0
	crc := CalculateCRC(out)
	out[n-3] = byte(crc >> 16)
	out[n-2] = byte(crc >> 8)
	out[n-1] = byte(crc)
	return out
}

// withAddressParity fills the trailing 3-byte AP field so the frame's CRC
// syndrome recovers icao, the construction DF0/4/5/16/20/21 replies use.
func withAddressParity(data []byte, icao uint32) []byte {
	out := append([]byte(nil), data...)
	n := len(out)
	out[n-3], out[n-2], out[n-1] = 0, 0, 0
	base := CalculateCRC(out[:n-3])
	ap := base ^ (icao & 0xFFFFFF)
	out[n-3] = byte(ap >> 16)
	out[n-2] = byte(ap >> 8)
	out[n-1] = byte(ap)
	return out
}

func TestValidateDF17Accepted(t *testing.T) {
	payload := []byte{0x8D, 0x4C, 0xA2, 0x51, 0x58, 0x9F, 0x0A, 0x00, 0x00, 0x01, 0x99, 0x00, 0x00, 0x00}
	frame := RawFrame{Bytes: withCRC(payload), ReceivedAt: time.Now(), SourceID: "test"}

	v := NewValidator(nil)
	vf, reject := v.Validate(frame, nil)
	require.Nil(t, reject)
	require.NotNil(t, vf)
	assert.Equal(t, uint8(DF17), vf.DF)
	assert.Equal(t, uint32(0x4CA251), vf.ICAOCandidate)
}

func TestValidateDF17RejectsBadCRC(t *testing.T) {
	payload := []byte{0x8D, 0x4C, 0xA2, 0x51, 0x58, 0x9F, 0x0A, 0x00, 0x00, 0x01, 0x99, 0x00, 0x00, 0x00}
	bad := withCRC(payload)
	bad[13] ^= 0xFF

	counters := newFakeCounters()
	v := NewValidator(counters)
	vf, reject := v.Validate(RawFrame{Bytes: bad, ReceivedAt: time.Now()}, nil)
	assert.Nil(t, vf)
	require.NotNil(t, reject)
	assert.Equal(t, RejectCRC, reject.Kind)
	assert.Equal(t, 1, counters.counts["crc_fail"])
}

func TestValidateDF4RequiresKnownICAO(t *testing.T) {
	icao := uint32(0x4CA251)
	payload := make([]byte, 7)
	payload[0] = DF4 << 3
	frame := withAddressParity(payload, icao)

	v := NewValidator(nil)

	vf, reject := v.Validate(RawFrame{Bytes: frame, ReceivedAt: time.Now()}, func(candidate uint32) bool {
		return false
	})
	assert.Nil(t, vf)
	require.NotNil(t, reject)
	assert.Equal(t, RejectUnknownICAO, reject.Kind)

	vf, reject = v.Validate(RawFrame{Bytes: frame, ReceivedAt: time.Now()}, func(candidate uint32) bool {
		return candidate == icao
	})
	require.Nil(t, reject)
	require.NotNil(t, vf)
	assert.Equal(t, icao, vf.ICAOCandidate)
	assert.True(t, vf.KnownICAORequired)
}

func TestValidateRejectsShortFrame(t *testing.T) {
	v := NewValidator(nil)
	_, reject := v.Validate(RawFrame{Bytes: []byte{0x01, 0x02, 0x03}}, nil)
	require.NotNil(t, reject)
	assert.Equal(t, RejectLength, reject.Kind)
}
