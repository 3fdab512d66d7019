package source

import (
	"encoding/hex"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// dedupWindow is how long a raw payload's fingerprint is remembered for
// cross-source duplicate suppression (spec §4.1: "resolved downstream by
// ICAO + identical (DF, TC, timestamp-within-1s)"); since the wire bytes
// of a short/long Mode-S frame already encode ICAO, DF and TC, a 1s
// fingerprint cache on the payload itself is equivalent and needs no
// decode step at ingestion time.
const dedupWindow = time.Second

// IcaoCache backs two related policies with one TTL cache, grounded on
// Regentag-go1090's icao_cache (mode_s/decoder.go): the Frame Validator's
// known-ICAO acceptance test for ambiguous-CRC surveillance replies (a
// short-lived view of "recently confirmed" ICAOs, cheaper than asking the
// Tracker's store directly on every candidate), and the Source Manager's
// cross-source frame dedup.
type IcaoCache struct {
	icaos *cache.Cache
	dedup *cache.Cache
}

// NewIcaoCache builds a cache with icaoTTL for remembered addresses
// (default a few minutes is plenty -- an address that's been confirmed
// once stays "known" for long enough to ride out a gap in DF17 traffic).
func NewIcaoCache(icaoTTL time.Duration) *IcaoCache {
	if icaoTTL <= 0 {
		icaoTTL = 5 * time.Minute
	}
	return &IcaoCache{
		icaos: cache.New(icaoTTL, icaoTTL/2),
		dedup: cache.New(dedupWindow, dedupWindow),
	}
}

// Remember marks icao as recently confirmed.
func (c *IcaoCache) Remember(icao uint32) {
	c.icaos.SetDefault(hexKey(icao), struct{}{})
}

// Known reports whether icao was recently confirmed.
func (c *IcaoCache) Known(icao uint32) bool {
	_, ok := c.icaos.Get(hexKey(icao))
	return ok
}

// SeenRecently reports whether payload has been seen in the last
// dedupWindow, marking it seen as a side effect. Used to collapse the same
// Mode-S reply arriving from more than one feeder.
func (c *IcaoCache) SeenRecently(payload []byte) bool {
	key := hex.EncodeToString(payload)
	if _, ok := c.dedup.Get(key); ok {
		return true
	}
	c.dedup.SetDefault(key, struct{}{})
	return false
}

func hexKey(icao uint32) string {
	b := []byte{byte(icao >> 16), byte(icao >> 8), byte(icao)}
	return hex.EncodeToString(b)
}
