package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
)

func bdsMessage(icao uint32, ts time.Time, register string, fields map[string]float64) *adsb.DecodedMessage {
	msg := adsb.NewDecodedMessage(icao, 20, ts, "a")
	msg.BDS = map[string]map[string]float64{register: fields}
	return msg
}

func TestApplyBDS_FirstReadingStagesWithoutConfirming(t *testing.T) {
	store, clk := newTestStore(t)
	msg := bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 35000})

	update := store.Ingest(msg)

	assert.Empty(t, update.Aircraft.BDS["bds40"])
}

func TestApplyBDS_ConsistentSecondReadingConfirms(t *testing.T) {
	store, clk := newTestStore(t)
	store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 35000}))

	clk.Advance(2 * time.Second)
	update := store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 35050}))

	require.Contains(t, update.Aircraft.BDS, "bds40")
	assert.Equal(t, 35050.0, update.Aircraft.BDS["bds40"]["mcp_selected_alt_ft"])
}

func TestApplyBDS_InconsistentSecondReadingResetsInsteadOfConfirming(t *testing.T) {
	store, clk := newTestStore(t)
	store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 35000}))

	clk.Advance(2 * time.Second)
	update := store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 40000}))

	assert.NotContains(t, update.Aircraft.BDS, "bds40")
}

func TestApplyBDS_ReadingOutsideConfirmWindowDoesNotConfirm(t *testing.T) {
	store, clk := newTestStore(t)
	store.cfg.BDSConfirmWindow = 5 * time.Second
	store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 35000}))

	clk.Advance(10 * time.Second)
	update := store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 35010}))

	assert.NotContains(t, update.Aircraft.BDS, "bds40")
}

func TestApplyBDS_AThirdConsistentReadingAfterResetConfirms(t *testing.T) {
	store, clk := newTestStore(t)
	store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 35000}))

	clk.Advance(time.Second)
	store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 40000})) // inconsistent, resets

	clk.Advance(time.Second)
	update := store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bds40", map[string]float64{"mcp_selected_alt_ft": 40020})) // consistent with the reset pending

	require.Contains(t, update.Aircraft.BDS, "bds40")
	assert.Equal(t, 40020.0, update.Aircraft.BDS["bds40"]["mcp_selected_alt_ft"])
}

func TestApplyBDS_UnknownFieldUsesDefaultTolerance(t *testing.T) {
	store, clk := newTestStore(t)
	store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bdsXX", map[string]float64{"some_unlisted_field": 100}))

	clk.Advance(time.Second)
	update := store.Ingest(bdsMessage(0x4840D6, clk.Now(), "bdsXX", map[string]float64{"some_unlisted_field": 108}))

	require.Contains(t, update.Aircraft.BDS, "bdsXX")
}
