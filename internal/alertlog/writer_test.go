package alertlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"go1090/internal/logging"
	"go1090/internal/tracker"
	"go1090/internal/watchlist"
)

func newTestWriter(t *testing.T) (*Writer, *logging.LogRotator) {
	t.Helper()
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	rotator, err := logging.NewLogRotator(dir, "alerts", false, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rotator.Close() })
	return NewWriter(rotator, logger), rotator
}

func TestLogDeliveryWritesLine(t *testing.T) {
	w, rotator := newTestWriter(t)

	ev := watchlist.AlertEvent{
		AircraftSnapshot: tracker.Snapshot{ICAO: 0xABCDEF, Callsign: "TEST123"},
		MatchKind:        watchlist.KindICAOExact,
		MatchReason:      "icao match",
		EventTime:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	err := w.LogDelivery(ev, "primary", string(OutcomeDelivered), 1, "")
	require.NoError(t, err)

	data, err := os.ReadFile(rotator.GetCurrentLogFile())
	require.NoError(t, err)
	require.Contains(t, string(data), "ABCDEF")
	require.Contains(t, string(data), "TEST123")
	require.Contains(t, string(data), "DELIVERED")
}

func TestFormatLineFieldOrder(t *testing.T) {
	entry := Entry{
		Time:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ICAO:        0x4840D6,
		Callsign:    "ABC123",
		ChannelName: "lora0",
		Outcome:     OutcomeFailed,
		Attempts:    3,
		Detail:      "timeout",
	}
	line := formatLine(entry)
	require.Equal(t, "2026-01-02T03:04:05.000Z,4840D6,ABC123,lora0,FAILED,3,timeout", line)
}

func TestLogDeliveryExpiredOutcomeSucceeds(t *testing.T) {
	w, rotator := newTestWriter(t)
	ev := watchlist.AlertEvent{
		AircraftSnapshot: tracker.Snapshot{ICAO: 1, Callsign: "A"},
		EventTime:        time.Now(),
	}
	require.NoError(t, w.LogDelivery(ev, "c", string(OutcomeExpired), 5, "ttl"))
	require.NotEmpty(t, filepath.Base(rotator.GetCurrentLogFile()))
}
