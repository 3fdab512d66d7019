// Package alertlog renders Alert Dispatcher delivery outcomes as a
// rotated, append-only text log, adapted from the BaseStation writer's
// typed-struct-in/stable-line-out shape onto alert events instead of raw
// Mode-S traffic.
package alertlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/logging"
	"go1090/internal/watchlist"
)

// Outcome enumerates how a dispatch attempt for an AlertEvent resolved.
type Outcome string

const (
	OutcomeDelivered Outcome = "DELIVERED"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeExpired   Outcome = "EXPIRED"
	OutcomeThrottled Outcome = "THROTTLED"
)

// Entry is one logged delivery outcome.
type Entry struct {
	Time        time.Time
	ICAO        uint32
	Callsign    string
	ChannelName string
	Outcome     Outcome
	Attempts    int
	Detail      string
}

// Writer appends Entry rows to a rotated log file, one per line.
type Writer struct {
	logRotator *logging.LogRotator
	logger     *logrus.Logger
}

// NewWriter returns a Writer backed by logRotator, which the caller owns
// (its own Start/Close lifecycle is unaffected by this package).
func NewWriter(logRotator *logging.LogRotator, logger *logrus.Logger) *Writer {
	return &Writer{logRotator: logRotator, logger: logger}
}

// LogDelivery records the outcome of one dispatch attempt for ev. It
// satisfies dispatch.AlertLogger, which only knows outcome as a plain
// string so that package need not import alertlog.
func (w *Writer) LogDelivery(ev watchlist.AlertEvent, channel string, outcome string, attempts int, detail string) error {
	entry := Entry{
		Time:        ev.EventTime,
		ICAO:        ev.AircraftSnapshot.ICAO,
		Callsign:    ev.AircraftSnapshot.Callsign,
		ChannelName: channel,
		Outcome:     Outcome(outcome),
		Attempts:    attempts,
		Detail:      detail,
	}
	return w.write(entry)
}

func (w *Writer) write(entry Entry) error {
	line := formatLine(entry)

	writer, err := w.logRotator.GetWriter()
	if err != nil {
		return fmt.Errorf("alertlog: failed to get log writer: %w", err)
	}
	if _, err := writer.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("alertlog: failed to write entry: %w", err)
	}
	return nil
}

// formatLine renders entry as a stable comma-separated row, in the same
// spirit as BaseStation's fixed field order.
func formatLine(entry Entry) string {
	fields := []string{
		entry.Time.UTC().Format("2006-01-02T15:04:05.000Z"),
		fmt.Sprintf("%06X", entry.ICAO),
		entry.Callsign,
		entry.ChannelName,
		string(entry.Outcome),
		strconv.Itoa(entry.Attempts),
		entry.Detail,
	}
	return strings.Join(fields, ",")
}
