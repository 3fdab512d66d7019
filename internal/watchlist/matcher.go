package watchlist

import (
	"sync/atomic"
	"time"

	"go1090/internal/adsb"
	"go1090/internal/clock"
	"go1090/internal/tracker"
)

// AlertEvent is the Watchlist Matcher's ephemeral output, consumed one-way
// by the Alert Dispatcher; it carries a snapshot, never a live reference to
// the tracked Aircraft, so the dispatcher can never mutate tracker state.
type AlertEvent struct {
	AircraftSnapshot tracker.Snapshot
	MatchKind        Kind
	MatchReason      string
	EventTime        time.Time
}

// Matcher evaluates tracker updates against the active Watchlist and emits
// AlertEvents on a bounded channel.
type Matcher struct {
	active   atomic.Value // *Watchlist
	clock    clock.Clock
	counters adsb.Counters
	events   chan AlertEvent
}

// NewMatcher returns a Matcher whose output channel holds bufSize pending
// events before new matches are dropped (counted, never blocking the
// Tracker that feeds it; no component blocks on another.
func NewMatcher(clk clock.Clock, bufSize int, counters adsb.Counters) *Matcher {
	if bufSize <= 0 {
		bufSize = 64
	}
	m := &Matcher{clock: clk, counters: counters, events: make(chan AlertEvent, bufSize)}
	m.active.Store((*Watchlist)(nil))
	return m
}

// SetWatchlist atomically installs a new active Watchlist.
func (m *Matcher) SetWatchlist(wl *Watchlist) {
	m.active.Store(wl)
}

// Events returns the channel the Alert Dispatcher should consume.
func (m *Matcher) Events() <-chan AlertEvent {
	return m.events
}

// Evaluate runs one tracker.Update through the active watchlist, emitting
// an AlertEvent on a match. Only updates that touched identification or
// position are worth evaluating.
func (m *Matcher) Evaluate(u tracker.Update) {
	if !u.TouchedIdentification && !u.TouchedPosition {
		return
	}
	wl, _ := m.active.Load().(*Watchlist)
	if wl == nil {
		return
	}
	match, ok := wl.Evaluate(u.ICAO, u.Aircraft.Callsign)
	if !ok {
		return
	}
	ev := AlertEvent{
		AircraftSnapshot: u.Aircraft,
		MatchKind:        match.Entry.Kind,
		MatchReason:      match.Reason,
		EventTime:        m.clock.Now(),
	}
	select {
	case m.events <- ev:
	default:
		if m.counters != nil {
			m.counters.Inc("alert_events_dropped")
		}
	}
}
