// Package watchlist implements the Watchlist Matcher: an immutable set of
// target-aircraft patterns, swapped atomically on update, evaluated against
// every tracker update that touches identification or position.
package watchlist

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind enumerates the watchlist entry match strategies.
type Kind int

const (
	KindICAOExact Kind = iota
	KindICAOPrefix
	KindCallsignExact
	KindCallsignRegex
)

// Entry is a single watchlist target.
type Entry struct {
	Kind  Kind
	Value string
	Label string

	// re is compiled lazily by Compile for KindCallsignRegex entries.
	re *regexp.Regexp
}

// Compile precompiles any callsign_regex entries in entries, returning an
// error naming the first invalid pattern. This is a config validation
// failure, distinct from a FrameReject/DecodeError, since it happens
// before any traffic is processed.
func Compile(entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].Kind != KindCallsignRegex {
			continue
		}
		re, err := regexp.Compile(out[i].Value)
		if err != nil {
			return nil, err
		}
		out[i].re = re
	}
	return out, nil
}

// Watchlist is the immutable, atomically-swappable active target set.
type Watchlist struct {
	entries []Entry
}

// New wraps a pre-compiled entry set.
func New(entries []Entry) *Watchlist {
	return &Watchlist{entries: entries}
}

// Match describes why an aircraft matched, for AlertEvent.match_reason.
type Match struct {
	Entry  Entry
	Reason string
}

// Evaluate checks an aircraft's ICAO and callsign against every entry
// This is O(entries); for typical watchlists no index is built. Returns
// the first matching entry, or ok=false.
func (w *Watchlist) Evaluate(icao uint32, callsign string) (Match, bool) {
	if w == nil {
		return Match{}, false
	}
	hexICAO := strings.ToUpper(strconv.FormatUint(uint64(icao), 16))
	for len(hexICAO) < 6 {
		hexICAO = "0" + hexICAO
	}
	trimmedCallsign := strings.TrimSpace(callsign)

	for _, e := range w.entries {
		switch e.Kind {
		case KindICAOExact:
			if strings.EqualFold(e.Value, hexICAO) {
				return Match{Entry: e, Reason: "icao_exact:" + hexICAO}, true
			}
		case KindICAOPrefix:
			if strings.HasPrefix(strings.ToUpper(hexICAO), strings.ToUpper(e.Value)) {
				return Match{Entry: e, Reason: "icao_prefix:" + e.Value}, true
			}
		case KindCallsignExact:
			if trimmedCallsign != "" && strings.EqualFold(strings.TrimSpace(e.Value), trimmedCallsign) {
				return Match{Entry: e, Reason: "callsign_exact:" + trimmedCallsign}, true
			}
		case KindCallsignRegex:
			if e.re != nil && trimmedCallsign != "" && e.re.MatchString(trimmedCallsign) {
				return Match{Entry: e, Reason: "callsign_regex:" + trimmedCallsign}, true
			}
		}
	}
	return Match{}, false
}

// Matches reports only whether icao/callsign match, for
// tracker.Store.SetWatchlist's is_watchlist cache.
func (w *Watchlist) Matches(icao uint32, callsign string) bool {
	_, ok := w.Evaluate(icao, callsign)
	return ok
}
