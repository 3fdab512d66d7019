package watchlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_CompilesCallsignRegexEntries(t *testing.T) {
	entries := []Entry{{Kind: KindCallsignRegex, Value: "^KLM.*"}}

	out, err := Compile(entries)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].re.MatchString("KLM1023"))
}

func TestCompile_RejectsInvalidRegex(t *testing.T) {
	entries := []Entry{{Kind: KindCallsignRegex, Value: "("}}

	_, err := Compile(entries)

	assert.Error(t, err)
}

func TestCompile_LeavesNonRegexEntriesUntouched(t *testing.T) {
	entries := []Entry{{Kind: KindICAOExact, Value: "4840D6"}}

	out, err := Compile(entries)

	require.NoError(t, err)
	assert.Equal(t, "4840D6", out[0].Value)
}

func TestWatchlist_EvaluateICAOExact(t *testing.T) {
	entries, err := Compile([]Entry{{Kind: KindICAOExact, Value: "4840D6", Label: "target"}})
	require.NoError(t, err)
	wl := New(entries)

	match, ok := wl.Evaluate(0x4840D6, "")

	require.True(t, ok)
	assert.Equal(t, "target", match.Entry.Label)
	assert.Equal(t, "icao_exact:4840D6", match.Reason)
}

func TestWatchlist_EvaluateICAOExactIsCaseInsensitive(t *testing.T) {
	entries, err := Compile([]Entry{{Kind: KindICAOExact, Value: "4840d6"}})
	require.NoError(t, err)
	wl := New(entries)

	_, ok := wl.Evaluate(0x4840D6, "")

	assert.True(t, ok)
}

func TestWatchlist_EvaluateICAOPrefix(t *testing.T) {
	entries, err := Compile([]Entry{{Kind: KindICAOPrefix, Value: "484"}})
	require.NoError(t, err)
	wl := New(entries)

	_, ok := wl.Evaluate(0x4840D6, "")

	assert.True(t, ok)
}

func TestWatchlist_EvaluateCallsignExactTrimsWhitespace(t *testing.T) {
	entries, err := Compile([]Entry{{Kind: KindCallsignExact, Value: "KLM1023"}})
	require.NoError(t, err)
	wl := New(entries)

	_, ok := wl.Evaluate(0, "KLM1023 ")

	assert.True(t, ok)
}

func TestWatchlist_EvaluateCallsignRegex(t *testing.T) {
	entries, err := Compile([]Entry{{Kind: KindCallsignRegex, Value: "^KLM[0-9]+$"}})
	require.NoError(t, err)
	wl := New(entries)

	_, ok := wl.Evaluate(0, "KLM1023")
	_, noMatch := wl.Evaluate(0, "DAL456")

	assert.True(t, ok)
	assert.False(t, noMatch)
}

func TestWatchlist_EvaluateNoMatch(t *testing.T) {
	entries, err := Compile([]Entry{{Kind: KindICAOExact, Value: "4840D6"}})
	require.NoError(t, err)
	wl := New(entries)

	_, ok := wl.Evaluate(0xABCDEF, "")

	assert.False(t, ok)
}

func TestWatchlist_EvaluateNilWatchlistNeverMatches(t *testing.T) {
	var wl *Watchlist

	_, ok := wl.Evaluate(0x4840D6, "KLM1023")

	assert.False(t, ok)
}

func TestWatchlist_Matches(t *testing.T) {
	entries, err := Compile([]Entry{{Kind: KindICAOExact, Value: "4840D6"}})
	require.NoError(t, err)
	wl := New(entries)

	assert.True(t, wl.Matches(0x4840D6, ""))
	assert.False(t, wl.Matches(0x000001, ""))
}

func TestWatchlist_EvaluateReturnsFirstMatchingEntry(t *testing.T) {
	entries, err := Compile([]Entry{
		{Kind: KindICAOExact, Value: "4840D6", Label: "first"},
		{Kind: KindCallsignExact, Value: "KLM1023", Label: "second"},
	})
	require.NoError(t, err)
	wl := New(entries)

	match, ok := wl.Evaluate(0x4840D6, "KLM1023")

	require.True(t, ok)
	assert.Equal(t, "first", match.Entry.Label)
}
