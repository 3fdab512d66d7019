package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/app"
)

func TestApplyFlagSpecs_Sources(t *testing.T) {
	config := app.DefaultConfig()

	err := applyFlagSpecs(&config,
		[]string{"name=local,type=beast_tcp,addr=127.0.0.1:30005"},
		nil,
		nil,
	)

	require.NoError(t, err)
	require.Len(t, config.Sources, 1)
	assert.Equal(t, "local", config.Sources[0].Name)
}

func TestApplyFlagSpecs_Channels(t *testing.T) {
	config := app.DefaultConfig()

	err := applyFlagSpecs(&config,
		nil,
		[]string{"name=ops,template={icao} {callsign},routing=fallback,interfaces=serial|mqtt"},
		nil,
	)

	require.NoError(t, err)
	require.Len(t, config.Channels, 1)
	assert.Equal(t, "ops", config.Channels[0].Name)
	assert.Equal(t, []string{"serial", "mqtt"}, config.Channels[0].Interfaces)
}

func TestApplyFlagSpecs_Watchlist(t *testing.T) {
	config := app.DefaultConfig()

	err := applyFlagSpecs(&config,
		nil,
		nil,
		[]string{"kind=icao_exact,value=4840D6,label=target"},
	)

	require.NoError(t, err)
	require.Len(t, config.WatchlistEntries, 1)
	assert.Equal(t, "target", config.WatchlistEntries[0].Label)
}

func TestApplyFlagSpecs_InvalidSourceStopsAtFirstError(t *testing.T) {
	config := app.DefaultConfig()

	err := applyFlagSpecs(&config,
		[]string{"type=beast_tcp,addr=127.0.0.1:30005"}, // missing name
		nil,
		nil,
	)

	assert.Error(t, err)
	assert.Empty(t, config.Sources)
}

func TestApplyFlagSpecs_InvalidChannel(t *testing.T) {
	config := app.DefaultConfig()

	err := applyFlagSpecs(&config,
		nil,
		[]string{"template=no-name-field"},
		nil,
	)

	assert.Error(t, err)
}

func TestApplyFlagSpecs_InvalidWatchlist(t *testing.T) {
	config := app.DefaultConfig()

	err := applyFlagSpecs(&config,
		nil,
		nil,
		[]string{"kind=icao_exact"}, // missing value
	)

	assert.Error(t, err)
}

func TestApplyFlagSpecs_Empty(t *testing.T) {
	config := app.DefaultConfig()

	err := applyFlagSpecs(&config, nil, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, config.Sources)
	assert.Empty(t, config.Channels)
	assert.Empty(t, config.WatchlistEntries)
}
