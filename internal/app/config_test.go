package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/dispatch"
	"go1090/internal/source"
	"go1090/internal/watchlist"
)

func TestParseSourceSpec_Defaults(t *testing.T) {
	cfg, err := ParseSourceSpec("name=local,addr=127.0.0.1:30005")

	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Name)
	assert.Equal(t, source.TypeBeastTCP, cfg.Type)
}

func TestParseSourceSpec_AllFields(t *testing.T) {
	cfg, err := ParseSourceSpec("name=replay,type=raw_file,addr=/tmp/frames.bin,framing=avr,poll_interval_s=10")

	require.NoError(t, err)
	assert.Equal(t, source.TypeRawFile, cfg.Type)
	assert.Equal(t, source.FramingAVR, cfg.Framing)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
}

func TestParseSourceSpec_MissingNameErrors(t *testing.T) {
	_, err := ParseSourceSpec("addr=127.0.0.1:30005")

	assert.Error(t, err)
}

func TestParseSourceSpec_MissingAddrErrors(t *testing.T) {
	_, err := ParseSourceSpec("name=local")

	assert.Error(t, err)
}

func TestParseSourceSpec_UnknownTypeErrors(t *testing.T) {
	_, err := ParseSourceSpec("name=local,addr=x,type=carrier_pigeon")

	assert.Error(t, err)
}

func TestParseChannelSpec_Defaults(t *testing.T) {
	ch, err := ParseChannelSpec("name=ops")

	require.NoError(t, err)
	assert.Equal(t, "ops", ch.Name)
	assert.Equal(t, dispatch.RoutingPrimary, ch.Routing)
}

func TestParseChannelSpec_TemplateAndRouting(t *testing.T) {
	ch, err := ParseChannelSpec("name=ops,template={icao} {callsign},routing=all,interfaces=serial|mqtt,downlink=true,uplink=false")

	require.NoError(t, err)
	require.NotNil(t, ch.Template)
	assert.Equal(t, dispatch.RoutingAll, ch.Routing)
	assert.Equal(t, []string{"serial", "mqtt"}, ch.Interfaces)
	assert.True(t, ch.DownlinkEnabled)
	assert.False(t, ch.UplinkEnabled)
}

func TestParseChannelSpec_PSKDecoded(t *testing.T) {
	ch, err := ParseChannelSpec("name=ops,psk=MTIzNDU2Nzg5MDEyMzQ1Ng==") // base64("1234567890123456")

	require.NoError(t, err)
	assert.Equal(t, []byte("1234567890123456"), ch.PSK)
}

func TestParseChannelSpec_InvalidPSKErrors(t *testing.T) {
	_, err := ParseChannelSpec("name=ops,psk=not-valid-base64!!")

	assert.Error(t, err)
}

func TestParseChannelSpec_InvalidTemplateErrors(t *testing.T) {
	_, err := ParseChannelSpec("name=ops,template={bogus_field}")

	assert.Error(t, err)
}

func TestParseChannelSpec_MissingNameErrors(t *testing.T) {
	_, err := ParseChannelSpec("template=x")

	assert.Error(t, err)
}

func TestParseWatchlistSpec_Defaults(t *testing.T) {
	entry, err := ParseWatchlistSpec("value=4840D6")

	require.NoError(t, err)
	assert.Equal(t, watchlist.KindICAOExact, entry.Kind)
	assert.Equal(t, "4840D6", entry.Value)
}

func TestParseWatchlistSpec_AllKinds(t *testing.T) {
	cases := map[string]watchlist.Kind{
		"icao_exact":     watchlist.KindICAOExact,
		"icao_prefix":    watchlist.KindICAOPrefix,
		"callsign_exact": watchlist.KindCallsignExact,
		"callsign_regex": watchlist.KindCallsignRegex,
	}
	for kindStr, want := range cases {
		entry, err := ParseWatchlistSpec("kind=" + kindStr + ",value=X")
		require.NoError(t, err)
		assert.Equal(t, want, entry.Kind)
	}
}

func TestParseWatchlistSpec_MissingValueErrors(t *testing.T) {
	_, err := ParseWatchlistSpec("kind=icao_exact")

	assert.Error(t, err)
}

func TestParseWatchlistSpec_UnknownKindErrors(t *testing.T) {
	_, err := ParseWatchlistSpec("kind=bogus,value=X")

	assert.Error(t, err)
}
