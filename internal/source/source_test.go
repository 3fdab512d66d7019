package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/clock"
)

func TestValidate_RequiresName(t *testing.T) {
	err := validate(Config{Type: TypeBeastTCP, Address: "127.0.0.1:30005"})

	assert.Error(t, err)
}

func TestValidate_BeastTCPRequiresHostPort(t *testing.T) {
	err := validate(Config{Name: "local", Type: TypeBeastTCP, Address: "not-a-host-port"})

	assert.Error(t, err)
}

func TestValidate_BeastTCPAcceptsHostPort(t *testing.T) {
	err := validate(Config{Name: "local", Type: TypeBeastTCP, Address: "127.0.0.1:30005"})

	assert.NoError(t, err)
}

func TestValidate_JSONPollRequiresAddress(t *testing.T) {
	err := validate(Config{Name: "snapshot", Type: TypeJSONPoll})

	assert.Error(t, err)
}

func TestValidate_RawFileRequiresAddress(t *testing.T) {
	err := validate(Config{Name: "replay", Type: TypeRawFile})

	assert.Error(t, err)
}

func TestValidate_UnknownTypeIsFatal(t *testing.T) {
	err := validate(Config{Name: "mystery", Type: Type(99), Address: "x"})

	assert.Error(t, err)
}

func TestDefaultConfig_FillsDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig("local", TypeBeastTCP, "127.0.0.1:30005")

	assert.Equal(t, time.Second, cfg.ReconnectBackoffInitial)
	assert.Equal(t, 30*time.Second, cfg.ReconnectBackoffMax)
	assert.Equal(t, 60*time.Second, cfg.ReadIdleTimeout)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestNew_RejectsFirstInvalidConfig(t *testing.T) {
	cfgs := []Config{
		DefaultConfig("local", TypeBeastTCP, "127.0.0.1:30005"),
		{Type: TypeBeastTCP, Address: "bad"}, // missing name
	}

	_, err := New(cfgs, 0, nil, clock.NewMock(time.Now()))

	assert.Error(t, err)
}

func TestNew_ReturnsManagerWithDisconnectedStates(t *testing.T) {
	cfgs := []Config{DefaultConfig("local", TypeBeastTCP, "127.0.0.1:30005")}

	mgr, err := New(cfgs, 0, nil, clock.NewMock(time.Now()))

	require.NoError(t, err)
	states := mgr.States()
	assert.Equal(t, StateDisconnected, states["local"])
}

func TestManager_KnownICAOReflectsDedupCache(t *testing.T) {
	mgr, err := New(nil, 0, nil, clock.NewMock(time.Now()))
	require.NoError(t, err)

	assert.False(t, mgr.KnownICAO(0x4840D6))
	mgr.RememberICAO(0x4840D6)
	assert.True(t, mgr.KnownICAO(0x4840D6))
}

func TestManager_PushFrameDedupesIdenticalPayload(t *testing.T) {
	mgr, err := New(nil, 4, nil, clock.NewMock(time.Now()))
	require.NoError(t, err)
	q := newDropOldestQueue(4)
	cfg := DefaultConfig("local", TypeBeastTCP, "127.0.0.1:30005")
	payload := []byte{0x8D, 0x48, 0x40, 0xD6}

	mgr.pushFrame(cfg, q, payload)
	mgr.pushFrame(cfg, q, payload)

	out := q.drain()
	assert.Len(t, out, 1, "an identical payload arriving within the dedup window must be collapsed")
}
