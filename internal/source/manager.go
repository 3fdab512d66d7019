package source

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go1090/internal/adsb"
	"go1090/internal/clock"
)

// Manager owns one worker per configured feeder, normalizing every
// framing into a shared RawFrame stream (plus a side-channel of synthetic
// DecodedMessages for json_poll sources). It is the Source Manager
// component of spec §4.1 and the ingress of the whole pipeline.
type Manager struct {
	cfgs     []Config
	bufSize  int
	counters adsb.Counters
	clk      clock.Clock
	dedup    *IcaoCache

	frameOut     chan adsb.RawFrame
	syntheticOut chan *adsb.DecodedMessage

	mu     sync.RWMutex
	states map[string]ConnState

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New validates every Config (failing fast with a FatalError on the first
// invalid one) and returns a Manager ready to Start.
func New(cfgs []Config, bufSize int, counters adsb.Counters, clk clock.Clock) (*Manager, error) {
	for _, cfg := range cfgs {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	if bufSize <= 0 {
		bufSize = 1024
	}
	states := make(map[string]ConnState, len(cfgs))
	for _, cfg := range cfgs {
		states[cfg.Name] = StateDisconnected
	}
	return &Manager{
		cfgs:         cfgs,
		bufSize:      bufSize,
		counters:     counters,
		clk:          clk,
		dedup:        NewIcaoCache(0),
		frameOut:     make(chan adsb.RawFrame, bufSize),
		syntheticOut: make(chan *adsb.DecodedMessage, bufSize),
		states:       states,
	}, nil
}

// Frames returns the merged RawFrame stream from every beast_tcp, avr_tcp
// and raw_file source.
func (m *Manager) Frames() <-chan adsb.RawFrame { return m.frameOut }

// Synthetic returns the stream of synthetic DecodedMessages produced by
// json_poll sources, which bypass the Frame Validator/Decoder entirely.
func (m *Manager) Synthetic() <-chan *adsb.DecodedMessage { return m.syntheticOut }

// KnownICAO satisfies adsb.KnownICAO using the recently-confirmed-address
// cache, intended to be OR'd with the Tracker's own KnownICAO.
func (m *Manager) KnownICAO(icao uint32) bool { return m.dedup.Known(icao) }

// RememberICAO records icao as recently confirmed, called by the caller
// once the Tracker accepts a frame for it.
func (m *Manager) RememberICAO(icao uint32) { m.dedup.Remember(icao) }

// Start launches one worker goroutine per configured source.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for _, cfg := range m.cfgs {
		cfg := cfg
		q := newDropOldestQueue(m.bufSize)
		m.wg.Add(2)
		go func() {
			defer m.wg.Done()
			m.forward(ctx, q)
		}()
		go func() {
			defer m.wg.Done()
			m.runSource(ctx, cfg, q)
		}()
	}
}

// Stop cancels every source worker and waits, without a timeout of its own,
// until all of them have returned.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// States returns a point-in-time copy of every source's connection state,
// for stats()/health().
func (m *Manager) States() map[string]ConnState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]ConnState, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out
}

func (m *Manager) setState(name string, s ConnState) {
	m.mu.Lock()
	m.states[name] = s
	m.mu.Unlock()
}

// forward drains q's per-source buffer into the shared output channel,
// blocking only this source's own goroutine when the shared channel is
// full (other sources' forwarders are unaffected).
func (m *Manager) forward(ctx context.Context, q *dropOldestQueue) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.notify:
			for _, f := range q.drain() {
				select {
				case m.frameOut <- f:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// runSource dispatches to the per-type worker, reconnecting with
// exponential backoff and full jitter whenever the worker returns (which
// it does on any SourceTransient condition -- connect failure, read idle
// timeout, or EOF).
func (m *Manager) runSource(ctx context.Context, cfg Config, q *dropOldestQueue) {
	backoff := cfg.ReconnectBackoffInitial
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := cfg.ReconnectBackoffMax
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.setState(cfg.Name, StateConnecting)
		err := m.runOnce(ctx, cfg, q)
		if ctx.Err() != nil {
			return
		}
		m.setState(cfg.Name, StateDegraded)
		if m.counters != nil {
			m.counters.Inc("source_reconnects")
		}
		_ = err // SourceTransient: logged by the caller-supplied counters only

		wait := time.Duration(rand.Int63n(int64(backoff)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runOnce runs a single connection attempt for cfg to completion (returns
// on any error or on ctx cancellation with a nil error).
func (m *Manager) runOnce(ctx context.Context, cfg Config, q *dropOldestQueue) error {
	switch cfg.Type {
	case TypeBeastTCP:
		return m.runBeastTCP(ctx, cfg, q)
	case TypeAVRTCP:
		return m.runAVRTCP(ctx, cfg, q)
	case TypeRawFile:
		return m.runRawFile(ctx, cfg, q)
	case TypeJSONPoll:
		return m.runJSONPoll(ctx, cfg)
	default:
		return &FatalError{Source: cfg.Name, Reason: "unknown source type"}
	}
}

func (m *Manager) pushFrame(cfg Config, q *dropOldestQueue, payload []byte) {
	if m.dedup.SeenRecently(payload) {
		if m.counters != nil {
			m.counters.Inc("frames_deduped")
		}
		return
	}
	raw := make([]byte, len(payload))
	copy(raw, payload)
	frame := adsb.RawFrame{Bytes: raw, ReceivedAt: m.now(), SourceID: cfg.Name}
	if q.Push(frame) {
		if m.counters != nil {
			m.counters.Inc("dropped_frames")
		}
	} else if m.counters != nil {
		m.counters.Inc("frames_in")
	}
}

func (m *Manager) now() time.Time {
	if m.clk != nil {
		return m.clk.Now()
	}
	return time.Now()
}
