package dispatch

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go1090/internal/adsb"
	"go1090/internal/clock"
	"go1090/internal/watchlist"
)

// emergencySquawk reports whether code is one of the three emergency
// transponder codes. A match forces critical priority, which bypasses the
// cooldown window but never the hourly cap.
func emergencySquawk(code int) bool {
	return code == 7500 || code == 7600 || code == 7700
}

func priorityFor(ev watchlist.AlertEvent) Priority {
	if emergencySquawk(int(ev.AircraftSnapshot.Squawk)) {
		return PriorityCritical
	}
	return PriorityNormal
}

// AlertLogger records the terminal outcome of a delivery attempt, so an
// operator has an audit trail independent of live counters. Implemented by
// internal/alertlog.Writer; nil is a valid Dispatcher.Logger (no-op).
type AlertLogger interface {
	LogDelivery(ev watchlist.AlertEvent, channel string, outcome string, attempts int, detail string) error
}

// Dispatcher consumes AlertEvents from a watchlist.Matcher, formats,
// throttles, and delivers them to the configured channels' interfaces,
// retrying failed sends with jittered exponential backoff up to each
// message's max_attempts and dropping anything that outlives message_ttl.
type Dispatcher struct {
	clk      clock.Clock
	counters adsb.Counters

	// Logger is optional; when set, every terminal delivery/expiry/
	// exhaustion outcome is also recorded through it.
	Logger AlertLogger

	channels   map[string]ChannelConfig
	interfaces map[string]OutboundInterface
	throttles  map[string]*Throttle

	nextID uint64

	mu      sync.Mutex
	pending []*OutboundMessage
	seen    map[uint64]struct{} // delivery-id idempotence: ids already fully delivered

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds a Dispatcher with no channels or interfaces configured; call
// AddInterface and AddChannel before Start.
func New(clk clock.Clock, counters adsb.Counters) *Dispatcher {
	return &Dispatcher{
		clk:        clk,
		counters:   counters,
		channels:   make(map[string]ChannelConfig),
		interfaces: make(map[string]OutboundInterface),
		throttles:  make(map[string]*Throttle),
		seen:       make(map[uint64]struct{}),
	}
}

func (d *Dispatcher) AddInterface(iface OutboundInterface) {
	d.interfaces[iface.Name()] = iface
}

func (d *Dispatcher) AddChannel(ch ChannelConfig) {
	d.channels[ch.Name] = ch
	d.throttles[ch.Name] = NewThrottle(time.Duration(ch.MinIntervalSec)*time.Second, ch.MaxAlertsPerHour)
}

// Submit formats ev for every channel with matching direction/downlink
// enabled, throttles, and enqueues a retry-eligible OutboundMessage per
// channel that allows it.
func (d *Dispatcher) Submit(ev watchlist.AlertEvent) {
	now := d.clk.Now()
	priority := priorityFor(ev)

	for name, ch := range d.channels {
		if !ch.DownlinkEnabled {
			continue
		}
		thr := d.throttles[name]
		if !thr.Allow(ev.AircraftSnapshot.ICAO, priority, now) {
			if d.counters != nil {
				d.counters.Inc("alerts_throttled")
			}
			if d.Logger != nil {
				_ = d.Logger.LogDelivery(ev, name, "THROTTLED", 0, "")
			}
			continue
		}
		rendered, err := ch.Template.Render(ev)
		if err != nil {
			if d.counters != nil {
				d.counters.Inc("alert_render_errors")
			}
			continue
		}
		payload, err := encryptPayload(ch.PSK, []byte(rendered))
		if err != nil {
			if d.counters != nil {
				d.counters.Inc("alert_encrypt_errors")
			}
			continue
		}

		maxAttempts := ch.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = 3
		}
		msg := &OutboundMessage{
			ID:            atomic.AddUint64(&d.nextID, 1),
			Content:       payload,
			ChannelName:   name,
			Priority:      priority,
			CreatedAt:     now,
			MaxAttempts:   maxAttempts,
			NextAttemptAt: now,
			Event:         ev,
		}
		d.mu.Lock()
		d.pending = append(d.pending, msg)
		d.mu.Unlock()
		if d.counters != nil {
			d.counters.Inc("alerts_enqueued")
		}
	}
}

// Start launches the Matcher-draining and retry-pump goroutines; call
// Stop on shutdown.
func (d *Dispatcher) Start(ctx context.Context, events <-chan watchlist.AlertEvent, pumpInterval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if pumpInterval <= 0 {
		pumpInterval = time.Second
	}

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				d.Submit(ev)
			}
		}
	}()

	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(pumpInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.pump(ctx)
			}
		}
	}()
}

func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// pump walks pending messages once, attempting delivery for anything whose
// NextAttemptAt has arrived, dropping expired or exhausted messages.
func (d *Dispatcher) pump(ctx context.Context) {
	now := d.clk.Now()

	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	var retained []*OutboundMessage
	for _, msg := range batch {
		ch, ok := d.channels[msg.ChannelName]
		if !ok {
			continue
		}
		if msg.Expired(now, ch.MessageTTL) {
			if d.counters != nil {
				d.counters.Inc("alerts_expired")
			}
			d.logOutcome(msg, "EXPIRED", "")
			continue
		}
		if now.Before(msg.NextAttemptAt) {
			retained = append(retained, msg)
			continue
		}

		d.mu.Lock()
		_, delivered := d.seen[msg.ID]
		d.mu.Unlock()
		if delivered {
			continue
		}

		if d.deliver(ctx, ch, msg) {
			d.mu.Lock()
			d.seen[msg.ID] = struct{}{}
			d.mu.Unlock()
			if d.counters != nil {
				d.counters.Inc("alerts_delivered")
			}
			d.logOutcome(msg, "DELIVERED", "")
			continue
		}

		msg.Attempts++
		if msg.Attempts >= msg.MaxAttempts {
			if d.counters != nil {
				d.counters.Inc("alerts_delivery_failed")
			}
			d.logOutcome(msg, "FAILED", "max attempts exhausted")
			continue
		}
		msg.NextAttemptAt = now.Add(backoff(msg.Attempts))
		retained = append(retained, msg)
	}

	d.mu.Lock()
	d.pending = append(d.pending, retained...)
	d.mu.Unlock()
}

// backoff is exponential with full jitter, base 1s doubling each attempt,
// capped at one minute.
func backoff(attempt int) time.Duration {
	base := time.Second << uint(attempt)
	if base > time.Minute || base <= 0 {
		base = time.Minute
	}
	return time.Duration(rand.Int63n(int64(base)))
}

// deliver routes msg to the channel's interfaces per its RoutingPolicy,
// returning true only once the policy is satisfied.
func (d *Dispatcher) deliver(ctx context.Context, ch ChannelConfig, msg *OutboundMessage) bool {
	switch ch.Routing {
	case RoutingAll:
		ok := true
		for _, name := range ch.Interfaces {
			if iface, found := d.interfaces[name]; found {
				if err := iface.Send(ctx, ch, msg.Content); err != nil {
					ok = false
				}
			}
		}
		return ok
	case RoutingFallback:
		for _, name := range ch.Interfaces {
			iface, found := d.interfaces[name]
			if !found {
				continue
			}
			if iface.State() == StateDegraded {
				continue
			}
			if err := iface.Send(ctx, ch, msg.Content); err == nil {
				return true
			}
		}
		// no non-degraded interface accepted it; try every configured
		// interface in order, degraded ones included
		for _, name := range ch.Interfaces {
			if iface, found := d.interfaces[name]; found {
				if err := iface.Send(ctx, ch, msg.Content); err == nil {
					return true
				}
			}
		}
		return false
	default: // RoutingPrimary
		for _, name := range ch.Interfaces {
			iface, found := d.interfaces[name]
			if !found {
				continue
			}
			if err := iface.Send(ctx, ch, msg.Content); err == nil {
				return true
			}
		}
		return false
	}
}

func (d *Dispatcher) logOutcome(msg *OutboundMessage, outcome, detail string) {
	if d.Logger == nil {
		return
	}
	_ = d.Logger.LogDelivery(msg.Event, msg.ChannelName, outcome, msg.Attempts, detail)
}

// PendingCount reports the number of messages awaiting delivery or retry,
// for the control channel's stats output.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// ProbeDegraded re-probes every interface currently reporting StateDegraded,
// per spec §4.6's health_check_interval ("a health probe runs every
// health_check_interval"). A successful probe moves the interface back to
// StateConnected via its own stateMachine callbacks.
func (d *Dispatcher) ProbeDegraded(ctx context.Context) {
	for _, iface := range d.interfaces {
		if iface.State() != StateDegraded {
			continue
		}
		_ = iface.HealthProbe(ctx)
	}
}

// InterfaceStates returns a point-in-time view of every configured
// interface's connection state, for the control channel's health command.
func (d *Dispatcher) InterfaceStates() map[string]ConnState {
	out := make(map[string]ConnState, len(d.interfaces))
	for name, iface := range d.interfaces {
		out[name] = iface.State()
	}
	return out
}
