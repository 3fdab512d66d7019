package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/alertlog"
	"go1090/internal/clock"
	"go1090/internal/dispatch"
	"go1090/internal/logging"
	"go1090/internal/metrics"
	"go1090/internal/source"
	"go1090/internal/tracker"
	"go1090/internal/watchlist"
)

// Application wires the full pipeline described in spec §2: Source Manager
// -> Frame Validator -> Decoder -> Aircraft Tracker -> Watchlist Matcher ->
// Alert Dispatcher, plus the ambient metrics/log/control-channel surface.
type Application struct {
	config Config
	logger *logrus.Logger

	clk      clock.Clock
	counters *metrics.Sink

	sources    *source.Manager
	validator  *adsb.Validator
	decoder    *adsb.Decoder
	store      *tracker.Store
	matcher    *watchlist.Matcher
	dispatcher *dispatch.Dispatcher
	alertLog   *alertlog.Writer
	logRotator *logging.LogRotator
	control    *ControlServer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication builds an Application from config. No I/O happens yet;
// connections are only opened once Start runs.
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config: config,
		logger: logger,
		clk:    clock.Real{},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start initializes every component, begins the pipeline, and blocks until
// a shutdown signal arrives or the context is cancelled.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting ADS-B tracker")

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	app.run()

	<-sigChan
	app.logger.Info("Received shutdown signal")
	app.shutdown()

	return nil
}

// initializeComponents constructs every pipeline stage from app.config. The
// only error paths here are configuration failures (SourceFatal and
// equivalents); everything else is a runtime-recoverable condition handled
// once the pipeline is running.
func (app *Application) initializeComponents() error {
	app.counters = metrics.New(prometheus.NewRegistry())

	var err error
	app.logRotator, err = logging.NewLogRotator(app.config.LogDir, "alerts", app.config.LogRotateUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}
	app.alertLog = alertlog.NewWriter(app.logRotator, app.logger)

	app.sources, err = source.New(app.config.Sources, 1024, app.counters, app.clk)
	if err != nil {
		return fmt.Errorf("failed to configure sources: %w", err)
	}

	app.validator = adsb.NewValidator(app.counters)
	app.decoder = adsb.NewDecoder()

	app.store = tracker.New(app.config.TrackerConfig(), app.clk, app.counters)
	if app.config.HasReference {
		app.store.SetReference(app.config.ReferenceLat, app.config.ReferenceLon)
	}

	compiled, err := watchlist.Compile(app.config.WatchlistEntries)
	if err != nil {
		return fmt.Errorf("invalid watchlist: %w", err)
	}
	wl := watchlist.New(compiled)
	app.store.SetWatchlist(wl.Matches)

	app.matcher = watchlist.NewMatcher(app.clk, 256, app.counters)
	app.matcher.SetWatchlist(wl)

	app.dispatcher = dispatch.New(app.clk, app.counters)
	app.dispatcher.Logger = app.alertLog
	if app.config.SerialPort != "" {
		app.dispatcher.AddInterface(dispatch.NewSerialInterface(app.config.SerialPort, app.config.SerialBaud))
	}
	if app.config.MQTT != nil {
		app.dispatcher.AddInterface(dispatch.NewMQTTInterface(*app.config.MQTT))
	}
	for _, ch := range app.config.Channels {
		app.dispatcher.AddChannel(ch)
	}

	app.control = NewControlServer(app.config.ControlAddr, app.logger, app)

	return nil
}

// run launches every pipeline goroutine; it never blocks.
func (app *Application) run() {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.logRotator.Start(app.ctx)
	}()

	app.sources.Start(app.ctx)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.consumeFrames()
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.consumeSynthetic()
	}()

	app.dispatcher.Start(app.ctx, app.matcher.Events(), time.Second)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.expireLoop()
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.healthProbeLoop()
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics()
	}()

	if app.config.ControlAddr != "" {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := app.control.Serve(app.ctx); err != nil {
				app.logger.WithError(err).Warn("control channel stopped")
			}
		}()
	}

	app.logger.Info("All components started")
}

// consumeFrames runs every RawFrame from the Source Manager through the
// Frame Validator and Decoder and into the Tracker, feeding its Update into
// the Watchlist Matcher.
func (app *Application) consumeFrames() {
	frames := app.sources.Frames()
	for {
		select {
		case <-app.ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			vf, reject := app.validator.Validate(frame, app.knownICAO)
			if reject != nil {
				continue
			}
			msg := app.decoder.Decode(vf)
			update := app.store.Ingest(msg)
			app.sources.RememberICAO(update.ICAO)
			app.matcher.Evaluate(update)
		}
	}
}

// consumeSynthetic drains the json_poll side-channel of already-decoded
// messages straight into the Tracker, bypassing the Validator/Decoder.
func (app *Application) consumeSynthetic() {
	synthetic := app.sources.Synthetic()
	for {
		select {
		case <-app.ctx.Done():
			return
		case msg, ok := <-synthetic:
			if !ok {
				return
			}
			update := app.store.Ingest(msg)
			app.matcher.Evaluate(update)
		}
	}
}

// knownICAO combines the Source Manager's short-lived recently-confirmed
// cache with the Tracker's own key set, satisfying adsb.KnownICAO for
// surveillance-reply acceptance.
func (app *Application) knownICAO(icao uint32) bool {
	return app.store.KnownICAO(icao) || app.sources.KnownICAO(icao)
}

// expireLoop periodically removes stale aircraft (spec §4.4 expire).
func (app *Application) expireLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.store.Expire(app.clk.Now())
			app.counters.Set("aircraft_tracked", float64(app.store.Len()))
		}
	}
}

// healthProbeLoop re-probes any interface the Dispatcher reports as
// degraded, per spec §4.6's health_check_interval.
func (app *Application) healthProbeLoop() {
	interval := time.Duration(app.config.HealthCheckSec) * time.Second
	if interval <= 0 {
		interval = time.Duration(DefaultHealthCheckSeconds) * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.dispatcher.ProbeDegraded(app.ctx)
		}
	}
}

// reportStatistics periodically logs a structured counters snapshot.
func (app *Application) reportStatistics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.logCounters("periodic statistics")
		}
	}
}

func (app *Application) logCounters(msg string) {
	totals := app.counters.Snapshot()
	fields := make(logrus.Fields, len(totals)+1)
	for k, v := range totals {
		fields[k] = v
	}
	fields["aircraft_tracked"] = app.store.Len()
	app.logger.WithFields(fields).Info(msg)
}

// Snapshot returns every tracked aircraft, for the control channel and any
// external read view.
func (app *Application) Snapshot() []tracker.Snapshot {
	return app.store.Snapshot()
}

// Aircraft returns a single tracked aircraft by ICAO.
func (app *Application) Aircraft(icao uint32) (tracker.Snapshot, bool) {
	return app.store.Get(icao)
}

// Stats returns the counters snapshot plus per-source connection state, for
// the control channel's `stats` command.
func (app *Application) Stats() Stats {
	return Stats{
		Counters:      app.counters.Snapshot(),
		AircraftCount: app.store.Len(),
		SourceStates:  stringifyStates(app.sources.States()),
		PendingAlerts: app.dispatcher.PendingCount(),
	}
}

// Health reports a boolean plus per-check detail, per spec §6 health(). A
// source being down is folded in alongside every interface's state; the
// overall OK flag additionally reflects sources_all_down (spec §7: "if all
// sources are disconnected, aircraft snapshot returns existing state with a
// sources_all_down=true flag").
func (app *Application) Health() Health {
	sourceStates := app.sources.States()
	allDown := len(sourceStates) > 0
	detail := make(map[string]string, len(sourceStates)+2)
	for name, st := range sourceStates {
		detail["source:"+name] = st.String()
		if st == source.StateConnected {
			allDown = false
		}
	}
	for name, st := range app.dispatcher.InterfaceStates() {
		detail["interface:"+name] = st.String()
	}
	return Health{
		OK:             !allDown,
		SourcesAllDown: allDown,
		Detail:         detail,
	}
}

func stringifyStates(states map[string]source.ConnState) map[string]string {
	out := make(map[string]string, len(states))
	for k, v := range states {
		out[k] = v.String()
	}
	return out
}

// shutdown cancels every worker, waits up to shutdown_grace for them to
// finish, dumps final counters, and releases resources.
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.sources.Stop()
		app.dispatcher.Stop()
		app.wg.Wait()
		close(done)
	}()

	grace := app.config.ShutdownGrace
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	select {
	case <-done:
		app.logger.Info("All goroutines finished")
	case <-time.After(grace):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	app.logCounters("final counters")

	if app.logRotator != nil {
		app.logRotator.Close()
	}

	app.logger.Info("Shutdown completed")
}
