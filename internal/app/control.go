package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"go1090/internal/tracker"
	"go1090/internal/watchlist"
)

// Stats is the control channel's `stats` response shape, backing spec §6's
// stats() read view: frame/decode counters, aircraft count, per-source
// connection state, and outbound queue depth.
type Stats struct {
	Counters        map[string]float64 `json:"counters"`
	AircraftCount   int                `json:"aircraft_count"`
	SourceStates    map[string]string  `json:"source_states"`
	PendingAlerts   int                `json:"pending_alerts"`
}

// Health is the control channel's `health` response shape, backing spec
// §6's health() read view.
type Health struct {
	OK             bool              `json:"ok"`
	SourcesAllDown bool              `json:"sources_all_down"`
	Detail         map[string]string `json:"detail"`
}

// controlBackend is the narrow slice of Application the control channel
// needs, kept as an interface so ControlServer can be unit tested without a
// fully wired Application.
type controlBackend interface {
	Snapshot() []tracker.Snapshot
	Aircraft(icao uint32) (tracker.Snapshot, bool)
	Stats() Stats
	Health() Health
	WatchlistEntries() []watchlist.Entry
}

// ControlServer implements spec §1's "small line-oriented control channel":
// a plain-text TCP listener accepting one command per line (`stats`,
// `health`, `watchlist`, `aircraft <icao>`) and writing back one JSON line
// per response. This is not the HTTP/JSON surface named as a non-goal in
// §1 -- it is the minimal text-line protocol explicitly named alongside it.
type ControlServer struct {
	addr    string
	logger  *logrus.Logger
	backend controlBackend
}

// NewControlServer returns a ControlServer listening on addr once Serve is
// called. addr == "" disables the control channel entirely (the caller
// should not invoke Serve in that case).
func NewControlServer(addr string, logger *logrus.Logger, backend controlBackend) *ControlServer {
	return &ControlServer{addr: addr, logger: logger, backend: backend}
}

// Serve accepts connections until ctx is cancelled.
func (c *ControlServer) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("control: listen on %s: %w", c.addr, err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		go c.handle(ctx, conn)
	}
}

func (c *ControlServer) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp := c.dispatch(line)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (c *ControlServer) dispatch(line string) interface{} {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return errorResponse("empty command")
	}

	switch fields[0] {
	case "stats":
		return c.backend.Stats()

	case "health":
		return c.backend.Health()

	case "watchlist":
		return c.backend.WatchlistEntries()

	case "aircraft":
		if len(fields) != 2 {
			return errorResponse("usage: aircraft <icao-hex>")
		}
		icao64, err := strconv.ParseUint(fields[1], 16, 32)
		if err != nil {
			return errorResponse(fmt.Sprintf("invalid icao %q", fields[1]))
		}
		ac, ok := c.backend.Aircraft(uint32(icao64))
		if !ok {
			return errorResponse(fmt.Sprintf("no aircraft %06X", icao64))
		}
		return ac

	default:
		return errorResponse(fmt.Sprintf("unknown command %q", fields[0]))
	}
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// WatchlistEntries returns the configured watchlist targets, for the
// control channel's `watchlist` command.
func (app *Application) WatchlistEntries() []watchlist.Entry {
	return app.config.WatchlistEntries
}
