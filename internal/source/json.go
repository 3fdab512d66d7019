package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go1090/internal/adsb"
)

// jsonSnapshot mirrors the dump1090-style aircraft.json schema (spec §6):
// a poll timestamp plus one entry per currently tracked aircraft.
type jsonSnapshot struct {
	Now      float64          `json:"now"`
	Aircraft []jsonAircraft   `json:"aircraft"`
}

type jsonAircraft struct {
	Hex      string  `json:"hex"`
	Flight   string  `json:"flight"`
	AltBaro  *int    `json:"alt_baro"`
	GS       *float64 `json:"gs"`
	Track    *float64 `json:"track"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Squawk   string  `json:"squawk"`
	Seen     float64 `json:"seen"`
}

// runJSONPoll periodically GETs cfg.Address and translates each aircraft
// entry directly into a synthetic DecodedMessage, bypassing the Frame
// Validator/Decoder entirely per spec ("each element is translated into a
// synthetic DecodedMessage tagged with source=json").
func (m *Manager) runJSONPoll(ctx context.Context, cfg Config) error {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	client := &http.Client{Timeout: 10 * time.Second}

	m.setState(cfg.Name, StateConnected)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := m.pollOnce(ctx, client, cfg); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.pollOnce(ctx, client, cfg); err != nil {
				return err
			}
		}
	}
}

func (m *Manager) pollOnce(ctx context.Context, client *http.Client, cfg Config) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Address, nil)
	if err != nil {
		return &FatalError{Source: cfg.Name, Reason: err.Error()}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("json_poll %s: status %d", cfg.Name, resp.StatusCode)
	}

	var snap jsonSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return err
	}

	now := m.now()
	for _, a := range snap.Aircraft {
		icao, err := parseHexICAO(a.Hex)
		if err != nil {
			if m.counters != nil {
				m.counters.Inc("frames_rejected")
			}
			continue
		}
		msg := adsb.NewDecodedMessage(icao, 0, now, cfg.Name)
		if a.Flight != "" {
			msg.HasCallsign = true
			msg.Callsign = a.Flight
		}
		if a.AltBaro != nil {
			msg.HasAltitude = true
			msg.AltBaroFt = *a.AltBaro
			msg.AltitudeSrc = adsb.AltitudeBaro
		}
		if a.Lat != nil && a.Lon != nil {
			msg.HasResolvedPosition = true
			msg.Lat = *a.Lat
			msg.Lon = *a.Lon
		}
		if a.GS != nil {
			msg.HasVelocity = true
			msg.GroundSpeedKt = *a.GS
		}
		if a.Track != nil {
			msg.HasVelocity = true
			msg.TrackDeg = *a.Track
		}
		if a.Squawk != "" {
			if sq, err := parseSquawk(a.Squawk); err == nil {
				msg.HasSquawk = true
				msg.Squawk = sq
			}
		}

		select {
		case m.syntheticOut <- msg:
			if m.counters != nil {
				m.counters.Inc("frames_in")
			}
		case <-ctx.Done():
			return nil
		default:
			if m.counters != nil {
				m.counters.Inc("dropped_frames")
			}
		}
	}
	return nil
}

func parseHexICAO(hexStr string) (uint32, error) {
	var icao uint32
	n, err := fmt.Sscanf(hexStr, "%x", &icao)
	if err != nil || n != 1 {
		return 0, fmt.Errorf("invalid hex icao %q", hexStr)
	}
	return icao, nil
}

func parseSquawk(s string) (uint16, error) {
	var sq uint16
	n, err := fmt.Sscanf(s, "%d", &sq)
	if err != nil || n != 1 {
		return 0, fmt.Errorf("invalid squawk %q", s)
	}
	return sq, nil
}
