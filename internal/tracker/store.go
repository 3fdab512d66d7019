package tracker

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go1090/internal/adsb"
	"go1090/internal/clock"
)

// Config holds the Tracker's tunable parameters.
type Config struct {
	AircraftTimeout time.Duration // default 300s
	MaxAircraft     int           // default 10000

	GlobalCPRWindowAirborne time.Duration // default 10s
	GlobalCPRWindowSurface  time.Duration // default 25s
	LocalCPRRangeNM         float64       // default 180
	PositionTimeout         time.Duration // default 60s

	// BDSConfirmWindow bounds how long a pending (unconfirmed) BDS reading
	// stays eligible for a second, confirming reading.
	BDSConfirmWindow time.Duration // default 30s
}

// DefaultConfig returns the documented defaults for every tunable.
func DefaultConfig() Config {
	return Config{
		AircraftTimeout:         300 * time.Second,
		MaxAircraft:             10000,
		GlobalCPRWindowAirborne: 10 * time.Second,
		GlobalCPRWindowSurface:  25 * time.Second,
		LocalCPRRangeNM:         180,
		PositionTimeout:         60 * time.Second,
		BDSConfirmWindow:        30 * time.Second,
	}
}

// MatchFunc evaluates whether an aircraft's current identification matches
// the active watchlist (internal/watchlist.Watchlist.Matches), kept as a
// function value rather than a type from internal/watchlist so this package
// never has to import it: data flows tracker -> watchlist, never back.
type MatchFunc func(icao uint32, callsign string) bool

type refHolder struct {
	set  bool
	lat  float64
	lon  float64
}

// Store is the single owner of the aircraft state map. All
// mutation happens inside Ingest/Expire/SetWatchlist/SetReference; external
// callers only ever observe Snapshot copies.
type Store struct {
	cfg      Config
	clock    clock.Clock
	counters adsb.Counters

	mu       sync.RWMutex
	aircraft map[uint32]*Aircraft

	ref   atomic.Value // refHolder
	match atomic.Value // MatchFunc
}

// New returns a ready Store. counters may be nil to run uninstrumented.
func New(cfg Config, clk clock.Clock, counters adsb.Counters) *Store {
	s := &Store{
		cfg:      cfg,
		clock:    clk,
		counters: counters,
		aircraft: make(map[uint32]*Aircraft),
	}
	s.ref.Store(refHolder{})
	s.match.Store(MatchFunc(nil))
	return s
}

func (s *Store) count(name string) {
	if s.counters != nil {
		s.counters.Inc(name)
	}
}

// SetReference installs the operator-configured receiver location (or the
// most recent global fix) used as the anchor for local CPR decode. The
// reference is a single read-mostly value guarded by an atomic slot.
func (s *Store) SetReference(lat, lon float64) {
	s.ref.Store(refHolder{set: true, lat: lat, lon: lon})
}

func (s *Store) reference() (lat, lon float64, ok bool) {
	h := s.ref.Load().(refHolder)
	return h.lat, h.lon, h.set
}

// SetWatchlist atomically replaces the active watchlist matcher and
// recomputes every tracked aircraft's IsWatchlist flag.
func (s *Store) SetWatchlist(match MatchFunc) {
	s.match.Store(match)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ac := range s.aircraft {
		ac.IsWatchlist = match != nil && match(ac.ICAO, ac.callsign.value)
	}
}

// KnownICAO reports whether icao is currently tracked, used by the Frame
// Validator to accept ambiguous-CRC surveillance replies.
func (s *Store) KnownICAO(icao uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.aircraft[icao]
	return ok
}

// Update is returned by Ingest: what changed, and whether downstream
// components (the Watchlist Matcher) should re-evaluate this aircraft.
type Update struct {
	ICAO                  uint32
	IsNew                 bool
	PositionResolved      bool
	TouchedIdentification bool
	TouchedPosition       bool
	Aircraft              Snapshot
}

// Ingest applies a DecodedMessage to the store under the per-field
// last-writer-wins-by-message-timestamp merge policy.
// Idempotent for exact duplicates: re-applying the same message can never
// move a field's source timestamp backwards so nothing changes.
func (s *Store) Ingest(msg *adsb.DecodedMessage) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	ac, wasNew := s.getOrCreateLocked(msg.ICAO, now)

	// last_seen is monotonic per key regardless of message timestamp, since
	// it records local receipt time, not the message's own clock.
	if now.After(ac.LastSeen) {
		ac.LastSeen = now
	}
	ac.MessagesTotal++
	ac.MessagesByDF[msg.DF]++
	if msg.SourceID != "" {
		ac.DataSources[msg.SourceID] = struct{}{}
	}

	touchedID := s.applyIdentification(ac, msg)
	s.applyAltitude(ac, msg)
	touchedPos := s.applyPosition(ac, msg)
	s.applyVelocity(ac, msg)
	s.applySquawk(ac, msg)
	s.applyQuality(ac, msg)
	s.applyBDS(ac, msg, now)

	if match, _ := s.match.Load().(MatchFunc); match != nil {
		ac.IsWatchlist = match(ac.ICAO, ac.callsign.value)
	}

	return Update{
		ICAO:                  msg.ICAO,
		IsNew:                 wasNew,
		PositionResolved:      touchedPos,
		TouchedIdentification: touchedID,
		TouchedPosition:       touchedPos,
		Aircraft:              ac.snapshot(),
	}
}

func (s *Store) getOrCreateLocked(icao uint32, now time.Time) (*Aircraft, bool) {
	if ac, ok := s.aircraft[icao]; ok {
		return ac, false
	}
	ac := newAircraft(icao, now)
	s.evictIfFullLocked()
	s.aircraft[icao] = ac
	return ac, true
}

// evictIfFullLocked enforces max_aircraft by evicting the oldest-by-last_seen
// entry before a new one is inserted.
func (s *Store) evictIfFullLocked() {
	if s.cfg.MaxAircraft <= 0 || len(s.aircraft) < s.cfg.MaxAircraft {
		return
	}
	var oldestICAO uint32
	var oldestTime time.Time
	first := true
	for icao, ac := range s.aircraft {
		if first || ac.LastSeen.Before(oldestTime) {
			oldestICAO, oldestTime, first = icao, ac.LastSeen, false
		}
	}
	if !first {
		delete(s.aircraft, oldestICAO)
		s.count("aircraft_evicted")
	}
}

func (s *Store) applyIdentification(ac *Aircraft, msg *adsb.DecodedMessage) bool {
	changed := false
	if msg.HasCallsign {
		// Callsign is sticky only in the sense that it is only ever set by
		// TC1-4 identification frames -- which is the only source
		// DecodedMessage.HasCallsign ever has, so no extra gating is needed
		// beyond the standard per-field timestamp check.
		if ac.callsign.set(msg.Timestamp, msg.Callsign) {
			ac.category.set(msg.Timestamp, int(msg.Category))
			changed = true
		}
	}
	return changed
}

func (s *Store) applyAltitude(ac *Aircraft, msg *adsb.DecodedMessage) {
	if !msg.HasAltitude {
		return
	}
	// on_ground is the source of truth; surface records never apply an
	// altitude field.
	if ac.onGround || msg.OnGround {
		return
	}
	if msg.AltBaroFt < -1000 || msg.AltBaroFt > 60000 {
		ac.RangeErrors++
		s.count("range_error_altitude")
		return
	}
	switch msg.AltitudeSrc {
	case adsb.AltitudeGNSS:
		ac.altGNSS.set(msg.Timestamp, msg.AltBaroFt)
	default:
		ac.altBaro.set(msg.Timestamp, msg.AltBaroFt)
	}
}

func (s *Store) applyVelocity(ac *Aircraft, msg *adsb.DecodedMessage) {
	if !msg.HasVelocity && !msg.HasHeading && !msg.HasTrack && !msg.HasVerticalRate {
		return
	}
	if msg.HasVelocity {
		if msg.GroundSpeedKt < 0 || msg.GroundSpeedKt > 5000 {
			ac.RangeErrors++
			s.count("range_error_speed")
		} else {
			ac.groundSpeed.set(msg.Timestamp, msg.GroundSpeedKt)
		}
		if msg.TrueAirspeedKt > 0 {
			ac.trueAirspeed.set(msg.Timestamp, msg.TrueAirspeedKt)
		}
		if msg.IndicatedAirspeedKt > 0 {
			ac.indAirspeed.set(msg.Timestamp, msg.IndicatedAirspeedKt)
		}
		if msg.Mach > 0 {
			ac.mach.set(msg.Timestamp, msg.Mach)
		}
	}
	if msg.HasTrack {
		trk := msg.TrackDeg
		if trk < 0 || trk >= 360 {
			ac.RangeErrors++
			s.count("range_error_track")
		} else {
			ac.track.set(msg.Timestamp, trk)
		}
	}
	if msg.HasHeading {
		ac.magHeading.set(msg.Timestamp, msg.MagHeadingDeg)
	}
	if msg.HasVerticalRate {
		ac.verticalRate.set(msg.Timestamp, msg.VerticalRateFpm)
		ac.verticalSrc = msg.VerticalRateSrc
	}
}

func (s *Store) applySquawk(ac *Aircraft, msg *adsb.DecodedMessage) {
	if !msg.HasSquawk {
		return
	}
	ac.squawk.set(msg.Timestamp, int(msg.Squawk))
}

// applyQuality copies the decoder's side-map (TC28/29/31 emergency/
// target-state/ops-status fields, and any NAC/NIC quality values) straight
// through with no sticky/timestamp gating: these always update to the
// latest value.
func (s *Store) applyQuality(ac *Aircraft, msg *adsb.DecodedMessage) {
	for k, v := range msg.Extra {
		ac.Extra[k] = v
	}
}

func (s *Store) applyPosition(ac *Aircraft, msg *adsb.DecodedMessage) bool {
	if msg.HasResolvedPosition {
		if msg.Lat < -90 || msg.Lat > 90 || msg.Lon < -180 || msg.Lon >= 180 {
			ac.RangeErrors++
			s.count("range_error_position")
			return false
		}
		ac.lat.set(msg.Timestamp, msg.Lat)
		ac.lon.set(msg.Timestamp, msg.Lon)
		ac.hasPosition = true
		ac.positionSource = adsb.PositionJSONSnapshot
		ac.positionTime = msg.Timestamp
		ac.onGround = msg.OnGround
		s.count("position_from_snapshot")
		return true
	}
	if msg.OnGround && !msg.HasCPRPosition {
		ac.onGround = true
		ac.onGroundTime = msg.Timestamp
	}
	if !msg.HasCPRPosition {
		return false
	}
	ac.onGround = msg.OnGround
	ac.onGroundTime = msg.Timestamp

	frame := adsb.CPRFrame{LatCPR: msg.CPRLat, LonCPR: msg.CPRLon, Odd: msg.CPROddFlag != 0}
	fix := &cprFix{frame: frame, at: msg.Timestamp}

	var evenSlot, oddSlot **cprFix
	var window time.Duration
	if msg.SurfacePos {
		evenSlot, oddSlot, window = &ac.evenSurface, &ac.oddSurface, s.cfg.GlobalCPRWindowSurface
	} else {
		evenSlot, oddSlot, window = &ac.evenAirborne, &ac.oddAirborne, s.cfg.GlobalCPRWindowAirborne
	}
	if frame.Odd {
		*oddSlot = fix
	} else {
		*evenSlot = fix
	}

	even, odd := *evenSlot, *oddSlot
	if even != nil && odd != nil {
		delta := odd.at.Sub(even.at)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			latestOdd := odd.at.After(even.at) || odd.at.Equal(even.at)
			var lat, lon float64
			var ok bool
			if msg.SurfacePos {
				refLat, refLon, hasRef := s.reference()
				if hasRef {
					lat, lon, ok = adsb.DecodeGlobalSurface(even.frame, odd.frame, latestOdd, refLat, refLon)
				}
			} else {
				lat, lon, ok = adsb.DecodeGlobalAirborne(even.frame, odd.frame, latestOdd)
			}
			if ok && lat >= -90 && lat <= 90 && lon >= -180 && lon < 180 {
				ac.lat.set(msg.Timestamp, lat)
				ac.lon.set(msg.Timestamp, lon)
				ac.hasPosition = true
				if msg.SurfacePos {
					ac.positionSource = adsb.PositionSurface
				} else {
					ac.positionSource = adsb.PositionGlobalCPR
				}
				ac.positionTime = msg.Timestamp
				s.SetReference(lat, lon)
				s.count("cpr_global_computed")
				return true
			}
		}
	}

	// No fresh pair: fall back to local decode against the current
	// reference, buffering silently if there is none yet.
	refLat, refLon, hasRef := s.reference()
	if !hasRef {
		s.count("cpr_incomplete")
		return false
	}
	var lat, lon float64
	var ok bool
	if msg.SurfacePos {
		lat, lon, ok = adsb.DecodeLocalSurfaceRanged(frame, refLat, refLon, s.cfg.LocalCPRRangeNM)
	} else {
		lat, lon, ok = adsb.DecodeLocalAirborneRanged(frame, refLat, refLon, s.cfg.LocalCPRRangeNM)
	}
	if !ok {
		s.count("cpr_incomplete")
		return false
	}
	if msg.Timestamp.Before(ac.positionTime) {
		return false
	}
	ac.lat.set(msg.Timestamp, lat)
	ac.lon.set(msg.Timestamp, lon)
	ac.hasPosition = true
	if msg.SurfacePos {
		ac.positionSource = adsb.PositionSurface
	} else {
		ac.positionSource = adsb.PositionLocalCPR
	}
	ac.positionTime = msg.Timestamp
	s.count("cpr_local_computed")
	return true
}

// Snapshot returns a point-in-time, deep-copied view of every tracked
// aircraft, safe to read without holding any lock.
func (s *Store) Snapshot() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, len(s.aircraft))
	for _, ac := range s.aircraft {
		out = append(out, ac.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ICAO < out[j].ICAO })
	return out
}

// Get returns a single aircraft's snapshot, for the control channel's
// `aircraft <icao>` command.
func (s *Store) Get(icao uint32) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ac, ok := s.aircraft[icao]
	if !ok {
		return Snapshot{}, false
	}
	return ac.snapshot(), true
}

// Len reports the number of tracked aircraft, always <= MaxAircraft.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.aircraft)
}

// Expire removes every aircraft whose last_seen is older than
// aircraft_timeout and clears position fields older than position_timeout.
func (s *Store) Expire(now time.Time) (removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for icao, ac := range s.aircraft {
		if now.Sub(ac.LastSeen) > s.cfg.AircraftTimeout {
			delete(s.aircraft, icao)
			removed++
			continue
		}
		if ac.hasPosition && now.Sub(ac.positionTime) > s.cfg.PositionTimeout {
			ac.hasPosition = false
			ac.positionSource = adsb.PositionNone
			ac.lat = timedFloat{}
			ac.lon = timedFloat{}
		}
	}
	if removed > 0 {
		s.count("aircraft_expired")
	}
	return removed
}
