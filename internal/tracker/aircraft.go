// Package tracker implements the Aircraft Tracker: the single owner of the
// keyed aircraft state store, serializing all mutations and applying the
// per-field last-writer-wins-by-message-timestamp merge policy.
//
// The state store itself is a sync.RWMutex-guarded map[uint32]*Aircraft,
// generalized into a fully merged multi-field record rather than a raw CPR
// position pair per aircraft.
package tracker

import (
	"time"

	"go1090/internal/adsb"
)

// timedFloat is a field whose last-writer-wins semantics are governed by
// the source message's timestamp, not wall-clock arrival order.
type timedFloat struct {
	value float64
	ts    time.Time
	has   bool
}

// set applies v if ts is not strictly older than the field's current source
// timestamp. Returns true if the field was updated.
func (f *timedFloat) set(ts time.Time, v float64) bool {
	if f.has && ts.Before(f.ts) {
		return false
	}
	f.value, f.ts, f.has = v, ts, true
	return true
}

type timedInt struct {
	value int
	ts    time.Time
	has   bool
}

func (f *timedInt) set(ts time.Time, v int) bool {
	if f.has && ts.Before(f.ts) {
		return false
	}
	f.value, f.ts, f.has = v, ts, true
	return true
}

type timedString struct {
	value string
	ts    time.Time
	has   bool
}

func (f *timedString) set(ts time.Time, v string) bool {
	if f.has && ts.Before(f.ts) {
		return false
	}
	f.value, f.ts, f.has = v, ts, true
	return true
}

// Aircraft is the durable per-ICAO entity. All mutation happens
// inside Store's single-owner loop; callers outside this package only ever
// see a Snapshot copy.
type Aircraft struct {
	ICAO uint32

	callsign timedString
	category timedInt

	lat, lon       timedFloat
	positionSource adsb.PositionSource
	positionTime   time.Time
	hasPosition    bool

	onGround     bool
	onGroundTime time.Time

	altBaro timedInt
	altGNSS timedInt

	groundSpeed   timedFloat
	track         timedFloat
	trueAirspeed  timedFloat
	indAirspeed   timedFloat
	mach          timedFloat
	magHeading    timedFloat
	verticalRate  timedInt
	verticalSrc   adsb.AltitudeSource

	squawk             timedInt
	surveillanceStatus timedInt

	// Extra holds the TC28/29/31 side-map fields and any quality (NAC/NIC)
	// values; these always update to the latest value with no
	// sticky/timestamp-gated semantics.
	Extra map[string]float64

	// BDS holds committed Comm-B register readings, once the two-reading
	// confirmation policy in bds.go accepts them.
	BDS map[string]map[string]float64
	// pendingBDS is the single-slot-per-register staging area for
	// not-yet-confirmed readings.
	pendingBDS map[string]*pendingReading

	// CPR state: last even/odd frames for airborne and surface position,
	// kept with the Aircraft rather than the Decoder so each aircraft's
	// position resolution is independent of every other's.
	evenAirborne, oddAirborne *cprFix
	evenSurface, oddSurface   *cprFix

	FirstSeen     time.Time
	LastSeen      time.Time
	MessagesTotal uint64
	MessagesByDF  map[uint8]uint64
	DataSources   map[string]struct{}
	IsWatchlist   bool

	RangeErrors int
}

// cprFix is one buffered CPR half-frame, kept until superseded or it falls
// outside the global decode window.
type cprFix struct {
	frame adsb.CPRFrame
	at    time.Time
}

// pendingReading is a single staged (unconfirmed) BDS register reading.
type pendingReading struct {
	fields map[string]float64
	at     time.Time
}

func newAircraft(icao uint32, now time.Time) *Aircraft {
	return &Aircraft{
		ICAO:          icao,
		FirstSeen:     now,
		LastSeen:      now,
		MessagesByDF:  make(map[uint8]uint64),
		DataSources:   make(map[string]struct{}),
		Extra:         make(map[string]float64),
		BDS:           make(map[string]map[string]float64),
		pendingBDS:    make(map[string]*pendingReading),
	}
}

// Snapshot is the external, read-only view of an Aircraft returned by
// Store.Snapshot, flattened out of the timestamp-tagged internal
// representation.
type Snapshot struct {
	ICAO     uint32
	Callsign string
	Category uint8

	Lat, Lon       float64
	HasPosition    bool
	PositionSource adsb.PositionSource
	PositionTime   time.Time

	OnGround bool

	AltBaroFt   int
	HasAltBaro  bool
	AltGNSSFt   int
	HasAltGNSS  bool

	GroundSpeedKt       float64
	TrackDeg            float64
	TrueAirspeedKt      float64
	IndicatedAirspeedKt float64
	Mach                float64
	MagHeadingDeg       float64
	VerticalRateFpm     int
	VerticalRateSrc     adsb.AltitudeSource

	Squawk             uint16
	SurveillanceStatus uint8

	Extra map[string]float64
	BDS   map[string]map[string]float64

	FirstSeen     time.Time
	LastSeen      time.Time
	MessagesTotal uint64
	MessagesByDF  map[uint8]uint64
	DataSources   []string
	IsWatchlist   bool
}

func (a *Aircraft) snapshot() Snapshot {
	s := Snapshot{
		ICAO:               a.ICAO,
		Callsign:           a.callsign.value,
		Category:           uint8(a.category.value),
		Lat:                a.lat.value,
		Lon:                a.lon.value,
		HasPosition:        a.hasPosition,
		PositionSource:     a.positionSource,
		PositionTime:       a.positionTime,
		OnGround:           a.onGround,
		AltBaroFt:          a.altBaro.value,
		HasAltBaro:         a.altBaro.has,
		AltGNSSFt:          a.altGNSS.value,
		HasAltGNSS:         a.altGNSS.has,
		GroundSpeedKt:      a.groundSpeed.value,
		TrackDeg:           a.track.value,
		TrueAirspeedKt:     a.trueAirspeed.value,
		IndicatedAirspeedKt: a.indAirspeed.value,
		Mach:               a.mach.value,
		MagHeadingDeg:      a.magHeading.value,
		VerticalRateFpm:    a.verticalRate.value,
		VerticalRateSrc:    a.verticalSrc,
		Squawk:             uint16(a.squawk.value),
		SurveillanceStatus: uint8(a.surveillanceStatus.value),
		FirstSeen:          a.FirstSeen,
		LastSeen:           a.LastSeen,
		MessagesTotal:      a.MessagesTotal,
		IsWatchlist:        a.IsWatchlist,
	}
	s.Extra = make(map[string]float64, len(a.Extra))
	for k, v := range a.Extra {
		s.Extra[k] = v
	}
	s.BDS = make(map[string]map[string]float64, len(a.BDS))
	for reg, fields := range a.BDS {
		cp := make(map[string]float64, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		s.BDS[reg] = cp
	}
	s.MessagesByDF = make(map[uint8]uint64, len(a.MessagesByDF))
	for df, n := range a.MessagesByDF {
		s.MessagesByDF[df] = n
	}
	s.DataSources = make([]string, 0, len(a.DataSources))
	for src := range a.DataSources {
		s.DataSources = append(s.DataSources, src)
	}
	return s
}
