// Package adsb implements Mode-S CRC validation and ADS-B field decoding:
// the Frame Validator and Decoder components of the tracking pipeline.
package adsb

import "time"

// Downlink Format values carried in the top 5 bits of byte 0.
const (
	DF0  = 0  // short air-air surveillance
	DF4  = 4  // surveillance, altitude reply
	DF5  = 5  // surveillance, identity reply
	DF11 = 11 // all-call reply
	DF16 = 16 // long air-air surveillance
	DF17 = 17 // extended squitter (ADS-B)
	DF18 = 18 // extended squitter (TIS-B / ADS-R)
	DF20 = 20 // Comm-B altitude reply
	DF21 = 21 // Comm-B identity reply
	DF24 = 24 // Comm-D extended length message
)

// Type Codes carried in the top 5 bits of the ME field for DF17/18.
const (
	TCIdentMin        = 1
	TCIdentMax        = 4
	TCSurfacePosMin   = 5
	TCSurfacePosMax   = 8
	TCAirbornePosMin  = 9
	TCAirbornePosMax  = 18
	TCVelocity        = 19
	TCAirborneGNSSMin = 20
	TCAirborneGNSSMax = 22
	TCStatus          = 28
	TCTargetState     = 29
	TCOpsStatus       = 31
)

// PositionSource records which algorithm produced a fixed position.
type PositionSource int

const (
	PositionNone PositionSource = iota
	PositionGlobalCPR
	PositionLocalCPR
	PositionSurface
	PositionJSONSnapshot
)

func (s PositionSource) String() string {
	switch s {
	case PositionGlobalCPR:
		return "global_cpr"
	case PositionLocalCPR:
		return "local_cpr"
	case PositionSurface:
		return "surface"
	case PositionJSONSnapshot:
		return "json_snapshot"
	default:
		return "none"
	}
}

// AltitudeSource / VerticalRateSource distinguish barometric from GNSS-derived values.
type AltitudeSource int

const (
	AltitudeUnknown AltitudeSource = iota
	AltitudeBaro
	AltitudeGNSS
)

// RawFrame is the ephemeral unit handed from the Source Manager to the
// Frame Validator: 7 or 14 raw Mode-S bytes plus provenance.
type RawFrame struct {
	Bytes      []byte
	ReceivedAt time.Time
	SourceID   string
}

// ValidLength reports whether Bytes has a legal Mode-S length.
func (f RawFrame) ValidLength() bool {
	return len(f.Bytes) == 7 || len(f.Bytes) == 14
}

// RejectKind enumerates the FrameReject taxonomy.
type RejectKind int

const (
	RejectNone RejectKind = iota
	RejectLength
	RejectCharset
	RejectCRC
	RejectUnknownICAO
)

func (k RejectKind) String() string {
	switch k {
	case RejectLength:
		return "length"
	case RejectCharset:
		return "charset"
	case RejectCRC:
		return "crc"
	case RejectUnknownICAO:
		return "unknown_icao"
	default:
		return "none"
	}
}

// FrameReject is returned by the validator instead of a ValidatedFrame when
// a frame cannot be accepted.
type FrameReject struct {
	Kind   RejectKind
	Detail string
}

func (e *FrameReject) Error() string {
	if e.Detail == "" {
		return "frame rejected: " + e.Kind.String()
	}
	return "frame rejected: " + e.Kind.String() + ": " + e.Detail
}

// ValidatedFrame is the Frame Validator's output: a frame known to carry a
// legal DF and an ICAO candidate consistent with its CRC syndrome.
type ValidatedFrame struct {
	DF            uint8
	ICAOCandidate uint32
	// KnownICAORequired is true for DF where the CRC syndrome only yields a
	// candidate ICAO (surveillance replies); the Tracker/validator must
	// confirm the candidate is already tracked before the Decoder runs.
	KnownICAORequired bool
	Payload           []byte
	ReceivedAt        time.Time
	SourceID          string
}

// DecodeError records a non-fatal per-field decode failure.
type DecodeError struct {
	DF     uint8
	TC     uint8
	Reason string
}

func (e DecodeError) Error() string {
	return e.Reason
}

// BDSReading is a single sampled Comm-B register reading pending the
// two-consecutive-reading confirmation policy.
type BDSReading struct {
	Register string
	Fields   map[string]float64
	At       time.Time
}

// DecodedMessage is the pure-decode output of the Decoder component: a
// tagged union over downlink format keyed by DF (and TC for DF17/18),
// carrying whatever fields the frame actually produced. Per DESIGN NOTES,
// rather than exceptions, partial decodes simply leave fields at their
// zero value and surface problems via Errors.
type DecodedMessage struct {
	ICAO      uint32
	DF        uint8
	TC        uint8
	Timestamp time.Time
	SourceID  string

	// Identification (TC 1-4)
	HasCallsign bool
	Callsign    string
	Category    uint8

	// Position (TC 5-8, 9-18, 20-22, or surveillance altitude DF4/20)
	HasAltitude    bool
	AltBaroFt      int
	AltitudeSrc    AltitudeSource
	OnGround       bool
	HasCPRPosition bool
	CPRLat         uint32
	CPRLon         uint32
	CPROddFlag     uint8
	SurfacePos     bool

	// HasResolvedPosition carries an already-resolved lat/lon, used only by
	// synthetic messages from a json_poll source (spec §6): those snapshots
	// report position directly rather than as a CPR pair, so the Tracker
	// applies them without running CPR decode at all.
	HasResolvedPosition bool
	Lat                 float64
	Lon                 float64

	// Velocity (TC 19)
	HasVelocity         bool
	GroundSpeedKt       float64
	TrackDeg            float64
	HasTrack            bool
	TrueAirspeedKt      float64
	IndicatedAirspeedKt float64
	Mach                float64
	MagHeadingDeg       float64
	HasHeading          bool
	VerticalRateFpm     int
	VerticalRateSrc     AltitudeSource
	HasVerticalRate     bool

	// Identity reply (DF5/21)
	HasSquawk bool
	Squawk    uint16

	// Status/target-state/ops-status (TC 28/29/31) — surfaced as a side map
	// per DESIGN NOTES ("a small side-map only for rarely-set fields").
	Extra map[string]float64

	// Comm-B (DF20/21) confirmed register values, once the two-reading
	// policy commits them.
	BDS map[string]map[string]float64

	Errors []DecodeError
}

// NewDecodedMessage returns a message with its lazily-allocated maps ready.
func NewDecodedMessage(icao uint32, df uint8, ts time.Time, sourceID string) *DecodedMessage {
	return &DecodedMessage{
		ICAO:      icao,
		DF:        df,
		Timestamp: ts,
		SourceID:  sourceID,
	}
}

func (m *DecodedMessage) addError(tc uint8, reason string) {
	m.Errors = append(m.Errors, DecodeError{DF: m.DF, TC: tc, Reason: reason})
}

func (m *DecodedMessage) extra() map[string]float64 {
	if m.Extra == nil {
		m.Extra = make(map[string]float64)
	}
	return m.Extra
}
