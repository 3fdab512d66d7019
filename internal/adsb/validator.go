package adsb

// Validator implements the Frame Validator: length/DF
// extraction and 24-bit Mode-S CRC checking, demultiplexed by downlink
// format. It is stateless except for the counters it updates; "known-ICAO"
// confirmation for surveillance replies is delegated to a caller-supplied
// predicate (normally backed by the Tracker's current key set plus a
// short-lived recently-seen cache, see internal/source's ICAO cache).
type Validator struct {
	Counters Counters
}

// Counters is the narrow counting capability the Validator (and the rest
// of the pipeline) needs; internal/metrics provides a Prometheus-backed
// implementation. Keeping the interface here rather than importing
// internal/metrics avoids a dependency from the pure decode/validate layer
// onto the observability stack.
type Counters interface {
	Inc(name string)
}

// NewValidator returns a Validator reporting into counters. counters may be
// nil to run uninstrumented (e.g. in unit tests).
func NewValidator(counters Counters) *Validator {
	return &Validator{Counters: counters}
}

// KnownICAO is satisfied by anything that can confirm whether an ICAO
// address is already being tracked (or recently seen), used to accept
// ambiguous-CRC surveillance replies.
type KnownICAO func(icao uint32) bool

// Validate runs the Frame Validator pipeline over a single raw frame.
func (v *Validator) Validate(frame RawFrame, known KnownICAO) (*ValidatedFrame, *FrameReject) {
	if !frame.ValidLength() {
		v.count("crc_fail_length")
		return nil, &FrameReject{Kind: RejectLength}
	}

	df := (frame.Bytes[0] >> 3) & 0x1F
	expectedLen := expectedLength(df)
	if expectedLen == 0 {
		// Unrecognized DF: still attempt the long-frame CRC so we do not
		// silently swallow extended squitter traffic from a DF we didn't
		// special-case, but treat short frames of the wrong length as
		// length-invalid.
		expectedLen = len(frame.Bytes)
	}
	if len(frame.Bytes) < expectedLen {
		v.count("crc_fail_length")
		return nil, &FrameReject{Kind: RejectLength, Detail: "frame shorter than DF requires"}
	}

	payload := frame.Bytes[:expectedLen]
	syndrome := crcSyndrome(payload)

	switch df {
	case DF17, DF18:
		if syndrome != 0 {
			v.count("crc_fail")
			return nil, &FrameReject{Kind: RejectCRC}
		}
		v.count("crc_pass")
		icao := uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
		return &ValidatedFrame{
			DF:            df,
			ICAOCandidate: icao,
			Payload:       payload,
			ReceivedAt:    frame.ReceivedAt,
			SourceID:      frame.SourceID,
		}, nil

	case DF11:
		// IID is carried in the low 7 bits of the syndrome; it must be 0
		// for an un-interrogated all-call reply. The ICAO address is read
		// from the AA field (bytes 1-3).
		if syndrome&0x7F != 0 {
			v.count("crc_fail")
			return nil, &FrameReject{Kind: RejectCRC}
		}
		icao := uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
		v.count("crc_pass")
		return &ValidatedFrame{
			DF:            df,
			ICAOCandidate: icao,
			Payload:       payload,
			ReceivedAt:    frame.ReceivedAt,
			SourceID:      frame.SourceID,
		}, nil

	case DF0, DF4, DF5, DF16, DF20, DF21:
		candidate := syndrome & 0xFFFFFF
		if known == nil || !known(candidate) {
			v.count("dropped_unknown_icao")
			return nil, &FrameReject{Kind: RejectUnknownICAO}
		}
		v.count("crc_pass")
		return &ValidatedFrame{
			DF:                df,
			ICAOCandidate:     candidate,
			KnownICAORequired: true,
			Payload:           payload,
			ReceivedAt:        frame.ReceivedAt,
			SourceID:          frame.SourceID,
		}, nil

	default:
		v.count("crc_fail")
		return nil, &FrameReject{Kind: RejectCRC, Detail: "unsupported DF"}
	}
}

// expectedLength returns the canonical frame length in bytes for a DF, or 0
// if the DF is not one the validator recognizes.
func expectedLength(df uint8) int {
	switch df {
	case DF0, DF4, DF5, DF11:
		return 7
	case DF16, DF17, DF18, DF20, DF21, DF24:
		return 14
	default:
		return 0
	}
}

func (v *Validator) count(name string) {
	if v.Counters != nil {
		v.Counters.Inc(name)
	}
}
