package adsb

// Decoder turns a ValidatedFrame into a DecodedMessage, dispatching on DF
// and (for DF17/18) on ME type code. It holds no state itself;
// CPR position fixing and BDS two-reading confirmation live on the
// Tracker, which is the only component that knows an aircraft's history.
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode produces a DecodedMessage from a frame the Validator has already
// accepted.
func (d *Decoder) Decode(vf *ValidatedFrame) *DecodedMessage {
	msg := NewDecodedMessage(vf.ICAOCandidate, vf.DF, vf.ReceivedAt, vf.SourceID)

	switch vf.DF {
	case DF0:
		msg.OnGround = getBits(vf.Payload, 6, 6) == 0
		if alt, ok := DecodeAC13(vf.Payload); ok {
			msg.HasAltitude = true
			msg.AltBaroFt = alt
			msg.AltitudeSrc = AltitudeBaro
		}

	case DF4, DF16:
		if alt, ok := DecodeAC13(vf.Payload); ok {
			msg.HasAltitude = true
			msg.AltBaroFt = alt
			msg.AltitudeSrc = AltitudeBaro
		}

	case DF5:
		msg.HasSquawk = true
		msg.Squawk = DecodeSquawk(vf.Payload)

	case DF11:
		// Capability only; no position/altitude/identity fields to extract.

	case DF17, DF18:
		d.decodeExtendedSquitter(vf, msg)

	case DF20:
		if alt, ok := DecodeAC13(vf.Payload); ok {
			msg.HasAltitude = true
			msg.AltBaroFt = alt
			msg.AltitudeSrc = AltitudeBaro
		}
		d.decodeCommB(vf, msg)

	case DF21:
		msg.HasSquawk = true
		msg.Squawk = DecodeSquawk(vf.Payload)
		d.decodeCommB(vf, msg)

	default:
		msg.addError(0, "unsupported downlink format")
	}

	return msg
}

func (d *Decoder) decodeCommB(vf *ValidatedFrame, msg *DecodedMessage) {
	if len(vf.Payload) < 11 {
		return
	}
	mb := vf.Payload[4:11]
	if register, fields, ok := decodeBDS(mb); ok {
		if msg.BDS == nil {
			msg.BDS = make(map[string]map[string]float64)
		}
		msg.BDS[register] = fields
	}
}

func (d *Decoder) decodeExtendedSquitter(vf *ValidatedFrame, msg *DecodedMessage) {
	if len(vf.Payload) < 11 {
		msg.addError(0, "DF17/18 frame missing ME field")
		return
	}
	me := vf.Payload[4:11]
	tc := uint8(getBits(me, 1, 5))
	msg.TC = tc

	switch {
	case tc >= TCIdentMin && tc <= TCIdentMax:
		msg.Category = DecodeCategory(me)
		if cs, ok := DecodeCallsign(me); ok {
			msg.HasCallsign = true
			msg.Callsign = cs
		} else {
			msg.addError(tc, "invalid callsign character")
		}

	case tc >= TCSurfacePosMin && tc <= TCSurfacePosMax:
		msg.OnGround = true
		msg.SurfacePos = true
		msg.HasCPRPosition = true
		msg.CPROddFlag = uint8(getBits(me, 22, 22))
		msg.CPRLat = getBits(me, 23, 39)
		msg.CPRLon = getBits(me, 40, 56)

		movement := getBits(me, 6, 12)
		if speed, ok := decodeSurfaceMovement(movement); ok {
			msg.GroundSpeedKt = speed
			msg.HasVelocity = true
		}
		if getBits(me, 13, 13) != 0 {
			msg.TrackDeg = float64(getBits(me, 14, 20)) * 360.0 / 128
			msg.HasHeading = true
		}

	case (tc >= TCAirbornePosMin && tc <= TCAirbornePosMax) || (tc >= TCAirborneGNSSMin && tc <= TCAirborneGNSSMax):
		msg.OnGround = false
		msg.CPROddFlag = uint8(getBits(me, 22, 22))
		msg.CPRLat = getBits(me, 23, 39)
		msg.CPRLon = getBits(me, 40, 56)
		msg.HasCPRPosition = true

		if alt, ok := DecodeAC12(me); ok {
			msg.HasAltitude = true
			msg.AltBaroFt = alt
			if tc >= TCAirborneGNSSMin {
				msg.AltitudeSrc = AltitudeGNSS
			} else {
				msg.AltitudeSrc = AltitudeBaro
			}
		}

	case tc == TCVelocity:
		DecodeVelocity(me, msg)

	case tc == TCStatus:
		msg.extra()["emergency_state"] = float64(getBits(me, 6, 8))

	case tc == TCTargetState:
		msg.extra()["tc29_vertical_mode"] = float64(getBits(me, 47, 48))
		msg.extra()["tc29_horizontal_mode"] = float64(getBits(me, 49, 50))

	case tc == TCOpsStatus:
		msg.extra()["ops_status_subtype"] = float64(getBits(me, 6, 8))

	default:
		msg.addError(tc, "unhandled type code")
	}
}

// decodeSurfaceMovement converts the 7-bit "movement" sub-field of a
// surface position message into ground speed in knots, per the
// piecewise table in the Mode-S ICD (movement=0 unavailable, 1=stopped,
// 2-123 on an increasing non-linear scale, 124=>175kt, 125-127 reserved).
func decodeSurfaceMovement(movement uint32) (float64, bool) {
	switch {
	case movement == 0:
		return 0, false
	case movement == 1:
		return 0, true
	case movement >= 2 && movement <= 8:
		return 0.125 * float64(movement-2), true
	case movement >= 9 && movement <= 12:
		return 1 + 0.25*float64(movement-9), true
	case movement >= 13 && movement <= 38:
		return 2 + 0.5*float64(movement-13), true
	case movement >= 39 && movement <= 93:
		return 15 + 1*float64(movement-39), true
	case movement >= 94 && movement <= 108:
		return 70 + 2*float64(movement-94), true
	case movement >= 109 && movement <= 123:
		return 100 + 5*float64(movement-109), true
	case movement == 124:
		return 175, true
	default:
		return 0, false
	}
}
