package adsb

import "math"

// DecodeVelocity fills in the velocity fields of msg from a TC19 airborne
// velocity ME field (7 bytes). Subtypes 1/2 carry ground-referenced
// east/west and north/south velocity components; subtypes 3/4 carry
// airspeed and heading instead.
func DecodeVelocity(me []byte, msg *DecodedMessage) {
	if len(me) < 7 {
		msg.addError(TCVelocity, "short ME field")
		return
	}

	subtype := getBits(me, 6, 8)

	vrSource := AltitudeBaro
	if getBits(me, 36, 36) != 0 {
		vrSource = AltitudeGNSS
	}
	vrSign := getBits(me, 37, 37)
	vrRaw := getBits(me, 38, 46)
	if vrRaw != 0 {
		vr := int(vrRaw-1) * 64
		if vrSign != 0 {
			vr = -vr
		}
		msg.VerticalRateFpm = vr
		msg.VerticalRateSrc = vrSource
		msg.HasVerticalRate = true
	}

	switch subtype {
	case 1, 2:
		ewSign := getBits(me, 14, 14)
		ewRaw := getBits(me, 15, 24)
		nsSign := getBits(me, 25, 25)
		nsRaw := getBits(me, 26, 35)
		if ewRaw == 0 || nsRaw == 0 {
			msg.addError(TCVelocity, "unavailable ground velocity component")
			return
		}

		mult := 1
		if subtype == 2 {
			mult = 4
		}
		ew := float64(int(ewRaw-1) * mult)
		ns := float64(int(nsRaw-1) * mult)
		if ewSign != 0 {
			ew = -ew
		}
		if nsSign != 0 {
			ns = -ns
		}

		msg.GroundSpeedKt = math.Hypot(ew, ns)
		track := math.Atan2(ew, ns) * 180 / math.Pi
		if track < 0 {
			track += 360
		}
		msg.TrackDeg = track
		msg.HasTrack = true
		msg.HasVelocity = true

	case 3, 4:
		headingStatus := getBits(me, 14, 14)
		headingRaw := getBits(me, 15, 24)
		if headingStatus != 0 {
			msg.MagHeadingDeg = float64(headingRaw) / 1024 * 360
			msg.HasHeading = true
		}

		asType := getBits(me, 25, 25)
		asRaw := getBits(me, 26, 35)
		if asRaw != 0 {
			mult := 1
			if subtype == 4 {
				mult = 4
			}
			speed := float64(int(asRaw-1) * mult)
			if asType != 0 {
				msg.TrueAirspeedKt = speed
			} else {
				msg.IndicatedAirspeedKt = speed
			}
			msg.HasVelocity = true
		}

	default:
		msg.addError(TCVelocity, "unknown velocity subtype")
	}
}
