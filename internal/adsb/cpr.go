package adsb

import "math"

// cprMax is 2^17, the resolution of a 17-bit CPR coordinate.
const cprMax = 131072.0

// CPRFrame is one raw CPR-encoded position report, tagged with whether it
// is the even or odd frame of a pair. The Tracker stores the most recent
// even and odd frame per aircraft and feeds them to DecodeGlobalAirborne /
// DecodeGlobalSurface as they arrive.
type CPRFrame struct {
	LatCPR uint32
	LonCPR uint32
	Odd    bool
}

func cprModInt(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// cprNL returns the number of longitude zones for a latitude, the standard
// lookup table from the CPR specification (ICAO Annex 10 / RTCA DO-260).
func cprNL(lat float64) int {
	absLat := math.Abs(lat)
	switch {
	case absLat < 10.47047130:
		return 59
	case absLat < 14.82817437:
		return 58
	case absLat < 18.18626357:
		return 57
	case absLat < 21.02939493:
		return 56
	case absLat < 23.54504487:
		return 55
	case absLat < 25.82924707:
		return 54
	case absLat < 27.93898710:
		return 53
	case absLat < 29.91135686:
		return 52
	case absLat < 31.77209708:
		return 51
	case absLat < 33.53993436:
		return 50
	case absLat < 35.22899598:
		return 49
	case absLat < 36.85025108:
		return 48
	case absLat < 38.41241892:
		return 47
	case absLat < 39.92256684:
		return 46
	case absLat < 41.38651832:
		return 45
	case absLat < 42.80914012:
		return 44
	case absLat < 44.19454951:
		return 43
	case absLat < 45.54626723:
		return 42
	case absLat < 46.86733252:
		return 41
	case absLat < 48.16039128:
		return 40
	case absLat < 49.42776439:
		return 39
	case absLat < 50.67150166:
		return 38
	case absLat < 51.89342469:
		return 37
	case absLat < 53.09516153:
		return 36
	case absLat < 54.27817472:
		return 35
	case absLat < 55.44378444:
		return 34
	case absLat < 56.59318756:
		return 33
	case absLat < 57.72747354:
		return 32
	case absLat < 58.84763776:
		return 31
	case absLat < 59.95459277:
		return 30
	case absLat < 61.04917774:
		return 29
	case absLat < 62.13216659:
		return 28
	case absLat < 63.20427479:
		return 27
	case absLat < 64.26616523:
		return 26
	case absLat < 65.31845310:
		return 25
	case absLat < 66.36171008:
		return 24
	case absLat < 67.39646774:
		return 23
	case absLat < 68.42322022:
		return 22
	case absLat < 69.44242631:
		return 21
	case absLat < 70.45451075:
		return 20
	case absLat < 71.45986473:
		return 19
	case absLat < 72.45884545:
		return 18
	case absLat < 73.45177442:
		return 17
	case absLat < 74.43893416:
		return 16
	case absLat < 75.42056257:
		return 15
	case absLat < 76.39684391:
		return 14
	case absLat < 77.36789461:
		return 13
	case absLat < 78.33374083:
		return 12
	case absLat < 79.29428225:
		return 11
	case absLat < 80.24923213:
		return 10
	case absLat < 81.19801349:
		return 9
	case absLat < 82.13956981:
		return 8
	case absLat < 83.07199445:
		return 7
	case absLat < 83.99173563:
		return 6
	case absLat < 84.89166191:
		return 5
	case absLat < 85.75541621:
		return 4
	case absLat < 86.53536998:
		return 3
	case absLat < 87.00000000:
		return 2
	default:
		return 1
	}
}

func cprN(lat float64, odd bool) int {
	nl := cprNL(lat)
	if odd {
		nl--
	}
	if nl < 1 {
		nl = 1
	}
	return nl
}

// DecodeGlobalAirborne implements globally-unambiguous CPR decode for
// airborne position messages from one even and one odd frame. latestOdd
// reports which of the two frames is more recent;
// its latitude zone is used for the final longitude resolution, matching
// the dump1090 reference algorithm. Returns ok=false when the two frames
// fall in different latitude zones or decode to an out-of-range latitude,
// in which case the caller should wait for a fresh frame pair.
func DecodeGlobalAirborne(even, odd CPRFrame, latestOdd bool) (lat, lon float64, ok bool) {
	const dLat0 = 360.0 / 60.0
	const dLat1 = 360.0 / 59.0

	lat0 := float64(even.LatCPR)
	lat1 := float64(odd.LatCPR)
	lon0 := float64(even.LonCPR)
	lon1 := float64(odd.LonCPR)

	j := int(math.Floor(((59*lat0 - 60*lat1) / cprMax) + 0.5))

	rlat0 := dLat0 * (float64(cprModInt(j, 60)) + lat0/cprMax)
	rlat1 := dLat1 * (float64(cprModInt(j, 59)) + lat1/cprMax)
	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}
	if cprNL(rlat0) != cprNL(rlat1) {
		return 0, 0, false
	}

	var rlat, rlon float64
	if latestOdd {
		ni := cprN(rlat1, true)
		m := int(math.Floor((((lon0 * float64(cprNL(rlat1)-1)) - (lon1 * float64(cprNL(rlat1)))) / cprMax) + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(cprModInt(m, ni)) + lon1/cprMax)
		rlat = rlat1
	} else {
		ni := cprN(rlat0, false)
		m := int(math.Floor((((lon0 * float64(cprNL(rlat0)-1)) - (lon1 * float64(cprNL(rlat0)))) / cprMax) + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(cprModInt(m, ni)) + lon0/cprMax)
		rlat = rlat0
	}

	rlon -= math.Floor((rlon+180)/360) * 360
	return rlat, rlon, true
}

// DecodeGlobalSurface is the surface-position counterpart of
// DecodeGlobalAirborne: the encoded box is a quarter the size (90 degrees
// instead of 360), so a reference position within 45 degrees of the
// aircraft is required to pick the right one of the four possible global
// solutions.
func DecodeGlobalSurface(even, odd CPRFrame, latestOdd bool, refLat, refLon float64) (lat, lon float64, ok bool) {
	const dLat0 = 90.0 / 60.0
	const dLat1 = 90.0 / 59.0

	lat0 := float64(even.LatCPR)
	lat1 := float64(odd.LatCPR)
	lon0 := float64(even.LonCPR)
	lon1 := float64(odd.LonCPR)

	j := int(math.Floor(((59*lat0 - 60*lat1) / cprMax) + 0.5))

	rlat0 := dLat0 * (float64(cprModInt(j, 60)) + lat0/cprMax)
	rlat1 := dLat1 * (float64(cprModInt(j, 59)) + lat1/cprMax)

	// Surface latitudes repeat every 90 degrees; pick the quadrant nearest
	// the reference latitude.
	rlat0 = nearestQuadrant(rlat0, refLat, 90)
	rlat1 = nearestQuadrant(rlat1, refLat, 90)

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}
	if cprNL(rlat0) != cprNL(rlat1) {
		return 0, 0, false
	}

	var rlat, rlon float64
	var dlon float64
	if latestOdd {
		ni := cprN(rlat1, true)
		dlon = 90.0 / float64(ni)
		m := int(math.Floor((((lon0 * float64(cprNL(rlat1)-1)) - (lon1 * float64(cprNL(rlat1)))) / cprMax) + 0.5))
		rlon = dlon * (float64(cprModInt(m, ni)) + lon1/cprMax)
		rlat = rlat1
	} else {
		ni := cprN(rlat0, false)
		dlon = 90.0 / float64(ni)
		m := int(math.Floor((((lon0 * float64(cprNL(rlat0)-1)) - (lon1 * float64(cprNL(rlat0)))) / cprMax) + 0.5))
		rlon = dlon * (float64(cprModInt(m, ni)) + lon0/cprMax)
		rlat = rlat0
	}

	rlon = nearestQuadrant(rlon, refLon, 90)
	return rlat, rlon, true
}

// DecodeLocalAirborne decodes a single CPR airborne frame relative to a
// known reference position (the aircraft's last confirmed fix, or the
// receiver's own location for its first report), valid as long as the
// aircraft has not moved more than half a latitude/longitude zone since
// the reference was established.
func DecodeLocalAirborne(frame CPRFrame, refLat, refLon float64) (lat, lon float64, ok bool) {
	return decodeLocal(frame, refLat, refLon, 360)
}

// DecodeLocalSurface is DecodeLocalAirborne's surface counterpart (90
// degree zones instead of 360).
func DecodeLocalSurface(frame CPRFrame, refLat, refLon float64) (lat, lon float64, ok bool) {
	return decodeLocal(frame, refLat, refLon, 90)
}

func decodeLocal(frame CPRFrame, refLat, refLon, span float64) (lat, lon float64, ok bool) {
	dLat := span / 60.0
	if frame.Odd {
		dLat = span / 59.0
	}

	latCPR := float64(frame.LatCPR)
	lonCPR := float64(frame.LonCPR)

	j := int(math.Floor(refLat/dLat + 0.5))
	rlat := dLat * (float64(j) + latCPR/cprMax)
	if rlat-refLat > dLat/2 {
		rlat -= dLat
	} else if rlat-refLat < -dLat/2 {
		rlat += dLat
	}
	if rlat < -90 || rlat > 90 {
		return 0, 0, false
	}

	ni := cprN(rlat, frame.Odd)
	dlon := span / float64(ni)
	m := int(math.Floor(refLon/dlon + 0.5))
	rlon := dlon * (float64(m) + lonCPR/cprMax)
	if rlon-refLon > dlon/2 {
		rlon -= dlon
	} else if rlon-refLon < -dlon/2 {
		rlon += dlon
	}

	return rlat, rlon, true
}

// nearestQuadrant picks the multiple of period closest to ref, used to
// resolve surface position's 4-way (lat) and 4-way (lon) ambiguity.
func nearestQuadrant(v, ref, period float64) float64 {
	for v-ref > period/2 {
		v -= period
	}
	for v-ref < -period/2 {
		v += period
	}
	return v
}

// earthRadiusNM is the mean Earth radius in nautical miles, used by
// DistanceNM to bound local CPR decode to a reference point: beyond a
// configured range the decoder reports failure rather than return a
// silently wrong fix.
const earthRadiusNM = 3440.065

// DistanceNM returns the great-circle distance between two WGS-84 points in
// nautical miles (haversine formula).
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	phi1, phi2 := lat1*rad, lat2*rad
	dPhi := (lat2 - lat1) * rad
	dLambda := (lon2 - lon1) * rad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusNM * c
}

// DecodeLocalAirborneRanged is DecodeLocalAirborne with a reference-range
// bound enforced: a solution farther than maxRangeNM from the reference is
// rejected rather than silently returned.
func DecodeLocalAirborneRanged(frame CPRFrame, refLat, refLon, maxRangeNM float64) (lat, lon float64, ok bool) {
	lat, lon, ok = DecodeLocalAirborne(frame, refLat, refLon)
	if !ok {
		return 0, 0, false
	}
	if DistanceNM(refLat, refLon, lat, lon) > maxRangeNM {
		return 0, 0, false
	}
	return lat, lon, true
}

// DecodeLocalSurfaceRanged is DecodeLocalSurface with the same reference-range
// bound, scaled to surface messages' much shorter useful range (a 45 degree
// quadrant choice, not 180 NM, but the explicit reference requirement and
// failure-over-silent-wrong-fix behavior matches airborne).
func DecodeLocalSurfaceRanged(frame CPRFrame, refLat, refLon, maxRangeNM float64) (lat, lon float64, ok bool) {
	lat, lon, ok = DecodeLocalSurface(frame, refLat, refLon)
	if !ok {
		return 0, 0, false
	}
	if DistanceNM(refLat, refLon, lat, lon) > maxRangeNM {
		return 0, 0, false
	}
	return lat, lon, true
}
