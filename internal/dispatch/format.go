package dispatch

import (
	"fmt"
	"math"
	"strings"
)

// PositionFormat enumerates the position rendering styles an outbound
// message template can request.
type PositionFormat int

const (
	PositionDecimal PositionFormat = iota
	PositionCompact
	PositionDMS
	PositionMaidenhead
	PositionUTM
)

func parsePositionFormat(s string) PositionFormat {
	switch strings.ToLower(s) {
	case "compact":
		return PositionCompact
	case "dms":
		return PositionDMS
	case "maidenhead":
		return PositionMaidenhead
	case "utm":
		return PositionUTM
	default:
		return PositionDecimal
	}
}

// FormatPosition renders lat/lon per the requested style.
func FormatPosition(lat, lon float64, f PositionFormat) string {
	switch f {
	case PositionCompact:
		return formatCompact(lat, lon)
	case PositionDMS:
		return formatDMS(lat, lon)
	case PositionMaidenhead:
		return formatMaidenhead(lat, lon)
	case PositionUTM:
		return formatUTM(lat, lon)
	default:
		return fmt.Sprintf("%.5f,%.5f", lat, lon)
	}
}

// formatCompact strips separators and limits precision, for constrained
// constrained LoRa payload budgets.
func formatCompact(lat, lon float64) string {
	latSign, lonSign := "N", "E"
	if lat < 0 {
		latSign, lat = "S", -lat
	}
	if lon < 0 {
		lonSign, lon = "W", -lon
	}
	return fmt.Sprintf("%s%05.0f%s%06.0f", latSign, lat*1000, lonSign, lon*1000)
}

// formatDMS renders degrees-minutes-seconds with hemisphere letters.
func formatDMS(lat, lon float64) string {
	return dms(lat, "N", "S") + " " + dms(lon, "E", "W")
}

func dms(v float64, pos, neg string) string {
	hemi := pos
	if v < 0 {
		hemi, v = neg, -v
	}
	d := math.Floor(v)
	m := math.Floor((v - d) * 60)
	s := (v-d)*3600 - m*60
	return fmt.Sprintf("%d°%d'%.1f\"%s", int(d), int(m), s, hemi)
}

const maidenheadUpper = "ABCDEFGHIJKLMNOPQRSTUVWX"

// formatMaidenhead computes a 6-character Maidenhead grid locator, the
// amateur-radio grid square scheme -- a natural fit for a LoRa/amateur-band
// alert payload.
func formatMaidenhead(lat, lon float64) string {
	lon += 180
	lat += 90

	field1 := maidenheadUpper[int(lon/20)]
	field2 := maidenheadUpper[int(lat/10)]

	lonRem := math.Mod(lon, 20)
	latRem := math.Mod(lat, 10)
	square1 := int(lonRem / 2)
	square2 := int(latRem / 1)

	lonRem = math.Mod(lonRem, 2) * 60
	latRem = math.Mod(latRem, 1) * 60
	subsquare1 := maidenheadUpper[int(lonRem/5)]
	subsquare2 := maidenheadUpper[int(latRem/2.5)]
	// Subsquare letters are conventionally lowercase.
	subsquare1 = subsquare1 - 'A' + 'a'
	subsquare2 = subsquare2 - 'A' + 'a'

	return fmt.Sprintf("%c%c%d%d%c%c", field1, field2, square1, square2, subsquare1, subsquare2)
}

// formatUTM renders an approximate UTM zone/easting/northing using the
// standard Snyder transverse-Mercator series (WGS-84), adequate for an
// alert payload's at-a-glance position; it is not a surveying-grade
// implementation (no special casing for Norway/Svalbard zone exceptions or
// polar regions, which this system never needs to report positions in).
func formatUTM(lat, lon float64) string {
	const a = 6378137.0
	const f = 1 / 298.257223563
	const k0 = 0.9996
	e2 := f * (2 - f)
	ePrime2 := e2 / (1 - e2)

	zone := int((lon+180)/6) + 1
	lonOrigin := float64(zone-1)*6 - 180 + 3

	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	lonOriginRad := lonOrigin * math.Pi / 180

	n := a / math.Sqrt(1-e2*math.Sin(latRad)*math.Sin(latRad))
	t := math.Tan(latRad) * math.Tan(latRad)
	c := ePrime2 * math.Cos(latRad) * math.Cos(latRad)
	aTerm := math.Cos(latRad) * (lonRad - lonOriginRad)

	m := a * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*latRad -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*latRad) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*latRad) -
		(35*e2*e2*e2/3072)*math.Sin(6*latRad))

	easting := k0*n*(aTerm+(1-t+c)*math.Pow(aTerm, 3)/6+
		(5-18*t+t*t+72*c-58*ePrime2)*math.Pow(aTerm, 5)/120) + 500000.0

	northing := k0 * (m + n*math.Tan(latRad)*(aTerm*aTerm/2+
		(5-t+9*c+4*c*c)*math.Pow(aTerm, 4)/24+
		(61-58*t+t*t+600*c-330*ePrime2)*math.Pow(aTerm, 6)/720))

	hemi := "N"
	if lat < 0 {
		northing += 10000000.0
		hemi = "S"
	}

	return fmt.Sprintf("%d%s %.0fE %.0fN", zone, hemi, easting, northing)
}
