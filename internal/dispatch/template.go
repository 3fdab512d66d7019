package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"go1090/internal/watchlist"
)

// Template is a small interpreter over a fixed grammar of field tokens
// a small interpreter over a fixed grammar of field tokens, with no
// dynamic code evaluation. Tokens are written
// `{field}` or `{field:arg}`, e.g. `{position:maidenhead}`.
type Template struct {
	raw string
}

// NewTemplate parses (validates token names in) a template string.
func NewTemplate(raw string) (*Template, error) {
	t := &Template{raw: raw}
	if _, err := t.Render(zeroEvent()); err != nil {
		return nil, err
	}
	return t, nil
}

func zeroEvent() watchlist.AlertEvent {
	return watchlist.AlertEvent{}
}

// Render expands every token against ev, returning an error that names the
// first unknown token rather than silently dropping it.
func (t *Template) Render(ev watchlist.AlertEvent) (string, error) {
	var out strings.Builder
	raw := t.raw
	for {
		start := strings.IndexByte(raw, '{')
		if start == -1 {
			out.WriteString(raw)
			break
		}
		end := strings.IndexByte(raw[start:], '}')
		if end == -1 {
			out.WriteString(raw)
			break
		}
		end += start

		out.WriteString(raw[:start])
		token := raw[start+1 : end]
		field, arg, _ := strings.Cut(token, ":")
		val, err := renderField(ev, field, arg)
		if err != nil {
			return "", err
		}
		out.WriteString(val)
		raw = raw[end+1:]
	}
	return out.String(), nil
}

func renderField(ev watchlist.AlertEvent, field, arg string) (string, error) {
	ac := ev.AircraftSnapshot
	switch field {
	case "icao":
		return fmt.Sprintf("%06X", ac.ICAO), nil
	case "callsign":
		return strings.TrimSpace(ac.Callsign), nil
	case "label":
		return arg, nil
	case "match_reason":
		return ev.MatchReason, nil
	case "position":
		if !ac.HasPosition {
			return "no-fix", nil
		}
		return FormatPosition(ac.Lat, ac.Lon, parsePositionFormat(arg)), nil
	case "lat":
		return strconv.FormatFloat(ac.Lat, 'f', 5, 64), nil
	case "lon":
		return strconv.FormatFloat(ac.Lon, 'f', 5, 64), nil
	case "alt_baro":
		if !ac.HasAltBaro {
			return "unk", nil
		}
		return strconv.Itoa(ac.AltBaroFt), nil
	case "alt_gnss":
		if !ac.HasAltGNSS {
			return "unk", nil
		}
		return strconv.Itoa(ac.AltGNSSFt), nil
	case "ground_speed":
		return strconv.FormatFloat(ac.GroundSpeedKt, 'f', 0, 64), nil
	case "track":
		return strconv.FormatFloat(ac.TrackDeg, 'f', 1, 64), nil
	case "vertical_rate":
		return strconv.Itoa(ac.VerticalRateFpm), nil
	case "squawk":
		return fmt.Sprintf("%04d", ac.Squawk), nil
	case "on_ground":
		return strconv.FormatBool(ac.OnGround), nil
	case "event_time":
		return ev.EventTime.UTC().Format("2006-01-02T15:04:05Z"), nil
	default:
		return "", fmt.Errorf("dispatch: unknown template field %q", field)
	}
}
