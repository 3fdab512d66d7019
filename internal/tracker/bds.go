package tracker

import (
	"math"
	"time"

	"go1090/internal/adsb"
)

// bdsTolerance is the maximum allowed absolute difference between two
// consecutive readings of the same BDS register field before they are
// considered inconsistent. Altitudes and speeds tolerate more drift
// between two ~seconds-apart readings than angles do.
var bdsTolerance = map[string]float64{
	"mcp_selected_alt_ft":            100,
	"fms_selected_alt_ft":            100,
	"baro_setting_mb":                2,
	"roll_angle_deg":                 5,
	"true_track_deg":                 5,
	"ground_speed_kt":                15,
	"track_angle_rate_deg_s":         2,
	"true_airspeed_kt":               15,
	"magnetic_heading_deg":           5,
	"indicated_airspeed_kt":          15,
	"mach":                           0.05,
	"baro_altitude_rate_fpm":         250,
	"inertial_vertical_velocity_fpm": 250,
}

const bdsDefaultTolerance = 10.0

// applyBDS implements the two-consecutive-readings confirmation policy: a
// register reading is staged in a single pending slot per aircraft per
// register, and only copied into Aircraft.BDS once a second reading of the
// same register, within BDSConfirmWindow and within tolerance of the first,
// arrives. A reading that does not match the pending one resets the slot to
// the new reading rather than committing -- so noise never gets two
//"lucky" matches in a row without also being self-consistent.
func (s *Store) applyBDS(ac *Aircraft, msg *adsb.DecodedMessage, now time.Time) {
	for register, fields := range msg.BDS {
		pending, staged := ac.pendingBDS[register]
		if staged && now.Sub(pending.at) <= s.cfg.BDSConfirmWindow && bdsConsistent(pending.fields, fields) {
			ac.BDS[register] = fields
			delete(ac.pendingBDS, register)
			s.count("bds_confirmed")
			continue
		}
		ac.pendingBDS[register] = &pendingReading{fields: fields, at: now}
	}
}

func bdsConsistent(a, b map[string]float64) bool {
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			continue
		}
		tol, ok := bdsTolerance[k]
		if !ok {
			tol = bdsDefaultTolerance
		}
		if math.Abs(av-bv) > tol {
			return false
		}
	}
	return true
}
