package adsb

// Comm-B replies (DF20/21) do not self-identify which BDS register their
// MB field carries; ground decoders infer it from which status/reserved
// bits are internally consistent (pyModeS and its predecessors use the same
// approach). decodeBDS tries the registers this module cares about — 4,0
// (selected vertical intention), 5,0 (track/turn), 6,0 (heading/speed) — in
// order of how specific their validity constraints are, and returns the
// first one that fits.
func decodeBDS(mb []byte) (register string, fields map[string]float64, ok bool) {
	if len(mb) < 7 {
		return "", nil, false
	}
	if f, ok := decodeBDS60(mb); ok {
		return "6,0", f, true
	}
	if f, ok := decodeBDS50(mb); ok {
		return "5,0", f, true
	}
	if f, ok := decodeBDS40(mb); ok {
		return "4,0", f, true
	}
	return "", nil, false
}

func signed(raw, bits uint32) int {
	if raw&(1<<(bits-1)) != 0 {
		return int(raw) - (1 << bits)
	}
	return int(raw)
}

// decodeBDS40 decodes the selected vertical intention register. The 8
// reserved bits (40-47) must be zero for this to be a plausible BDS 4,0.
func decodeBDS40(mb []byte) (map[string]float64, bool) {
	if getBits(mb, 40, 47) != 0 {
		return nil, false
	}

	out := make(map[string]float64)
	if getBits(mb, 1, 1) != 0 {
		out["mcp_selected_alt_ft"] = float64(getBits(mb, 2, 13)) * 16
	}
	if getBits(mb, 14, 14) != 0 {
		out["fms_selected_alt_ft"] = float64(getBits(mb, 15, 26)) * 16
	}
	if getBits(mb, 27, 27) != 0 {
		out["baro_setting_mb"] = float64(getBits(mb, 28, 39))*0.1 + 800
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// decodeBDS50 decodes the track and turn report register.
func decodeBDS50(mb []byte) (map[string]float64, bool) {
	out := make(map[string]float64)
	any := false

	if getBits(mb, 1, 1) != 0 {
		roll := signed(getBits(mb, 2, 11), 10)
		deg := float64(roll) * 45.0 / 256
		if deg < -90 || deg > 90 {
			return nil, false
		}
		out["roll_angle_deg"] = deg
		any = true
	}
	if getBits(mb, 12, 12) != 0 {
		track := signed(getBits(mb, 13, 23), 11)
		out["true_track_deg"] = float64(track) * 90.0 / 512
		any = true
	}
	if getBits(mb, 24, 24) != 0 {
		gs := float64(getBits(mb, 25, 34)) * 2
		if gs > 2000 {
			return nil, false
		}
		out["ground_speed_kt"] = gs
		any = true
	}
	if getBits(mb, 35, 35) != 0 {
		rate := signed(getBits(mb, 36, 45), 10)
		out["track_angle_rate_deg_s"] = float64(rate) * 8.0 / 256
		any = true
	}
	if getBits(mb, 46, 46) != 0 {
		tas := float64(getBits(mb, 47, 56)) * 2
		if tas > 2000 {
			return nil, false
		}
		out["true_airspeed_kt"] = tas
		any = true
	}
	if !any {
		return nil, false
	}
	return out, true
}

// decodeBDS60 decodes the heading and speed report register.
func decodeBDS60(mb []byte) (map[string]float64, bool) {
	out := make(map[string]float64)
	any := false

	if getBits(mb, 1, 1) != 0 {
		hdg := signed(getBits(mb, 2, 12), 11)
		deg := float64(hdg) * 90.0 / 512
		if deg < -180 || deg > 180 {
			return nil, false
		}
		out["magnetic_heading_deg"] = deg
		any = true
	}
	if getBits(mb, 13, 13) != 0 {
		ias := float64(getBits(mb, 14, 22))
		if ias > 1023 {
			return nil, false
		}
		out["indicated_airspeed_kt"] = ias
		any = true
	}
	if getBits(mb, 23, 23) != 0 {
		mach := float64(getBits(mb, 24, 32)) * 2.048 / 512
		if mach > 4 {
			return nil, false
		}
		out["mach"] = mach
		any = true
	}
	if getBits(mb, 33, 33) != 0 {
		rate := signed(getBits(mb, 34, 44), 11)
		out["baro_altitude_rate_fpm"] = float64(rate) * 32
		any = true
	}
	if getBits(mb, 45, 45) != 0 {
		rate := signed(getBits(mb, 46, 56), 11)
		out["inertial_vertical_velocity_fpm"] = float64(rate) * 32
		any = true
	}
	if !any {
		return nil, false
	}
	return out, true
}
