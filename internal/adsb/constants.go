package adsb

// ADSBCharset is the ICAO Mode-S 6-bit character table used to encode
// callsigns: A=1..Z=26, 32=space, digits at 48-57 (dump1090/teacher-derived).
const ADSBCharset = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// CPR decoding constants (17-bit lat/lon fields, both global and local/surface).
const (
	CPRLatBits = 17
	CPRLonBits = 17
	CPRLatMax  = 131072 // 2^17
	CPRLonMax  = 131072 // 2^17
)
