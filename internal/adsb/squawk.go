package adsb

// DecodeSquawk decodes the 13-bit identity field of DF5/21 identity replies
// (bits 20-32 of the full frame) into its 4-digit octal representation.
// The field uses the same Gillham-style interleaved encoding as Mode-C
// altitude, but interpreted as independent A/B/C/D octal digits rather than
// run through the Mode-A-to-Mode-C table.
func DecodeSquawk(data []byte) uint16 {
	if len(data) < 4 {
		return 0
	}
	id13 := getBits(data, 20, 32)

	c1 := (id13 >> 12) & 1
	a1 := (id13 >> 11) & 1
	c2 := (id13 >> 10) & 1
	a2 := (id13 >> 9) & 1
	c4 := (id13 >> 8) & 1
	a4 := (id13 >> 7) & 1
	b1 := (id13 >> 5) & 1
	d1 := (id13 >> 4) & 1
	b2 := (id13 >> 3) & 1
	d2 := (id13 >> 2) & 1
	b4 := (id13 >> 1) & 1
	d4 := id13 & 1

	a := a4<<2 | a2<<1 | a1
	b := b4<<2 | b2<<1 | b1
	c := c4<<2 | c2<<1 | c1
	d := d4<<2 | d2<<1 | d1

	return uint16(a)*1000 + uint16(b)*100 + uint16(c)*10 + uint16(d)
}
