package adsb

import "strings"

// DecodeCallsign decodes the 8x6-bit callsign field of a TC 1-4
// identification message. me is the 7-byte ME field (payload bytes 4-10 of
// the full frame). Invalid characters make the whole callsign invalid
// Trailing spaces are trimmed from the decoded result.
func DecodeCallsign(me []byte) (string, bool) {
	if len(me) < 7 {
		return "", false
	}

	var raw [8]byte
	raw[0] = byte(getBits(me, 9, 14))
	raw[1] = byte(getBits(me, 15, 20))
	raw[2] = byte(getBits(me, 21, 26))
	raw[3] = byte(getBits(me, 27, 32))
	raw[4] = byte(getBits(me, 33, 38))
	raw[5] = byte(getBits(me, 39, 44))
	raw[6] = byte(getBits(me, 45, 50))
	raw[7] = byte(getBits(me, 51, 56))

	var chars [8]byte
	for i, code := range raw {
		if int(code) >= len(ADSBCharset) {
			return "", false
		}
		c := ADSBCharset[code]
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ') {
			return "", false
		}
		chars[i] = c
	}

	return strings.TrimRight(string(chars[:]), " "), true
}

// EncodeCallsign is the inverse of DecodeCallsign: given a callsign of up
// to 8 characters (A-Z, 0-9, space), it returns the 56-bit ME payload the
// field would decode back to. Used by the round-trip law L1 in tests.
func EncodeCallsign(callsign string) []byte {
	padded := (callsign + "        ")[:8]
	me := make([]byte, 7)

	codes := make([]uint32, 8)
	for i, c := range []byte(padded) {
		codes[i] = uint32(strings.IndexByte(ADSBCharset, c))
	}

	setBits(me, 9, 14, codes[0])
	setBits(me, 15, 20, codes[1])
	setBits(me, 21, 26, codes[2])
	setBits(me, 27, 32, codes[3])
	setBits(me, 33, 38, codes[4])
	setBits(me, 39, 44, codes[5])
	setBits(me, 45, 50, codes[6])
	setBits(me, 51, 56, codes[7])

	return me
}

// setBits writes value's low (lastBit-firstBit+1) bits into data at the
// given 1-based MSB-first bit range, the write-side counterpart of getBits.
func setBits(data []byte, firstBit, lastBit int, value uint32) {
	nbi := lastBit - firstBit + 1
	for i := 0; i < nbi; i++ {
		bitPos := firstBit + i // 1-based absolute bit position
		bit := (value >> uint(nbi-1-i)) & 1

		zeroBased := bitPos - 1
		byteIdx := zeroBased / 8
		bitIdx := 7 - (zeroBased % 8)
		if byteIdx >= len(data) {
			continue
		}
		if bit == 1 {
			data[byteIdx] |= 1 << uint(bitIdx)
		} else {
			data[byteIdx] &^= 1 << uint(bitIdx)
		}
	}
}

// DecodeCategory decodes the 3-bit aircraft category sub-field carried
// alongside the callsign in TC 1-4 messages (the category set depends on
// TC; callers combine it with the message's TC to interpret it).
func DecodeCategory(me []byte) uint8 {
	return byte(getBits(me, 6, 8))
}
