package emu

import "github.com/rvsoclab/rvsoc/insts"

// StrbAll selects all four bytes of a word write.
const StrbAll uint8 = 0xF

// ExtendLoad applies the sign/zero extension a load width calls for to a
// freshly read memory word. addr selects the byte lane within the word for
// sub-word loads.
func ExtendLoad(width uint8, addr uint32, word uint32) uint32 {
	switch width {
	case insts.WidthByte:
		b := uint8(word >> ((addr & 3) * 8))
		return uint32(int32(int8(b)))
	case insts.WidthByteU:
		b := uint8(word >> ((addr & 3) * 8))
		return uint32(b)
	case insts.WidthHalf:
		h := uint16(word >> ((addr & 2) * 8))
		return uint32(int32(int16(h)))
	case insts.WidthHalfU:
		h := uint16(word >> ((addr & 2) * 8))
		return uint32(h)
	default: // insts.WidthWord
		return word
	}
}

// ApplyStrobe merges data into old under a 4-bit byte strobe.
func ApplyStrobe(old, data uint32, strb uint8) uint32 {
	var mask uint32
	for i := 0; i < 4; i++ {
		if strb&(1<<i) != 0 {
			mask |= 0xFF << (i * 8)
		}
	}
	return (old &^ mask) | (data & mask)
}
