package insts

// Decoder decodes RV32I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word.
//
// Decoding is a pure function of the word: field extraction and all five
// immediate assemblies happen unconditionally, with no reference to any
// machine state.
func (d *Decoder) Decode(word uint32) *Instruction {
	return &Instruction{
		Raw:    word,
		Opcode: Opcode(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Funct7: uint8((word >> 25) & 0x7F),
		ImmI:   ImmI(word),
		ImmS:   ImmS(word),
		ImmB:   ImmB(word),
		ImmU:   ImmU(word),
		ImmJ:   ImmJ(word),
	}
}

// ImmI assembles the I-type immediate: bits [31:20], sign-extended.
func ImmI(word uint32) int32 {
	return int32(word) >> 20
}

// ImmS assembles the S-type immediate: bits [31:25] | [11:7],
// sign-extended.
func ImmS(word uint32) int32 {
	imm := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
	return signExtend(imm, 12)
}

// ImmB assembles the B-type immediate, a 13-bit signed branch offset with
// bit 0 forced to zero: imm[12|10:5|4:1|11] from bits [31|30:25|11:8|7].
func ImmB(word uint32) int32 {
	imm := ((word >> 31) << 12) | // imm[12]
		(((word >> 7) & 0x1) << 11) | // imm[11]
		(((word >> 25) & 0x3F) << 5) | // imm[10:5]
		(((word >> 8) & 0xF) << 1) // imm[4:1]
	return signExtend(imm, 13)
}

// ImmU assembles the U-type immediate: bits [31:12] placed in the upper 20
// bits, low 12 bits zero.
func ImmU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// ImmJ assembles the J-type immediate, a 21-bit signed jump offset with
// bit 0 forced to zero: imm[20|10:1|11|19:12] from bits [31|30:21|20|19:12].
func ImmJ(word uint32) int32 {
	imm := ((word >> 31) << 20) | // imm[20]
		(((word >> 12) & 0xFF) << 12) | // imm[19:12]
		(((word >> 20) & 0x1) << 11) | // imm[11]
		(((word >> 21) & 0x3FF) << 1) // imm[10:1]
	return signExtend(imm, 21)
}

// signExtend sign-extends the low bits bits of imm to 32 bits.
func signExtend(imm uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(imm<<shift) >> shift
}
