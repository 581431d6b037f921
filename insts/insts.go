// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RV32I machine code into structured
// instruction representations. It covers the base integer subset executed
// by the SoC core:
//   - LUI, AUIPC
//   - JAL, JALR
//   - BEQ, BNE, BLT, BGE, BLTU, BGEU
//   - LB, LH, LW, LBU, LHU, SB, SH, SW
//   - OP-IMM and OP arithmetic (ADDI...ANDI, ADD...AND)
//   - ECALL, EBREAK
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00500093) // ADDI x1, x0, 5
//	fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", inst.Opcode, inst.Rd, inst.ImmI)
package insts

// Opcode is the 7-bit major opcode of an RV32I instruction.
type Opcode uint8

// RV32I major opcodes.
const (
	OpcodeLUI    Opcode = 0x37 // Load upper immediate
	OpcodeAUIPC  Opcode = 0x17 // Add upper immediate to PC
	OpcodeJAL    Opcode = 0x6F // Jump and link
	OpcodeJALR   Opcode = 0x67 // Jump and link register
	OpcodeBranch Opcode = 0x63 // Conditional branches
	OpcodeLoad   Opcode = 0x03 // LB, LH, LW, LBU, LHU
	OpcodeStore  Opcode = 0x23 // SB, SH, SW
	OpcodeOpImm  Opcode = 0x13 // Register-immediate arithmetic
	OpcodeOp     Opcode = 0x33 // Register-register arithmetic
	OpcodeSystem Opcode = 0x73 // ECALL, EBREAK
)

// Load/store width encodings (funct3 of OpcodeLoad/OpcodeStore).
const (
	WidthByte  uint8 = 0b000 // LB / SB
	WidthHalf  uint8 = 0b001 // LH / SH
	WidthWord  uint8 = 0b010 // LW / SW
	WidthByteU uint8 = 0b100 // LBU
	WidthHalfU uint8 = 0b101 // LHU
)

// Branch condition encodings (funct3 of OpcodeBranch).
const (
	BranchEQ  uint8 = 0b000 // Equal
	BranchNE  uint8 = 0b001 // Not equal
	BranchLT  uint8 = 0b100 // Signed less than
	BranchGE  uint8 = 0b101 // Signed greater than or equal
	BranchLTU uint8 = 0b110 // Unsigned less than
	BranchGEU uint8 = 0b111 // Unsigned greater than or equal
)

// NOP is the canonical no-operation encoding, ADDI x0, x0, 0.
const NOP uint32 = 0x00000013

// Instruction represents a decoded RV32I instruction.
//
// All five immediate interpretations are decoded unconditionally; the
// consumer picks the one its opcode calls for. This mirrors the hardware,
// where every immediate mux input is formed combinationally from the raw
// instruction word.
type Instruction struct {
	// Raw is the undecoded 32-bit instruction word.
	Raw uint32

	// Opcode is the 7-bit major opcode (bits [6:0]).
	Opcode Opcode

	// Register indices (5 bits each).
	Rd  uint8 // Destination, bits [11:7]
	Rs1 uint8 // First source, bits [19:15]
	Rs2 uint8 // Second source, bits [24:20]

	// Function codes.
	Funct3 uint8 // bits [14:12]
	Funct7 uint8 // bits [31:25]

	// Immediates, sign-extended per the RV32I bit layouts.
	ImmI int32 // I-type: bits [31:20]
	ImmS int32 // S-type: bits [31:25] | [11:7]
	ImmB int32 // B-type: 13-bit branch offset, bit 0 zero
	ImmU int32 // U-type: bits [31:12] << 12
	ImmJ int32 // J-type: 21-bit jump offset, bit 0 zero
}

// WritesRegister reports whether the instruction architecturally writes a
// destination register. Branches, stores, and the system instructions do
// not.
func (i *Instruction) WritesRegister() bool {
	switch i.Opcode {
	case OpcodeBranch, OpcodeStore, OpcodeSystem:
		return false
	default:
		return true
	}
}

// IsHalt reports whether the instruction is ECALL or EBREAK, the only
// halt condition the core recognizes.
func (i *Instruction) IsHalt() bool {
	return i.Opcode == OpcodeSystem
}
