package emu

import "github.com/rvsoclab/rvsoc/insts"

// ALUOp selects an ALU operation. The encoding matches the 4-bit selector
// the pipeline drives into the execute stage.
type ALUOp uint8

// ALU operation selectors.
const (
	ALUAdd  ALUOp = 0x0 // a + b
	ALUSub  ALUOp = 0x1 // a - b
	ALUSll  ALUOp = 0x2 // a << b[4:0]
	ALUSlt  ALUOp = 0x3 // signed a < b
	ALUSltu ALUOp = 0x4 // unsigned a < b
	ALUXor  ALUOp = 0x5 // a ^ b
	ALUSrl  ALUOp = 0x6 // a >> b[4:0], logical
	ALUSra  ALUOp = 0x7 // a >> b[4:0], arithmetic
	ALUOr   ALUOp = 0x8 // a | b
	ALUAnd  ALUOp = 0x9 // a & b
)

// ALUExecute computes one ALU operation. It is a pure function of its
// operands; shift amounts use only the low 5 bits of b, and the set-less-
// than operations produce 0 or 1.
func ALUExecute(op ALUOp, a, b uint32) uint32 {
	switch op {
	case ALUAdd:
		return a + b
	case ALUSub:
		return a - b
	case ALUSll:
		return a << (b & 0x1F)
	case ALUSlt:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case ALUSltu:
		if a < b {
			return 1
		}
		return 0
	case ALUXor:
		return a ^ b
	case ALUSrl:
		return a >> (b & 0x1F)
	case ALUSra:
		return uint32(int32(a) >> (b & 0x1F))
	case ALUOr:
		return a | b
	case ALUAnd:
		return a & b
	default:
		return 0
	}
}

// SelectALUOp chooses the ALU operation for an OP or OP-IMM instruction
// from its function codes.
//
// funct7 bit 5 turns ADD into SUB (register form only) and SRL into SRA
// (both forms: for immediate shifts the bit rides in the same position of
// the encoded shamt field's upper bits).
func SelectALUOp(funct3, funct7 uint8, regForm bool) ALUOp {
	funct7b5 := funct7&0x20 != 0

	switch funct3 {
	case 0b000:
		if regForm && funct7b5 {
			return ALUSub
		}
		return ALUAdd
	case 0b001:
		return ALUSll
	case 0b010:
		return ALUSlt
	case 0b011:
		return ALUSltu
	case 0b100:
		return ALUXor
	case 0b101:
		if funct7b5 {
			return ALUSra
		}
		return ALUSrl
	case 0b110:
		return ALUOr
	default: // 0b111
		return ALUAnd
	}
}

// ALUOpFor resolves the ALU operation for a decoded instruction. Non-ALU
// opcodes fall back to add, which is what the address-generation paths
// (loads, stores, JALR) use.
func ALUOpFor(inst *insts.Instruction) ALUOp {
	switch inst.Opcode {
	case insts.OpcodeOp:
		return SelectALUOp(inst.Funct3, inst.Funct7, true)
	case insts.OpcodeOpImm:
		return SelectALUOp(inst.Funct3, inst.Funct7, false)
	default:
		return ALUAdd
	}
}
