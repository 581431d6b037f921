package emu

import "github.com/rvsoclab/rvsoc/insts"

// BranchTaken evaluates an RV32I branch condition (funct3 of a branch
// instruction) against two register operands. Pure function.
func BranchTaken(cond uint8, a, b uint32) bool {
	switch cond {
	case insts.BranchEQ:
		return a == b
	case insts.BranchNE:
		return a != b
	case insts.BranchLT:
		return int32(a) < int32(b)
	case insts.BranchGE:
		return int32(a) >= int32(b)
	case insts.BranchLTU:
		return a < b
	case insts.BranchGEU:
		return a >= b
	default:
		return false
	}
}

// BranchTarget computes the branch target address. The target is formed
// unconditionally; the caller uses it only when the condition holds.
func BranchTarget(pc uint32, offset int32) uint32 {
	return pc + uint32(offset)
}
