// Package emu provides the functional model of the RV32I core: register
// file, ALU, branch unit, load/store helpers, and a fast instruction-level
// emulator used as the reference for the cycle-accurate model.
package emu

// RegFile represents the RV32I integer register file: 32 general-purpose
// 32-bit registers. Register x0 is hardwired to zero.
type RegFile struct {
	// X holds general-purpose registers x0-x31.
	// X[0] always reads as 0 regardless of stored content.
	X [32]uint32
}

// Read reads a register value. Register 0 returns 0.
func (r *RegFile) Read(reg uint8) uint32 {
	if reg == 0 {
		return 0
	}
	return r.X[reg&0x1F]
}

// Write writes a value to a register. Writes to register 0 are dropped.
func (r *RegFile) Write(reg uint8, value uint32) {
	if reg == 0 {
		return
	}
	r.X[reg&0x1F] = value
}

// Reset clears all registers.
func (r *RegFile) Reset() {
	r.X = [32]uint32{}
}
