package emu

import (
	"fmt"

	"github.com/rvsoclab/rvsoc/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the core hit ECALL/EBREAK, the only halt
	// condition. Execution cannot resume without a reset.
	Halted bool

	// Err is set if execution could not proceed (instruction limit).
	Err error
}

// Emulator executes RV32I instructions functionally, one instruction per
// Step, with no cycle accounting. It is the reference model the
// cycle-accurate core is validated against.
type Emulator struct {
	regFile *RegFile
	imem    *Memory
	dmem    *Memory
	decoder *insts.Decoder

	pc     uint32
	halted bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithMemorySize sets the capacity of both memories, in words.
func WithMemorySize(words int) EmulatorOption {
	return func(e *Emulator) {
		e.imem = NewMemory(words)
		e.dmem = NewMemory(words)
	}
}

// NewEmulator creates a new RV32I functional emulator with private
// instruction and data memories.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		imem:    NewMemory(MemWords),
		dmem:    NewMemory(MemWords),
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// InstructionMemory returns the emulator's instruction memory.
func (e *Emulator) InstructionMemory() *Memory {
	return e.imem
}

// DataMemory returns the emulator's data memory.
func (e *Emulator) DataMemory() *Memory {
	return e.dmem
}

// PC returns the current program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// SetPC sets the program counter.
func (e *Emulator) SetPC(pc uint32) {
	e.pc = pc
}

// Halted reports whether the emulator hit the halt condition.
func (e *Emulator) Halted() bool {
	return e.halted
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies a program image into instruction memory starting at
// word 0 and sets the PC to the entry point.
func (e *Emulator) LoadProgram(entry uint32, image []uint32) {
	e.imem.LoadWords(image)
	e.pc = entry
}

// Reset reinitializes processor state: registers, PC, and the halt flag.
// Memory contents are preserved, matching the hardware's reset behavior.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.pc = 0
	e.halted = false
	e.instructionCount = 0
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: fmt.Errorf("max instructions reached at PC=0x%X", e.pc)}
	}

	// 1. Fetch
	word := e.imem.ReadWord(e.pc >> 2)

	// 2. Decode
	inst := e.decoder.Decode(word)

	// 3. Execute
	result := e.execute(inst)

	e.instructionCount++

	return result
}

// Run executes instructions until the halt condition or an error.
// Returns the number of instructions executed.
func (e *Emulator) Run() (uint64, error) {
	for {
		result := e.Step()
		if result.Halted {
			return e.instructionCount, nil
		}
		if result.Err != nil {
			return e.instructionCount, result.Err
		}
	}
}

// execute dispatches a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	switch inst.Opcode {
	case insts.OpcodeLUI:
		e.regFile.Write(inst.Rd, uint32(inst.ImmU))
		e.pc += 4
	case insts.OpcodeAUIPC:
		e.regFile.Write(inst.Rd, e.pc+uint32(inst.ImmU))
		e.pc += 4
	case insts.OpcodeJAL:
		e.regFile.Write(inst.Rd, e.pc+4)
		e.pc += uint32(inst.ImmJ)
	case insts.OpcodeJALR:
		target := (e.regFile.Read(inst.Rs1) + uint32(inst.ImmI)) &^ 1
		e.regFile.Write(inst.Rd, e.pc+4)
		e.pc = target
	case insts.OpcodeBranch:
		a := e.regFile.Read(inst.Rs1)
		b := e.regFile.Read(inst.Rs2)
		if BranchTaken(inst.Funct3, a, b) {
			e.pc = BranchTarget(e.pc, inst.ImmB)
		} else {
			e.pc += 4
		}
	case insts.OpcodeLoad:
		addr := e.regFile.Read(inst.Rs1) + uint32(inst.ImmI)
		word := e.dmem.ReadWord(addr >> 2)
		e.regFile.Write(inst.Rd, ExtendLoad(inst.Funct3, addr, word))
		e.pc += 4
	case insts.OpcodeStore:
		// Stores always assert the all-bytes mask, matching the
		// hardware's single store path. SB/SH share it.
		addr := e.regFile.Read(inst.Rs1) + uint32(inst.ImmS)
		e.dmem.WriteMasked(addr>>2, e.regFile.Read(inst.Rs2), StrbAll)
		e.pc += 4
	case insts.OpcodeOpImm:
		op := SelectALUOp(inst.Funct3, inst.Funct7, false)
		a := e.regFile.Read(inst.Rs1)
		e.regFile.Write(inst.Rd, ALUExecute(op, a, uint32(inst.ImmI)))
		e.pc += 4
	case insts.OpcodeOp:
		op := SelectALUOp(inst.Funct3, inst.Funct7, true)
		a := e.regFile.Read(inst.Rs1)
		b := e.regFile.Read(inst.Rs2)
		e.regFile.Write(inst.Rd, ALUExecute(op, a, b))
		e.pc += 4
	case insts.OpcodeSystem:
		// ECALL/EBREAK: permanent halt, PC frozen.
		e.halted = true
		return StepResult{Halted: true}
	default:
		// Unimplemented opcodes advance PC with no effect. Inherited
		// policy; see the pipeline specs that pin it.
		e.pc += 4
	}

	return StepResult{}
}
