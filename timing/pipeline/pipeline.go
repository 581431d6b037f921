// Package pipeline implements the cycle-accurate instruction engine.
//
// The engine is a six-state machine: Idle, Fetch, Decode, Execute, an
// optional Memory state for loads, and Writeback. Exactly one
// instruction is in flight at a time; each state transition costs one
// Tick. The host controls it through run, reset, and single-step flags,
// and the bus engine shares the instruction and data memories through
// their second ports.
package pipeline

import (
	"github.com/rvsoclab/rvsoc/emu"
	"github.com/rvsoclab/rvsoc/insts"
	"github.com/rvsoclab/rvsoc/timing/cache"
	"github.com/rvsoclab/rvsoc/timing/mem"
)

// State identifies the pipeline phase. The numeric values appear in the
// status register's phase field.
type State uint8

const (
	StateIdle State = iota
	StateFetch
	StateDecode
	StateExecute
	StateMemory
	StateWriteback
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFetch:
		return "Fetch"
	case StateDecode:
		return "Decode"
	case StateExecute:
		return "Execute"
	case StateMemory:
		return "Memory"
	case StateWriteback:
		return "Writeback"
	default:
		return "Unknown"
	}
}

// Statistics holds pipeline performance counters.
type Statistics struct {
	Cycles       uint64
	Instructions uint64
	FetchStalls  uint64
}

// regWrite is a register file write waiting for the next step boundary.
// Committing it there gives the old-value-on-read semantics of the
// register file's synchronous write port.
type regWrite struct {
	valid bool
	rd    uint8
	value uint32
}

// Pipeline is the instruction engine. It owns the register file and the
// pipeline-side ports of the two memories.
type Pipeline struct {
	regFile *emu.RegFile
	imem    *mem.RAM
	dmem    *mem.RAM
	decoder *insts.Decoder
	icache  *cache.Cache

	state  State
	pc     uint32
	inst   *insts.Instruction
	run    bool
	step   bool
	halted bool

	// Execute to Memory/Writeback carriers.
	wbValue  uint32
	memAddr  uint32
	memWidth uint8

	pendingWB  regWrite
	fetchStall uint64
	probed     bool

	stats Statistics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithICache attaches a fetch latency cache. Without one every fetch
// costs a single cycle.
func WithICache(c *cache.Cache) Option {
	return func(p *Pipeline) {
		p.icache = c
	}
}

// New creates a pipeline over the given memories.
func New(imem, dmem *mem.RAM, opts ...Option) *Pipeline {
	p := &Pipeline{
		regFile: &emu.RegFile{},
		imem:    imem,
		dmem:    dmem,
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// RegFile returns the pipeline's register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Stats returns a copy of the performance counters.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	return p.state
}

// Phase returns the state encoded for the status register's phase field.
func (p *Pipeline) Phase() uint8 {
	return uint8(p.state)
}

// PC returns the program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// SetPC sets the program counter. It takes effect at the next fetch.
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
}

// SetRun asserts or deasserts the run flag. Deassertion takes effect at
// the next Idle/Fetch boundary; an instruction already past Fetch
// completes first.
func (p *Pipeline) SetRun(run bool) {
	p.run = run
}

// Running reports whether the pipeline is running: run asserted and not
// halted.
func (p *Pipeline) Running() bool {
	return p.run && !p.halted
}

// Halted reports whether the pipeline hit the halt condition.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// StepOnce requests execution of exactly one instruction while the run
// flag is deasserted.
func (p *Pipeline) StepOnce() {
	p.step = true
}

// PeekRegister reads a general-purpose register directly, for the bus
// engine's register peek.
func (p *Pipeline) PeekRegister(idx uint8) uint32 {
	return p.regFile.Read(idx & 0x1F)
}

// ControlReset clears processor state without touching memory, so a
// host can stage a program and then pulse reset through the control
// register.
func (p *Pipeline) ControlReset() {
	p.regFile.Reset()
	p.pc = 0
	p.state = StateIdle
	p.inst = nil
	p.run = false
	p.step = false
	p.halted = false
	p.pendingWB = regWrite{}
	p.fetchStall = 0
	p.probed = false
	p.stats = Statistics{}
	if p.icache != nil {
		p.icache.Reset()
	}
}

// InvalidateFetch drops fetch cache state for the given instruction
// memory word. Called when the host writes the instruction window.
func (p *Pipeline) InvalidateFetch(word uint32) {
	if p.icache != nil {
		p.icache.Invalidate(word << 2)
	}
}

// Tick advances the pipeline by one step. Register writes queued by the
// previous step's Writeback commit first, so a read in this step sees
// the old value only if it raced the write in the same step.
func (p *Pipeline) Tick() {
	if p.pendingWB.valid {
		p.regFile.Write(p.pendingWB.rd, p.pendingWB.value)
		p.pendingWB = regWrite{}
	}

	p.stats.Cycles++

	switch p.state {
	case StateIdle:
		p.tickIdle()
	case StateFetch:
		p.tickFetch()
	case StateDecode:
		p.tickDecode()
	case StateExecute:
		p.tickExecute()
	case StateMemory:
		p.tickMemory()
	case StateWriteback:
		p.tickWriteback()
	}
}

func (p *Pipeline) tickIdle() {
	if p.halted {
		p.step = false
		return
	}
	if p.run || p.step {
		p.state = StateFetch
	}
}

func (p *Pipeline) tickFetch() {
	// Run deassertion lands here, between instructions.
	if !p.run && !p.step {
		p.state = StateIdle
		return
	}

	if p.fetchStall > 0 {
		p.fetchStall--
		p.stats.FetchStalls++
		if p.fetchStall > 0 {
			return
		}
		// Last stall cycle doubles as the fetch issue cycle.
	} else if p.icache != nil && !p.probed {
		p.probed = true
		result := p.icache.Fetch(p.pc)
		if !result.Hit && result.Penalty > 0 {
			p.fetchStall = result.Penalty
			return
		}
	}

	p.probed = false
	p.imem.Read(mem.PortPipeline, p.pc>>2)
	p.state = StateDecode
}

func (p *Pipeline) tickDecode() {
	p.inst = p.decoder.Decode(p.imem.ReadData(mem.PortPipeline))
	p.state = StateExecute
}

func (p *Pipeline) tickExecute() {
	inst := p.inst

	switch inst.Opcode {
	case insts.OpcodeLUI:
		p.wbValue = uint32(inst.ImmU)
		p.pc += 4
		p.state = StateWriteback
	case insts.OpcodeAUIPC:
		p.wbValue = p.pc + uint32(inst.ImmU)
		p.pc += 4
		p.state = StateWriteback
	case insts.OpcodeJAL:
		p.wbValue = p.pc + 4
		p.pc += uint32(inst.ImmJ)
		p.state = StateWriteback
	case insts.OpcodeJALR:
		target := (p.regFile.Read(inst.Rs1) + uint32(inst.ImmI)) &^ 1
		p.wbValue = p.pc + 4
		p.pc = target
		p.state = StateWriteback
	case insts.OpcodeBranch:
		a := p.regFile.Read(inst.Rs1)
		b := p.regFile.Read(inst.Rs2)
		if emu.BranchTaken(inst.Funct3, a, b) {
			p.pc = emu.BranchTarget(p.pc, inst.ImmB)
		} else {
			p.pc += 4
		}
		p.retire()
	case insts.OpcodeStore:
		// Single-cycle write with the all-bytes mask; the data memory
		// commits it at this step's boundary.
		addr := p.regFile.Read(inst.Rs1) + uint32(inst.ImmS)
		p.dmem.Write(mem.PortPipeline, addr>>2, p.regFile.Read(inst.Rs2), emu.StrbAll)
		p.pc += 4
		p.retire()
	case insts.OpcodeLoad:
		addr := p.regFile.Read(inst.Rs1) + uint32(inst.ImmI)
		p.dmem.Read(mem.PortPipeline, addr>>2)
		p.memAddr = addr
		p.memWidth = inst.Funct3
		p.pc += 4
		p.state = StateMemory
	case insts.OpcodeOpImm:
		op := emu.SelectALUOp(inst.Funct3, inst.Funct7, false)
		a := p.regFile.Read(inst.Rs1)
		p.wbValue = emu.ALUExecute(op, a, uint32(inst.ImmI))
		p.pc += 4
		p.state = StateWriteback
	case insts.OpcodeOp:
		op := emu.SelectALUOp(inst.Funct3, inst.Funct7, true)
		a := p.regFile.Read(inst.Rs1)
		b := p.regFile.Read(inst.Rs2)
		p.wbValue = emu.ALUExecute(op, a, b)
		p.pc += 4
		p.state = StateWriteback
	case insts.OpcodeSystem:
		// ECALL/EBREAK: halt permanently, PC frozen, back to Idle.
		p.halted = true
		p.run = false
		p.step = false
		p.stats.Instructions++
		p.state = StateIdle
	default:
		// Unimplemented opcodes advance PC with no other effect.
		p.pc += 4
		p.retire()
	}
}

func (p *Pipeline) tickMemory() {
	word := p.dmem.ReadData(mem.PortPipeline)
	p.wbValue = emu.ExtendLoad(p.memWidth, p.memAddr, word)
	p.state = StateWriteback
}

func (p *Pipeline) tickWriteback() {
	if p.inst.WritesRegister() && p.inst.Rd != 0 {
		p.pendingWB = regWrite{valid: true, rd: p.inst.Rd, value: p.wbValue}
	}
	p.retire()
}

// retire ends the current instruction: back to Fetch, or to Idle when a
// single-step request has been satisfied.
func (p *Pipeline) retire() {
	p.stats.Instructions++
	if p.step {
		p.step = false
		if !p.run {
			p.state = StateIdle
			return
		}
	}
	p.state = StateFetch
}

// Reset is the full power-on reset: processor state and statistics
// clear, and the memories are expected to be cleared by the caller.
func (p *Pipeline) Reset() {
	p.ControlReset()
}
