// Package bus implements the host-facing transaction engine of the SoC.
//
// The engine terminates a register-mapped command/response protocol with
// independent write and read sides, each a two-sided valid/ready
// handshake. A write proceeds only once both its address and its data
// have arrived; at that instant the engine copies address, data, strobe,
// and the address classification into a private holding area and drives
// the transaction from the held copies only. The input lines are free to
// change the moment the handshake completes. The response line is raised
// only after the held write has actually been applied to its target,
// which costs one extra cycle for memory-backed targets and nothing for
// direct registers.
//
// The read side is fully independent: it captures the read address at
// acceptance and answers from processor state, one of the memory
// windows, or a fixed signature word for unmapped addresses.
package bus

import "github.com/rvsoclab/rvsoc/timing/mem"

// Signature is returned for reads of unmapped addresses.
const Signature uint32 = 0x52495343

// Word-aligned register offsets (byte address >> 2).
const (
	RegControl uint32 = 0x00
	RegStatus  uint32 = 0x01
	RegPC      uint32 = 0x02
	RegPeek    uint32 = 0x03

	RegDebugWriteAddr  uint32 = 0x0C
	RegDebugWriteData  uint32 = 0x0D
	RegDebugWriteCount uint32 = 0x0E
	RegDebugState      uint32 = 0x0F

	InstrWindowBase  uint32 = 0x10
	InstrWindowWords uint32 = 16
	DataWindowBase   uint32 = 0x20
	DataWindowWords  uint32 = 0x3E0
)

// Control register bits.
const (
	CtrlRun   uint32 = 1 << 0
	CtrlReset uint32 = 1 << 1
	CtrlStep  uint32 = 1 << 2
)

// Status register bits. Phase occupies bits [4:2].
const (
	StatusRunning uint32 = 1 << 0
	StatusHalted  uint32 = 1 << 1

	StatusPhaseShift = 2
)

// WriteKind classifies a captured write by its target. The kind is
// decided once, at acceptance, and travels with the latched payload; it
// is never re-derived from the address lines.
type WriteKind uint8

const (
	WriteNone WriteKind = iota
	WriteControl
	WritePC
	WriteInstr
	WriteData
	WriteInvalid
)

// ReadTarget classifies a captured read address.
type ReadTarget uint8

const (
	ReadControl ReadTarget = iota
	ReadStatus
	ReadPC
	ReadPeek
	ReadDebug
	ReadInstr
	ReadData
	ReadUnmapped
)

// Engine handshake states, exposed through the debug state register.
const (
	EngineIdle uint32 = iota
	EngineApply
	EngineResp
)

// Processor is the control surface the engine drives. The pipeline
// controller implements it.
type Processor interface {
	SetRun(run bool)
	Running() bool
	Halted() bool
	Phase() uint8
	PC() uint32
	SetPC(pc uint32)
	StepOnce()

	// ControlReset is the reset triggered by the control register. It
	// clears processor state but leaves memory contents alone, so a host
	// can load a program and then pulse reset without losing it.
	ControlReset()

	// PeekRegister reads a general-purpose register without going
	// through the pipeline.
	PeekRegister(idx uint8) uint32
}

// pendingWrite is the private holding area for an accepted write. All
// fields are captured in the same step; nothing is read from the input
// lines afterwards.
type pendingWrite struct {
	kind WriteKind
	word uint32 // index within the target window
	data uint32
	strb uint8
}

// pendingRead mirrors pendingWrite for the read side.
type pendingRead struct {
	target ReadTarget
	word   uint32
}

// Engine is the bus transaction engine. The exported fields are the
// protocol lines: the host drives the inputs, the engine drives the
// outputs from Tick. At most one write and one read are in flight at a
// time.
type Engine struct {
	// Write address channel (host-driven).
	AWValid bool
	AWAddr  uint32

	// Write data channel (host-driven).
	WValid bool
	WData  uint32
	WStrb  uint8

	// Write response channel.
	BReady bool // host-driven
	BValid bool // engine-driven

	// Read address channel (host-driven).
	ARValid bool
	ARAddr  uint32

	// Read response channel.
	RReady bool   // host-driven
	RValid bool   // engine-driven
	RData  uint32 // engine-driven

	// Accept lines (engine-driven).
	AWReady bool
	WReady  bool
	ARReady bool

	proc Processor
	imem *mem.RAM
	dmem *mem.RAM

	onInstrWrite func(word uint32)

	// Write side handshake latches.
	awDone  bool
	awAddr  uint32
	wDone   bool
	wData   uint32
	wStrb   uint8
	pending pendingWrite
	state   uint32

	// Read side latches.
	read        pendingRead
	readWaitMem bool

	// Debug block.
	lastWriteAddr uint32
	lastWriteData uint32
	writeCount    uint32
	lastReadIdx   uint8
}

// Option configures an Engine.
type Option func(*Engine)

// WithInstrWriteHook installs a callback invoked with the instruction
// window word index whenever a host write lands there. The SoC uses it
// to invalidate fetch-side cache state.
func WithInstrWriteHook(hook func(word uint32)) Option {
	return func(e *Engine) {
		e.onInstrWrite = hook
	}
}

// New creates an Engine driving the given processor and memories.
func New(proc Processor, imem, dmem *mem.RAM, opts ...Option) *Engine {
	e := &Engine{
		proc: proc,
		imem: imem,
		dmem: dmem,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.Reset()

	return e
}

// ClassifyWrite decodes a byte address into a write kind and the word
// index within the target window. Pure; the engine calls it exactly once
// per transaction, at capture.
func ClassifyWrite(byteAddr uint32) (WriteKind, uint32) {
	word := byteAddr >> 2
	switch {
	case word == RegControl:
		return WriteControl, 0
	case word == RegPC:
		return WritePC, 0
	case word >= InstrWindowBase && word < InstrWindowBase+InstrWindowWords:
		return WriteInstr, word - InstrWindowBase
	case word >= DataWindowBase && word < DataWindowBase+DataWindowWords:
		return WriteData, word - DataWindowBase
	default:
		// Status, peek, and the debug block are read-only; anything else
		// is unmapped. Both are accepted and discarded.
		return WriteInvalid, 0
	}
}

// ClassifyRead decodes a byte address into a read target and word index.
func ClassifyRead(byteAddr uint32) (ReadTarget, uint32) {
	word := byteAddr >> 2
	switch {
	case word == RegControl:
		return ReadControl, 0
	case word == RegStatus:
		return ReadStatus, 0
	case word == RegPC:
		return ReadPC, 0
	case word == RegPeek:
		return ReadPeek, 0
	case word >= RegDebugWriteAddr && word <= RegDebugState:
		return ReadDebug, word
	case word >= InstrWindowBase && word < InstrWindowBase+InstrWindowWords:
		return ReadInstr, word - InstrWindowBase
	case word >= DataWindowBase && word < DataWindowBase+DataWindowWords:
		return ReadData, word - DataWindowBase
	default:
		return ReadUnmapped, 0
	}
}

// WriteCount returns the number of completed write transactions since
// reset, including discarded invalid ones.
func (e *Engine) WriteCount() uint32 {
	return e.writeCount
}

// Tick advances the engine by one step. The SoC ticks the engine before
// the memories, so a memory access issued here commits at the end of the
// same step and its result is visible on the next.
func (e *Engine) Tick() {
	e.completeHandshakes()
	e.finishPendingWrite()
	e.finishPendingRead()
	e.acceptWrite()
	e.acceptRead()
}

// completeHandshakes retires response channels the host has acknowledged
// and reopens the corresponding accept lines.
func (e *Engine) completeHandshakes() {
	if e.BValid && e.BReady {
		e.BValid = false
		e.state = EngineIdle
		e.AWReady = true
		e.WReady = true
	}
	if e.RValid && e.RReady {
		e.RValid = false
		e.ARReady = true
	}
}

// finishPendingWrite raises the response for a memory-backed write whose
// access cycle has elapsed.
func (e *Engine) finishPendingWrite() {
	if e.state != EngineApply {
		return
	}
	// The queued port write committed at the end of the previous step.
	e.pending = pendingWrite{}
	e.state = EngineResp
	e.BValid = true
}

// finishPendingRead latches memory read data that became available at
// the end of the previous step and raises the read response.
func (e *Engine) finishPendingRead() {
	if !e.readWaitMem {
		return
	}
	switch e.read.target {
	case ReadInstr:
		e.RData = e.imem.ReadData(mem.PortHost)
	case ReadData:
		e.RData = e.dmem.ReadData(mem.PortHost)
	}
	e.readWaitMem = false
	e.RValid = true
}

// acceptWrite runs the write-side handshake: capture address and data
// halves independently, and once both are held, classify and apply.
func (e *Engine) acceptWrite() {
	if e.AWReady && e.AWValid {
		e.awAddr = e.AWAddr
		e.awDone = true
		e.AWReady = false
	}
	if e.WReady && e.WValid {
		e.wData = e.WData
		e.wStrb = e.WStrb
		e.wDone = true
		e.WReady = false
	}

	if !e.awDone || !e.wDone || e.state != EngineIdle {
		return
	}

	kind, word := ClassifyWrite(e.awAddr)
	e.pending = pendingWrite{kind: kind, word: word, data: e.wData, strb: e.wStrb}
	e.lastWriteAddr = e.awAddr
	e.lastWriteData = e.wData
	e.writeCount++
	e.awDone = false
	e.wDone = false

	e.applyWrite()
}

// applyWrite drives the held write into its target. Direct-register
// targets complete in the same step; memory targets queue a port write
// and complete one step later, after the memory has committed it.
func (e *Engine) applyWrite() {
	switch e.pending.kind {
	case WriteControl:
		e.applyControl(e.pending.data)
		e.respondNow()
	case WritePC:
		e.proc.SetPC(e.pending.data)
		e.respondNow()
	case WriteInstr:
		e.imem.Write(mem.PortHost, e.pending.word, e.pending.data, e.pending.strb)
		if e.onInstrWrite != nil {
			e.onInstrWrite(e.pending.word)
		}
		e.state = EngineApply
	case WriteData:
		e.dmem.Write(mem.PortHost, e.pending.word, e.pending.data, e.pending.strb)
		e.state = EngineApply
	default:
		// Unmapped and read-only targets: accepted, discarded, completed.
		e.respondNow()
	}
}

func (e *Engine) respondNow() {
	e.pending = pendingWrite{}
	e.state = EngineResp
	e.BValid = true
}

// applyControl decodes a control register write. Reset is applied before
// run so a single write can reset and restart in one transaction. The
// reset and step bits are self-clearing pulses.
func (e *Engine) applyControl(value uint32) {
	if value&CtrlReset != 0 {
		e.proc.ControlReset()
	}
	e.proc.SetRun(value&CtrlRun != 0)
	if value&CtrlStep != 0 {
		e.proc.StepOnce()
	}
}

// acceptRead runs the read-side handshake: capture and classify the
// address, then answer from processor state immediately or launch a
// one-cycle memory access.
func (e *Engine) acceptRead() {
	if !e.ARReady || !e.ARValid {
		return
	}

	target, word := ClassifyRead(e.ARAddr)
	e.read = pendingRead{target: target, word: word}
	e.ARReady = false

	switch target {
	case ReadInstr:
		e.imem.Read(mem.PortHost, word)
		e.readWaitMem = true
	case ReadData:
		e.dmem.Read(mem.PortHost, word)
		e.readWaitMem = true
	default:
		e.RData = e.readRegister(target, word)
		e.RValid = true
	}

	// The peek index latches after the response is formed, so a read of
	// the peek register itself answers from the previous read's index.
	e.lastReadIdx = uint8((e.ARAddr >> 2) & 0x1F)
}

// readRegister answers a direct-register read from live processor and
// engine state.
func (e *Engine) readRegister(target ReadTarget, word uint32) uint32 {
	switch target {
	case ReadControl:
		if e.proc.Running() {
			return CtrlRun
		}
		return 0
	case ReadStatus:
		var status uint32
		if e.proc.Running() {
			status |= StatusRunning
		}
		if e.proc.Halted() {
			status |= StatusHalted
		}
		status |= uint32(e.proc.Phase()&0x7) << StatusPhaseShift
		return status
	case ReadPC:
		return e.proc.PC()
	case ReadPeek:
		return e.proc.PeekRegister(e.lastReadIdx)
	case ReadDebug:
		switch word {
		case RegDebugWriteAddr:
			return e.lastWriteAddr
		case RegDebugWriteData:
			return e.lastWriteData
		case RegDebugWriteCount:
			return e.writeCount
		default:
			return e.state
		}
	default:
		return Signature
	}
}

// Reset clears every latch, flag, and response line. No transaction
// survives it.
func (e *Engine) Reset() {
	e.BValid = false
	e.RValid = false
	e.RData = 0
	e.AWReady = true
	e.WReady = true
	e.ARReady = true

	e.awDone = false
	e.wDone = false
	e.pending = pendingWrite{}
	e.state = EngineIdle

	e.read = pendingRead{}
	e.readWaitMem = false

	e.lastWriteAddr = 0
	e.lastWriteData = 0
	e.writeCount = 0
	e.lastReadIdx = 0
}
