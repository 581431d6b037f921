// Package core assembles the cycle-accurate SoC: pipeline, bus
// transaction engine, and the two dual-ported memories, advanced
// together by an explicit step function.
package core

import (
	"fmt"

	"github.com/rvsoclab/rvsoc/emu"
	"github.com/rvsoclab/rvsoc/timing/bus"
	"github.com/rvsoclab/rvsoc/timing/cache"
	"github.com/rvsoclab/rvsoc/timing/mem"
	"github.com/rvsoclab/rvsoc/timing/pipeline"
)

// hostTransactionBound limits how many steps a host-side transaction
// helper will wait for a response. By construction the engine answers
// within two steps; the bound only turns an impossible hang into an
// error.
const hostTransactionBound = 8

// Stats aggregates the counters of every component.
type Stats struct {
	// Cycles is the number of steps the SoC has advanced.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// FetchStalls is the number of fetch cycles lost to cache misses.
	FetchStalls uint64
	// HostWrites is the number of completed bus write transactions.
	HostWrites uint32
	// ICache holds the fetch cache counters, zero when disabled.
	ICache cache.Statistics
}

// SoC is the full system model. There are no threads and no timers:
// Step advances every component by one cycle, and all cross-component
// effects commit at the step boundary.
type SoC struct {
	config *Config

	imem     *mem.RAM
	dmem     *mem.RAM
	pipeline *pipeline.Pipeline
	engine   *bus.Engine
	icache   *cache.Cache

	cycles uint64
}

// New builds an SoC from the given configuration. A nil config uses the
// defaults.
func New(config *Config) (*SoC, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &SoC{
		config: config.Clone(),
		imem:   mem.New(config.MemoryWords),
		dmem:   mem.New(config.MemoryWords),
	}

	var pipeOpts []pipeline.Option
	if config.ICacheEnabled {
		s.icache = cache.New(cache.Config{
			Size:          config.ICacheSize,
			Associativity: config.ICacheAssociativity,
			BlockSize:     config.ICacheBlockSize,
			MissPenalty:   config.ICacheMissPenalty,
		})
		pipeOpts = append(pipeOpts, pipeline.WithICache(s.icache))
	}

	s.pipeline = pipeline.New(s.imem, s.dmem, pipeOpts...)
	s.engine = bus.New(s.pipeline, s.imem, s.dmem,
		bus.WithInstrWriteHook(s.pipeline.InvalidateFetch))

	return s, nil
}

// Config returns a copy of the SoC configuration.
func (s *SoC) Config() *Config {
	return s.config.Clone()
}

// Pipeline returns the instruction engine.
func (s *SoC) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// Bus returns the bus transaction engine. Hosts drive its channel lines
// directly, or use the HostRead/HostWrite helpers.
func (s *SoC) Bus() *bus.Engine {
	return s.engine
}

// InstructionMemory returns the instruction RAM.
func (s *SoC) InstructionMemory() *mem.RAM {
	return s.imem
}

// DataMemory returns the data RAM.
func (s *SoC) DataMemory() *mem.RAM {
	return s.dmem
}

// Stats returns aggregated counters.
func (s *SoC) Stats() Stats {
	pipeStats := s.pipeline.Stats()
	stats := Stats{
		Cycles:       s.cycles,
		Instructions: pipeStats.Instructions,
		FetchStalls:  pipeStats.FetchStalls,
		HostWrites:   s.engine.WriteCount(),
	}
	if s.icache != nil {
		stats.ICache = s.icache.Stats()
	}
	return stats
}

// Step advances the whole system by one cycle: pipeline and bus engine
// compute and issue their accesses, then the memories commit them.
func (s *SoC) Step() {
	s.pipeline.Tick()
	s.engine.Tick()
	s.imem.Tick()
	s.dmem.Tick()
	s.cycles++
}

// StepN advances the system by n cycles.
func (s *SoC) StepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.Step()
	}
}

// RunUntilHalt steps until the pipeline halts or maxSteps elapse.
// Returns the number of steps taken.
func (s *SoC) RunUntilHalt(maxSteps uint64) (uint64, error) {
	for i := uint64(0); i < maxSteps; i++ {
		if s.pipeline.Halted() {
			return i, nil
		}
		s.Step()
	}
	if s.pipeline.Halted() {
		return maxSteps, nil
	}
	return maxSteps, fmt.Errorf("no halt within %d steps", maxSteps)
}

// LoadProgram copies a program image directly into instruction memory,
// bypassing the bus. The loader path for tests and the fast boot flow.
func (s *SoC) LoadProgram(image []uint32) {
	for i, word := range image {
		s.imem.Poke(uint32(i), word)
	}
}

// HostWrite performs one complete bus write transaction: drive the
// address and data channels, wait for the response, and retire it.
func (s *SoC) HostWrite(byteAddr, data uint32) error {
	e := s.engine
	e.AWValid = true
	e.AWAddr = byteAddr
	e.WValid = true
	e.WData = data
	e.WStrb = emu.StrbAll
	e.BReady = true

	defer func() {
		e.AWValid = false
		e.WValid = false
	}()

	for i := 0; i < hostTransactionBound; i++ {
		s.Step()
		if e.BValid {
			e.AWValid = false
			e.WValid = false
			s.Step() // retire the response
			return nil
		}
	}
	return fmt.Errorf("write to 0x%X did not complete", byteAddr)
}

// HostRead performs one complete bus read transaction.
func (s *SoC) HostRead(byteAddr uint32) (uint32, error) {
	e := s.engine
	e.ARValid = true
	e.ARAddr = byteAddr
	e.RReady = true

	defer func() {
		e.ARValid = false
	}()

	for i := 0; i < hostTransactionBound; i++ {
		s.Step()
		if e.RValid {
			data := e.RData
			e.ARValid = false
			s.Step() // retire the response
			return data, nil
		}
	}
	return 0, fmt.Errorf("read of 0x%X did not complete", byteAddr)
}

// Reset is the full power-on reset: processor, bus engine, and both
// memories clear.
func (s *SoC) Reset() {
	s.pipeline.ControlReset()
	s.engine.Reset()
	s.imem.Reset()
	s.dmem.Reset()
	s.cycles = 0
}
