package benchmarks

import (
	"fmt"

	"github.com/rvsoclab/rvsoc/emu"
	"github.com/rvsoclab/rvsoc/timing/core"
)

// Result holds the outcome of one cross-validated run.
type Result struct {
	Name string

	// Functional model results.
	EmuInstructions uint64

	// Cycle-accurate results.
	Instructions uint64
	Cycles       uint64
	CPI          float64

	// FinalPC is the halt PC, identical in both models.
	FinalPC uint32
}

// RunEmulator executes a microbenchmark on the functional model and
// returns it for inspection.
func RunEmulator(b Microbenchmark) (*emu.Emulator, error) {
	e := emu.NewEmulator(emu.WithMaxInstructions(b.MaxSteps))
	for word, value := range b.Data {
		e.DataMemory().WriteWord(word, value)
	}
	e.LoadProgram(0, b.Program)

	if _, err := e.Run(); err != nil {
		return nil, fmt.Errorf("%s: emulator: %w", b.Name, err)
	}
	return e, nil
}

// RunTiming executes a microbenchmark on the cycle-accurate SoC.
func RunTiming(b Microbenchmark, config *core.Config) (*core.SoC, error) {
	s, err := core.New(config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name, err)
	}
	for word, value := range b.Data {
		s.DataMemory().Poke(word, value)
	}
	s.LoadProgram(b.Program)
	s.Pipeline().SetRun(true)

	if _, err := s.RunUntilHalt(b.MaxSteps * 8); err != nil {
		return nil, fmt.Errorf("%s: timing: %w", b.Name, err)
	}
	return s, nil
}

// CrossValidate runs a microbenchmark on both models and compares every
// general-purpose register and the final PC.
func CrossValidate(b Microbenchmark, config *core.Config) (Result, error) {
	e, err := RunEmulator(b)
	if err != nil {
		return Result{}, err
	}
	s, err := RunTiming(b, config)
	if err != nil {
		return Result{}, err
	}

	if e.PC() != s.Pipeline().PC() {
		return Result{}, fmt.Errorf("%s: PC mismatch: emulator 0x%X, timing 0x%X",
			b.Name, e.PC(), s.Pipeline().PC())
	}
	for i := uint8(1); i < 32; i++ {
		ev := e.RegFile().Read(i)
		tv := s.Pipeline().RegFile().Read(i)
		if ev != tv {
			return Result{}, fmt.Errorf("%s: x%d mismatch: emulator 0x%X, timing 0x%X",
				b.Name, i, ev, tv)
		}
	}
	for reg, want := range b.ExpectedRegs {
		if got := e.RegFile().Read(reg); got != want {
			return Result{}, fmt.Errorf("%s: x%d = 0x%X, want 0x%X",
				b.Name, reg, got, want)
		}
	}

	stats := s.Stats()
	result := Result{
		Name:            b.Name,
		EmuInstructions: e.InstructionCount(),
		Instructions:    stats.Instructions,
		Cycles:          stats.Cycles,
		FinalPC:         e.PC(),
	}
	if stats.Instructions > 0 {
		result.CPI = float64(stats.Cycles) / float64(stats.Instructions)
	}
	return result, nil
}
