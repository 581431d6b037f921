// Package main provides the entry point for rvsoc, a cycle-accurate
// RV32I SoC simulator with a host-facing register-mapped bus.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rvsoclab/rvsoc/emu"
	"github.com/rvsoclab/rvsoc/loader"
	"github.com/rvsoclab/rvsoc/timing/bus"
	"github.com/rvsoclab/rvsoc/timing/core"
)

var (
	fast       = flag.Bool("fast", false, "Functional emulation instead of cycle-accurate simulation")
	configPath = flag.String("config", "", "Path to SoC configuration JSON file")
	icache     = flag.Bool("icache", false, "Enable the fetch latency cache")
	maxSteps   = flag.Uint64("steps", 1_000_000, "Maximum simulation steps")
	busLoad    = flag.Bool("busload", false, "Load the program through bus transactions instead of directly")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rvsoc [options] <program.hex|program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)
	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s (%d words)\n", programPath, prog.Len())
	}

	if *fast {
		os.Exit(runEmulation(prog))
	}
	os.Exit(runTiming(prog))
}

// runEmulation runs the program on the functional model.
func runEmulation(prog *loader.Program) int {
	e := emu.NewEmulator(emu.WithMaxInstructions(*maxSteps))
	e.LoadProgram(0, prog.Words)

	count, err := e.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Emulation failed: %v\n", err)
		return 1
	}

	fmt.Printf("Halted at PC=0x%X after %d instructions\n", e.PC(), count)
	if *verbose {
		dumpRegisters(func(i uint8) uint32 { return e.RegFile().Read(i) })
	}
	return 0
}

// runTiming runs the program on the cycle-accurate SoC.
func runTiming(prog *loader.Program) int {
	config, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	s, err := core.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building SoC: %v\n", err)
		return 1
	}

	if err := stage(s, prog); err != nil {
		fmt.Fprintf(os.Stderr, "Error staging program: %v\n", err)
		return 1
	}

	if err := s.HostWrite(0x00, bus.CtrlRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting processor: %v\n", err)
		return 1
	}

	steps, err := s.RunUntilHalt(*maxSteps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		return 1
	}

	stats := s.Stats()
	pc, err := s.HostRead(0x08)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading PC: %v\n", err)
		return 1
	}

	fmt.Printf("Halted at PC=0x%X\n", pc)
	fmt.Printf("Cycles:       %d (%d to halt)\n", stats.Cycles, steps)
	fmt.Printf("Instructions: %d\n", stats.Instructions)
	if stats.Instructions > 0 {
		fmt.Printf("CPI:          %.2f\n", float64(stats.Cycles)/float64(stats.Instructions))
	}
	if config.ICacheEnabled {
		fmt.Printf("Fetch cache:  %d hits, %d misses, %d stall cycles\n",
			stats.ICache.Hits, stats.ICache.Misses, stats.FetchStalls)
	}
	if *verbose {
		dumpRegisters(s.Pipeline().PeekRegister)
	}
	return 0
}

// buildConfig assembles the SoC configuration from the flags.
func buildConfig() (*core.Config, error) {
	config := core.DefaultConfig()
	if *configPath != "" {
		loaded, err := core.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if *icache {
		config.ICacheEnabled = true
	}
	return config, nil
}

// stage places the program in instruction memory, either directly or
// word by word through bus write transactions.
func stage(s *core.SoC, prog *loader.Program) error {
	if !*busLoad {
		s.LoadProgram(prog.Words)
		return nil
	}

	limit := int(bus.InstrWindowWords)
	if prog.Len() > limit {
		return fmt.Errorf("program has %d words; the instruction window holds %d",
			prog.Len(), limit)
	}
	for i, word := range prog.Words {
		addr := 4 * (bus.InstrWindowBase + uint32(i))
		if err := s.HostWrite(addr, word); err != nil {
			return err
		}
	}
	return s.HostWrite(0x08, 0)
}

func dumpRegisters(read func(uint8) uint32) {
	fmt.Println("\nRegisters:")
	for i := uint8(0); i < 32; i += 4 {
		fmt.Printf("  x%-2d=0x%08X x%-2d=0x%08X x%-2d=0x%08X x%-2d=0x%08X\n",
			i, read(i), i+1, read(i+1), i+2, read(i+2), i+3, read(i+3))
	}
}
