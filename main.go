// Package main provides the entry point for rvsoc.
// rvsoc is a cycle-accurate RV32I SoC simulator.
//
// For the full CLI, use: go run ./cmd/rvsoc
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rvsoc - RV32I SoC Simulator")
	fmt.Println("")
	fmt.Println("Usage: rvsoc [options] <program.hex|program.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -fast      Functional emulation instead of cycle-accurate simulation")
	fmt.Println("  -config    Path to SoC configuration JSON file")
	fmt.Println("  -icache    Enable the fetch latency cache")
	fmt.Println("  -steps     Maximum simulation steps")
	fmt.Println("  -busload   Load the program through bus transactions")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvsoc' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvsoc' instead.")
	}
}
