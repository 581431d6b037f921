// Package benchmarks holds small RV32I programs and a harness that runs
// each one on both the functional emulator and the cycle-accurate SoC,
// cross-checking the architectural results.
package benchmarks

// Microbenchmark is a hand-assembled RV32I program with its expected
// results. Every program ends in ECALL.
type Microbenchmark struct {
	Name        string
	Description string

	// Program is the instruction image, word 0 first.
	Program []uint32

	// Data holds initial data memory contents, keyed by word index.
	Data map[uint32]uint32

	// MaxSteps bounds the cycle-accurate run.
	MaxSteps uint64

	// ExpectedRegs holds the registers to check after the halt.
	ExpectedRegs map[uint8]uint32
}

// All returns the microbenchmark suite.
func All() []Microbenchmark {
	return []Microbenchmark{
		{
			Name:        "arithmetic_chain",
			Description: "straight-line dependent ALU operations",
			Program: []uint32{
				0x00100093, // ADDI x1, x0, 1
				0x00200113, // ADDI x2, x0, 2
				0x002081B3, // ADD  x3, x1, x2
				0x00318233, // ADD  x4, x3, x3
				0x401202B3, // SUB  x5, x4, x1
				0x0022C333, // XOR  x6, x5, x2
				0x00000073, // ECALL
			},
			MaxSteps: 200,
			ExpectedRegs: map[uint8]uint32{
				3: 3, 4: 6, 5: 5, 6: 7,
			},
		},
		{
			Name:        "countdown_loop",
			Description: "backward branch taken ten times",
			Program: []uint32{
				0x00A00093, // ADDI x1, x0, 10
				0x00000113, // ADDI x2, x0, 0
				0x00110133, // ADD  x2, x2, x1
				0xFFF08093, // ADDI x1, x1, -1
				0xFE009CE3, // BNE  x1, x0, -8
				0x00000073, // ECALL
			},
			MaxSteps: 1000,
			ExpectedRegs: map[uint8]uint32{
				1: 0, 2: 55,
			},
		},
		{
			Name:        "memory_sum",
			Description: "load loop summing three data words",
			Program: []uint32{
				0x00300093, // ADDI x1, x0, 3
				0x00000113, // ADDI x2, x0, 0
				0x08000193, // ADDI x3, x0, 128
				0x0001A203, // LW   x4, 0(x3)
				0x00410133, // ADD  x2, x2, x4
				0x00418193, // ADDI x3, x3, 4
				0xFFF08093, // ADDI x1, x1, -1
				0xFE0098E3, // BNE  x1, x0, -16
				0x00000073, // ECALL
			},
			Data: map[uint32]uint32{
				32: 10, 33: 20, 34: 30,
			},
			MaxSteps: 1000,
			ExpectedRegs: map[uint8]uint32{
				2: 60,
			},
		},
		{
			Name:        "store_readback",
			Description: "store words then reload them",
			Program: []uint32{
				0x02A00093, // ADDI x1, x0, 42
				0x08102023, // SW   x1, 128(x0)
				0x08002103, // LW   x2, 128(x0)
				0x00210133, // ADD  x2, x2, x2
				0x00000073, // ECALL
			},
			MaxSteps: 200,
			ExpectedRegs: map[uint8]uint32{
				2: 84,
			},
		},
		{
			Name:        "shift_logic",
			Description: "shift and comparison coverage",
			Program: []uint32{
				0x00100093, // ADDI x1, x0, 1
				0x00509113, // SLLI x2, x1, 5
				0x40115193, // SRAI x3, x2, 1
				0x0020A233, // SLT  x4, x1, x2
				0x0020B2B3, // SLTU x5, x1, x2
				0x00000073, // ECALL
			},
			MaxSteps: 200,
			ExpectedRegs: map[uint8]uint32{
				2: 32, 3: 16, 4: 1, 5: 1,
			},
		},
	}
}
