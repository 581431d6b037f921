package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvsoclab/rvsoc/timing/cache"
	"github.com/rvsoclab/rvsoc/timing/mem"
	"github.com/rvsoclab/rvsoc/timing/pipeline"
)

var _ = Describe("Pipeline", func() {
	var (
		imem *mem.RAM
		dmem *mem.RAM
		p    *pipeline.Pipeline
	)

	BeforeEach(func() {
		imem = mem.New(64)
		dmem = mem.New(64)
		p = pipeline.New(imem, dmem)
	})

	load := func(program ...uint32) {
		for i, word := range program {
			imem.Poke(uint32(i), word)
		}
	}

	step := func() {
		p.Tick()
		imem.Tick()
		dmem.Tick()
	}

	// runUntilHalt asserts run and steps until the halt condition, with
	// a generous bound.
	runUntilHalt := func() {
		p.SetRun(true)
		for i := 0; i < 200 && !p.Halted(); i++ {
			step()
		}
		Expect(p.Halted()).To(BeTrue())
	}

	It("should stay in Idle until run is asserted", func() {
		for i := 0; i < 5; i++ {
			step()
		}
		Expect(p.State()).To(Equal(pipeline.StateIdle))
		Expect(p.PC()).To(Equal(uint32(0)))
	})

	It("should walk an ALU instruction through four states", func() {
		load(0x00500093) // ADDI x1, x0, 5
		p.SetRun(true)

		step() // Idle -> Fetch
		Expect(p.State()).To(Equal(pipeline.StateFetch))
		step() // fetch issued
		Expect(p.State()).To(Equal(pipeline.StateDecode))
		step()
		Expect(p.State()).To(Equal(pipeline.StateExecute))
		step()
		Expect(p.State()).To(Equal(pipeline.StateWriteback))
		step() // write queued, next instruction begins
		Expect(p.State()).To(Equal(pipeline.StateFetch))

		// The register write commits at the next step boundary.
		Expect(p.RegFile().Read(1)).To(Equal(uint32(0)))
		step()
		Expect(p.RegFile().Read(1)).To(Equal(uint32(5)))
		Expect(p.PC()).To(Equal(uint32(4)))
	})

	It("should keep advancing through straight-line no-effect code", func() {
		nops := make([]uint32, 10)
		for i := range nops {
			nops[i] = 0x00000013 // ADDI x0, x0, 0
		}
		load(nops...)
		p.SetRun(true)

		// One Idle cycle plus four cycles per instruction.
		for i := 0; i < 41; i++ {
			step()
			Expect(p.Running()).To(BeTrue())
		}

		Expect(p.PC()).To(Equal(uint32(40)))
		Expect(p.Stats().Instructions).To(Equal(uint64(10)))
	})

	It("should execute the add acceptance program", func() {
		load(
			0x00500093, // ADDI x1, x0, 5
			0x00A00113, // ADDI x2, x0, 10
			0x002081B3, // ADD  x3, x1, x2
			0x00000073, // ECALL
		)
		runUntilHalt()

		Expect(p.RegFile().Read(3)).To(Equal(uint32(15)))
		Expect(p.PC()).To(Equal(uint32(12)))
	})

	It("should halt permanently on ECALL with the PC frozen", func() {
		load(0x00000073)
		p.SetRun(true)

		// Idle, Fetch, Decode, Execute: halt within one instruction.
		for i := 0; i < 4; i++ {
			step()
		}
		Expect(p.Halted()).To(BeTrue())
		Expect(p.Running()).To(BeFalse())
		Expect(p.State()).To(Equal(pipeline.StateIdle))
		Expect(p.PC()).To(Equal(uint32(0)))

		// Reasserting run must not revive it.
		p.SetRun(true)
		for i := 0; i < 10; i++ {
			step()
		}
		Expect(p.State()).To(Equal(pipeline.StateIdle))
		Expect(p.PC()).To(Equal(uint32(0)))
	})

	It("should finish the in-flight instruction when run deasserts", func() {
		load(0x00500093, 0x00000013)
		p.SetRun(true)

		step() // Idle -> Fetch
		step() // Fetch
		step() // Decode
		p.SetRun(false) // instruction is mid-flight
		step() // Execute
		step() // Writeback
		step() // back at Fetch, run is low, park in Idle

		Expect(p.State()).To(Equal(pipeline.StateIdle))
		Expect(p.RegFile().Read(1)).To(Equal(uint32(5)))
		Expect(p.PC()).To(Equal(uint32(4)))
	})

	It("should execute exactly one instruction per single-step request", func() {
		load(0x00500093, 0x00A00113)

		p.StepOnce()
		for i := 0; i < 8; i++ {
			step()
		}
		Expect(p.State()).To(Equal(pipeline.StateIdle))
		Expect(p.RegFile().Read(1)).To(Equal(uint32(5)))
		Expect(p.RegFile().Read(2)).To(Equal(uint32(0)))
		Expect(p.PC()).To(Equal(uint32(4)))

		p.StepOnce()
		for i := 0; i < 8; i++ {
			step()
		}
		Expect(p.RegFile().Read(2)).To(Equal(uint32(10)))
		Expect(p.PC()).To(Equal(uint32(8)))
	})

	It("should take branches and skip the not-taken path", func() {
		load(
			0x00500093, // ADDI x1, x0, 5
			0x00500113, // ADDI x2, x0, 5
			0x00208463, // BEQ  x1, x2, +8
			0x06300193, // ADDI x3, x0, 99 (skipped)
			0x00000073, // ECALL
		)
		runUntilHalt()

		Expect(p.RegFile().Read(3)).To(Equal(uint32(0)))
	})

	It("should link and return through JAL and JALR", func() {
		load(
			0x008000EF, // JAL  x1, +8
			0x00000073, // ECALL (return target)
			0x00500113, // ADDI x2, x0, 5
			0x00008067, // JALR x0, x1, 0
		)
		runUntilHalt()

		Expect(p.RegFile().Read(1)).To(Equal(uint32(4)))
		Expect(p.RegFile().Read(2)).To(Equal(uint32(5)))
		Expect(p.PC()).To(Equal(uint32(4)))
	})

	It("should store through the data memory port", func() {
		load(
			0x00500093, // ADDI x1, x0, 5
			0x0010A423, // SW   x1, 8(x1) -> byte 13, word 3
			0x00000073, // ECALL
		)
		runUntilHalt()

		Expect(dmem.Peek(3)).To(Equal(uint32(5)))
	})

	It("should load through the Memory state with sign extension", func() {
		dmem.Poke(2, 0x0000FF80) // byte 9 is 0xFF, byte 8 is 0x80
		load(
			0x00800103, // LB x2, 8(x0)
			0x00802183, // LW x3, 8(x0)
			0x00000073, // ECALL
		)
		runUntilHalt()

		Expect(p.RegFile().Read(2)).To(Equal(uint32(0xFFFFFF80)))
		Expect(p.RegFile().Read(3)).To(Equal(uint32(0x0000FF80)))
	})

	It("should round-trip a store into a later load", func() {
		load(
			0x02A00093, // ADDI x1, x0, 42
			0x0010A623, // SW   x1, 12(x1) -> byte 54, word 13
			0x00C0A103, // LW   x2, 12(x1) -> same word
			0x00000073, // ECALL
		)
		runUntilHalt()

		Expect(p.RegFile().Read(2)).To(Equal(uint32(42)))
		Expect(dmem.Peek(13)).To(Equal(uint32(42)))
	})

	It("should treat unknown opcodes as no-effect instructions", func() {
		load(
			0x0000007F,
			0x00000073, // ECALL
		)
		runUntilHalt()

		Expect(p.PC()).To(Equal(uint32(4)))
	})

	It("should honor a PC write before the next fetch", func() {
		load(
			0x00000013, // word 0: NOP
			0x00000013, // word 1
			0x00500093, // word 2: ADDI x1, x0, 5
			0x00000073, // word 3: ECALL
		)
		p.SetPC(8)
		runUntilHalt()

		Expect(p.RegFile().Read(1)).To(Equal(uint32(5)))
		Expect(p.PC()).To(Equal(uint32(12)))
	})

	It("should clear processor state but not memory on control reset", func() {
		load(0x00500093, 0x00000073)
		dmem.Poke(9, 0x77)
		runUntilHalt()

		p.ControlReset()
		Expect(p.Halted()).To(BeFalse())
		Expect(p.PC()).To(Equal(uint32(0)))
		Expect(p.RegFile().Read(1)).To(Equal(uint32(0)))
		Expect(imem.Peek(0)).To(Equal(uint32(0x00500093)))
		Expect(dmem.Peek(9)).To(Equal(uint32(0x77)))
	})
})

var _ = Describe("Pipeline with fetch cache", func() {
	var (
		imem *mem.RAM
		dmem *mem.RAM
		c    *cache.Cache
		p    *pipeline.Pipeline
	)

	BeforeEach(func() {
		imem = mem.New(64)
		dmem = mem.New(64)
		c = cache.New(cache.Config{
			Size:          64,
			Associativity: 2,
			BlockSize:     16,
			MissPenalty:   2,
		})
		p = pipeline.New(imem, dmem, pipeline.WithICache(c))
	})

	step := func() {
		p.Tick()
		imem.Tick()
		dmem.Tick()
	}

	It("should stall fetch on a cold miss and hit afterwards", func() {
		imem.Poke(0, 0x00500093) // ADDI x1, x0, 5
		imem.Poke(1, 0x00000073) // ECALL, same 16-byte block
		p.SetRun(true)

		for i := 0; i < 50 && !p.Halted(); i++ {
			step()
		}
		Expect(p.Halted()).To(BeTrue())

		stats := c.Stats()
		Expect(stats.Misses).To(Equal(uint64(1)))
		Expect(stats.Hits).To(Equal(uint64(1)))
		Expect(p.Stats().FetchStalls).To(Equal(uint64(2)))
		Expect(p.RegFile().Read(1)).To(Equal(uint32(5)))
	})

	It("should refetch after an instruction window invalidation", func() {
		imem.Poke(0, 0x00000013)
		p.SetRun(true)
		for i := 0; i < 8; i++ {
			step()
		}
		missesBefore := c.Stats().Misses

		p.InvalidateFetch(0)
		for i := 0; i < 8; i++ {
			step()
		}

		Expect(c.Stats().Misses).To(Equal(missesBefore + 1))
		Expect(c.Stats().Invalidations).To(Equal(uint64(1)))
	})
})
