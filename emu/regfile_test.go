package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvsoclab/rvsoc/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = &emu.RegFile{}
	})

	It("should store and return register values", func() {
		regFile.Write(5, 0xDEADBEEF)
		Expect(regFile.Read(5)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should always read x0 as zero", func() {
		Expect(regFile.Read(0)).To(Equal(uint32(0)))
	})

	It("should drop writes to x0", func() {
		regFile.Write(0, 0x12345678)
		Expect(regFile.Read(0)).To(Equal(uint32(0)))
		Expect(regFile.X[0]).To(Equal(uint32(0)))
	})

	It("should keep x0 zero even if backing storage is poked", func() {
		regFile.X[0] = 0xFFFFFFFF
		Expect(regFile.Read(0)).To(Equal(uint32(0)))
	})

	It("should clear all registers on reset", func() {
		for i := uint8(1); i < 32; i++ {
			regFile.Write(i, uint32(i))
		}
		regFile.Reset()
		for i := uint8(0); i < 32; i++ {
			Expect(regFile.Read(i)).To(Equal(uint32(0)))
		}
	})
})

var _ = Describe("BranchUnit", func() {
	It("should evaluate BEQ/BNE", func() {
		Expect(emu.BranchTaken(0b000, 5, 5)).To(BeTrue())
		Expect(emu.BranchTaken(0b000, 5, 6)).To(BeFalse())
		Expect(emu.BranchTaken(0b001, 5, 6)).To(BeTrue())
		Expect(emu.BranchTaken(0b001, 5, 5)).To(BeFalse())
	})

	It("should evaluate signed BLT/BGE", func() {
		Expect(emu.BranchTaken(0b100, 0xFFFFFFFF, 0)).To(BeTrue()) // -1 < 0
		Expect(emu.BranchTaken(0b101, 0, 0xFFFFFFFF)).To(BeTrue()) // 0 >= -1
		Expect(emu.BranchTaken(0b101, 0xFFFFFFFF, 0)).To(BeFalse())
	})

	It("should evaluate unsigned BLTU/BGEU", func() {
		Expect(emu.BranchTaken(0b110, 0, 0xFFFFFFFF)).To(BeTrue())
		Expect(emu.BranchTaken(0b110, 0xFFFFFFFF, 0)).To(BeFalse())
		Expect(emu.BranchTaken(0b111, 0xFFFFFFFF, 0)).To(BeTrue())
	})

	It("should compute the target from PC plus offset", func() {
		Expect(emu.BranchTarget(0x100, 8)).To(Equal(uint32(0x108)))
		Expect(emu.BranchTarget(0x100, -4)).To(Equal(uint32(0xFC)))
	})
})

var _ = Describe("Load/store helpers", func() {
	Describe("ExtendLoad", func() {
		// Word 0x8081FF7F laid out little-endian: bytes 7F FF 81 80
		const word = uint32(0x8081FF7F)

		It("should sign-extend LB per byte lane", func() {
			Expect(emu.ExtendLoad(0b000, 0, word)).To(Equal(uint32(0x7F)))
			Expect(emu.ExtendLoad(0b000, 1, word)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(emu.ExtendLoad(0b000, 3, word)).To(Equal(uint32(0xFFFFFF80)))
		})

		It("should zero-extend LBU per byte lane", func() {
			Expect(emu.ExtendLoad(0b100, 1, word)).To(Equal(uint32(0xFF)))
			Expect(emu.ExtendLoad(0b100, 3, word)).To(Equal(uint32(0x80)))
		})

		It("should sign-extend LH per half lane", func() {
			Expect(emu.ExtendLoad(0b001, 0, word)).To(Equal(uint32(0xFFFFFF7F)))
			Expect(emu.ExtendLoad(0b001, 2, word)).To(Equal(uint32(0xFFFF8081)))
		})

		It("should zero-extend LHU per half lane", func() {
			Expect(emu.ExtendLoad(0b101, 0, word)).To(Equal(uint32(0xFF7F)))
			Expect(emu.ExtendLoad(0b101, 2, word)).To(Equal(uint32(0x8081)))
		})

		It("should pass LW through", func() {
			Expect(emu.ExtendLoad(0b010, 0, word)).To(Equal(word))
		})
	})

	Describe("ApplyStrobe", func() {
		It("should merge only strobed bytes", func() {
			got := emu.ApplyStrobe(0x11223344, 0xAABBCCDD, 0b0101)
			Expect(got).To(Equal(uint32(0x11BB33DD)))
		})

		It("should replace everything under a full strobe", func() {
			Expect(emu.ApplyStrobe(0x11223344, 0xAABBCCDD, 0xF)).
				To(Equal(uint32(0xAABBCCDD)))
		})
	})
})
