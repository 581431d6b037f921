// Package mem provides the dual-ported word RAM used for the instruction
// and data memories of the SoC.
//
// Each RAM has two fully independent access ports: one for the pipeline
// and one for the host-facing bus engine. A port carries one registered
// read (requested in one step, data latched at the step boundary) and one
// depth-1 write queue. Both ports may access the RAM in the same step;
// arbitration only matters when both write the same word, and then the
// host port wins: write queues drain pipeline-port first, host-port last,
// a fixed last-writer-wins order.
//
// Read-before-write ordering within a step is also fixed: read data is
// latched from the array before any same-step write is applied, so a write
// at address A is visible to a read of A on the next step, never the same
// step.
package mem

import "github.com/rvsoclab/rvsoc/emu"

// Port identifies one of the two access ports of a RAM.
type Port int

// The two RAM ports, in drain order.
const (
	// PortPipeline is the processor-side port. Its queued write drains
	// first and therefore loses same-address collisions.
	PortPipeline Port = iota
	// PortHost is the bus-engine-side port. Its queued write drains last
	// and therefore wins same-address collisions.
	PortHost

	numPorts
)

// writeReq is a depth-1 write queue entry.
type writeReq struct {
	valid bool
	addr  uint32
	data  uint32
	strb  uint8
}

// readReq is a registered read: the address is captured when requested and
// the data is latched at the next Tick.
type readReq struct {
	pending bool
	addr    uint32
	data    uint32
}

// RAM is a word-addressed dual-ported memory backed by a contiguous
// indexed array. Capacity is a power of two; word addresses wrap.
type RAM struct {
	words []uint32

	reads  [numPorts]readReq
	writes [numPorts]writeReq
}

// New creates a RAM with the given word capacity (power of two; zero picks
// emu.MemWords).
func New(words int) *RAM {
	if words <= 0 {
		words = emu.MemWords
	}
	return &RAM{words: make([]uint32, words)}
}

// Words returns the capacity in words.
func (m *RAM) Words() int {
	return len(m.words)
}

func (m *RAM) index(wordAddr uint32) uint32 {
	return wordAddr & uint32(len(m.words)-1)
}

// Read requests a registered read on the given port. The data is latched
// at the next Tick and is available through ReadData from then on. Only
// one read per port per step; a second request overwrites the first.
func (m *RAM) Read(p Port, wordAddr uint32) {
	m.reads[p] = readReq{pending: true, addr: wordAddr}
}

// ReadData returns the data latched for the port's most recent completed
// read.
func (m *RAM) ReadData(p Port) uint32 {
	return m.reads[p].data
}

// Write queues a masked write on the given port. The write is applied at
// the next Tick. The queue has depth 1; a second write in the same step
// overwrites the first.
func (m *RAM) Write(p Port, wordAddr, data uint32, strb uint8) {
	m.writes[p] = writeReq{valid: true, addr: wordAddr, data: data, strb: strb}
}

// Peek returns the stored word without going through a port. Test and
// debug use only; it bypasses the registered-read latency.
func (m *RAM) Peek(wordAddr uint32) uint32 {
	return m.words[m.index(wordAddr)]
}

// Poke stores a word directly, bypassing the ports. Loader/test use.
func (m *RAM) Poke(wordAddr, value uint32) {
	m.words[m.index(wordAddr)] = value
}

// Tick commits one step: latch pending read data from the pre-write
// array, then drain the write queues in fixed port order (pipeline first,
// host last).
func (m *RAM) Tick() {
	for p := range m.reads {
		if m.reads[p].pending {
			m.reads[p].data = m.words[m.index(m.reads[p].addr)]
			m.reads[p].pending = false
		}
	}

	for p := range m.writes {
		w := &m.writes[p]
		if !w.valid {
			continue
		}
		i := m.index(w.addr)
		m.words[i] = emu.ApplyStrobe(m.words[i], w.data, w.strb)
		w.valid = false
	}
}

// Reset clears contents, queues, and read latches.
func (m *RAM) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
	m.reads = [numPorts]readReq{}
	m.writes = [numPorts]writeReq{}
}
