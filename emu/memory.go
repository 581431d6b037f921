package emu

// MemWords is the default capacity of each memory, in 32-bit words.
const MemWords = 4096

// Memory is a flat word-addressed store used by the functional emulator.
// Capacity is a power of two; addresses wrap modulo the capacity, the same
// truncation the address bus applies in the cycle-accurate model.
type Memory struct {
	words []uint32
}

// NewMemory creates a memory with the given word capacity, which must be a
// power of two. Zero picks the default.
func NewMemory(words int) *Memory {
	if words <= 0 {
		words = MemWords
	}
	return &Memory{words: make([]uint32, words)}
}

// Words returns the capacity in words.
func (m *Memory) Words() int {
	return len(m.words)
}

// index truncates a word address to the memory capacity.
func (m *Memory) index(wordAddr uint32) uint32 {
	return wordAddr & uint32(len(m.words)-1)
}

// ReadWord returns the word at the given word address.
func (m *Memory) ReadWord(wordAddr uint32) uint32 {
	return m.words[m.index(wordAddr)]
}

// WriteWord stores a full word at the given word address.
func (m *Memory) WriteWord(wordAddr, value uint32) {
	m.words[m.index(wordAddr)] = value
}

// WriteMasked stores a word under a 4-bit byte strobe.
func (m *Memory) WriteMasked(wordAddr, value uint32, strb uint8) {
	i := m.index(wordAddr)
	m.words[i] = ApplyStrobe(m.words[i], value, strb)
}

// LoadWords copies a program image starting at word address 0.
func (m *Memory) LoadWords(image []uint32) {
	copy(m.words, image)
}

// Reset clears the memory contents.
func (m *Memory) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
}
