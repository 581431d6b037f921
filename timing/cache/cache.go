// Package cache models instruction fetch latency with a small L1 tag
// directory built on Akita cache components.
//
// The cache is a pure latency model: it tracks which fetch blocks are
// resident and charges a miss penalty in pipeline cycles, but stores no
// data. Instruction words always come from the instruction memory's
// registered read port, which is the single source of truth, so a host
// write to the instruction window only needs to invalidate the matching
// tag to stay coherent.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds the fetch cache parameters.
type Config struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes.
	BlockSize int
	// MissPenalty is the number of extra fetch cycles a miss costs. A
	// hit costs nothing beyond the normal fetch cycle.
	MissPenalty uint64
}

// DefaultConfig returns a fetch cache sized for the 16 KiB instruction
// memory: 1 KiB, 2-way, 16-byte blocks, 2-cycle miss penalty.
func DefaultConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 2,
		BlockSize:     16,
		MissPenalty:   2,
	}
}

// AccessResult reports the outcome of a fetch probe.
type AccessResult struct {
	Hit bool
	// Penalty is the number of extra cycles the fetch stalls.
	Penalty uint64
}

// Statistics holds fetch cache counters.
type Statistics struct {
	Fetches       uint64
	Hits          uint64
	Misses        uint64
	Invalidations uint64
}

// Cache is the fetch latency model. Tags and replacement state live in
// an Akita cache directory; there is no data array.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a fetch cache with the given configuration.
func New(config Config) *Cache {
	return &Cache{
		config:    config,
		directory: newDirectory(config),
	}
}

func newDirectory(config Config) *akitacache.DirectoryImpl {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	return akitacache.NewDirectory(
		numSets,
		config.Associativity,
		config.BlockSize,
		akitacache.NewLRUVictimFinder(),
	)
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Fetch probes the cache for the block containing the given byte
// address, filling it on a miss.
func (c *Cache) Fetch(addr uint32) AccessResult {
	c.stats.Fetches++

	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return AccessResult{Hit: true}
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim != nil {
		victim.Tag = blockAddr
		victim.IsValid = true
		victim.IsDirty = false
		c.directory.Visit(victim)
	}

	return AccessResult{Penalty: c.config.MissPenalty}
}

// Invalidate drops the block containing the given byte address, if
// resident. Host writes into the instruction window call this.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		c.stats.Invalidations++
	}
}

// Reset drops every block and clears the counters.
func (c *Cache) Reset() {
	c.directory = newDirectory(c.config)
	c.stats = Statistics{}
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	block := uint64(c.config.BlockSize)
	return uint64(addr) / block * block
}
