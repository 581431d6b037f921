package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the SoC construction parameters.
type Config struct {
	// MemoryWords is the capacity of each memory in 32-bit words.
	// Must be a power of two. Default: 4096.
	MemoryWords int `json:"memory_words"`

	// ICacheEnabled turns on the fetch latency cache. Off by default so
	// cycle counts stay at the fixed per-state costs.
	ICacheEnabled bool `json:"icache_enabled"`

	// ICacheSize is the fetch cache capacity in bytes.
	ICacheSize int `json:"icache_size"`

	// ICacheAssociativity is the number of ways.
	ICacheAssociativity int `json:"icache_associativity"`

	// ICacheBlockSize is the fetch block size in bytes.
	ICacheBlockSize int `json:"icache_block_size"`

	// ICacheMissPenalty is the extra fetch cycles a miss costs.
	ICacheMissPenalty uint64 `json:"icache_miss_penalty"`
}

// DefaultConfig returns the standard SoC configuration: 4096-word
// memories and the fetch cache disabled.
func DefaultConfig() *Config {
	return &Config{
		MemoryWords:         4096,
		ICacheEnabled:       false,
		ICacheSize:          1024,
		ICacheAssociativity: 2,
		ICacheBlockSize:     16,
		ICacheMissPenalty:   2,
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MemoryWords <= 0 || c.MemoryWords&(c.MemoryWords-1) != 0 {
		return fmt.Errorf("memory_words must be a positive power of two")
	}
	if !c.ICacheEnabled {
		return nil
	}
	if c.ICacheSize <= 0 {
		return fmt.Errorf("icache_size must be > 0")
	}
	if c.ICacheAssociativity <= 0 {
		return fmt.Errorf("icache_associativity must be > 0")
	}
	if c.ICacheBlockSize < 4 {
		return fmt.Errorf("icache_block_size must be >= 4")
	}
	if c.ICacheSize%(c.ICacheAssociativity*c.ICacheBlockSize) != 0 {
		return fmt.Errorf("icache_size must be divisible by ways times block size")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
