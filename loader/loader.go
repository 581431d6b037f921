// Package loader reads program images for the instruction memory.
//
// Two formats are supported: a hex word list (one 32-bit word per line,
// the format assemblers and the hardware tooling emit) and a raw
// little-endian binary.
package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Program is a loaded image, word 0 first.
type Program struct {
	Words []uint32
}

// Len returns the image length in words.
func (p *Program) Len() int {
	return len(p.Words)
}

// Load reads a program image, picking the format from the file
// extension: .hex and .txt parse as hex word lists, everything else as
// raw little-endian binary.
func Load(path string) (*Program, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".txt":
		return LoadHex(path)
	default:
		return LoadBin(path)
	}
}

// LoadHex parses a hex word list. Each non-empty line holds one 32-bit
// word in hexadecimal, with or without a 0x prefix. Blank lines and
// comments starting with # or // are skipped; a trailing comment on a
// word line is allowed.
func LoadHex(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog := &Program{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		word, err := parseWord(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		prog.Words = append(prog.Words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}

	return prog, nil
}

// LoadBin reads a raw little-endian binary image. The file length must
// be a multiple of four bytes.
func LoadBin(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: length %d is not a multiple of 4", path, len(data))
	}

	prog := &Program{Words: make([]uint32, len(data)/4)}
	for i := range prog.Words {
		prog.Words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}

	return prog, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func parseWord(text string) (uint32, error) {
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	word, err := strconv.ParseUint(text, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid word %q", text)
	}
	return uint32(word), nil
}
