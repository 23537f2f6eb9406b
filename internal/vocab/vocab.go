package vocab

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Reserved symbols
const (
	Sentinel = "/" // start padding and end of generation
	Hold     = "_" // extends the previous event by one step
	Rest     = "r"
)

// Vocabulary is a bijection between symbols and ids in [0, Size()).
// It is read-only after construction and safe for concurrent use.
type Vocabulary struct {
	symbols []string
	ids     map[string]int
}

// New builds a vocabulary from a symbol -> id mapping (the mapping.json shape).
// Every id in [0, len(mapping)) must be used exactly once and the sentinel
// must be present.
func New(mapping map[string]int) (*Vocabulary, error) {
	symbols := make([]string, len(mapping))
	seen := make([]bool, len(mapping))
	for symbol, id := range mapping {
		if symbol == "" {
			return nil, fmt.Errorf("empty symbol mapped to id %d", id)
		}
		if id < 0 || id >= len(mapping) {
			return nil, fmt.Errorf("symbol %q has id %d outside [0, %d)", symbol, id, len(mapping))
		}
		if seen[id] {
			return nil, fmt.Errorf("id %d assigned to both %q and %q", id, symbols[id], symbol)
		}
		seen[id] = true
		symbols[id] = symbol
	}
	return build(symbols)
}

// FromSymbols builds a vocabulary where each symbol's id is its index.
func FromSymbols(symbols []string) (*Vocabulary, error) {
	cp := make([]string, len(symbols))
	copy(cp, symbols)
	return build(cp)
}

func build(symbols []string) (*Vocabulary, error) {
	ids := make(map[string]int, len(symbols))
	for id, symbol := range symbols {
		if symbol == "" {
			return nil, fmt.Errorf("empty symbol at id %d", id)
		}
		if prev, dup := ids[symbol]; dup {
			return nil, fmt.Errorf("symbol %q assigned to ids %d and %d", symbol, prev, id)
		}
		ids[symbol] = id
	}
	if _, ok := ids[Sentinel]; !ok {
		return nil, fmt.Errorf("vocabulary is missing the sentinel symbol %q", Sentinel)
	}
	return &Vocabulary{symbols: symbols, ids: ids}, nil
}

// Load decodes a JSON object of symbol -> id.
func Load(r io.Reader) (*Vocabulary, error) {
	var mapping map[string]int
	if err := json.NewDecoder(r).Decode(&mapping); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary mapping: %w", err)
	}
	return New(mapping)
}

// LoadFile reads a mapping.json file from disk.
func LoadFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// ID returns the id of a symbol.
func (v *Vocabulary) ID(symbol string) (int, bool) {
	id, ok := v.ids[symbol]
	return id, ok
}

// Symbol returns the symbol of an id.
func (v *Vocabulary) Symbol(id int) (string, bool) {
	if id < 0 || id >= len(v.symbols) {
		return "", false
	}
	return v.symbols[id], true
}

// Contains reports whether the symbol is part of the vocabulary.
func (v *Vocabulary) Contains(symbol string) bool {
	_, ok := v.ids[symbol]
	return ok
}

func (v *Vocabulary) Size() int {
	return len(v.symbols)
}

// SentinelID is the id of the sentinel symbol.
func (v *Vocabulary) SentinelID() int {
	return v.ids[Sentinel]
}

// Symbols returns the symbols ordered by id.
func (v *Vocabulary) Symbols() []string {
	out := make([]string, len(v.symbols))
	copy(out, v.symbols)
	return out
}

// Mapping returns a fresh symbol -> id map.
func (v *Vocabulary) Mapping() map[string]int {
	out := make(map[string]int, len(v.ids))
	for symbol, id := range v.ids {
		out[symbol] = id
	}
	return out
}

// Pitches returns the symbols that are not reserved markers, in id order.
func (v *Vocabulary) Pitches() []string {
	out := []string{}
	for _, symbol := range v.symbols {
		switch symbol {
		case Sentinel, Hold, Rest:
			continue
		}
		out = append(out, symbol)
	}
	return out
}
