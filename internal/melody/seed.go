package melody

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/melody-api/internal/vocab"
)

// Random seed pitch range (inclusive)
const (
	randomSeedLowPitch  = 60
	randomSeedHighPitch = 72

	// DefaultRandomSeedNotes is the number of notes in a generated seed.
	DefaultRandomSeedNotes = 8
)

// Tokenize splits a seed string on whitespace.
func Tokenize(seed string) []string {
	return strings.Fields(seed)
}

// Join is the inverse of Tokenize.
func Join(symbols []string) string {
	return strings.Join(symbols, " ")
}

// RandomSeed returns notes random pitches between C4 and C5. Every
// even-indexed note is held for one extra step, e.g. "64 _ 67 60 _ 71".
func RandomSeed(src RandomSource, notes int) []string {
	span := randomSeedHighPitch - randomSeedLowPitch + 1
	out := make([]string, 0, notes+(notes+1)/2)
	for i := 0; i < notes; i++ {
		offset := int(src.Float64() * float64(span))
		if offset >= span {
			offset = span - 1
		}
		out = append(out, strconv.Itoa(randomSeedLowPitch+offset))
		if i%2 == 0 {
			out = append(out, vocab.Hold)
		}
	}
	return out
}
