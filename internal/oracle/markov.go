package oracle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/melody-api/internal/vocab"
)

// Markov is an order-k n-gram model over vocabulary ids. Contexts that were
// never seen back off to shorter ones, down to unigram counts. Counts are
// smoothed with alpha so every id keeps some probability.
//
// A trained Markov model is read-only and safe for concurrent use.
type Markov struct {
	order int
	size  int
	alpha float64

	// counts[k] maps a k-id context to next-id counts
	counts []map[string][]float64
}

// TrainMarkov builds a model from songs given as symbol sequences. Each song
// is padded with order sentinels in front and terminated by a sentinel, so the
// model learns how songs start and end.
func TrainMarkov(v *vocab.Vocabulary, songs [][]string, order int, alpha float64) (*Markov, error) {
	if order < 1 {
		return nil, fmt.Errorf("markov order must be at least 1, got %d", order)
	}
	if alpha < 0 {
		return nil, fmt.Errorf("markov smoothing must not be negative, got %v", alpha)
	}

	m := &Markov{
		order:  order,
		size:   v.Size(),
		alpha:  alpha,
		counts: make([]map[string][]float64, order+1),
	}
	for k := range m.counts {
		m.counts[k] = make(map[string][]float64)
	}

	sentinel := v.SentinelID()
	trained := 0
	for songIndex, song := range songs {
		if len(song) == 0 {
			continue
		}
		seq := make([]int, 0, order+len(song)+1)
		for i := 0; i < order; i++ {
			seq = append(seq, sentinel)
		}
		for i, symbol := range song {
			id, ok := v.ID(symbol)
			if !ok {
				return nil, fmt.Errorf("song %d: unknown symbol %q at position %d", songIndex, symbol, i)
			}
			seq = append(seq, id)
		}
		seq = append(seq, sentinel)

		for i := order; i < len(seq); i++ {
			for k := 0; k <= order; k++ {
				key := contextKey(seq[i-k : i])
				row, ok := m.counts[k][key]
				if !ok {
					row = make([]float64, m.size)
					m.counts[k][key] = row
				}
				row[seq[i]]++
			}
		}
		trained++
	}
	if trained == 0 {
		return nil, errors.New("markov corpus has no songs")
	}
	return m, nil
}

// Predict returns the smoothed next-id distribution for the longest known
// suffix of window.
func (m *Markov) Predict(_ context.Context, window []int) ([]float64, error) {
	longest := m.order
	if len(window) < longest {
		longest = len(window)
	}

	for k := longest; k >= 0; k-- {
		row, ok := m.counts[k][contextKey(window[len(window)-k:])]
		if !ok {
			continue
		}
		return m.smooth(row), nil
	}
	return nil, errors.New("markov model has no counts")
}

func (m *Markov) smooth(row []float64) []float64 {
	total := 0.0
	for _, c := range row {
		total += c
	}
	denom := total + m.alpha*float64(m.size)
	out := make([]float64, m.size)
	for i, c := range row {
		out[i] = (c + m.alpha) / denom
	}
	return out
}

func (m *Markov) Order() int {
	return m.order
}

func (m *Markov) Name() string {
	return fmt.Sprintf("markov-%d", m.order)
}

func contextKey(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// ParseCorpus reads whitespace-delimited symbols and splits them into songs
// at every sentinel. Empty songs are dropped.
func ParseCorpus(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	songs := [][]string{}
	current := []string{}
	for scanner.Scan() {
		symbol := scanner.Text()
		if symbol == vocab.Sentinel {
			if len(current) > 0 {
				songs = append(songs, current)
				current = []string{}
			}
			continue
		}
		current = append(current, symbol)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	if len(current) > 0 {
		songs = append(songs, current)
	}
	return songs, nil
}
