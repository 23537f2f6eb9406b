// Package oracle provides next-symbol distribution models for the sampler.
//
// Every implementation takes a fixed-length window of vocabulary ids and
// returns one probability per vocabulary id.
package oracle

import (
	"context"
	"fmt"
)

// Named is implemented by oracles that report a name for logs and health checks.
type Named interface {
	Name() string
}

// Func adapts a plain function to the oracle interface.
type Func func(ctx context.Context, window []int) ([]float64, error)

func (f Func) Predict(ctx context.Context, window []int) ([]float64, error) {
	return f(ctx, window)
}

func (f Func) Name() string {
	return "func"
}

// Constant returns the same distribution for every window.
func Constant(probs []float64) Func {
	return func(context.Context, []int) ([]float64, error) {
		out := make([]float64, len(probs))
		copy(out, probs)
		return out, nil
	}
}

// Table looks distributions up by the last id of the window. Windows whose
// last id has no row get Default.
type Table struct {
	Rows    map[int][]float64
	Default []float64
}

func (t *Table) Predict(_ context.Context, window []int) ([]float64, error) {
	var row []float64
	if len(window) > 0 {
		row = t.Rows[window[len(window)-1]]
	}
	if row == nil {
		row = t.Default
	}
	if row == nil {
		return nil, fmt.Errorf("no distribution for window ending in %v", window)
	}
	out := make([]float64, len(row))
	copy(out, row)
	return out, nil
}

func (t *Table) Name() string {
	return "table"
}

// NameOf returns the oracle's name, or "custom" when it does not report one.
func NameOf(o any) string {
	if n, ok := o.(Named); ok {
		return n.Name()
	}
	return "custom"
}
