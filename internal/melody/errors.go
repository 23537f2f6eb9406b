package melody

import "fmt"

// UnknownSymbolError is returned when a seed token is not in the vocabulary.
type UnknownSymbolError struct {
	Symbol string
	Index  int
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q at seed position %d", e.Symbol, e.Index)
}

// InvalidParameterError reports a generation or decoding parameter out of range.
type InvalidParameterError struct {
	Name   string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Name, e.Value, e.Reason)
}

// MalformedPitchError is returned by Decode for a symbol that is neither a
// pitch, the rest marker nor a hold that continues an earlier symbol.
type MalformedPitchError struct {
	Symbol string
	Index  int
	Reason string
}

func (e *MalformedPitchError) Error() string {
	return fmt.Sprintf("malformed symbol %q at position %d: %s", e.Symbol, e.Index, e.Reason)
}

// OracleError wraps a failed or unusable prediction at a given sampling step.
type OracleError struct {
	Step int
	Err  error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle failed at step %d: %v", e.Step, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
