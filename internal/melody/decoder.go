package melody

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/melody-api/internal/vocab"
)

// EventKind distinguishes notes from rests.
type EventKind string

const (
	KindNote EventKind = "note"
	KindRest EventKind = "rest"
)

// Event is one decoded note or rest. Duration is in quarter lengths.
type Event struct {
	Kind     EventKind `json:"kind"`
	Pitch    int       `json:"pitch"`
	Duration float64   `json:"duration"`
}

func NoteEvent(pitch int, duration float64) Event {
	return Event{Kind: KindNote, Pitch: pitch, Duration: duration}
}

func RestEvent(duration float64) Event {
	return Event{Kind: KindRest, Duration: duration}
}

func (e Event) IsRest() bool {
	return e.Kind == KindRest
}

// Decode turns a symbol melody into events. A symbol followed by k holds
// becomes one event lasting (1+k) steps of baseStepDuration.
//
// Boundary rules:
//   - a hold in the final position extends the pending event, then flushes it;
//   - a non-hold symbol in the final position is flushed as a one-step event;
//   - the sentinel flushes the pending event and ends decoding, so anything
//     after it is ignored.
func Decode(melody []string, baseStepDuration float64) ([]Event, error) {
	if math.IsNaN(baseStepDuration) || math.IsInf(baseStepDuration, 0) || baseStepDuration <= 0 {
		return nil, &InvalidParameterError{Name: "step_duration", Value: baseStepDuration, Reason: "must be a positive finite number"}
	}

	events := make([]Event, 0, len(melody))
	pending := ""
	pendingIndex := -1
	run := 1

	flush := func() error {
		if pendingIndex < 0 {
			return nil
		}
		event, err := eventFor(pending, pendingIndex, baseStepDuration*float64(run))
		if err != nil {
			return err
		}
		events = append(events, event)
		pending, pendingIndex, run = "", -1, 1
		return nil
	}

	for i, symbol := range melody {
		last := i == len(melody)-1

		switch symbol {
		case vocab.Sentinel:
			if err := flush(); err != nil {
				return nil, err
			}
			return events, nil

		case vocab.Hold:
			if pendingIndex < 0 {
				return nil, &MalformedPitchError{Symbol: symbol, Index: i, Reason: "hold with no leading symbol"}
			}
			run++
			if last {
				if err := flush(); err != nil {
					return nil, err
				}
			}

		default:
			if err := flush(); err != nil {
				return nil, err
			}
			pending, pendingIndex = symbol, i
			if last {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		}
	}

	return events, nil
}

func eventFor(symbol string, index int, duration float64) (Event, error) {
	if symbol == vocab.Rest {
		return RestEvent(duration), nil
	}
	pitch, err := strconv.Atoi(symbol)
	if err != nil {
		return Event{}, &MalformedPitchError{Symbol: symbol, Index: index, Reason: "not an integer pitch or rest"}
	}
	return NoteEvent(pitch, duration), nil
}

// durationTolerance absorbs float error when splitting durations into steps.
const durationTolerance = 1e-9

// Expand is the inverse of Decode: each event becomes its symbol followed by
// holds for every extra step of baseStepDuration.
func Expand(events []Event, baseStepDuration float64) ([]string, error) {
	if math.IsNaN(baseStepDuration) || math.IsInf(baseStepDuration, 0) || baseStepDuration <= 0 {
		return nil, &InvalidParameterError{Name: "step_duration", Value: baseStepDuration, Reason: "must be a positive finite number"}
	}

	out := []string{}
	for i, event := range events {
		steps := math.Round(event.Duration / baseStepDuration)
		if steps < 1 || math.Abs(steps*baseStepDuration-event.Duration) > durationTolerance*math.Max(1, event.Duration) {
			return nil, &InvalidParameterError{
				Name:   "duration",
				Value:  event.Duration,
				Reason: fmt.Sprintf("event %d is not a positive multiple of %v", i, baseStepDuration),
			}
		}
		if event.IsRest() {
			out = append(out, vocab.Rest)
		} else {
			out = append(out, strconv.Itoa(event.Pitch))
		}
		for j := 1; j < int(steps); j++ {
			out = append(out, vocab.Hold)
		}
	}
	return out, nil
}

// TotalDuration sums event durations in quarter lengths.
func TotalDuration(events []Event) float64 {
	total := 0.0
	for _, event := range events {
		total += event.Duration
	}
	return total
}

// String renders events the way they are logged, e.g. "60:0.75 r:0.25".
func String(events []Event) string {
	parts := make([]string, len(events))
	for i, event := range events {
		if event.IsRest() {
			parts[i] = fmt.Sprintf("%s:%g", vocab.Rest, event.Duration)
		} else {
			parts[i] = fmt.Sprintf("%d:%g", event.Pitch, event.Duration)
		}
	}
	return strings.Join(parts, " ")
}
