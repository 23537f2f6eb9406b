package melody

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		melody   []string
		expected []Event
	}{
		{
			name:     "empty melody",
			melody:   []string{},
			expected: []Event{},
		},
		{
			name:     "held note then rest before sentinel",
			melody:   []string{"60", "_", "_", "r", "/"},
			expected: []Event{NoteEvent(60, 0.75), RestEvent(0.25)},
		},
		{
			name:     "final non-hold symbol is its own event",
			melody:   []string{"60", "62"},
			expected: []Event{NoteEvent(60, 0.25), NoteEvent(62, 0.25)},
		},
		{
			name:     "single symbol",
			melody:   []string{"r"},
			expected: []Event{RestEvent(0.25)},
		},
		{
			name:     "final hold extends the last event",
			melody:   []string{"60", "r", "_"},
			expected: []Event{NoteEvent(60, 0.25), RestEvent(0.5)},
		},
		{
			name:     "symbols after the sentinel are ignored",
			melody:   []string{"64", "_", "/", "67", "_"},
			expected: []Event{NoteEvent(64, 0.5)},
		},
		{
			name:     "repeated pitch starts a new event",
			melody:   []string{"60", "60", "_", "60"},
			expected: []Event{NoteEvent(60, 0.25), NoteEvent(60, 0.5), NoteEvent(60, 0.25)},
		},
		{
			name:     "leading sentinel",
			melody:   []string{"/", "60"},
			expected: []Event{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Decode(tt.melody, 0.25)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, events)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		melody []string
		symbol string
		index  int
	}{
		{"leading hold", []string{"_", "60"}, "_", 0},
		{"only holds", []string{"_", "_", "_"}, "_", 0},
		{"single hold", []string{"_"}, "_", 0},
		{"not a pitch", []string{"60", "x", "_", "62"}, "x", 1},
		{"not a pitch at the end", []string{"60", "C4"}, "C4", 1},
		{"not a pitch before sentinel", []string{"60", "6.5", "/"}, "6.5", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Decode(tt.melody, 0.25)
			assert.Nil(t, events)

			var malformed *MalformedPitchError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, tt.symbol, malformed.Symbol)
			assert.Equal(t, tt.index, malformed.Index)
		})
	}
}

func TestDecodeRejectsBadStepDuration(t *testing.T) {
	for _, d := range []float64{0, -0.25, math.NaN(), math.Inf(1)} {
		_, err := Decode([]string{"60"}, d)
		var invalid *InvalidParameterError
		require.True(t, errors.As(err, &invalid), "duration %v", d)
		assert.Equal(t, "step_duration", invalid.Name)
	}
}

func TestDecodeTrailingHoldAddsOneUnit(t *testing.T) {
	melody := []string{"60", "_", "62", "_", "_"}

	before, err := Decode(melody, 0.5)
	require.NoError(t, err)
	after, err := Decode(append(append([]string{}, melody...), "_"), 0.5)
	require.NoError(t, err)

	require.Len(t, after, len(before))
	assert.Equal(t, before[:len(before)-1], after[:len(after)-1])
	assert.InDelta(t, before[len(before)-1].Duration+0.5, after[len(after)-1].Duration, 1e-12)
}

func TestDecodeCoversWholeMelody(t *testing.T) {
	melodies := [][]string{
		{"60", "_", "_", "r"},
		{"60", "62", "64", "_", "r", "_", "_", "67"},
		{"r", "_", "_", "_"},
		{"72"},
	}

	for _, m := range melodies {
		events, err := Decode(m, 0.25)
		require.NoError(t, err)
		assert.InDelta(t, 0.25*float64(len(m)), TotalDuration(events), 1e-12, "melody %v", m)

		runs := 0
		for _, symbol := range m {
			if symbol != "_" {
				runs++
			}
		}
		assert.Len(t, events, runs)
	}
}

func TestExpandRoundTrip(t *testing.T) {
	melodies := [][]string{
		{},
		{"60", "_", "_", "r"},
		{"60", "62", "64", "_", "r", "_", "_", "67"},
		{"r", "_", "_", "_"},
	}

	for _, m := range melodies {
		events, err := Decode(m, 0.125)
		require.NoError(t, err)

		expanded, err := Expand(events, 0.125)
		require.NoError(t, err)
		assert.Len(t, expanded, len(m))
		assert.Equal(t, m, expanded)
	}
}

func TestExpandRejectsFractionalDurations(t *testing.T) {
	_, err := Expand([]Event{NoteEvent(60, 0.3)}, 0.25)
	var paramErr *InvalidParameterError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "duration", paramErr.Name)
	assert.Equal(t, 0.3, paramErr.Value)

	_, err = Expand([]Event{NoteEvent(60, 0.25)}, 0)
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "step_duration", paramErr.Name)
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "60:0.75 r:0.25", String([]Event{NoteEvent(60, 0.75), RestEvent(0.25)}))
}
