package export

import (
	"fmt"
	"io"
	"math"

	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	maxMIDIKey     = 127
	maxMIDIChannel = 15
	// largest delta a variable-length quantity can hold
	maxDeltaTicks = 0x0FFFFFFF
)

// MIDI writes a single-track Standard MIDI File. Event durations are quarter
// lengths; rests only advance time.
type MIDI struct {
	opts Options
}

func NewMIDI(opts Options) (*MIDI, error) {
	if opts.BPM <= 0 || math.IsNaN(opts.BPM) || math.IsInf(opts.BPM, 0) {
		return nil, fmt.Errorf("invalid tempo %v bpm", opts.BPM)
	}
	if opts.TicksPerQuarter == 0 {
		return nil, fmt.Errorf("ticks per quarter must be positive")
	}
	if opts.Velocity == 0 || opts.Velocity > maxMIDIKey {
		return nil, fmt.Errorf("invalid velocity %d", opts.Velocity)
	}
	if opts.Channel > maxMIDIChannel {
		return nil, fmt.Errorf("invalid channel %d", opts.Channel)
	}
	return &MIDI{opts: opts}, nil
}

func (m *MIDI) Write(w io.Writer, events []melody.Event) error {
	var track smf.Track
	if m.opts.TrackName != "" {
		track.Add(0, smf.MetaTrackSequenceName(m.opts.TrackName))
	}
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, smf.MetaTempo(m.opts.BPM))

	var delta uint32
	for i, event := range events {
		ticks, err := m.ticks(event.Duration)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if event.IsRest() {
			if delta > maxDeltaTicks-ticks {
				return fmt.Errorf("event %d: rest run exceeds %d ticks", i, maxDeltaTicks)
			}
			delta += ticks
			continue
		}
		if event.Pitch < 0 || event.Pitch > maxMIDIKey {
			return fmt.Errorf("event %d: pitch %d outside MIDI range 0-%d", i, event.Pitch, maxMIDIKey)
		}
		key := uint8(event.Pitch)
		track.Add(delta, midi.NoteOn(m.opts.Channel, key, m.opts.Velocity))
		track.Add(ticks, midi.NoteOff(m.opts.Channel, key))
		delta = 0
	}
	track.Close(delta)

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(m.opts.TicksPerQuarter)
	if err := file.Add(track); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write MIDI file: %w", err)
	}
	return nil
}

func (m *MIDI) ticks(quarters float64) (uint32, error) {
	ticks := math.Round(quarters * float64(m.opts.TicksPerQuarter))
	if ticks < 1 || ticks > maxDeltaTicks {
		return 0, fmt.Errorf("duration %v quarters does not fit the %d ticks-per-quarter clock", quarters, m.opts.TicksPerQuarter)
	}
	return uint32(ticks), nil
}

func (m *MIDI) ContentType() string {
	return "audio/midi"
}

func (m *MIDI) Extension() string {
	return ".mid"
}
