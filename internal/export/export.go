package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Conceptual-Machines/melody-api/internal/melody"
)

// ErrUnsupportedFormat is returned for format names with no serializer.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format identifiers accepted by ForFormat
const (
	FormatMIDI = "midi"
	FormatJSON = "json"
)

// Serializer writes decoded events in one file format.
type Serializer interface {
	Write(w io.Writer, events []melody.Event) error
	ContentType() string
	Extension() string
}

// Options configure the serializers that need timing information.
type Options struct {
	BPM             float64
	TicksPerQuarter uint16
	Velocity        uint8
	Channel         uint8
	TrackName       string
}

const (
	defaultBPM             = 120
	defaultTicksPerQuarter = 480
	defaultVelocity        = 100
	defaultTrackName       = "Generated melody"
)

func DefaultOptions() Options {
	return Options{
		BPM:             defaultBPM,
		TicksPerQuarter: defaultTicksPerQuarter,
		Velocity:        defaultVelocity,
		TrackName:       defaultTrackName,
	}
}

// Formats lists the supported format identifiers.
func Formats() []string {
	return []string{FormatMIDI, FormatJSON}
}

// ForFormat returns the serializer for a format identifier ("midi", "mid" or
// "json", case-insensitive).
func ForFormat(format string, opts Options) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMIDI, "mid":
		return NewMIDI(opts)
	case FormatJSON:
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile serializes events to path, replacing any existing file.
func WriteFile(s Serializer, path string, events []melody.Event) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()
	return s.Write(f, events)
}
