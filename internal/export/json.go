package export

import (
	"encoding/json"
	"io"

	"github.com/Conceptual-Machines/melody-api/internal/melody"
)

// JSON writes events as {"events": [...], "total_duration": n}.
type JSON struct{}

type jsonDocument struct {
	Events        []melody.Event `json:"events"`
	TotalDuration float64        `json:"total_duration"`
}

func (JSON) Write(w io.Writer, events []melody.Event) error {
	if events == nil {
		events = []melody.Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{Events: events, TotalDuration: melody.TotalDuration(events)})
}

func (JSON) ContentType() string {
	return "application/json"
}

func (JSON) Extension() string {
	return ".json"
}
