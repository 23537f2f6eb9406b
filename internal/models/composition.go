package models

import (
	"time"

	"gorm.io/gorm"
)

// Composition is a generated melody kept for later listing and download.
// Slug is the public id, derived from ID with hashids after insert.
type Composition struct {
	ID            uint           `gorm:"primarykey" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Slug          string         `gorm:"index;size:32" json:"slug"`
	Seed          string         `gorm:"type:text" json:"seed"`
	Melody        string         `gorm:"type:text;not null" json:"melody"`
	Steps         int            `gorm:"not null" json:"steps"`
	Window        int            `gorm:"not null" json:"window"`
	Temperature   float64        `gorm:"not null" json:"temperature"`
	RandomSeed    int64          `json:"random_seed"`
	Oracle        string         `gorm:"size:64" json:"oracle"`
	StepDuration  float64        `gorm:"not null" json:"step_duration"`
	EventCount    int            `json:"event_count"`
	TotalDuration float64        `json:"total_duration"`
	UserID        string         `gorm:"index;size:64" json:"-"` // empty for anonymous requests
}

// CompositionSummary is the list view of a composition
type CompositionSummary struct {
	Slug          string    `json:"slug"`
	CreatedAt     time.Time `json:"created_at"`
	Seed          string    `json:"seed"`
	Temperature   float64   `json:"temperature"`
	EventCount    int       `json:"event_count"`
	TotalDuration float64   `json:"total_duration"`
}

// Summary returns the list view of c
func (c *Composition) Summary() CompositionSummary {
	return CompositionSummary{
		Slug:          c.Slug,
		CreatedAt:     c.CreatedAt,
		Seed:          c.Seed,
		Temperature:   c.Temperature,
		EventCount:    c.EventCount,
		TotalDuration: c.TotalDuration,
	}
}
