package ports

import (
	"context"
	"time"
)

// RunRecord is the persisted summary of one pipeline run.
type RunRecord struct {
	ID         string        `json:"id"`
	System     string        `json:"system"`
	Task       string        `json:"task"`
	Success    bool          `json:"success"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Summary    string        `json:"summary"`
	Report     string        `json:"report,omitempty"`
	Path       []string      `json:"path"`
	Steps      int           `json:"steps"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// HistoryStore persists run records.
type HistoryStore interface {
	// Save stores or replaces the record with the same ID.
	Save(ctx context.Context, rec RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, id string) (RunRecord, error)

	// List returns up to limit records, most recent first. A limit of zero or less means all.
	List(ctx context.Context, limit int) ([]RunRecord, error)

	// Delete removes a record. Deleting an unknown run is not an error.
	Delete(ctx context.Context, id string) error
}
