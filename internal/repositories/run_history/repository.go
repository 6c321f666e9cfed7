// Package runhistory journals the outcome of every account run
package runhistory

//go:generate mockgen -destination=mock/mock_repository.go -package=runhistorymock github.com/KirkDiggler/hall-runner/internal/repositories/run_history Repository

import (
	"context"
	"time"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
)

// Entry is one finished account run
type Entry struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	User       string            `json:"user"`
	AccountID  string            `json:"account_id"`
	Status     hall.Status       `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Hall       hall.Name         `json:"hall,omitempty"`
	Floor      int               `json:"floor"`
	Halls      []hall.HallResult `json:"halls"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// AppendInput contains the entry to journal
type AppendInput struct {
	Entry *Entry
}

// AppendOutput contains the stored entry with its ID
type AppendOutput struct {
	Entry *Entry
}

// ListInput filters the journal. Empty filters match everything.
type ListInput struct {
	User      string
	AccountID string
	// Limit defaults to 50
	Limit int
}

// ListOutput contains entries, newest first
type ListOutput struct {
	Entries []*Entry
}

// Repository defines storage for run outcomes
type Repository interface {
	// Append stores a finished run
	Append(ctx context.Context, input AppendInput) (*AppendOutput, error)

	// List returns recent runs, newest first
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}
