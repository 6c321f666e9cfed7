package challenge

import (
	"fmt"
	"time"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	runhistory "github.com/KirkDiggler/hall-runner/internal/repositories/run_history"
	"github.com/KirkDiggler/hall-runner/internal/services/runguard"
)

// RunInput is one account's run through one hall
type RunInput struct {
	AccountID string
	Plan      hall.Plan
	Settings  *hall.AccountSettings
	// LastHall is set for the final hall of the account's plan
	LastHall bool
	// Handle carries the stop token and receives state snapshots; optional
	Handle *runguard.Handle
	// Emit receives every progress event of the run; optional
	Emit func(hall.ProgressEvent)
}

// RunOutput contains the terminal run state
type RunOutput struct {
	State hall.RunState
}

// PurchaseFailedError is a failed hall shop or attempt purchase
type PurchaseFailedError struct {
	Item string
	Err  error
}

func (e *PurchaseFailedError) Error() string {
	return fmt.Sprintf("购买%s失败: %v", e.Item, e.Err)
}

// Unwrap exposes a resource exhausted error carrying the item
func (e *PurchaseFailedError) Unwrap() error {
	if e.Err == nil {
		return errors.ResourceExhausted("purchase failed").WithMeta("item", e.Item)
	}
	return errors.WrapWithCode(e.Err, errors.CodeResourceExhausted, "purchase failed").
		WithMeta("item", e.Item)
}

// StartSessionInput asks to run a set of accounts for a user
type StartSessionInput struct {
	User       string
	AccountIDs []string
	// Hall restricts the run to one hall; empty runs every planned hall
	Hall hall.Name
	// CheckWeeklyQuota skips accounts whose weekly attempts are used up
	CheckWeeklyQuota bool
}

// StartSessionOutput contains the launched session
type StartSessionOutput struct {
	Session *Session
	// Rejected lists accounts that were not launched
	Rejected []hall.Outcome
}

// StopSessionInput identifies the user whose session should stop
type StopSessionInput struct {
	User string
	// Wait blocks until the session ends or the stop timeout passes
	Wait bool
}

// StopSessionOutput reports how many runs were signalled
type StopSessionOutput struct {
	Stopped   int
	SessionID string
}

// StatusInput identifies the user to report on
type StatusInput struct {
	User string
}

// StatusOutput lists the user's active runs and latest session
type StatusOutput struct {
	Runs []runguard.ActiveRun
	// Session is nil when the user never started one
	Session *Session
}

// GetSessionInput identifies the user
type GetSessionInput struct {
	User string
}

// GetSessionOutput contains the user's latest session
type GetSessionOutput struct {
	Session *Session
}

// GetSettingsInput identifies the account
type GetSettingsInput struct {
	AccountID string
}

// GetSettingsOutput contains the account's settings
type GetSettingsOutput struct {
	Settings *hall.AccountSettings
	// Defaulted is set when nothing was stored yet
	Defaulted bool
}

// SaveSettingsInput contains settings to validate and store
type SaveSettingsInput struct {
	AccountID string
	Settings  *hall.AccountSettings
}

// SaveSettingsOutput contains the parsed plan of the saved settings
type SaveSettingsOutput struct {
	Plans []hall.Plan
}

// ListHistoryInput filters the run journal
type ListHistoryInput struct {
	User      string
	AccountID string
	Limit     int
}

// ListHistoryOutput contains journal entries, newest first
type ListHistoryOutput struct {
	Entries []*runhistory.Entry
}

// Summary is the per-account result of a session
type Summary struct {
	SessionID  string         `json:"session_id"`
	User       string         `json:"user"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Done       bool           `json:"done"`
	Outcomes   []hall.Outcome `json:"outcomes"`
}
