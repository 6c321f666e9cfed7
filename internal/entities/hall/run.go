package hall

import "time"

// Status is the state of one account's run in one hall
type Status string

// Run statuses
const (
	StatusRunning      Status = "RUNNING"
	StatusResurrecting Status = "RESURRECTING"
	StatusSwitching    Status = "SWITCHING"
	StatusStopped      Status = "STOPPED"
	StatusCompleted    Status = "COMPLETED"
	StatusFailed       Status = "FAILED"
)

// IsTerminal reports whether a run in this status has ended.
// SWITCHING ends the run in the current hall.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSwitching, StatusStopped, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Reasons attached to terminal run states
const (
	ReasonExitDirective     = "exit_directive"
	ReasonSwitchDirective   = "switch_directive"
	ReasonHallCleared       = "hall_cleared"
	ReasonAttemptsExhausted = "attempts_exhausted"
	ReasonPurchaseFailed    = "purchase_failed"
	ReasonDefeated          = "defeated"
	ReasonSwitchOnFailure   = "switch_on_failure"
	ReasonEnterFailed       = "enter_failed"
	ReasonStopRequested     = "stop_requested"
)

// Reasons attached to accounts that were not launched
const (
	ReasonSettingsMissing = "settings_missing"
	ReasonInvalidStrategy = "invalid_strategy"
	ReasonNoHalls         = "no_halls"
	ReasonQuotaReached    = "weekly_quota_reached"
	ReasonAlreadyRunning  = "already_running"
)

// RunState is the mutable state of one account in one hall. Only the run
// that owns it writes to it; everyone else sees copies.
type RunState struct {
	AccountID           string    `json:"account_id"`
	Hall                Name      `json:"hall"`
	CurrentFloor        int       `json:"current_floor"`
	Status              Status    `json:"status"`
	Reason              string    `json:"reason,omitempty"`
	Resurrections       int       `json:"resurrections"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Victories           int       `json:"victories"`
	StartedAt           time.Time `json:"started_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Outcome summarizes how an account's session work ended
type Outcome struct {
	AccountID string        `json:"account_id"`
	Status    Status        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Hall      Name          `json:"hall,omitempty"`
	Floor     int           `json:"floor,omitempty"`
	Halls     []HallResult  `json:"halls,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// HallResult is the final state of one hall visited by an account
type HallResult struct {
	Hall          Name   `json:"hall"`
	Status        Status `json:"status"`
	Reason        string `json:"reason,omitempty"`
	Floor         int    `json:"floor"`
	Victories     int    `json:"victories"`
	Resurrections int    `json:"resurrections"`
}

// Outcome statuses for accounts that never ran
const (
	OutcomeSkipped Status = "SKIPPED"
	OutcomeInvalid Status = "INVALID"
)
