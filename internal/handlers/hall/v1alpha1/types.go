package v1alpha1

import (
	"encoding/json"
	"strings"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	runhistory "github.com/KirkDiggler/hall-runner/internal/repositories/run_history"
)

// AccountList accepts either a JSON array or one string of accounts
// separated by commas, whitespace or newlines.
type AccountList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *AccountList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '，' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	return nil
}

// StartSessionRequest starts a session stream
type StartSessionRequest struct {
	AccountNames     AccountList `json:"account_names"`
	HallName         string      `json:"hall_name,omitempty"`
	CheckWeeklyQuota bool        `json:"check_weekly_quota,omitempty"`
}

// StopResponse is returned by the stop endpoint
type StopResponse struct {
	Success   bool   `json:"success"`
	Stopped   int    `json:"stopped"`
	SessionID string `json:"session_id,omitempty"`
}

// RunStatus is one active account run
type RunStatus struct {
	Account        string `json:"account"`
	SessionID      string `json:"session_id"`
	Hall           string `json:"hall"`
	Floor          int    `json:"floor"`
	Status         string `json:"status"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// StatusResponse lists the caller's active runs
type StatusResponse struct {
	ActiveCount int         `json:"active_count"`
	Runs        []RunStatus `json:"runs"`
	SessionID   string      `json:"session_id,omitempty"`
	Accounts    []string    `json:"accounts"`
	Done        bool        `json:"done"`
}

// SettingsResponse wraps an account's settings
type SettingsResponse struct {
	AccountID string                `json:"account_id"`
	Settings  *hall.AccountSettings `json:"settings"`
	Defaulted bool                  `json:"defaulted"`
}

// PlanSummary is one runnable hall in canonical form
type PlanSummary struct {
	Hall     string `json:"hall"`
	Strategy string `json:"strategy"`
}

// SaveSettingsResponse lists the halls the saved settings will run
type SaveSettingsResponse struct {
	Success bool          `json:"success"`
	Plans   []PlanSummary `json:"plans"`
}

// ValidateRequest carries one strategy string
type ValidateRequest struct {
	Strategy string `json:"strategy"`
}

// ValidateResponse is the parsed strategy
type ValidateResponse struct {
	Valid      bool                  `json:"valid"`
	Canonical  string                `json:"canonical"`
	Directives []hall.FloorDirective `json:"directives"`
}

// HistoryResponse lists journal entries, newest first
type HistoryResponse struct {
	Entries []*runhistory.Entry `json:"entries"`
}
