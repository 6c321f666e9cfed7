package hall

import (
	"fmt"
	"time"
)

// Level classifies a progress event
type Level string

// Event levels
const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ProgressEvent is one step of a run as seen by observers.
// Events are never mutated after publication.
type ProgressEvent struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	SessionID string    `json:"session_id,omitempty"`
	AccountID string    `json:"account_id,omitempty"`
	Hall      Name      `json:"hall,omitempty"`
	Floor     int       `json:"floor,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Line renders the event as a single log line for text streams
func (e ProgressEvent) Line() string {
	switch {
	case e.AccountID == "":
		return e.Message
	case e.Hall == "":
		return fmt.Sprintf("%s: %s", e.AccountID, e.Message)
	case e.Floor > 0:
		return fmt.Sprintf("%s: %s (第%d层) %s", e.AccountID, e.Hall, e.Floor, e.Message)
	default:
		return fmt.Sprintf("%s: %s %s", e.AccountID, e.Hall, e.Message)
	}
}
