// Package combatcounts records how many weekly hall attempts each account
// has used, so scheduled runs can skip accounts that are already done.
package combatcounts

//go:generate mockgen -destination=mock/mock_repository.go -package=combatcountsmock github.com/KirkDiggler/hall-runner/internal/repositories/combat_counts Repository

import (
	"context"
	"time"
)

// WeeklyCount is the attempt usage of one account in one week
type WeeklyCount struct {
	AccountID string
	// Week is the ISO week, e.g. "2026-W10"
	Week      string
	Used      int
	Total     int
	UpdatedAt time.Time
}

// QuotaReached reports whether every attempt of the week was used
func (c *WeeklyCount) QuotaReached() bool {
	return c.Used != 0 && c.Used >= c.Total
}

// GetInput identifies the account; the current week is used
type GetInput struct {
	AccountID string
}

// GetOutput contains the stored count
type GetOutput struct {
	Count *WeeklyCount
}

// RecordInput is the latest usage read from the game
type RecordInput struct {
	AccountID string
	Used      int
	Total     int
}

// RecordOutput contains the stored count
type RecordOutput struct {
	Count *WeeklyCount
}

// ResetInput identifies the account to clear
type ResetInput struct {
	AccountID string
}

// ResetOutput is returned by Reset
type ResetOutput struct{}

// Repository defines storage for weekly attempt counts
type Repository interface {
	// Get loads this week's count. A week with no record is NotFound.
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Record stores this week's count
	Record(ctx context.Context, input RecordInput) (*RecordOutput, error)

	// Reset clears this week's count, e.g. after buying attempts
	Reset(ctx context.Context, input ResetInput) (*ResetOutput, error)
}
