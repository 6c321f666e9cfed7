// Package game defines the adapter the hall engine uses to talk to the
// game server, plus an in-memory simulator of it.
package game

//go:generate mockgen -destination=mock/mock_client.go -package=gamemock github.com/KirkDiggler/hall-runner/internal/clients/game Client

import (
	"context"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
)

// Client is every game action the hall engine needs. Implementations retry
// transient failures themselves; an error returned here is terminal for the
// call that produced it.
type Client interface {
	// Status reads the account's character and hall progress
	Status(ctx context.Context, accountID string) (*Status, error)

	// SwitchHall enters the named hall, resuming its saved floor
	SwitchHall(ctx context.Context, accountID string, name hall.Name) error

	// LeaveHall abandons the current hall so the next one can be entered
	LeaveHall(ctx context.Context, accountID string) error

	// ChallengeFloor fights one floor of the current hall
	ChallengeFloor(ctx context.Context, input *ChallengeInput) (*ChallengeResult, error)

	// Resurrect revives a defeated character
	Resurrect(ctx context.Context, accountID string) error

	// BuyAttempt purchases one extra weekly attempt
	BuyAttempt(ctx context.Context, accountID string) error

	// LodgeHeal restores health at the guest room
	LodgeHeal(ctx context.Context, accountID string) error

	// AdjustHealthParity leaves the character on an odd health value
	AdjustHealthParity(ctx context.Context, accountID string) error

	// EmptyMana drains the character's mana before a fight
	EmptyMana(ctx context.Context, accountID string) error

	// EquipSkills sets the primary and support skills
	EquipSkills(ctx context.Context, accountID string, skills hall.SkillOverride) error

	// RepairEquipment repairs every equipped item
	RepairEquipment(ctx context.Context, accountID string) error

	// BuyItem spends hall points in the hall shop
	BuyItem(ctx context.Context, input *BuyItemInput) error
}

// Status is a snapshot of an account as the game reports it
type Status struct {
	AccountID string
	Career    string
	// Hall is the hall the character is inside, empty when outside
	Hall          hall.Name
	Floor         int
	AttemptsUsed  int
	AttemptsTotal int
	// Score is the hall point balance
	Score int
	Dead  bool
}

// AttemptsExhausted reports whether this week's attempts are used up
func (s *Status) AttemptsExhausted() bool {
	return s.AttemptsUsed >= s.AttemptsTotal
}

// AttemptsRemaining returns the attempts left this week
func (s *Status) AttemptsRemaining() int {
	if s.AttemptsExhausted() {
		return 0
	}
	return s.AttemptsTotal - s.AttemptsUsed
}

// ChallengeInput selects the floor and target to fight
type ChallengeInput struct {
	AccountID string
	Hall      hall.Name
	Floor     int
	Target    hall.Target
}

// ChallengeResult is the outcome of one floor fight
type ChallengeResult struct {
	Victory bool
	// HallCleared is set when the victory finished the top floor
	HallCleared bool
	Message     string
}

// Item is a purchasable hall shop item
type Item struct {
	Name  string
	ID    int
	Price int
}

// Hall shop items
var (
	ItemBlackIron = Item{Name: "黑铁矿", ID: 117, Price: 3000}
	ItemInsight   = Item{Name: "灵台清明", ID: 11, Price: 750}
	ItemFortune   = Item{Name: "财运亨通", ID: 22, Price: 750}
)

// BuyItemInput describes one shop purchase
type BuyItemInput struct {
	AccountID string
	Item      Item
	Quantity  int
}
