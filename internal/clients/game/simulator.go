package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
)

const (
	defaultAttemptsPerWeek = 20
	defaultTopFloor        = 50
	defaultAttemptPrice    = 5000
)

// SimulatorConfig configures the in-memory game
type SimulatorConfig struct {
	// Roller decides fights. Defaults to dice.DefaultRoller.
	Roller          dice.Roller
	AttemptsPerWeek int
	TopFloor        int
	// AttemptPrice is the point cost of BuyAttempt
	AttemptPrice int
}

// SimAccount seeds one simulated character
type SimAccount struct {
	ID     string
	Career string
	Score  int
	// AttemptsUsed starts the week part way through
	AttemptsUsed int
}

type simState struct {
	career        string
	hall          hall.Name
	floors        map[hall.Name]int
	attemptsUsed  int
	attemptsTotal int
	score         int
	dead          bool
	oddHealth     bool
	emptyMana     bool
	skills        hall.SkillOverride
	items         map[string]int
}

// Simulator is an in-memory Client. Fights roll a d20 against a difficulty
// that grows with the floor.
type Simulator struct {
	roller       dice.Roller
	topFloor     int
	attempts     int
	attemptPrice int

	mu       sync.Mutex
	accounts map[string]*simState
}

// NewSimulator creates a simulator with no accounts
func NewSimulator(cfg *SimulatorConfig) *Simulator {
	if cfg == nil {
		cfg = &SimulatorConfig{}
	}
	sim := &Simulator{
		roller:       cfg.Roller,
		topFloor:     cfg.TopFloor,
		attempts:     cfg.AttemptsPerWeek,
		attemptPrice: cfg.AttemptPrice,
		accounts:     make(map[string]*simState),
	}
	if sim.roller == nil {
		sim.roller = dice.DefaultRoller
	}
	if sim.topFloor <= 0 {
		sim.topFloor = defaultTopFloor
	}
	if sim.attempts <= 0 {
		sim.attempts = defaultAttemptsPerWeek
	}
	if sim.attemptPrice <= 0 {
		sim.attemptPrice = defaultAttemptPrice
	}
	return sim
}

var _ Client = (*Simulator)(nil)

// AddAccount registers or replaces a simulated character
func (s *Simulator) AddAccount(acct SimAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[acct.ID] = &simState{
		career:        acct.Career,
		floors:        make(map[hall.Name]int),
		attemptsUsed:  acct.AttemptsUsed,
		attemptsTotal: s.attempts,
		score:         acct.Score,
		items:         make(map[string]int),
	}
}

// Items returns how many of an item the account has bought
func (s *Simulator) Items(accountID, item string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.accounts[accountID]; ok {
		return st.items[item]
	}
	return 0
}

// Skills returns the account's equipped loadout
func (s *Simulator) Skills(accountID string) hall.SkillOverride {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.accounts[accountID]; ok {
		return st.skills
	}
	return hall.SkillOverride{}
}

func (s *Simulator) withAccount(accountID string, fn func(st *simState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.accounts[accountID]
	if !ok {
		return errors.NotFoundf("account %s not found", accountID).WithMeta("account_id", accountID)
	}
	return fn(st)
}

// Status implements Client
func (s *Simulator) Status(ctx context.Context, accountID string) (*Status, error) {
	var out *Status
	err := s.withAccount(accountID, func(st *simState) error {
		floor := 0
		if st.hall != "" {
			floor = st.currentFloor()
		}
		out = &Status{
			AccountID:     accountID,
			Career:        st.career,
			Hall:          st.hall,
			Floor:         floor,
			AttemptsUsed:  st.attemptsUsed,
			AttemptsTotal: st.attemptsTotal,
			Score:         st.score,
			Dead:          st.dead,
		}
		return nil
	})
	return out, err
}

// SwitchHall implements Client
func (s *Simulator) SwitchHall(ctx context.Context, accountID string, name hall.Name) error {
	if !name.Valid() {
		return errors.InvalidArgumentf("unknown hall %q", string(name))
	}
	return s.withAccount(accountID, func(st *simState) error {
		st.hall = name
		return nil
	})
}

// LeaveHall implements Client
func (s *Simulator) LeaveHall(ctx context.Context, accountID string) error {
	return s.withAccount(accountID, func(st *simState) error {
		if st.hall == "" {
			return errors.FailedPrecondition("not inside a hall")
		}
		st.hall = ""
		return nil
	})
}

// ChallengeFloor implements Client
func (s *Simulator) ChallengeFloor(ctx context.Context, input *ChallengeInput) (*ChallengeResult, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	var out *ChallengeResult
	err := s.withAccount(input.AccountID, func(st *simState) error {
		switch {
		case st.hall == "" || st.hall != input.Hall:
			return errors.FailedPreconditionf("not inside hall %s", input.Hall)
		case st.dead:
			return errors.FailedPrecondition("character is dead")
		case st.attemptsUsed >= st.attemptsTotal:
			return errors.ResourceExhausted("no attempts left this week")
		case st.currentFloor() != input.Floor:
			return errors.FailedPreconditionf("character is on floor %d, not %d", st.currentFloor(), input.Floor)
		}

		roll, err := s.roller.Roll(20)
		if err != nil {
			return errors.Wrap(err, "failed to roll fight")
		}

		st.attemptsUsed++
		if roll+st.bonus(input.Target) < difficulty(input.Floor, input.Target) {
			st.dead = true
			out = &ChallengeResult{Message: fmt.Sprintf("战斗失败 (%d)", roll)}
			st.oddHealth, st.emptyMana = false, false
			return nil
		}

		out = &ChallengeResult{Victory: true, Message: fmt.Sprintf("战斗胜利 (%d)", roll)}
		if input.Floor >= s.topFloor {
			out.HallCleared = true
		} else {
			st.floors[st.hall] = input.Floor + 1
		}
		st.oddHealth, st.emptyMana = false, false
		return nil
	})
	if err != nil {
		slog.Debug("Simulated challenge rejected",
			"account_id", input.AccountID,
			"floor", input.Floor,
			"error", err,
		)
		return nil, err
	}
	return out, nil
}

// Resurrect implements Client
func (s *Simulator) Resurrect(ctx context.Context, accountID string) error {
	return s.withAccount(accountID, func(st *simState) error {
		st.dead = false
		return nil
	})
}

// BuyAttempt implements Client
func (s *Simulator) BuyAttempt(ctx context.Context, accountID string) error {
	return s.withAccount(accountID, func(st *simState) error {
		if st.score < s.attemptPrice {
			return errors.ResourceExhaustedf("need %d points to buy an attempt, have %d", s.attemptPrice, st.score)
		}
		st.score -= s.attemptPrice
		st.attemptsTotal++
		return nil
	})
}

// LodgeHeal implements Client
func (s *Simulator) LodgeHeal(ctx context.Context, accountID string) error {
	return s.withAccount(accountID, func(st *simState) error {
		st.oddHealth = false
		return nil
	})
}

// AdjustHealthParity implements Client
func (s *Simulator) AdjustHealthParity(ctx context.Context, accountID string) error {
	return s.withAccount(accountID, func(st *simState) error {
		st.oddHealth = true
		return nil
	})
}

// EmptyMana implements Client
func (s *Simulator) EmptyMana(ctx context.Context, accountID string) error {
	return s.withAccount(accountID, func(st *simState) error {
		st.emptyMana = true
		return nil
	})
}

// EquipSkills implements Client
func (s *Simulator) EquipSkills(ctx context.Context, accountID string, skills hall.SkillOverride) error {
	if skills.Primary == "" {
		return errors.InvalidArgument("primary skill is required")
	}
	return s.withAccount(accountID, func(st *simState) error {
		st.skills = hall.SkillOverride{
			Primary: skills.Primary,
			Support: append([]string(nil), skills.Support...),
		}
		return nil
	})
}

// RepairEquipment implements Client
func (s *Simulator) RepairEquipment(ctx context.Context, accountID string) error {
	return s.withAccount(accountID, func(st *simState) error { return nil })
}

// BuyItem implements Client
func (s *Simulator) BuyItem(ctx context.Context, input *BuyItemInput) error {
	if input == nil || input.Quantity < 1 {
		return errors.InvalidArgument("quantity must be at least 1")
	}
	return s.withAccount(input.AccountID, func(st *simState) error {
		cost := input.Item.Price * input.Quantity
		if cost > st.score {
			return errors.ResourceExhaustedf("need %d points for %d %s, have %d",
				cost, input.Quantity, input.Item.Name, st.score)
		}
		st.score -= cost
		st.items[input.Item.Name] += input.Quantity
		return nil
	})
}

func (st *simState) currentFloor() int {
	if f, ok := st.floors[st.hall]; ok {
		return f
	}
	return 1
}

func (st *simState) bonus(target hall.Target) int {
	b := 0
	if st.oddHealth && target == hall.TargetOddHealth {
		b += 3
	}
	if st.emptyMana && target == hall.TargetBlankMana {
		b += 3
	}
	if st.skills.Primary != "" {
		b++
	}
	return b
}

// difficulty is the d20 roll needed to win a floor
func difficulty(floor int, target hall.Target) int {
	d := 2 + floor/5
	switch target {
	case hall.TargetTrashBattle:
		d -= 2
	case hall.TargetNPCBattle:
		d++
	}
	if d > 19 {
		d = 19
	}
	if d < 1 {
		d = 1
	}
	return d
}
