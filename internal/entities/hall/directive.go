package hall

import "fmt"

// Target is the battle type or control action a directive selects
type Target int

// Targets a floor directive can carry
const (
	TargetPassThrough Target = iota
	TargetNPCBattle
	TargetTrashBattle
	TargetBlankMana
	TargetOddHealth
	TargetExit
	TargetSwitchHall
)

var targetNames = map[Target]string{
	TargetPassThrough: "PASS_THROUGH",
	TargetNPCBattle:   "NPC_BATTLE",
	TargetTrashBattle: "TRASH_BATTLE",
	TargetBlankMana:   "BLANK_MANA",
	TargetOddHealth:   "ODD_HEALTH",
	TargetExit:        "EXIT",
	TargetSwitchHall:  "SWITCH_HALL",
}

func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText writes the target name
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText reads a target name written by MarshalText
func (t *Target) UnmarshalText(text []byte) error {
	for k, v := range targetNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown target %q", string(text))
}

// IsControl reports whether the target ends the run instead of fighting
func (t Target) IsControl() bool {
	return t == TargetExit || t == TargetSwitchHall
}

// SkillOverride replaces the default skill loadout for a floor range
type SkillOverride struct {
	Primary string   `json:"primary"`
	Support []string `json:"support"`
}

// Equal compares two overrides, treating nil as distinct from empty
func (o *SkillOverride) Equal(other *SkillOverride) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.Primary != other.Primary || len(o.Support) != len(other.Support) {
		return false
	}
	for i := range o.Support {
		if o.Support[i] != other.Support[i] {
			return false
		}
	}
	return true
}

// FloorDirective applies from Floor until the next directive's floor
type FloorDirective struct {
	Floor  int            `json:"floor"`
	Target Target         `json:"target"`
	Skills *SkillOverride `json:"skills,omitempty"`
}

// Strategy is the ordered list of directives for one hall.
// Floors strictly increase. An empty strategy passes through every floor.
type Strategy struct {
	Directives []FloorDirective `json:"directives"`
}

// IsEmpty reports whether the strategy has no directives
func (s Strategy) IsEmpty() bool {
	return len(s.Directives) == 0
}

// DirectiveAt returns the most recent directive whose floor is at or below
// floor. Floors before the first directive pass through.
func (s Strategy) DirectiveAt(floor int) FloorDirective {
	active := FloorDirective{Floor: floor, Target: TargetPassThrough}
	for _, d := range s.Directives {
		if d.Floor > floor {
			break
		}
		active = d
	}
	return active
}

// Plan is the runnable strategy of one hall for one account
type Plan struct {
	Hall     Name     `json:"hall"`
	Strategy Strategy `json:"strategy"`
}
