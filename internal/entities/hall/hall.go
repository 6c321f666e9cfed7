// Package hall holds the domain model of the hall challenge engine: halls,
// per-floor directives, run state, progress events and account settings.
package hall

import (
	"github.com/KirkDiggler/hall-runner/internal/errors"
)

// Name identifies one of the six challenge halls
type Name string

// The six halls in their declared iteration order
const (
	NameFengShen Name = "封神异志"
	NamePingWo   Name = "平倭群英传"
	NameWuLin    Name = "武林群侠传"
	NameSanGuo   Name = "三国鼎立"
	NameLuanShi  Name = "乱世群雄"
	NameJueDai   Name = "绝代风华"
)

// SkipMarker in place of a strategy means the hall is not run
const SkipMarker = "跳过"

var declaredOrder = []Name{
	NameFengShen,
	NamePingWo,
	NameWuLin,
	NameSanGuo,
	NameLuanShi,
	NameJueDai,
}

var gameIDs = map[Name]int{
	NameFengShen: 3,
	NamePingWo:   6,
	NameWuLin:    10,
	NameSanGuo:   7,
	NameLuanShi:  8,
	NameJueDai:   9,
}

// All returns every hall in declared order. The slice is a copy.
func All() []Name {
	out := make([]Name, len(declaredOrder))
	copy(out, declaredOrder)
	return out
}

// String returns the hall name
func (n Name) String() string {
	return string(n)
}

// Valid reports whether n is one of the six halls
func (n Name) Valid() bool {
	_, ok := gameIDs[n]
	return ok
}

// GameID returns the numeric id the game server uses for the hall, or 0
func (n Name) GameID() int {
	return gameIDs[n]
}

// Index returns the position of n in declared order, or -1
func (n Name) Index() int {
	for i, h := range declaredOrder {
		if h == n {
			return i
		}
	}
	return -1
}

// ParseName converts a string into a hall Name
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", errors.InvalidArgumentf("unknown hall: %q", s).WithMeta("hall", s)
	}
	return n, nil
}
