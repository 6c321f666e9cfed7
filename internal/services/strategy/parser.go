// Package strategy parses the per-hall strategy mini-language.
//
// A strategy is a "|" separated list of directives:
//
//	<floor>:<target>[!(<primary>,{<support>,...})]
//
// for example "5:空蓝|27:NPC|30:切换" or "1:!(破甲式0人,{心眼式,灭情战意})".
// Full-width punctuation typed with a Chinese IME is accepted.
package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
)

const (
	directiveSep = "|"
	floorSep     = ":"
	skillsSep    = "!"
)

// Target keywords. An empty target is the same as KeywordPassThrough.
const (
	KeywordPassThrough = "通关"
	KeywordNPC         = "NPC"
	KeywordTrash       = "小怪"
	KeywordBlankMana   = "空蓝"
	KeywordOddHealth   = "奇数血"
	KeywordExit        = "退出"
	KeywordSwitch      = "切换"
)

var keywordTargets = map[string]hall.Target{
	"":                 hall.TargetPassThrough,
	KeywordPassThrough: hall.TargetPassThrough,
	KeywordNPC:         hall.TargetNPCBattle,
	KeywordTrash:       hall.TargetTrashBattle,
	KeywordBlankMana:   hall.TargetBlankMana,
	KeywordOddHealth:   hall.TargetOddHealth,
	KeywordExit:        hall.TargetExit,
	KeywordSwitch:      hall.TargetSwitchHall,
}

var targetKeywords = map[hall.Target]string{
	hall.TargetPassThrough: "",
	hall.TargetNPCBattle:   KeywordNPC,
	hall.TargetTrashBattle: KeywordTrash,
	hall.TargetBlankMana:   KeywordBlankMana,
	hall.TargetOddHealth:   KeywordOddHealth,
	hall.TargetExit:        KeywordExit,
	hall.TargetSwitchHall:  KeywordSwitch,
}

// ParseError describes the first directive that failed to parse
type ParseError struct {
	// Index is the zero-based position of the segment in the input
	Index   int
	Segment string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("strategy segment %d %q: %s", e.Index, e.Segment, e.Reason)
}

// Unwrap exposes an InvalidArgument error so callers can use errors.IsInvalidArgument
func (e *ParseError) Unwrap() error {
	return errors.InvalidArgument(e.Error()).
		WithMeta("segment", e.Segment).
		WithMeta("segment_index", e.Index)
}

// Normalize narrows full-width characters and trims surrounding space
func Normalize(s string) string {
	return strings.TrimSpace(width.Narrow.String(s))
}

// Parse converts a strategy string into a hall.Strategy.
// The empty string yields an empty strategy.
func Parse(s string) (hall.Strategy, error) {
	var out hall.Strategy

	prev := 0
	for i, raw := range strings.Split(Normalize(s), directiveSep) {
		segment := strings.TrimSpace(raw)
		if segment == "" {
			continue
		}

		d, reason := parseDirective(segment)
		if reason != "" {
			return hall.Strategy{}, &ParseError{Index: i, Segment: segment, Reason: reason}
		}
		if d.Floor <= prev {
			return hall.Strategy{}, &ParseError{
				Index:   i,
				Segment: segment,
				Reason:  fmt.Sprintf("floor %d must be greater than previous floor %d", d.Floor, prev),
			}
		}
		prev = d.Floor
		out.Directives = append(out.Directives, d)
	}

	return out, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) hall.Strategy {
	out, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return out
}

func parseDirective(segment string) (hall.FloorDirective, string) {
	body, skills, hasSkills := strings.Cut(segment, skillsSep)

	floorText, targetText, ok := strings.Cut(body, floorSep)
	if !ok {
		return hall.FloorDirective{}, "missing ':' between floor and target"
	}

	floor, err := strconv.Atoi(strings.TrimSpace(floorText))
	if err != nil {
		return hall.FloorDirective{}, fmt.Sprintf("floor %q is not a number", strings.TrimSpace(floorText))
	}
	if floor < 1 {
		return hall.FloorDirective{}, fmt.Sprintf("floor %d must be at least 1", floor)
	}

	keyword := strings.TrimSpace(targetText)
	target, ok := keywordTargets[keyword]
	if !ok {
		return hall.FloorDirective{}, fmt.Sprintf("unknown target %q", keyword)
	}

	d := hall.FloorDirective{Floor: floor, Target: target}
	if hasSkills {
		override, reason := parseSkills(strings.TrimSpace(skills))
		if reason != "" {
			return hall.FloorDirective{}, reason
		}
		d.Skills = override
	}

	return d, ""
}

// parseSkills reads "(primary,{a,b})"
func parseSkills(s string) (*hall.SkillOverride, string) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, "skill override must be wrapped in parentheses"
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])

	primary, rest, ok := strings.Cut(inner, ",")
	if !ok {
		return nil, "skill override needs a primary skill and a support set"
	}
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return nil, "skill override needs a primary skill"
	}
	if strings.ContainsAny(primary, "{}()") {
		return nil, fmt.Sprintf("invalid primary skill %q", primary)
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "{") || !strings.HasSuffix(rest, "}") {
		return nil, "support skills must be wrapped in braces"
	}
	setText := strings.TrimSpace(rest[1 : len(rest)-1])

	override := &hall.SkillOverride{Primary: primary}
	if setText == "" {
		return override, ""
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(setText, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, "empty support skill name"
		}
		if strings.ContainsAny(name, "{}()") {
			return nil, fmt.Sprintf("invalid support skill %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		override.Support = append(override.Support, name)
	}

	return override, ""
}

// Format renders a strategy in canonical form. Parse(Format(s)) equals s.
func Format(s hall.Strategy) string {
	parts := make([]string, 0, len(s.Directives))
	for _, d := range s.Directives {
		parts = append(parts, FormatDirective(d))
	}
	return strings.Join(parts, directiveSep)
}

// FormatDirective renders one directive in canonical form
func FormatDirective(d hall.FloorDirective) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(d.Floor))
	b.WriteString(floorSep)
	b.WriteString(targetKeywords[d.Target])
	if d.Skills != nil {
		b.WriteString(skillsSep)
		b.WriteString("(")
		b.WriteString(d.Skills.Primary)
		b.WriteString(",{")
		b.WriteString(strings.Join(d.Skills.Support, ","))
		b.WriteString("})")
	}
	return b.String()
}

// IsSkip reports whether a raw setting value means the hall is skipped
func IsSkip(raw string) bool {
	return Normalize(raw) == hall.SkipMarker
}

// ParseSettings parses every hall of one account and returns the runnable
// plan in declared hall order. Absent and skipped halls are left out.
func ParseSettings(strategies map[hall.Name]string) ([]hall.Plan, error) {
	var plans []hall.Plan
	for _, name := range hall.All() {
		raw, ok := strategies[name]
		if !ok || IsSkip(raw) {
			continue
		}

		parsed, err := Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "hall %s", name).WithMeta("hall", string(name))
		}
		plans = append(plans, hall.Plan{Hall: name, Strategy: parsed})
	}
	return plans, nil
}
