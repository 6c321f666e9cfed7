// Package skillbook holds the default skill loadout for each career,
// optionally refined per hall and floor.
package skillbook

import (
	_ "embed"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
)

//go:embed skills.yaml
var embeddedSkills []byte

// Loadout is one primary skill plus its support skills
type Loadout struct {
	Primary string   `yaml:"primary"`
	Support []string `yaml:"support"`
}

type careerEntry struct {
	Default Loadout                       `yaml:"default"`
	Halls   map[hall.Name]map[int]Loadout `yaml:"halls"`
}

type document struct {
	Careers map[string]careerEntry `yaml:"careers"`
}

// Book answers which skills a career should equip on a floor
type Book struct {
	careers map[string]careerEntry
}

// Default returns the book compiled into the binary
func Default() (*Book, error) {
	return Parse(embeddedSkills)
}

// LoadFile reads a book from a YAML file
func LoadFile(path string) (*Book, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skill book %s", path)
	}
	return Parse(data)
}

// Load reads a book from r
func Load(r io.Reader) (*Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill book")
	}
	return Parse(data)
}

// Parse decodes and validates a YAML skill book
func Parse(data []byte) (*Book, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "invalid skill book yaml")
	}

	vb := errors.NewValidationBuilder()
	if len(doc.Careers) == 0 {
		vb.RequiredField("careers")
	}
	for name, c := range doc.Careers {
		if c.Default.Primary == "" {
			vb.Field("careers."+name+".default", "primary skill is required")
		}
		for h, floors := range c.Halls {
			if !h.Valid() {
				vb.Fieldf("careers."+name+".halls", "unknown hall %q", string(h))
			}
			for floor, l := range floors {
				if floor < 1 || l.Primary == "" {
					vb.Fieldf("careers."+name+".halls."+string(h), "floor %d needs a floor >= 1 and a primary skill", floor)
				}
			}
		}
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	return &Book{careers: doc.Careers}, nil
}

// Careers lists the careers the book knows, sorted
func (b *Book) Careers() []string {
	out := make([]string, 0, len(b.careers))
	for name := range b.careers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the loadout for career on a floor of a hall. A floor entry
// applies only to that floor; every other floor uses the career default.
// The bool is false when the career is unknown.
func (b *Book) Lookup(career string, h hall.Name, floor int) (*hall.SkillOverride, bool) {
	c, ok := b.careers[career]
	if !ok {
		return nil, false
	}

	l := c.Default
	if floors, ok := c.Halls[h]; ok {
		if specific, ok := floors[floor]; ok {
			l = specific
		}
	}

	out := &hall.SkillOverride{Primary: l.Primary}
	if len(l.Support) > 0 {
		out.Support = append([]string(nil), l.Support...)
	}
	return out, true
}
