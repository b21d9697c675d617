// Package content loads a game from a YAML document: map, definitions,
// characters and simulation settings.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/sim"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
)

// ErrInvalid is wrapped by every semantic validation failure.
var ErrInvalid = errors.New("content: invalid game")

// Map is the textual tile map.
type Map struct {
	TileSize fixed.Fixed `yaml:"tile_size"`
	Rows     []string    `yaml:"rows"`
}

// BehaviorRef names a condition and an action, by definition name or id.
type BehaviorRef struct {
	Condition string `yaml:"condition"`
	Action    string `yaml:"action"`
}

// Character is the YAML form of a starting character.
type Character struct {
	Name       string           `yaml:"name"`
	Group      uint8            `yaml:"group"`
	Pos        entity.Vec       `yaml:"pos"`
	Vel        entity.Vec       `yaml:"vel"`
	Size       entity.Size      `yaml:"size"`
	Horizontal entity.Direction `yaml:"horizontal"`
	Vertical   entity.Gravity   `yaml:"vertical"`
	Enmity     uint8            `yaml:"enmity"`
	Target     string           `yaml:"target"`
	Stats      entity.Stats     `yaml:"stats"`
	Armor      map[string]uint8 `yaml:"armor"`
	Behaviors  []BehaviorRef    `yaml:"behaviors"`
}

// Game is a complete game document.
type Game struct {
	Seed             uint16      `yaml:"seed"`
	Gravity          fixed.Fixed `yaml:"gravity"`
	MaxFallSpeed     fixed.Fixed `yaml:"max_fall_speed"`
	MaxFrames        uint16      `yaml:"max_frames"`
	EndOnElimination bool        `yaml:"end_on_elimination"`
	Map              Map         `yaml:"map"`
	Characters       []Character `yaml:"characters"`

	definition.Set `yaml:",inline"`
}

// LoadFile reads and validates a game file.
//
// Precondition: path must name a YAML game document.
// Postcondition: Returns a validated Game or a non-nil error.
func LoadFile(path string) (*Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading game file %s: %w", path, err)
	}
	defer f.Close()
	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// LoadBytes parses and validates a game from YAML bytes.
func LoadBytes(data []byte) (*Game, error) {
	return Load(bytes.NewReader(data))
}

// Load parses and validates a game. Unknown top-level keys are rejected.
//
// Postcondition: Returns a validated Game or a non-nil error.
func Load(r io.Reader) (*Game, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var g Game
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("parsing game YAML: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks the map, every definition and every character.
//
// Postcondition: Returns nil, or an error wrapping ErrInvalid that lists
// every violation.
func (g *Game) Validate() error {
	var errs []string
	if _, err := g.tileMap(); err != nil {
		errs = append(errs, fmt.Sprintf("map: %v", err))
	}
	if err := g.Set.Validate(); err != nil {
		errs = append(errs, strings.TrimPrefix(err.Error(), definition.ErrInvalid.Error()+": "))
	}
	if _, err := g.characters(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// Config converts the document into a simulation configuration.
//
// Postcondition: Returns an error when Validate would.
func (g *Game) Config() (sim.Config, error) {
	if err := g.Validate(); err != nil {
		return sim.Config{}, err
	}
	m, _ := g.tileMap()
	chars, _ := g.characters()
	return sim.Config{
		Seed:             g.Seed,
		Map:              m,
		Definitions:      g.Set,
		Characters:       chars,
		Gravity:          g.Gravity,
		MaxFallSpeed:     g.MaxFallSpeed,
		MaxFrames:        g.MaxFrames,
		EndOnElimination: g.EndOnElimination,
	}, nil
}

// CharacterNames returns the character names in id order.
func (g *Game) CharacterNames() []string {
	names := make([]string, len(g.Characters))
	for i, c := range g.Characters {
		names[i] = c.Name
	}
	return names
}

func (g *Game) tileMap() (*tilemap.Map, error) {
	return tilemap.Parse(g.Map.Rows, g.Map.TileSize)
}

func (g *Game) characters() ([]entity.Character, error) {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}
	charIDs := make(map[string]int, len(g.Characters))
	for i, c := range g.Characters {
		if c.Name == "" {
			continue
		}
		if _, dup := charIDs[c.Name]; dup {
			add("character[%d]: duplicate name %q", i, c.Name)
		}
		charIDs[c.Name] = i
	}

	out := make([]entity.Character, len(g.Characters))
	for i, yc := range g.Characters {
		owner := fmt.Sprintf("character[%d] %q", i, yc.Name)
		c := entity.Character{
			Core: entity.Core{
				Group:      yc.Group,
				Pos:        yc.Pos,
				Vel:        yc.Vel,
				Size:       yc.Size,
				Horizontal: yc.Horizontal,
				Vertical:   yc.Vertical,
				Enmity:     yc.Enmity,
			},
			Stats: yc.Stats,
		}
		if c.Size.W == 0 || c.Size.H == 0 {
			add("%s: size must be positive, got %dx%d", owner, c.Size.W, c.Size.H)
		}
		if !c.Horizontal.Valid() {
			add("%s: unknown horizontal direction %d", owner, c.Horizontal)
		}
		if !c.Vertical.Valid() {
			add("%s: unknown gravity mode %d", owner, c.Vertical)
		}
		if yc.Target != "" {
			t, err := lookup(charIDs, yc.Target, len(g.Characters))
			if err != nil {
				add("%s: target: %v", owner, err)
			}
			c.Target = entity.Ref{Kind: entity.RefCharacter, ID: uint8(t)}
		}
		elements := make([]string, 0, len(yc.Armor))
		for name := range yc.Armor {
			elements = append(elements, name)
		}
		sort.Strings(elements)
		for _, name := range elements {
			e, ok := entity.ParseElement(name)
			if !ok {
				add("%s: armor: unknown element %q", owner, name)
				continue
			}
			c.Armor[e] = yc.Armor[name]
		}
		for j, b := range yc.Behaviors {
			cond, err := lookup(conditionIDs(g.Conditions), b.Condition, len(g.Conditions))
			if err != nil {
				add("%s: behavior[%d]: condition: %v", owner, j, err)
			}
			act, err := lookup(actionIDs(g.Actions), b.Action, len(g.Actions))
			if err != nil {
				add("%s: behavior[%d]: action: %v", owner, j, err)
			}
			c.Behaviors = append(c.Behaviors, entity.Behavior{Condition: uint8(cond), Action: uint8(act)})
		}
		out[i] = c
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return out, nil
}

func conditionIDs(defs []definition.Condition) map[string]int {
	ids := make(map[string]int, len(defs))
	for i, d := range defs {
		ids[d.Name] = i
	}
	return ids
}

func actionIDs(defs []definition.Action) map[string]int {
	ids := make(map[string]int, len(defs))
	for i, d := range defs {
		ids[d.Name] = i
	}
	return ids
}

// lookup resolves a definition name, falling back to a numeric id below n.
func lookup(ids map[string]int, ref string, n int) (int, error) {
	if id, ok := ids[ref]; ok {
		return id, nil
	}
	if id, err := strconv.Atoi(ref); err == nil && id >= 0 && id < n {
		return id, nil
	}
	return 0, fmt.Errorf("unknown %q", ref)
}
