// Package sim advances a world one frame at a time. A frame runs five
// phases in fixed order: status effects, character behaviors, spawn
// scripts, physics and cleanup.
//
// A Game is not safe for concurrent use.
package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/behavior"
	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/physics"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
	"github.com/cory-johannsen/skirmish/internal/game/world"
)

// Config is everything needed to start a game.
type Config struct {
	Seed         uint16
	Map          *tilemap.Map
	Definitions  definition.Set
	Characters   []entity.Character
	Gravity      fixed.Fixed
	MaxFallSpeed fixed.Fixed
	// MaxFrames ends the game once Frame reaches it; zero never ends it.
	MaxFrames uint16
	// EndOnElimination ends the game when at most one group has a living
	// character.
	EndOnElimination bool
	// InstructionLimit bounds each script run; zero selects script.DefaultLimit.
	InstructionLimit int
}

// Game is a running simulation.
type Game struct {
	w        *world.World
	machine  *script.Machine
	resolver *behavior.Resolver
	logger   *zap.Logger

	maxFrames        uint16
	endOnElimination bool
	over             bool
}

// New validates cfg and builds the initial world.
//
// Precondition: cfg.Map must be non-nil.
// Postcondition: Returns a Game at frame 0 or an error naming every invalid
// definition and character. A nil logger is replaced by a no-op logger.
func New(cfg Config, logger *zap.Logger) (*Game, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Map == nil {
		return nil, fmt.Errorf("sim: map is required")
	}
	defs := cfg.Definitions
	if err := defs.Validate(); err != nil {
		return nil, fmt.Errorf("sim: definitions: %w", err)
	}
	w, err := world.New(cfg.Map, &defs, physics.Params{
		Gravity:      cfg.Gravity,
		MaxFallSpeed: cfg.MaxFallSpeed,
	}, cfg.Seed, cfg.Characters)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	m := script.NewMachine(cfg.InstructionLimit)
	return &Game{
		w:                w,
		machine:          m,
		resolver:         behavior.NewResolver(m, logger),
		logger:           logger,
		maxFrames:        cfg.MaxFrames,
		endOnElimination: cfg.EndOnElimination,
	}, nil
}

// Frame returns the number of frames completed.
func (g *Game) Frame() uint16 { return g.w.Frame }

// Over reports whether the game has finished.
func (g *Game) Over() bool { return g.over }

// Step advances the game by one frame. Stepping a finished game does nothing.
func (g *Game) Step() {
	if g.over {
		return
	}
	g.stepStatusEffects()
	g.stepCharacters()
	g.stepSpawns()
	g.stepPhysics()
	g.cleanup()
	g.w.Frame++
	g.over = g.finished()
}

func (g *Game) finished() bool {
	if g.maxFrames > 0 && g.w.Frame >= g.maxFrames {
		return true
	}
	return g.endOnElimination && g.w.Living() <= 1
}

// run executes code on a scratch copy of regs and persists it on success.
func (g *Game) run(code []byte, regs *script.Registers, env script.Env, fields ...zap.Field) script.Outcome {
	if len(code) == 0 {
		return script.Outcome{}
	}
	scratch := *regs
	out, err := g.machine.Execute(code, &scratch, env)
	if err != nil {
		g.logger.Debug("script fault", append(fields, zap.Uint16("frame", g.w.Frame), zap.Error(err))...)
		return script.Outcome{}
	}
	*regs = scratch
	return out
}

func (g *Game) stepStatusEffects() {
	w := g.w
	for i := range w.StatusEffects {
		s := w.StatusEffects[i]
		if s == nil {
			continue
		}
		def, ok := w.Defs.StatusEffect(s.Def)
		if !ok {
			continue
		}
		id := uint8(i)
		env := world.NewStatusEnv(w, id)
		fields := []zap.Field{zap.String("kind", "status"), zap.Uint8("status", id), zap.Uint8("character", s.Owner)}
		if !s.Started {
			s.Started = true
			g.run(def.OnScript, &s.Registers, env, fields...)
		}
		g.run(def.TickScript, &s.Registers, env, fields...)
		if def.Duration == 0 {
			continue
		}
		if s.Life > 0 {
			s.Life--
		}
		if s.Life == 0 {
			g.run(def.OffScript, &s.Registers, env, fields...)
			w.RemoveStatus(id)
		}
	}
}

func (g *Game) stepCharacters() {
	w := g.w
	for i := range w.Characters {
		w.Characters[i].Regenerate()
		g.resolver.Resolve(w, uint8(i))
	}
}

// stepSpawns runs spawn scripts. Spawns created during the phase first act
// on the next frame, whichever slot they take.
func (g *Game) stepSpawns() {
	w := g.w
	live := make([]uint8, 0, len(w.Spawns))
	for i, s := range w.Spawns {
		if s != nil {
			live = append(live, uint8(i))
		}
	}
	for _, id := range live {
		s := w.Spawns[id]
		if s == nil || s.Despawn {
			continue
		}
		def, ok := w.Defs.Spawn(s.Def)
		if !ok {
			continue
		}
		env := world.NewSpawnEnv(w, id)
		fields := []zap.Field{zap.String("kind", "spawn"), zap.Uint8("spawn", id), zap.Uint8("character", s.Owner)}
		g.run(def.BehaviorScript, &s.Registers, env, fields...)
		if len(def.CollisionScript) == 0 {
			continue
		}
		group := s.Group
		if o, ok := w.Character(s.Owner); ok {
			group = o.Group
		}
		for c := range w.Characters {
			ch := &w.Characters[c]
			if s.Despawn {
				break
			}
			if !ch.Alive() || ch.Group == group || !s.Overlaps(&ch.Core) {
				continue
			}
			s.Target = entity.Ref{Kind: entity.RefCharacter, ID: ch.ID}
			g.run(def.CollisionScript, &s.Registers, env, fields...)
		}
		if s.Touched && !s.Despawn {
			s.Target = entity.Ref{}
			g.run(def.CollisionScript, &s.Registers, env, fields...)
		}
	}
}

func (g *Game) stepPhysics() {
	w := g.w
	for i := range w.Characters {
		physics.Step(&w.Characters[i].Core, w.Map, w.Physics)
	}
	for _, s := range w.Spawns {
		if s == nil {
			continue
		}
		physics.Step(&s.Core, w.Map, w.Physics)
		s.Touched = s.Collision.Any()
	}
}

// cleanup counts down spawn life spans and removes expired or flagged
// spawns after their despawn script.
func (g *Game) cleanup() {
	w := g.w
	for i, s := range w.Spawns {
		if s == nil {
			continue
		}
		def, ok := w.Defs.Spawn(s.Def)
		if !ok {
			w.RemoveSpawn(uint8(i))
			continue
		}
		if def.LifeSpan > 0 {
			if s.Life > 0 {
				s.Life--
			}
			if s.Life == 0 {
				s.Despawn = true
			}
		}
		if !s.Despawn {
			continue
		}
		id := uint8(i)
		g.run(def.DespawnScript, &s.Registers, world.NewSpawnEnv(w, id),
			zap.String("kind", "despawn"), zap.Uint8("spawn", id), zap.Uint8("character", s.Owner))
		w.RemoveSpawn(id)
	}
}
