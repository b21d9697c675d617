package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/sim"
	"github.com/cory-johannsen/skirmish/internal/ledger"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/storage/sqlite"
)

// document is a loaded game file together with the digest of its bytes.
type document struct {
	path   string
	game   *content.Game
	digest ledger.Digest
}

func loadDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading game file %s: %w", path, err)
	}
	g, err := content.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &document{path: path, game: g, digest: ledger.ContentDigest(data)}, nil
}

// newGame builds a fresh game from doc with seed.
func (d *document) newGame(cfg config.Config, seed uint16, logger *zap.Logger) (*sim.Game, error) {
	simCfg, err := d.game.Config()
	if err != nil {
		return nil, err
	}
	simCfg.Seed = seed
	simCfg.InstructionLimit = cfg.Simulation.InstructionLimit
	return sim.New(simCfg, logger)
}

// openStore opens the configured ledger backend. The returned close function
// is never nil.
func openStore(ctx context.Context, cfg config.Config) (ledger.Store, func(), error) {
	switch cfg.Ledger.Backend {
	case config.LedgerSQLite:
		s, err := sqlite.Open(cfg.Ledger.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.LedgerPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		return pool.Ledger(), pool.Close, nil
	}
	return nil, func() {}, fmt.Errorf("ledger backend %q does not persist runs; set ledger.backend to sqlite or postgres", cfg.Ledger.Backend)
}
