package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/sim"
	"github.com/cory-johannsen/skirmish/internal/ledger"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/runner"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

var (
	runContent  string
	runFrames   int
	runSeed     uint16
	runLedger   bool
	runScenario string
	runDump     string
	runRealtime bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a game document",
	Long: `Run a game until it ends, --frames frames have passed, a scenario
script asks to stop, or the process is interrupted.

Examples:
  skirmish run --content content/duel.yaml
  skirmish run --frames 120 --dump -
  skirmish run --ledger --scenario checks.lua`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runContent, "content", "", "Game document (default: simulation.content_path)")
	runCmd.Flags().IntVar(&runFrames, "frames", 0, "Stop after this many frames (0 = until the game ends)")
	runCmd.Flags().Uint16Var(&runSeed, "seed", 0, "Override the document seed")
	runCmd.Flags().BoolVar(&runLedger, "ledger", false, "Record frame digests to the configured ledger backend")
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Lua scenario script (default: scenario.script)")
	runCmd.Flags().StringVar(&runDump, "dump", "", "Write the final snapshot as YAML to this file (- for stdout)")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "Pace frames at simulation.tick_rate")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := runContent
	if path == "" {
		path = cfg.Simulation.ContentPath
	}
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	seed := doc.game.Seed
	if cmd.Flags().Changed("seed") {
		seed = runSeed
	}

	var observers []runner.Observer
	var rec *ledger.Recorder
	if runLedger {
		rec = ledger.NewRecorder(doc.digest, seed)
		logger = observability.WithRun(logger, rec.Run().ID, seed)
		observers = append(observers, rec)
	}

	script := runScenario
	if script == "" {
		script = cfg.Scenario.Script
	}
	if script != "" {
		s, err := scripting.LoadScenarioFile(script, doc.game.CharacterNames(), cfg.Scenario.InstructionLimit, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		observers = append(observers, s)
	}

	game, err := doc.newGame(cfg, seed, logger)
	if err != nil {
		return err
	}
	r := runner.New(game, logger, observers...)
	if runRealtime || cfg.Simulation.Realtime {
		r.Pace(cfg.Simulation.Interval())
	}

	logger.Info("starting game", zap.String("content", doc.path), zap.Stringer("content_digest", doc.digest))
	res, runErr := r.Run(ctx, runFrames)

	if rec != nil && ctx.Err() == nil {
		if err := saveRun(ctx, cmd.OutOrStdout(), cfg, rec); err != nil {
			return err
		}
	}
	printSummary(cmd.OutOrStdout(), doc.game, res)

	if runDump != "" {
		if err := dumpSnapshot(cmd.OutOrStdout(), runDump, res.Final); err != nil {
			return err
		}
	}
	return runErr
}

func saveRun(ctx context.Context, w io.Writer, cfg config.Config, rec *ledger.Recorder) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	run, err := rec.Save(ctx, store)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "recorded run %s (%d frames, final %s)\n", run.ID, run.Frames, run.Final)
	return nil
}

func printSummary(w io.Writer, g *content.Game, res runner.Result) {
	state := "running"
	switch {
	case res.Over:
		state = "over"
	case res.Stopped:
		state = "stopped"
	}
	fmt.Fprintf(w, "frame %d (%s)\n", res.Final.Frame, state)
	names := g.CharacterNames()
	for i := range res.Final.Characters {
		c := &res.Final.Characters[i]
		fmt.Fprintf(w, "  %-12s group=%d health=%s energy=%s pos=(%s, %s)\n",
			names[i], c.Group, c.Health, c.Energy, c.Pos.X, c.Pos.Y)
	}
}

func dumpSnapshot(stdout io.Writer, path string, snap sim.Snapshot) error {
	if path == "-" {
		return content.WriteSnapshot(stdout, snap)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	if err := content.WriteSnapshot(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
