package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/skirmish/internal/ledger"
	"github.com/cory-johannsen/skirmish/internal/observability"
)

var (
	verifyContent string
	verifyRun     string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay a recorded run and compare every frame digest",
	Long: `Replay a run stored in the ledger backend from its game document and
seed, and report the first frame whose digest differs.

Examples:
  skirmish verify --content content/duel.yaml --run 0b6f3c9e-...`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyContent, "content", "", "Game document (default: simulation.content_path)")
	verifyCmd.Flags().StringVar(&verifyRun, "run", "", "Run id to verify")
	_ = verifyCmd.MarkFlagRequired("run")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	id, err := uuid.Parse(verifyRun)
	if err != nil {
		return fmt.Errorf("parsing run id: %w", err)
	}
	path := verifyContent
	if path == "" {
		path = cfg.Simulation.ContentPath
	}
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	run, err := store.Run(ctx, id)
	if err != nil {
		return fmt.Errorf("loading run %s: %w", id, err)
	}
	logger = observability.WithRun(logger, id, run.Seed)
	game, err := doc.newGame(cfg, run.Seed, logger)
	if err != nil {
		return err
	}
	if err := ledger.Verify(ctx, store, id, doc.digest, game); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s verified: %d frames, final %s\n", id, run.Frames, run.Final)
	return nil
}
