package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateContent string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a game document",
	Long: `Load a game document, assemble its scripts and check every
definition and character without running a frame.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateContent, "content", "", "Game document (default: simulation.content_path)")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	path := validateContent
	if path == "" {
		path = cfg.Simulation.ContentPath
	}
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	g := doc.game
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d characters, %d conditions, %d actions, %d spawns, %d status effects; digest %s)\n",
		path, len(g.Characters), len(g.Conditions), len(g.Actions), len(g.Spawns), len(g.StatusEffects), doc.digest)
	return nil
}
