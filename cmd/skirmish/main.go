// skirmish runs, validates and verifies deterministic combat simulations.
//
// Usage:
//
//	skirmish run      - Run a game document to completion
//	skirmish validate - Check a game document without running it
//	skirmish verify   - Replay a recorded run and compare frame digests
//	skirmish disasm   - Print every script of a game document as assembly
//	skirmish asm      - Assemble a script file into bytecode
//
// Global flags:
//
//	--config <path>    - Configuration file (default: none, defaults + SKIRMISH_* env)
//	--log-level <lvl>  - Override logging.level
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/observability"
)

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skirmish",
	Short: "Deterministic fixed-point combat simulation",
	Long: `skirmish drives data-defined combat games in which every character,
projectile and status effect is scripted in a small bytecode language.

Examples:
  skirmish validate --content content/duel.yaml
  skirmish run --content content/duel.yaml --ledger --dump final.yaml
  skirmish verify --content content/duel.yaml --run <uuid>
  skirmish asm jump.s`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(asmCmd)
}

// setup loads configuration and builds the logger shared by every command.
func setup() (config.Config, *zap.Logger, error) {
	v := config.NewViper()
	if flagConfig != "" {
		v.SetConfigFile(flagConfig)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	if flagLogLevel != "" {
		v.Set("logging.level", flagLogLevel)
	}
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
