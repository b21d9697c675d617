package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/script"
)

var disasmContent string

var disasmCmd = &cobra.Command{
	Use:   "disasm",
	Short: "Print every script of a game document as assembly",
	Args:  cobra.NoArgs,
	RunE:  runDisasm,
}

var asmCmd = &cobra.Command{
	Use:   "asm <file>",
	Short: "Assemble a script file and print its bytecode",
	Long: `Assemble a script and print the bytes as a YAML list that can be
pasted into a game document in place of assembly text.

Examples:
  skirmish asm jump.s
  skirmish asm - < jump.s`,
	Args: cobra.ExactArgs(1),
	RunE: runAsm,
}

func init() {
	disasmCmd.Flags().StringVar(&disasmContent, "content", "", "Game document (default: simulation.content_path)")
}

func runDisasm(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	path := disasmContent
	if path == "" {
		path = cfg.Simulation.ContentPath
	}
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	set := &doc.game.Set
	for i, c := range set.Conditions {
		if err := printScript(w, fmt.Sprintf("condition[%d] %q", i, c.Name), c.Script); err != nil {
			return err
		}
	}
	for i, a := range set.Actions {
		if err := printScript(w, fmt.Sprintf("action[%d] %q", i, a.Name), a.Script); err != nil {
			return err
		}
	}
	for i, s := range set.Spawns {
		for _, part := range []struct {
			name string
			code definition.Code
		}{{"behavior", s.BehaviorScript}, {"collision", s.CollisionScript}, {"despawn", s.DespawnScript}} {
			if err := printScript(w, fmt.Sprintf("spawn[%d] %q %s", i, s.Name, part.name), part.code); err != nil {
				return err
			}
		}
	}
	for i, s := range set.StatusEffects {
		for _, part := range []struct {
			name string
			code definition.Code
		}{{"on", s.OnScript}, {"tick", s.TickScript}, {"off", s.OffScript}} {
			if err := printScript(w, fmt.Sprintf("status_effect[%d] %q %s", i, s.Name, part.name), part.code); err != nil {
				return err
			}
		}
	}
	return nil
}

func printScript(w io.Writer, label string, code definition.Code) error {
	if len(code) == 0 {
		return nil
	}
	text, err := script.Disassemble(code)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	fmt.Fprintf(w, "; %s (%d bytes)\n%s\n", label, len(code), strings.TrimRight(text, "\n"))
	fmt.Fprintln(w)
	return nil
}

func runAsm(cmd *cobra.Command, args []string) error {
	var (
		src []byte
		err error
	)
	if args[0] == "-" {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	code, err := script.Assemble(string(src))
	if err != nil {
		return err
	}
	if err := script.Validate(code); err != nil {
		return err
	}
	parts := make([]string, len(code))
	for i, b := range code {
		parts[i] = fmt.Sprint(b)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", strings.Join(parts, ", "))
	return nil
}
