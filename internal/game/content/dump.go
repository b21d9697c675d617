package content

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/sim"
)

// WriteSnapshot encodes snap as YAML. Fixed values are written as exact
// ratios so the dump reloads without loss.
func WriteSnapshot(w io.Writer, snap sim.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (sim.Snapshot, error) {
	var snap sim.Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return sim.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}
