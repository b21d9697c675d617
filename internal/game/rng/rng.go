// Package rng provides the deterministic 16-bit pseudo-random generator
// consumed by the script engine's random-assignment instructions.
package rng

import "github.com/cory-johannsen/skirmish/internal/game/fixed"

// DefaultSeed replaces a zero seed, which is a fixed point of xorshift.
const DefaultSeed uint16 = 0xACE1

// Source is a 16-bit xorshift generator with shift triple (7, 9, 8).
//
// Invariant: state is never zero.
type Source struct {
	state uint16
}

// New returns a Source seeded with seed.
//
// Postcondition: a zero seed is replaced by DefaultSeed.
func New(seed uint16) *Source {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Source{state: seed}
}

// State returns the current generator state for snapshots.
func (s *Source) State() uint16 { return s.state }

// Restore resets the generator to a previously captured state.
func (s *Source) Restore(state uint16) {
	if state == 0 {
		state = DefaultSeed
	}
	s.state = state
}

// Next advances the generator and returns the new 16-bit state.
func (s *Source) Next() uint16 {
	x := s.state
	x ^= x << 7
	x ^= x >> 9
	x ^= x << 8
	s.state = x
	return x
}

// Byte returns the high byte of the next state.
func (s *Source) Byte() uint8 { return uint8(s.Next() >> 8) }

// Fixed returns a value uniformly drawn from the representable range [0, 1).
func (s *Source) Fixed() fixed.Fixed {
	return fixed.Fixed(s.Next() >> (16 - fixed.FracBits))
}

// Intn returns a value in [0, n).
//
// Precondition: n > 0. Returns 0 when n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Next()) % n
}
