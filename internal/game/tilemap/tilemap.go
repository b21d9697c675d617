// Package tilemap holds the immutable tile grid the physics resolver
// collides against.
package tilemap

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
)

// Tile is a tile code.
type Tile uint8

// Tile codes.
const (
	Empty Tile = 0
	Solid Tile = 1
)

// Rune glyphs used by Parse and Rows.
const (
	EmptyGlyph = '.'
	SolidGlyph = '#'
)

// Map is an immutable grid of tiles. Coordinates outside the grid are solid.
//
// Invariant: len(tiles) == width*height; width*tileSize and height*tileSize
// are representable as fixed.Fixed.
type Map struct {
	width    int
	height   int
	tileSize fixed.Fixed
	tiles    []Tile
}

// New builds a Map from row-major tiles.
//
// Precondition: width, height > 0; tileSize > 0; len(tiles) == width*height.
// Postcondition: Returns an error describing the first violated constraint.
func New(width, height int, tileSize fixed.Fixed, tiles []Tile) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tilemap: dimensions must be positive, got %dx%d", width, height)
	}
	if width > 255 || height > 255 {
		return nil, fmt.Errorf("tilemap: dimensions must not exceed 255 tiles, got %dx%d", width, height)
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("tilemap: tile size must be positive, got %s", tileSize)
	}
	if len(tiles) != width*height {
		return nil, fmt.Errorf("tilemap: expected %d tiles, got %d", width*height, len(tiles))
	}
	if int32(width)*int32(tileSize) > int32(fixed.Max) || int32(height)*int32(tileSize) > int32(fixed.Max) {
		return nil, fmt.Errorf("tilemap: %dx%d tiles of size %s exceed the fixed-point range", width, height, tileSize)
	}
	for i, t := range tiles {
		if t != Empty && t != Solid {
			return nil, fmt.Errorf("tilemap: tile %d has unknown code %d", i, t)
		}
	}
	cp := make([]Tile, len(tiles))
	copy(cp, tiles)
	return &Map{width: width, height: height, tileSize: tileSize, tiles: cp}, nil
}

// Parse builds a Map from text rows using '#' for solid and '.' for empty.
//
// Precondition: all rows have equal length.
func Parse(rows []string, tileSize fixed.Fixed) (*Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("tilemap: no rows")
	}
	width := len(rows[0])
	tiles := make([]Tile, 0, width*len(rows))
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("tilemap: row %d has width %d, expected %d", r, len(row), width)
		}
		for c, g := range []byte(row) {
			switch g {
			case EmptyGlyph:
				tiles = append(tiles, Empty)
			case SolidGlyph:
				tiles = append(tiles, Solid)
			default:
				return nil, fmt.Errorf("tilemap: row %d column %d: unknown glyph %q", r, c, g)
			}
		}
	}
	return New(width, len(rows), tileSize, tiles)
}

// Rows renders the map in the Parse format.
func (m *Map) Rows() []string {
	out := make([]string, m.height)
	var sb strings.Builder
	for r := 0; r < m.height; r++ {
		sb.Reset()
		for c := 0; c < m.width; c++ {
			if m.tiles[r*m.width+c] == Solid {
				sb.WriteByte(SolidGlyph)
			} else {
				sb.WriteByte(EmptyGlyph)
			}
		}
		out[r] = sb.String()
	}
	return out
}

// Width returns the width in tiles.
func (m *Map) Width() int { return m.width }

// Height returns the height in tiles.
func (m *Map) Height() int { return m.height }

// TileSize returns the edge length of one tile.
func (m *Map) TileSize() fixed.Fixed { return m.tileSize }

// At returns the tile at (col, row). Out-of-bounds coordinates are Solid.
func (m *Map) At(col, row int) Tile {
	if col < 0 || row < 0 || col >= m.width || row >= m.height {
		return Solid
	}
	return m.tiles[row*m.width+col]
}

// Solid reports whether (col, row) blocks movement.
func (m *Map) Solid(col, row int) bool { return m.At(col, row) == Solid }

// SolidInColumn reports whether any tile in col between rows lo and hi
// inclusive is solid.
func (m *Map) SolidInColumn(col, lo, hi int) bool {
	for r := lo; r <= hi; r++ {
		if m.Solid(col, r) {
			return true
		}
	}
	return false
}

// SolidInRow reports whether any tile in row between columns lo and hi
// inclusive is solid.
func (m *Map) SolidInRow(row, lo, hi int) bool {
	for c := lo; c <= hi; c++ {
		if m.Solid(c, row) {
			return true
		}
	}
	return false
}

// Index returns the tile index containing the raw coordinate v, rounding
// toward negative infinity. Raw coordinates are 32-bit so that box edges
// past the fixed-point range stay exact.
func (m *Map) Index(v int32) int {
	return floorDiv(v, int32(m.tileSize))
}

// CeilIndex returns the index of the first tile boundary at or beyond the
// raw coordinate v.
func (m *Map) CeilIndex(v int32) int {
	return -floorDiv(-v, int32(m.tileSize))
}

// Boundary returns the coordinate of the left/top edge of tile i as a raw
// 32-bit value. Boundaries outside the map may not fit in a Fixed.
func (m *Map) Boundary(i int) int32 { return int32(i) * int32(m.tileSize) }

func floorDiv(a, b int32) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return int(q)
}
