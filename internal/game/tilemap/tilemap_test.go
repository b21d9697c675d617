package tilemap_test

import (
	"testing"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse_RoundTrip(t *testing.T) {
	rows := []string{
		"#..#",
		"....",
		"####",
	}
	m, err := tilemap.Parse(rows, fixed.FromInt(16))
	require.NoError(t, err)
	assert.Equal(t, 4, m.Width())
	assert.Equal(t, 3, m.Height())
	assert.Equal(t, rows, m.Rows())
	assert.True(t, m.Solid(0, 0))
	assert.False(t, m.Solid(1, 0))
	assert.True(t, m.SolidInRow(2, 1, 2))
	assert.False(t, m.SolidInColumn(1, 0, 1))
}

func TestAt_OutOfBoundsIsSolid(t *testing.T) {
	m, err := tilemap.Parse([]string{".."}, fixed.One)
	require.NoError(t, err)
	assert.Equal(t, tilemap.Solid, m.At(-1, 0))
	assert.Equal(t, tilemap.Solid, m.At(0, -1))
	assert.Equal(t, tilemap.Solid, m.At(2, 0))
	assert.Equal(t, tilemap.Solid, m.At(0, 1))
	assert.Equal(t, tilemap.Empty, m.At(1, 0))
}

func TestNew_Rejects(t *testing.T) {
	_, err := tilemap.New(0, 1, fixed.One, nil)
	assert.Error(t, err)
	_, err = tilemap.New(1, 1, fixed.Zero, []tilemap.Tile{tilemap.Empty})
	assert.Error(t, err)
	_, err = tilemap.New(2, 1, fixed.One, []tilemap.Tile{tilemap.Empty})
	assert.Error(t, err)
	_, err = tilemap.New(1, 1, fixed.One, []tilemap.Tile{7})
	assert.Error(t, err)
	_, err = tilemap.New(200, 1, fixed.FromInt(16), make([]tilemap.Tile, 200))
	assert.Error(t, err, "200 tiles of 16 units exceed 2047")
	_, err = tilemap.Parse([]string{"..", "."}, fixed.One)
	assert.Error(t, err)
	_, err = tilemap.Parse([]string{".x"}, fixed.One)
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	m, err := tilemap.Parse([]string{"...."}, fixed.FromInt(16))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Index(0))
	assert.Equal(t, 0, m.Index(int32(fixed.FromInt(15))))
	assert.Equal(t, 1, m.Index(int32(fixed.FromInt(16))))
	assert.Equal(t, -1, m.Index(int32(fixed.Fixed(-1))))
	assert.Equal(t, 1, m.CeilIndex(int32(fixed.FromInt(16))))
	assert.Equal(t, 2, m.CeilIndex(int32(fixed.FromInt(17))))
	assert.Equal(t, 0, m.CeilIndex(int32(fixed.Fixed(-1))))
	assert.Equal(t, int32(fixed.FromInt(32)), m.Boundary(2))
}

func TestPropertyIndex_BoundaryBracketsValue(t *testing.T) {
	m, err := tilemap.Parse([]string{"...."}, fixed.FromInt(16))
	require.NoError(t, err)
	rapid.Check(t, func(rt *rapid.T) {
		v := fixed.Fixed(rapid.Int16().Draw(rt, "v"))
		i := m.Index(int32(v))
		assert.LessOrEqual(rt, m.Boundary(i), int32(v))
		assert.Greater(rt, m.Boundary(i+1), int32(v))
		c := m.CeilIndex(int32(v))
		assert.GreaterOrEqual(rt, m.Boundary(c), int32(v))
		assert.Less(rt, m.Boundary(c-1), int32(v))
	})
}
