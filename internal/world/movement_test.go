package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachableHexesOpenGround(t *testing.T) {
	f := newFixture(t, 10, 10)
	u := f.place(t, "r1", f.redF, 5, 4, 2)

	got := f.board.ReachableHexes(u)
	assert.Len(t, got, 18)
	for i, h := range got {
		assert.LessOrEqual(t, Distance(u.ContainingHex().Coord, h.Coord), 2)
		if i < 6 {
			assert.Equal(t, 1, Distance(u.ContainingHex().Coord, h.Coord))
		}
	}
}

func TestReachableHexesTerrainCost(t *testing.T) {
	f := newFixture(t, 10, 10)
	u := f.place(t, "r1", f.redF, 5, 4, 2)
	for _, h := range f.board.AdjacentHexes(u.ContainingHex()) {
		h.SetTerrain(TerrainRough)
	}

	got := f.board.ReachableHexes(u)
	assert.Len(t, got, 6)
}

func TestReachableHexesStopAtContact(t *testing.T) {
	f := newFixture(t, 10, 10)
	u := f.place(t, "r1", f.redF, 5, 2, 6)
	f.place(t, "b1", f.blueF, 5, 4, 4)

	reach := f.board.ReachableHexes(u)
	assert.NotContains(t, reach, f.board.HexAt(5, 4))
	assert.Contains(t, reach, f.board.HexAt(5, 3))
	for _, h := range reach {
		assert.True(t, h.IsEmpty())
	}
	// Behind the enemy is only reachable by going around its zone.
	path := f.board.ShortestPath(u, f.board.HexAt(5, 5))
	require.Len(t, path, 6)
	for _, h := range path[1 : len(path)-1] {
		assert.False(t, f.board.EnemyAdjacent(h, f.red), "passed through %s", h)
	}
}

func TestShortestPath(t *testing.T) {
	f := newFixture(t, 10, 10)
	u := f.place(t, "r1", f.redF, 2, 2, 3)

	path := f.board.ShortestPath(u, f.board.HexAt(2, 4))
	require.Len(t, path, 3)
	assert.Equal(t, f.board.HexAt(2, 2), path[0])
	assert.Equal(t, f.board.HexAt(2, 4), path[2])
	assert.True(t, path[0].IsAdjacent(path[1]))
	assert.True(t, path[1].IsAdjacent(path[2]))

	assert.Equal(t, []*Hex{f.board.HexAt(2, 2)}, f.board.ShortestPath(u, f.board.HexAt(2, 2)))
	assert.Nil(t, f.board.ShortestPath(u, f.board.HexAt(9, 9)))
}
