package brackets

import (
	"testing"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(n int) []*models.SeedingEntry {
	out := make([]*models.SeedingEntry, n)
	for i := range out {
		id := (i + 1) * 10
		out[i] = &models.SeedingEntry{
			EntrantID: id,
			Seed:      i + 1,
			Entrant:   &models.Entrant{ID: id},
		}
	}
	return out
}

func memberIDs(p *models.Pool) []int {
	ids := make([]int, len(p.Members))
	for i, m := range p.Members {
		ids[i] = m.Entrant.ID
	}
	return ids
}

func TestRoundRobinPairs(t *testing.T) {
	for k := 0; k <= 9; k++ {
		pairs := RoundRobinPairs(k)
		want := 0
		if k >= 2 {
			want = k * (k - 1) / 2
		}
		require.Len(t, pairs, want, "k=%d", k)

		seen := make(map[PositionPair]bool)
		for _, p := range pairs {
			assert.Less(t, p.Left, p.Right)
			assert.False(t, seen[p], "pair %v twice", p)
			seen[p] = true
		}
	}
	assert.Equal(t, []PositionPair{{1, 2}, {1, 3}, {2, 3}}, RoundRobinPairs(3))
}

func TestBuildPoolsSnake(t *testing.T) {
	pools, err := BuildPools(seeded(10), 2, 5)
	require.NoError(t, err)
	require.Len(t, pools, 2)

	assert.Equal(t, 0, pools[0].PoolID)
	assert.Equal(t, []int{10, 40, 50, 80, 90}, memberIDs(pools[0]))
	assert.Equal(t, []int{20, 30, 60, 70, 100}, memberIDs(pools[1]))

	for _, p := range pools {
		for i, m := range p.Members {
			assert.Equal(t, i+1, m.Position)
		}
	}
}

func TestBuildPoolsDerivesPoolCount(t *testing.T) {
	pools, err := BuildPools(seeded(13), 0, 7)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Len(t, pools[0].Members, 7)
	assert.Len(t, pools[1].Members, 6)
}

func TestBuildPoolsErrors(t *testing.T) {
	_, err := BuildPools(seeded(11), 2, 5)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = BuildPools(seeded(4), 1, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	pools, err := BuildPools(nil, 3, 5)
	require.NoError(t, err)
	assert.Empty(t, pools)
}

func TestPoolBouts(t *testing.T) {
	pools, err := BuildPools(seeded(5), 1, 5)
	require.NoError(t, err)

	bouts := PoolBouts(3, pools[0])
	require.Len(t, bouts, 10)

	met := make(map[[2]int]bool)
	for _, b := range bouts {
		require.NotNil(t, b.LeftID)
		require.NotNil(t, b.RightID)
		require.NotNil(t, b.PoolID)
		assert.Equal(t, 0, *b.PoolID)
		assert.Equal(t, 3, b.RoundID)
		assert.Equal(t, PoolBoutTableOf, b.TableOf)
		assert.Nil(t, b.WinnerID)
		met[[2]int{*b.LeftID, *b.RightID}] = true
	}
	assert.Len(t, met, 10)
	assert.Equal(t, 10, *bouts[0].LeftID)
	assert.Equal(t, 20, *bouts[0].RightID)
}

func TestFencingOrderCoversEveryPair(t *testing.T) {
	for k := 2; k <= 10; k++ {
		order := FencingOrder(k)
		require.Len(t, order, k*(k-1)/2, "k=%d", k)

		seen := make(map[PositionPair]bool)
		for _, p := range order {
			lo, hi := p.Left, p.Right
			if lo > hi {
				lo, hi = hi, lo
			}
			assert.True(t, lo >= 1 && hi <= k && lo != hi, "k=%d pair %v", k, p)
			key := PositionPair{lo, hi}
			assert.False(t, seen[key], "k=%d pair %v twice", k, p)
			seen[key] = true
		}
	}
}

func TestAssignments(t *testing.T) {
	pools, err := BuildPools(seeded(4), 2, 2)
	require.NoError(t, err)

	rows := Assignments(9, pools)
	require.Len(t, rows, 4)
	assert.Equal(t, models.PoolAssignment{RoundID: 9, PoolID: 0, EntrantID: 10, Position: 1}, *rows[0])
	assert.Equal(t, models.PoolAssignment{RoundID: 9, PoolID: 0, EntrantID: 40, Position: 2}, *rows[1])
}
