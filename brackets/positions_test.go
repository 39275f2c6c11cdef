package brackets

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedOrderIsPermutation(t *testing.T) {
	for _, size := range SupportedTableSizes() {
		perm, err := SeedOrder(size)
		require.NoError(t, err)
		require.Len(t, perm, size)

		sorted := append([]int(nil), perm...)
		sort.Ints(sorted)
		for i, seed := range sorted {
			assert.Equal(t, i+1, seed, "table %d", size)
		}
	}
}

func TestPositionsPairSeedsSummingToTablePlusOne(t *testing.T) {
	for _, size := range SupportedTableSizes() {
		pairs, err := Positions(size)
		require.NoError(t, err)
		require.Len(t, pairs, size/2)
		for _, p := range pairs {
			assert.Equal(t, size+1, p.Left+p.Right, "table %d pair %v", size, p)
		}
		assert.Equal(t, 1, pairs[0].Left)
		assert.Equal(t, 2, pairs[len(pairs)-1].Right, "seeds 1 and 2 can only meet in the final")
	}
}

func TestKnownTables(t *testing.T) {
	four, err := SeedOrder(4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 3, 2}, four)

	eight, err := SeedOrder(8)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 8, 5, 4, 3, 6, 7, 2}, eight)
}

func TestSeedOrderReturnsCopy(t *testing.T) {
	perm, err := SeedOrder(4)
	require.NoError(t, err)
	perm[0] = 99

	again, err := SeedOrder(4)
	require.NoError(t, err)
	assert.Equal(t, 1, again[0])
}

func TestUnsupportedTable(t *testing.T) {
	_, err := Positions(12)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = SeedOrder(256)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestTableSize(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0}, {1, 2}, {2, 2}, {3, 4}, {5, 8}, {8, 8}, {9, 16}, {33, 64}, {128, 128},
	}
	for _, tt := range tests {
		got, err := TableSize(tt.n)
		require.NoError(t, err, "n=%d", tt.n)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
	}

	_, err := TableSize(129)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = TableSize(-1)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRoundName(t *testing.T) {
	assert.Equal(t, "Finals", RoundName(2))
	assert.Equal(t, "Semi-Finals", RoundName(4))
	assert.Equal(t, "Quarter-Finals", RoundName(8))
	assert.Equal(t, "Round of 64", RoundName(64))
	assert.Equal(t, 7, LevelCount(128))
}
