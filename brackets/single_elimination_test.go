package brackets

import (
	"context"
	"testing"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, n, minTable int) *Bracket {
	t.Helper()
	b, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		RoundID:      1,
		Seeding:      seeded(n),
		MinTableSize: minTable,
	})
	require.NoError(t, err)
	return b
}

func idOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func countByes(b *Bracket) int {
	n := 0
	for _, m := range b.Matches() {
		if m.IsBye {
			n++
		}
	}
	return n
}

func TestBracketShape(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8, 13, 32, 100} {
		b := generate(t, n, 0)
		tableSize, err := TableSize(n)
		require.NoError(t, err)

		assert.Equal(t, tableSize, b.TableSize)
		assert.Len(t, b.Matches(), tableSize-1, "n=%d", n)
		assert.Len(t, b.Levels, LevelCount(tableSize))
		assert.True(t, b.Final().IsFinal())
		assert.Equal(t, tableSize-n, countByes(b), "n=%d", n)

		// Every first-level match reaches the final in log2(T) hops.
		for _, m := range b.Levels[0] {
			hops := 0
			for cur := m; ; hops++ {
				next, _, ok := b.Next(cur)
				if !ok {
					assert.Same(t, b.Final(), cur)
					break
				}
				cur = next
			}
			assert.Equal(t, LevelCount(tableSize)-1, hops)
		}
	}
}

func TestFiveEntrants(t *testing.T) {
	b := generate(t, 5, 0)
	require.Equal(t, 8, b.TableSize)

	first := b.Levels[0]
	// (1,8) (5,4) (3,6) (7,2)
	assert.True(t, first[0].IsBye)
	assert.Equal(t, 10, idOf(first[0].WinnerID))
	assert.False(t, first[1].IsBye)
	assert.Equal(t, 50, idOf(first[1].LeftID))
	assert.Equal(t, 40, idOf(first[1].RightID))
	assert.Nil(t, first[1].WinnerID)
	assert.True(t, first[2].IsBye)
	assert.Equal(t, 30, idOf(first[2].WinnerID))
	assert.True(t, first[3].IsBye)
	assert.Equal(t, 20, idOf(first[3].WinnerID))

	semis := b.Levels[1]
	assert.Equal(t, 10, idOf(semis[0].LeftID))
	assert.Nil(t, semis[0].RightID)
	assert.Equal(t, 30, idOf(semis[1].LeftID))
	assert.Equal(t, 20, idOf(semis[1].RightID))
	assert.Nil(t, semis[1].WinnerID, "a real semi-final is not a bye")

	final := b.Final()
	assert.Nil(t, final.LeftID)
	assert.Nil(t, final.RightID)
}

func TestForcedTableChainsByes(t *testing.T) {
	b := generate(t, 3, 8)
	require.Equal(t, 8, b.TableSize)

	first := b.Levels[0]
	assert.True(t, first[1].Dead(), "seeds 5 and 4 do not exist")
	assert.Nil(t, first[1].WinnerID)

	semis := b.Levels[1]
	assert.True(t, semis[0].IsBye)
	assert.Equal(t, 10, idOf(semis[0].WinnerID))
	assert.Equal(t, 10, idOf(b.Final().LeftID))
	assert.Equal(t, 30, idOf(semis[1].LeftID))
	assert.Equal(t, 20, idOf(semis[1].RightID))
	assert.Equal(t, 4, countByes(b))
}

func TestLoneEntrantWinsFinalOnBye(t *testing.T) {
	b := generate(t, 1, 0)
	require.Equal(t, 2, b.TableSize)
	final := b.Final()
	assert.True(t, final.IsBye)
	assert.Equal(t, 10, idOf(final.WinnerID))
}

func TestEmptyField(t *testing.T) {
	b := generate(t, 0, 0)
	assert.Empty(t, b.Levels)
	assert.Nil(t, b.Final())
	assert.Empty(t, b.Matches())
}

func TestGenerateErrors(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	_, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Seeding: seeded(4), MinTableSize: 12})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = gen.GenerateBracket(context.Background(), GenerateBracketParams{Seeding: seeded(129)})
	assert.ErrorIs(t, err, ErrConfiguration)

	gappy := seeded(3)
	gappy[2].Seed = 4
	_, err = gen.GenerateBracket(context.Background(), GenerateBracketParams{Seeding: gappy})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAdvanceThroughBracket(t *testing.T) {
	b := generate(t, 4, 0)
	semis := b.Levels[0]

	require.NoError(t, b.Advance(semis[0], 40))
	require.NoError(t, b.Advance(semis[1], 30))

	final := b.Final()
	assert.Equal(t, 40, idOf(final.LeftID))
	assert.Equal(t, 4, final.LeftSeed)
	assert.Equal(t, 30, idOf(final.RightID))

	assert.ErrorIs(t, b.Advance(semis[0], 10), ErrInvalidState)
	assert.ErrorIs(t, b.Advance(final, 10), ErrValidation)
	require.NoError(t, b.Advance(final, 30))
	assert.Equal(t, 30, idOf(final.WinnerID))
}

func TestSlotForOrder(t *testing.T) {
	assert.Equal(t, models.SlotLeft, SlotForOrder(0))
	assert.Equal(t, models.SlotRight, SlotForOrder(1))
	assert.Equal(t, models.SlotLeft, SlotForOrder(6))
	assert.Equal(t, 3, NextOrder(7))
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator("")
	require.NoError(t, err)
	assert.Equal(t, "SingleElimination", gen.GetName())

	for _, format := range []string{models.DEFormatDouble, models.DEFormatCompass, "swiss"} {
		_, err := NewGenerator(format)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, format)
	}
}
