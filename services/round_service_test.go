package services

import (
	"context"
	"sync"
	"testing"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeBracketIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fencers := f.addFencers(t, 1, 5)
	round := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 1})

	res, err := f.rounds.Initialize(ctx, round.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyInitialized)
	assert.Equal(t, 8, res.TableSize)
	assert.Equal(t, 7, res.BoutsCreated)
	assert.Equal(t, 3, res.ByesResolved)
	require.Len(t, res.Seeding, 5)
	assert.Equal(t, fencers[0].ID, res.Seeding[0].EntrantID)

	stored := f.getRound(t, round.ID)
	assert.True(t, stored.IsStarted)
	assert.False(t, stored.IsComplete)
	assert.Equal(t, 8, stored.DETableSize)

	again, err := f.rounds.Initialize(ctx, round.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyInitialized)
	assert.Len(t, again.Seeding, 5)
	assert.Len(t, f.listBouts(t, round.ID), 7)

	links, err := f.store.Repos().Links.ListByRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Len(t, links, 7)
	finals := 0
	for _, l := range links {
		if l.NextBoutID == nil {
			finals++
		}
	}
	assert.Equal(t, 1, finals)

	assert.Equal(t, []string{brackets.MessageBracketUpdated}, f.notifier.types())
}

func TestConcurrentInitializeRunsOnce(t *testing.T) {
	f := newFixture(t)
	f.addFencers(t, 1, 9)
	f.addFencers(t, 2, 5)
	pool := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypePool, Order: 1, PoolCount: 3, PoolSize: 3})
	de := f.addRound(t, models.Round{EventID: 2, Type: models.RoundTypeDE, Order: 1})

	tests := []struct {
		name  string
		round *models.Round
		bouts int
	}{
		{"pool", pool, 9},
		{"de", de, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const callers = 16
			var wg sync.WaitGroup
			results := make([]*InitializeResult, callers)
			errs := make([]error, callers)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = f.rounds.Initialize(context.Background(), tt.round.ID)
				}(i)
			}
			wg.Wait()

			fresh := 0
			for i := range results {
				require.NoError(t, errs[i])
				if !results[i].AlreadyInitialized {
					fresh++
					assert.Equal(t, tt.bouts, results[i].BoutsCreated)
				}
			}
			assert.Equal(t, 1, fresh)
			assert.Len(t, f.listBouts(t, tt.round.ID), tt.bouts)
		})
	}
}

func TestReinitializePoolRoundAddsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addFencers(t, 1, 7)
	round := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypePool, Order: 1, PoolCount: 2, PoolSize: 4})

	first, err := f.rounds.Initialize(ctx, round.ID)
	require.NoError(t, err)
	assignments, err := f.store.Repos().Pools.ListByRound(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 7)
	bouts := f.listBouts(t, round.ID)
	require.Len(t, bouts, first.BoutsCreated)

	again, err := f.rounds.Initialize(ctx, round.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyInitialized)
	assert.Zero(t, again.BoutsCreated)

	after, err := f.store.Repos().Pools.ListByRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, assignments, after)
	assert.Equal(t, bouts, f.listBouts(t, round.ID))
}

func TestInitializeRejectsUnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	f.addFencers(t, 1, 4)
	round := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 1, DEFormat: models.DEFormatDouble})

	_, err := f.rounds.Initialize(context.Background(), round.ID)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, f.listBouts(t, round.ID))
	assert.False(t, f.getRound(t, round.ID).IsStarted)
}

func TestInitializeUnknownRound(t *testing.T) {
	f := newFixture(t)
	_, err := f.rounds.Initialize(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInitializeLoneEntrantCompletesRound(t *testing.T) {
	f := newFixture(t)
	fencers := f.addFencers(t, 1, 1)
	round := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 1})

	res, err := f.rounds.Initialize(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.BoutsCreated)
	assert.True(t, f.getRound(t, round.ID).IsComplete)

	view, err := f.rounds.GetBracket(context.Background(), round.ID)
	require.NoError(t, err)
	require.NotNil(t, view.ChampionID)
	assert.Equal(t, fencers[0].ID, *view.ChampionID)
}

func TestInitializeForcedTableSize(t *testing.T) {
	f := newFixture(t)
	f.addFencers(t, 1, 3)
	round := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 1, DETableSize: 8})

	res, err := f.rounds.Initialize(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, res.TableSize)
	assert.Equal(t, 7, res.BoutsCreated)
	assert.Equal(t, 4, res.ByesResolved)
}

func TestInitializeEmptyRound(t *testing.T) {
	f := newFixture(t)
	round := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 1})

	res, err := f.rounds.Initialize(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Zero(t, res.BoutsCreated)
	assert.Empty(t, res.Seeding)
}

func TestPoolRoundThenPromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fencers := f.addFencers(t, 1, 6)
	pools := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypePool, Order: 1, PoolCount: 2, PoolSize: 3, PromotionPercent: 50})
	de := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 2})

	res, err := f.rounds.Initialize(ctx, pools.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, res.BoutsCreated)
	require.Len(t, res.Pools, 2)

	views, err := f.rounds.GetPools(ctx, pools.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, fencers[0].ID, views[0].Members[0].Entrant.ID)
	assert.Equal(t, fencers[3].ID, views[0].Members[1].Entrant.ID)
	assert.Equal(t, fencers[1].ID, views[1].Members[0].Entrant.ID)
	assert.Len(t, views[0].Bouts, 3)
	assert.Len(t, views[0].FencingOrder, 3)

	// The left fencer wins every pool bout 5-2.
	bouts := f.listBouts(t, pools.ID)
	for i, b := range bouts {
		adv, err := f.bouts.ScoreBout(ctx, b.ID, 5, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, *b.LeftID, *adv.Bout.WinnerID)
		assert.Nil(t, adv.NextBout)
		assert.Equal(t, i == len(bouts)-1, adv.RoundComplete)
	}
	assert.True(t, f.getRound(t, pools.ID).IsComplete)

	ranked, err := f.seeding.CalculateFromResults(ctx, pools.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 6)
	assert.Equal(t, fencers[0].ID, ranked[0].EntrantID)
	assert.Equal(t, fencers[1].ID, ranked[1].EntrantID)

	stored, err := f.seeding.GetSeeding(ctx, pools.ID, models.SeedingResult)
	require.NoError(t, err)
	assert.Equal(t, seedIDs(ranked), seedIDs(stored))
	require.NotNil(t, stored[0].Entrant)

	deRes, err := f.rounds.Initialize(ctx, de.ID)
	require.NoError(t, err)
	// 50% of six fence on.
	require.Len(t, deRes.Seeding, 3)
	assert.Equal(t, seedIDs(ranked[:3]), seedIDs(deRes.Seeding))
	assert.Equal(t, 4, deRes.TableSize)
	assert.Equal(t, 1, deRes.ByesResolved)

	overview, err := f.rounds.GetRound(ctx, de.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, overview.Entrants)
	assert.Equal(t, 3, overview.Bouts)
	assert.Equal(t, 2, overview.UndecidedBouts)
}

func TestPromotionToTargetBracket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addFencers(t, 1, 5)
	target := 2
	first := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypePool, Order: 1, PoolCount: 1, PoolSize: 5, TargetBracket: &target})
	second := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 2})

	_, err := f.rounds.Initialize(ctx, first.ID)
	require.NoError(t, err)

	res, err := f.rounds.Initialize(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, res.Seeding, 2)
	assert.Equal(t, 2, res.TableSize)
}

func TestViewsCheckRoundType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addFencers(t, 1, 3)
	pool := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypePool, Order: 1, PoolCount: 1, PoolSize: 3})
	de := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypeDE, Order: 2})

	_, err := f.rounds.GetBracket(ctx, pool.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.rounds.GetPools(ctx, de.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.rounds.GetRound(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCalculateFromResultsNeedsInitializedRound(t *testing.T) {
	f := newFixture(t)
	round := f.addRound(t, models.Round{EventID: 1, Type: models.RoundTypePool, Order: 1, PoolSize: 5})

	_, err := f.seeding.CalculateFromResults(context.Background(), round.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.seeding.GetSeeding(context.Background(), round.ID, "final")
	assert.ErrorIs(t, err, ErrValidation)
}

func seedIDs(entries []*models.SeedingEntry) []int {
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.EntrantID
	}
	return ids
}
