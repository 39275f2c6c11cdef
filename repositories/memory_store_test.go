package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRound(t *testing.T, s *MemoryStore, order int) *models.Round {
	t.Helper()
	r := &models.Round{EventID: 1, Kind: models.EntrantIndividual, Type: models.RoundTypeDE, Order: order}
	require.NoError(t, s.Repos().Rounds.Create(context.Background(), r))
	return r
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	round := newRound(t, s, 1)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		require.NoError(t, repos.Rounds.MarkStarted(ctx, round.ID))
		require.NoError(t, repos.Bouts.Create(ctx, &models.Bout{RoundID: round.ID, TableOf: 2}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Repos().Rounds.GetByID(ctx, round.ID)
	require.NoError(t, err)
	assert.False(t, got.IsStarted)
	n, err := s.Repos().Bouts.CountByRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithinTxCommits(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	round := newRound(t, s, 1)

	err := s.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		return repos.Rounds.SetTableSize(ctx, round.ID, 16)
	})
	require.NoError(t, err)

	got, err := s.Repos().Rounds.GetByID(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, got.DETableSize)
}

func TestWithinTxCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(context.Context, Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRoundOrderIsUniquePerEvent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	first := newRound(t, s, 1)
	second := newRound(t, s, 2)

	err := s.Repos().Rounds.Create(ctx, &models.Round{EventID: 1, Order: 1})
	assert.ErrorIs(t, err, ErrRoundOrderTaken)

	prev, err := s.Repos().Rounds.GetPrevious(ctx, 1, second.Order)
	require.NoError(t, err)
	assert.Equal(t, first.ID, prev.ID)

	_, err = s.Repos().Rounds.GetPrevious(ctx, 1, first.Order)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestBoutGuards(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	repos := s.Repos()
	round := newRound(t, s, 1)

	left, right := 10, 20
	bout := &models.Bout{RoundID: round.ID, LeftID: &left, RightID: &right, TableOf: 2}
	require.NoError(t, repos.Bouts.Create(ctx, bout))

	require.NoError(t, repos.Bouts.SetWinner(ctx, bout.ID, left))
	assert.ErrorIs(t, repos.Bouts.SetWinner(ctx, bout.ID, right), ErrBoutAlreadyDecided)

	assert.NoError(t, repos.Bouts.SetSlot(ctx, bout.ID, models.SlotLeft, left))
	assert.ErrorIs(t, repos.Bouts.SetSlot(ctx, bout.ID, models.SlotRight, 30), ErrSlotOccupied)

	assert.ErrorIs(t, repos.Bouts.Create(ctx, &models.Bout{RoundID: 999}), ErrInvalidReference)
	_, err := repos.Bouts.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrBoutNotFound)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	e := &models.Entrant{EventID: 1, Kind: models.EntrantTeam, Starters: []int{1, 2, 3}}
	require.NoError(t, s.Repos().Entrants.Create(ctx, e))
	assert.Equal(t, models.RatingUnrated, e.Rating)

	got, err := s.Repos().Entrants.GetByID(ctx, e.ID)
	require.NoError(t, err)
	got.Starters[0] = 99

	again, err := s.Repos().Entrants.GetByID(ctx, e.ID)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{1, 2, 3}, again.Starters); diff != "" {
		t.Errorf("stored starters changed (-want +got):\n%s", diff)
	}
}

func TestSeedingReplace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	repos := s.Repos()
	round := newRound(t, s, 1)

	err := repos.Seeding.Replace(ctx, round.ID, models.SeedingInitial, []*models.SeedingEntry{
		{EntrantID: 7, Seed: 2},
		{EntrantID: 5, Seed: 1},
	})
	require.NoError(t, err)

	got, err := repos.Seeding.ListByRound(ctx, round.ID, models.SeedingInitial)
	require.NoError(t, err)
	want := []*models.SeedingEntry{
		{RoundID: round.ID, EntrantID: 5, Seed: 1},
		{RoundID: round.ID, EntrantID: 7, Seed: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("seeding mismatch (-want +got):\n%s", diff)
	}

	err = repos.Seeding.Replace(ctx, round.ID, models.SeedingInitial, []*models.SeedingEntry{
		{EntrantID: 5, Seed: 1},
		{EntrantID: 6, Seed: 1},
	})
	assert.ErrorIs(t, err, ErrSeedConflict)

	result, err := repos.Seeding.ListByRound(ctx, round.ID, models.SeedingResult)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRelayLedger(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	repos := s.Repos()
	round := newRound(t, s, 1)
	bout := &models.Bout{RoundID: round.ID, TableOf: 2}
	require.NoError(t, repos.Bouts.Create(ctx, bout))

	require.NoError(t, repos.Relays.CreateState(ctx, &models.RelayState{TeamBoutID: bout.ID, TeamA: 1, TeamB: 2}))
	assert.ErrorIs(t, repos.Relays.CreateState(ctx, &models.RelayState{TeamBoutID: bout.ID}), ErrRelayExists)

	require.NoError(t, repos.Relays.AppendLeg(ctx, &models.RelayLeg{TeamBoutID: bout.ID, LegNumber: 2, ScoreA: 1}))
	require.NoError(t, repos.Relays.AppendLeg(ctx, &models.RelayLeg{TeamBoutID: bout.ID, LegNumber: 1, ScoreA: 5}))
	assert.ErrorIs(t, repos.Relays.AppendLeg(ctx, &models.RelayLeg{TeamBoutID: bout.ID, LegNumber: 1}), ErrLegExists)

	require.NoError(t, repos.Relays.UpdateLeg(ctx, &models.RelayLeg{TeamBoutID: bout.ID, LegNumber: 2, ScoreA: 4, ScoreB: 3}))
	assert.ErrorIs(t, repos.Relays.UpdateLeg(ctx, &models.RelayLeg{TeamBoutID: bout.ID, LegNumber: 9}), ErrRelayLegNotFound)

	legs, err := repos.Relays.ListLegs(ctx, bout.ID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, 1, legs[0].LegNumber)
	assert.Equal(t, 4, legs[1].ScoreA)
	assert.Equal(t, 3, legs[1].ScoreB)
}
