package services

import (
	"context"
	"testing"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// teamFinal builds a team DE round with two teams, which yields a single final.
func teamFinal(t *testing.T, f *fixture) (teamA, teamB *models.Entrant, bout *models.Bout) {
	t.Helper()
	teamA = f.addTeam(t, 1, 11, 12, 13)
	teamB = f.addTeam(t, 1, 21, 22, 23)
	round := f.addRound(t, models.Round{EventID: 1, Kind: models.EntrantTeam, Type: models.RoundTypeDE, Order: 1})
	res, err := f.rounds.Initialize(context.Background(), round.ID)
	require.NoError(t, err)
	require.Equal(t, 2, res.TableSize)
	bouts := f.listBouts(t, round.ID)
	require.Len(t, bouts, 1)
	return teamA, teamB, bouts[0]
}

func TestRelayWonAtTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teamA, _, bout := teamFinal(t, f)

	view, err := f.relays.Start(ctx, bout.ID)
	require.NoError(t, err)
	assert.Equal(t, teamA.ID, view.State.TeamA)
	assert.Equal(t, 13, view.State.CurrentFencerA)
	assert.Equal(t, 23, view.State.CurrentFencerB)
	assert.Equal(t, 1, view.NextLeg)
	assert.Empty(t, view.Legs)

	_, err = f.relays.Start(ctx, bout.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	for leg := 1; leg <= 9; leg++ {
		view, err = f.relays.RecordLeg(ctx, bout.ID, 5, 0)
		require.NoError(t, err)
		if leg < 9 {
			assert.False(t, view.State.Complete)
			assert.Nil(t, view.Advance)
		}
	}
	assert.True(t, view.State.Complete)
	assert.Equal(t, 45, view.State.ScoreA)
	assert.Zero(t, view.NextLeg)
	require.NotNil(t, view.State.WinnerID)
	assert.Equal(t, teamA.ID, *view.State.WinnerID)
	require.NotNil(t, view.Advance)
	assert.True(t, view.Advance.RoundComplete)

	stored := f.listBouts(t, bout.RoundID)[0]
	assert.Equal(t, teamA.ID, *stored.WinnerID)
	assert.Equal(t, 45, stored.LeftScore)
	assert.Equal(t, 0, stored.RightScore)
	assert.True(t, f.getRound(t, bout.RoundID).IsComplete)

	_, err = f.relays.RecordLeg(ctx, bout.ID, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRelayTiedAfterLastLeg(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, bout := teamFinal(t, f)

	_, err := f.relays.Start(ctx, bout.ID)
	require.NoError(t, err)
	var view *RelayView
	for leg := 1; leg <= 9; leg++ {
		view, err = f.relays.RecordLeg(ctx, bout.ID, 3, 3)
		require.NoError(t, err)
	}
	assert.True(t, view.State.Complete)
	assert.Nil(t, view.State.WinnerID)
	assert.Nil(t, view.Advance)

	stored := f.listBouts(t, bout.RoundID)[0]
	assert.False(t, stored.IsDecided())
	assert.Equal(t, 27, stored.LeftScore)
	assert.Equal(t, 27, stored.RightScore)
	assert.False(t, f.getRound(t, bout.RoundID).IsComplete)

	_, err = f.relays.RecordLeg(ctx, bout.ID, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRelayCorrectionAndRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teamA, teamB, bout := teamFinal(t, f)

	_, err := f.relays.Start(ctx, bout.ID)
	require.NoError(t, err)
	_, err = f.relays.RecordLeg(ctx, bout.ID, 4, 5)
	require.NoError(t, err)
	_, err = f.relays.RecordLeg(ctx, bout.ID, 6, 2)
	require.NoError(t, err)

	view, err := f.relays.CorrectLeg(ctx, bout.ID, 1, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 11, view.State.ScoreA)
	assert.Equal(t, 7, view.State.ScoreB)
	assert.Equal(t, 5, view.Legs[0].ScoreA)

	_, err = f.relays.CorrectLeg(ctx, bout.ID, 3, 1, 1)
	assert.ErrorIs(t, err, ErrValidation)

	view, err = f.relays.ForceRotation(ctx, bout.ID, teamB.ID, 21)
	require.NoError(t, err)
	assert.Equal(t, 21, view.State.CurrentFencerB)
	assert.Equal(t, 2, view.State.LegsPlayed)

	_, err = f.relays.ForceRotation(ctx, bout.ID, teamA.ID, 21)
	assert.ErrorIs(t, err, ErrValidation)

	got, err := f.relays.Get(ctx, bout.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, got.State.CurrentFencerB)
	assert.Len(t, got.Legs, 2)
	assert.Equal(t, 3, got.NextLeg)
}

func TestRelayNeedsTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, bouts := fourFencerBracket(t, f)

	_, err := f.relays.Start(ctx, bouts[0].ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.relays.Start(ctx, bouts[2].ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.relays.Get(ctx, bouts[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelayClosedWhenBoutDecidedDirectly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teamA, teamB, bout := teamFinal(t, f)

	_, err := f.relays.Start(ctx, bout.ID)
	require.NoError(t, err)
	_, err = f.relays.RecordLeg(ctx, bout.ID, 5, 4)
	require.NoError(t, err)

	_, err = f.bracket.Advance(ctx, bout.ID, teamA.ID)
	require.NoError(t, err)

	_, err = f.relays.RecordLeg(ctx, bout.ID, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.relays.CorrectLeg(ctx, bout.ID, 1, 5, 5)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.relays.ForceRotation(ctx, bout.ID, teamB.ID, 21)
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err := f.relays.Get(ctx, bout.ID)
	require.NoError(t, err)
	assert.Len(t, got.Legs, 1)
	assert.Equal(t, 5, got.State.ScoreA)
	assert.Equal(t, teamA.ID, *f.listBouts(t, bout.RoundID)[0].WinnerID)
}
