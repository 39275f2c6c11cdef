package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/metrics"
	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/repositories"
)

// RelayView is a relay's state with its ledger. NextLeg is zero once the
// relay is complete.
type RelayView struct {
	State   *models.RelayState `json:"state"`
	Legs    []models.RelayLeg  `json:"legs"`
	NextLeg int                `json:"next_leg,omitempty"`
	Advance *AdvanceResult     `json:"advance,omitempty"`

	roundID int
}

type RelayService interface {
	Start(ctx context.Context, boutID int) (*RelayView, error)
	Get(ctx context.Context, boutID int) (*RelayView, error)
	RecordLeg(ctx context.Context, boutID, scoreA, scoreB int) (*RelayView, error)
	CorrectLeg(ctx context.Context, boutID, legNumber, scoreA, scoreB int) (*RelayView, error)
	ForceRotation(ctx context.Context, boutID, teamID, fencerID int) (*RelayView, error)
}

type relayService struct {
	store    repositories.Store
	notifier Notifier
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

func NewRelayService(store repositories.Store, notifier Notifier, rec *metrics.Recorder, logger *slog.Logger) RelayService {
	return &relayService{
		store:    store,
		notifier: notifierOrNop(notifier),
		metrics:  rec,
		logger:   loggerOrDefault(logger),
	}
}

func newRelayView(roundID int, m *brackets.RelayMachine) *RelayView {
	v := &RelayView{State: m.State, Legs: m.Ledger, roundID: roundID}
	if v.Legs == nil {
		v.Legs = []models.RelayLeg{}
	}
	if !m.State.Complete {
		v.NextLeg = m.State.LegsPlayed + 1
	}
	return v
}

// Start opens the relay of a team bout. Team A is the left entrant.
func (s *relayService) Start(ctx context.Context, boutID int) (*RelayView, error) {
	var view *RelayView
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		bout, err := repos.Bouts.GetForUpdate(ctx, boutID)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("load bout %d", boutID))
		}
		if bout.IsDecided() {
			return fmt.Errorf("%w: bout %d already has a winner", ErrInvalidState, boutID)
		}
		if bout.LeftID == nil || bout.RightID == nil {
			return fmt.Errorf("%w: bout %d is still waiting for an opponent", ErrInvalidState, boutID)
		}

		byID, err := entrantsByID(ctx, repos.Entrants, []int{*bout.LeftID, *bout.RightID})
		if err != nil {
			return err
		}
		teamA, teamB := byID[*bout.LeftID], byID[*bout.RightID]
		if !teamA.IsTeam() || !teamB.IsTeam() {
			return fmt.Errorf("%w: bout %d is not between two teams", ErrValidation, boutID)
		}

		state, err := brackets.NewRelayState(bout.ID, teamA, teamB)
		if err != nil {
			return err
		}
		if err := repos.Relays.CreateState(ctx, state); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("create relay for bout %d", boutID))
		}
		view = newRelayView(bout.RoundID, brackets.NewRelayMachine(state, nil))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("relay started", "bout_id", boutID, "team_a", view.State.TeamA, "team_b", view.State.TeamB)
	s.notifier.NotifyRound(view.roundID, brackets.MessageRelayUpdated, view)
	return view, nil
}

func (s *relayService) Get(ctx context.Context, boutID int) (*RelayView, error) {
	repos := s.store.Repos()
	bout, m, err := loadRelay(ctx, repos, boutID, false)
	if err != nil {
		return nil, err
	}
	return newRelayView(bout.RoundID, m), nil
}

func (s *relayService) RecordLeg(ctx context.Context, boutID, scoreA, scoreB int) (*RelayView, error) {
	return s.mutate(ctx, boutID, func(ctx context.Context, repos repositories.Repositories, m *brackets.RelayMachine) error {
		leg, err := m.RecordLeg(scoreA, scoreB)
		if err != nil {
			return err
		}
		if err := repos.Relays.AppendLeg(ctx, &leg); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("append leg %d of bout %d", leg.LegNumber, boutID))
		}
		s.metrics.RelayLegRecorded()
		return nil
	})
}

func (s *relayService) CorrectLeg(ctx context.Context, boutID, legNumber, scoreA, scoreB int) (*RelayView, error) {
	return s.mutate(ctx, boutID, func(ctx context.Context, repos repositories.Repositories, m *brackets.RelayMachine) error {
		leg, err := m.CorrectLeg(legNumber, scoreA, scoreB)
		if err != nil {
			return err
		}
		if err := repos.Relays.UpdateLeg(ctx, &leg); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("update leg %d of bout %d", legNumber, boutID))
		}
		return nil
	})
}

func (s *relayService) ForceRotation(ctx context.Context, boutID, teamID, fencerID int) (*RelayView, error) {
	return s.mutate(ctx, boutID, func(_ context.Context, _ repositories.Repositories, m *brackets.RelayMachine) error {
		return m.ForceRotation(teamID, fencerID)
	})
}

// mutate loads the relay under the bout lock, applies fn, saves the state and
// settles the team bout when the relay has just completed.
func (s *relayService) mutate(ctx context.Context, boutID int, fn func(context.Context, repositories.Repositories, *brackets.RelayMachine) error) (*RelayView, error) {
	var (
		view      *RelayView
		completed bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		bout, m, err := loadRelay(ctx, repos, boutID, true)
		if err != nil {
			return err
		}
		// The bout may have been decided directly while the relay was open.
		if bout.IsDecided() && !m.State.Complete {
			return fmt.Errorf("%w: bout %d was decided outside its relay", ErrInvalidState, boutID)
		}
		wasComplete := m.State.Complete
		if err := fn(ctx, repos, m); err != nil {
			return err
		}
		if err := repos.Relays.UpdateState(ctx, m.State); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("save relay of bout %d", boutID))
		}
		view = newRelayView(bout.RoundID, m)

		if wasComplete || !m.State.Complete {
			return nil
		}
		completed = true
		if err := repos.Bouts.SetScores(ctx, bout.ID, m.State.ScoreA, m.State.ScoreB); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("set scores of bout %d", boutID))
		}
		if m.State.WinnerID == nil {
			return nil
		}
		view.Advance, err = advanceWithin(ctx, repos, bout.ID, *m.State.WinnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRound(view.roundID, brackets.MessageRelayUpdated, view)
	if completed {
		s.metrics.RelayCompleted(view.State.WinnerID != nil)
		if view.State.WinnerID == nil {
			s.logger.Warn("relay tied after the last leg, bout left undecided",
				"bout_id", boutID, "score_a", view.State.ScoreA, "score_b", view.State.ScoreB)
		} else {
			s.logger.Info("relay completed",
				"bout_id", boutID, "winner_id", *view.State.WinnerID,
				"score_a", view.State.ScoreA, "score_b", view.State.ScoreB)
		}
	}
	if view.Advance != nil {
		publishAdvance(s.notifier, s.metrics, s.logger, view.Advance)
	}
	return view, nil
}

func loadRelay(ctx context.Context, repos repositories.Repositories, boutID int, forUpdate bool) (*models.Bout, *brackets.RelayMachine, error) {
	var (
		bout *models.Bout
		err  error
	)
	if forUpdate {
		bout, err = repos.Bouts.GetForUpdate(ctx, boutID)
	} else {
		bout, err = repos.Bouts.GetByID(ctx, boutID)
	}
	if err != nil {
		return nil, nil, handleRepositoryError(err, fmt.Sprintf("load bout %d", boutID))
	}
	state, err := repos.Relays.GetState(ctx, boutID)
	if err != nil {
		return nil, nil, handleRepositoryError(err, fmt.Sprintf("load relay of bout %d", boutID))
	}
	legs, err := repos.Relays.ListLegs(ctx, boutID)
	if err != nil {
		return nil, nil, handleRepositoryError(err, fmt.Sprintf("load legs of bout %d", boutID))
	}
	return bout, brackets.NewRelayMachine(state, legs), nil
}
