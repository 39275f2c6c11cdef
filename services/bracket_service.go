package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/metrics"
	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/repositories"
)

// AdvanceResult describes what recording a winner changed.
type AdvanceResult struct {
	Bout          *models.Bout `json:"bout"`
	NextBout      *models.Bout `json:"next_bout,omitempty"`
	Slot          models.Slot  `json:"slot,omitempty"`
	RoundComplete bool         `json:"round_complete"`

	roundType models.RoundType
}

type BracketService interface {
	// Advance records winnerID for the bout and moves the winner along its
	// bracket link.
	Advance(ctx context.Context, boutID, winnerID int) (*AdvanceResult, error)
}

type bracketService struct {
	store    repositories.Store
	notifier Notifier
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

func NewBracketService(store repositories.Store, notifier Notifier, rec *metrics.Recorder, logger *slog.Logger) BracketService {
	return &bracketService{
		store:    store,
		notifier: notifierOrNop(notifier),
		metrics:  rec,
		logger:   loggerOrDefault(logger),
	}
}

func (s *bracketService) Advance(ctx context.Context, boutID, winnerID int) (*AdvanceResult, error) {
	var res *AdvanceResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		var err error
		res, err = advanceWithin(ctx, repos, boutID, winnerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	publishAdvance(s.notifier, s.metrics, s.logger, res)
	return res, nil
}

// advanceWithin is the single place a bout gets its winner. It runs inside
// the caller's transaction so scoring and relay completion stay atomic with
// the advance.
func advanceWithin(ctx context.Context, repos repositories.Repositories, boutID, winnerID int) (*AdvanceResult, error) {
	bout, err := repos.Bouts.GetForUpdate(ctx, boutID)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("load bout %d", boutID))
	}
	if bout.IsDecided() {
		return nil, fmt.Errorf("%w: bout %d already has a winner", ErrInvalidState, boutID)
	}
	if bout.LeftID == nil || bout.RightID == nil {
		return nil, fmt.Errorf("%w: bout %d is still waiting for an opponent", ErrInvalidState, boutID)
	}
	if !bout.HasEntrant(winnerID) {
		return nil, fmt.Errorf("%w: entrant %d is not in bout %d", ErrValidation, winnerID, boutID)
	}

	if err := repos.Bouts.SetWinner(ctx, bout.ID, winnerID); err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("set winner of bout %d", boutID))
	}
	bout.WinnerID = intPtr(winnerID)

	round, err := repos.Rounds.GetByID(ctx, bout.RoundID)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("load round %d", bout.RoundID))
	}
	res := &AdvanceResult{Bout: bout, roundType: round.Type}

	link, err := repos.Links.GetByBout(ctx, bout.ID)
	switch {
	case errors.Is(err, repositories.ErrLinkNotFound):
		// Pool bouts carry no link; the round closes with its last bout.
		undecided, err := repos.Bouts.CountUndecided(ctx, round.ID)
		if err != nil {
			return nil, handleRepositoryError(err, fmt.Sprintf("count open bouts of round %d", round.ID))
		}
		if undecided == 0 {
			if err := markComplete(ctx, repos, round); err != nil {
				return nil, err
			}
			res.RoundComplete = true
		}
	case err != nil:
		return nil, handleRepositoryError(err, fmt.Sprintf("load link of bout %d", boutID))
	case link.NextBoutID == nil:
		if err := markComplete(ctx, repos, round); err != nil {
			return nil, err
		}
		res.RoundComplete = true
	default:
		slot := brackets.SlotForOrder(link.Order)
		if err := repos.Bouts.SetSlot(ctx, *link.NextBoutID, slot, winnerID); err != nil {
			return nil, handleRepositoryError(err, fmt.Sprintf("place winner into bout %d", *link.NextBoutID))
		}
		next, err := repos.Bouts.GetByID(ctx, *link.NextBoutID)
		if err != nil {
			return nil, handleRepositoryError(err, fmt.Sprintf("load bout %d", *link.NextBoutID))
		}
		res.NextBout, res.Slot = next, slot
	}
	return res, nil
}

func markComplete(ctx context.Context, repos repositories.Repositories, round *models.Round) error {
	if round.IsComplete {
		return nil
	}
	if err := repos.Rounds.MarkComplete(ctx, round.ID); err != nil {
		return handleRepositoryError(err, fmt.Sprintf("complete round %d", round.ID))
	}
	round.IsComplete = true
	return nil
}

func publishAdvance(n Notifier, rec *metrics.Recorder, logger *slog.Logger, res *AdvanceResult) {
	if res == nil {
		return
	}
	kind := "bracket"
	if res.Bout.PoolID != nil {
		kind = "pool"
	}
	rec.BoutAdvanced(kind)
	logger.Info("bout advanced",
		"bout_id", res.Bout.ID,
		"round_id", res.Bout.RoundID,
		"winner_id", *res.Bout.WinnerID,
		"kind", kind,
	)
	n.NotifyRound(res.Bout.RoundID, brackets.MessageBoutAdvanced, res)
	if res.RoundComplete {
		rec.RoundCompleted(string(res.roundType))
		logger.Info("round complete", "round_id", res.Bout.RoundID)
		n.NotifyRound(res.Bout.RoundID, brackets.MessageRoundComplete, map[string]int{"round_id": res.Bout.RoundID})
	}
}
