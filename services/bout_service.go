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

type BoutService interface {
	// ScoreBout records the touches of both sides and advances the winner.
	// The winner follows the score; on level scores it must be named.
	ScoreBout(ctx context.Context, boutID, leftScore, rightScore int, winnerID *int) (*AdvanceResult, error)
}

type boutService struct {
	store    repositories.Store
	notifier Notifier
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

func NewBoutService(store repositories.Store, notifier Notifier, rec *metrics.Recorder, logger *slog.Logger) BoutService {
	return &boutService{
		store:    store,
		notifier: notifierOrNop(notifier),
		metrics:  rec,
		logger:   loggerOrDefault(logger),
	}
}

func (s *boutService) ScoreBout(ctx context.Context, boutID, leftScore, rightScore int, winnerID *int) (*AdvanceResult, error) {
	if leftScore < 0 || rightScore < 0 {
		return nil, fmt.Errorf("%w: scores must not be negative", ErrValidation)
	}

	var res *AdvanceResult
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

		winner, err := resolveWinner(bout, leftScore, rightScore, winnerID)
		if err != nil {
			return err
		}
		if err := repos.Bouts.SetScores(ctx, boutID, leftScore, rightScore); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("set scores of bout %d", boutID))
		}
		res, err = advanceWithin(ctx, repos, boutID, winner)
		if err != nil {
			return err
		}
		res.Bout.LeftScore, res.Bout.RightScore = leftScore, rightScore
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRound(res.Bout.RoundID, brackets.MessageBoutScored, res.Bout)
	publishAdvance(s.notifier, s.metrics, s.logger, res)
	return res, nil
}

func resolveWinner(bout *models.Bout, leftScore, rightScore int, named *int) (int, error) {
	if named != nil && !bout.HasEntrant(*named) {
		return 0, fmt.Errorf("%w: entrant %d is not in bout %d", ErrValidation, *named, bout.ID)
	}
	var byScore int
	switch {
	case leftScore > rightScore:
		byScore = *bout.LeftID
	case rightScore > leftScore:
		byScore = *bout.RightID
	default:
		if named == nil {
			return 0, fmt.Errorf("%w: bout %d is level at %d", ErrTieNeedsWinner, bout.ID, leftScore)
		}
		return *named, nil
	}
	if named != nil && *named != byScore {
		return 0, fmt.Errorf("%w: entrant %d cannot win bout %d on a %d-%d score", ErrValidation, *named, bout.ID, leftScore, rightScore)
	}
	return byScore, nil
}
