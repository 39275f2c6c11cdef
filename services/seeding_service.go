package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/repositories"
)

type SeedingService interface {
	// CalculateFromResults ranks the round's entrants by their decided bouts
	// and stores the outcome as the round's result seeding.
	CalculateFromResults(ctx context.Context, roundID int) ([]*models.SeedingEntry, error)
	GetSeeding(ctx context.Context, roundID int, kind models.SeedingKind) ([]*models.SeedingEntry, error)
}

type seedingService struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewSeedingService(store repositories.Store, logger *slog.Logger) SeedingService {
	return &seedingService{store: store, logger: loggerOrDefault(logger)}
}

func (s *seedingService) CalculateFromResults(ctx context.Context, roundID int) ([]*models.SeedingEntry, error) {
	var ranked []*models.SeedingEntry
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		round, err := repos.Rounds.GetByID(ctx, roundID)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("load round %d", roundID))
		}
		ranked, err = rankRoundResults(ctx, repos, round)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("result seeding calculated", "round_id", roundID, "entrants", len(ranked))
	return ranked, nil
}

func (s *seedingService) GetSeeding(ctx context.Context, roundID int, kind models.SeedingKind) ([]*models.SeedingEntry, error) {
	if kind != models.SeedingInitial && kind != models.SeedingResult {
		return nil, fmt.Errorf("%w: unknown seeding kind %q", ErrValidation, kind)
	}
	repos := s.store.Repos()
	if _, err := repos.Rounds.GetByID(ctx, roundID); err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("load round %d", roundID))
	}
	entries, err := repos.Seeding.ListByRound(ctx, roundID, kind)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("list seeding of round %d", roundID))
	}
	if err := attachEntrants(ctx, repos.Entrants, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// rankRoundResults ranks the entrants a round started with by the round's
// decided bouts and replaces its result seeding.
func rankRoundResults(ctx context.Context, repos repositories.Repositories, round *models.Round) ([]*models.SeedingEntry, error) {
	initial, err := repos.Seeding.ListByRound(ctx, round.ID, models.SeedingInitial)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("list seeding of round %d", round.ID))
	}
	if len(initial) == 0 && !round.IsStarted {
		return nil, fmt.Errorf("%w: round %d has not been initialized", ErrInvalidState, round.ID)
	}
	if err := attachEntrants(ctx, repos.Entrants, initial); err != nil {
		return nil, err
	}
	entrants := make([]*models.Entrant, 0, len(initial))
	for _, e := range initial {
		if e.Entrant != nil {
			entrants = append(entrants, e.Entrant)
		}
	}

	stats, err := repos.Bouts.CompletedStats(ctx, round.ID)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("load bout stats of round %d", round.ID))
	}
	ranked := brackets.Rank(round.ID, entrants, stats)
	if err := repos.Seeding.Replace(ctx, round.ID, models.SeedingResult, ranked); err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("save result seeding of round %d", round.ID))
	}
	return ranked, nil
}
