package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/repositories"
)

// Notifier pushes round events to live followers. *brackets.Hub satisfies it.
type Notifier interface {
	NotifyRound(roundID int, messageType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) NotifyRound(int, string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func intPtr(v int) *int {
	return &v
}

// attachEntrants fills SeedingEntry.Entrant from a single batched lookup.
func attachEntrants(ctx context.Context, repo repositories.EntrantRepository, entries []*models.SeedingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.EntrantID
	}
	byID, err := entrantsByID(ctx, repo, ids)
	if err != nil {
		return err
	}
	for _, e := range entries {
		e.Entrant = byID[e.EntrantID]
	}
	return nil
}

func entrantsByID(ctx context.Context, repo repositories.EntrantRepository, ids []int) (map[int]*models.Entrant, error) {
	entrants, err := repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, handleRepositoryError(err, "list entrants")
	}
	byID := make(map[int]*models.Entrant, len(entrants))
	for _, e := range entrants {
		byID[e.ID] = e
	}
	return byID, nil
}
