package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

type postgresSeedingRepository struct {
	exec SQLExecutor
}

func NewPostgresSeedingRepository(exec SQLExecutor) SeedingRepository {
	return &postgresSeedingRepository{exec: exec}
}

// Replace is not atomic on its own; callers run it inside a transaction.
func (r *postgresSeedingRepository) Replace(ctx context.Context, roundID int, kind models.SeedingKind, entries []*models.SeedingEntry) error {
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM seedings WHERE round_id = $1 AND kind = $2`, roundID, kind); err != nil {
		return fmt.Errorf("failed to clear %s seeding of round %d: %w", kind, roundID, err)
	}
	query := `INSERT INTO seedings (round_id, kind, entrant_id, seed) VALUES ($1, $2, $3, $4)`
	for _, e := range entries {
		if _, err := r.exec.ExecContext(ctx, query, roundID, kind, e.EntrantID, e.Seed); err != nil {
			return mapPQError(err, fmt.Sprintf("insert seed %d of round %d", e.Seed, roundID))
		}
	}
	return nil
}

func (r *postgresSeedingRepository) ListByRound(ctx context.Context, roundID int, kind models.SeedingKind) ([]*models.SeedingEntry, error) {
	query := `SELECT round_id, entrant_id, seed FROM seedings WHERE round_id = $1 AND kind = $2 ORDER BY seed`
	rows, err := r.exec.QueryContext(ctx, query, roundID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query seeding of round %d: %w", roundID, err)
	}
	defer rows.Close()

	entries := make([]*models.SeedingEntry, 0)
	for rows.Next() {
		var e models.SeedingEntry
		if err := rows.Scan(&e.RoundID, &e.EntrantID, &e.Seed); err != nil {
			return nil, fmt.Errorf("failed to scan seeding row: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during seeding rows iteration: %w", err)
	}
	return entries, nil
}
