package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

type postgresPoolRepository struct {
	exec SQLExecutor
}

func NewPostgresPoolRepository(exec SQLExecutor) PoolRepository {
	return &postgresPoolRepository{exec: exec}
}

func (r *postgresPoolRepository) CreateAssignment(ctx context.Context, a *models.PoolAssignment) error {
	query := `INSERT INTO pool_assignments (round_id, pool_id, entrant_id, position) VALUES ($1, $2, $3, $4)`
	_, err := r.exec.ExecContext(ctx, query, a.RoundID, a.PoolID, a.EntrantID, a.Position)
	return mapPQError(err, "create pool assignment")
}

func (r *postgresPoolRepository) ListByRound(ctx context.Context, roundID int) ([]*models.PoolAssignment, error) {
	query := `
		SELECT round_id, pool_id, entrant_id, position
		FROM pool_assignments
		WHERE round_id = $1
		ORDER BY pool_id, position`
	rows, err := r.exec.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pool assignments of round %d: %w", roundID, err)
	}
	defer rows.Close()

	out := make([]*models.PoolAssignment, 0)
	for rows.Next() {
		var a models.PoolAssignment
		if err := rows.Scan(&a.RoundID, &a.PoolID, &a.EntrantID, &a.Position); err != nil {
			return nil, fmt.Errorf("failed to scan pool assignment row: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pool assignment rows iteration: %w", err)
	}
	return out, nil
}
