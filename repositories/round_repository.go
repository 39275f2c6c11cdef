package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

type postgresRoundRepository struct {
	exec SQLExecutor
}

func NewPostgresRoundRepository(exec SQLExecutor) RoundRepository {
	return &postgresRoundRepository{exec: exec}
}

const roundColumns = `id, event_id, kind, type, rorder, pool_count, pool_size, promotion_percent,
	target_bracket, de_format, de_table_size, is_started, is_complete`

func scanRound(row interface{ Scan(...interface{}) error }) (*models.Round, error) {
	var rd models.Round
	var target sql.NullInt64
	err := row.Scan(
		&rd.ID,
		&rd.EventID,
		&rd.Kind,
		&rd.Type,
		&rd.Order,
		&rd.PoolCount,
		&rd.PoolSize,
		&rd.PromotionPercent,
		&target,
		&rd.DEFormat,
		&rd.DETableSize,
		&rd.IsStarted,
		&rd.IsComplete,
	)
	if err != nil {
		return nil, err
	}
	if target.Valid {
		t := int(target.Int64)
		rd.TargetBracket = &t
	}
	return &rd, nil
}

func (r *postgresRoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (event_id, kind, type, rorder, pool_count, pool_size, promotion_percent,
		                    target_bracket, de_format, de_table_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.exec.QueryRowContext(ctx, query,
		round.EventID,
		round.Kind,
		round.Type,
		round.Order,
		round.PoolCount,
		round.PoolSize,
		round.PromotionPercent,
		round.TargetBracket,
		round.DEFormat,
		round.DETableSize,
	).Scan(&round.ID)
	return mapPQError(err, "create round")
}

func (r *postgresRoundRepository) get(ctx context.Context, query string, id int) (*models.Round, error) {
	rd, err := scanRound(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round %d: %w", id, err)
	}
	return rd, nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	return r.get(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id)
}

func (r *postgresRoundRepository) GetForUpdate(ctx context.Context, id int) (*models.Round, error) {
	return r.get(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRoundRepository) GetPrevious(ctx context.Context, eventID, order int) (*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE event_id = $1 AND rorder < $2
		ORDER BY rorder DESC
		LIMIT 1`
	rd, err := scanRound(r.exec.QueryRowContext(ctx, query, eventID, order))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan previous round of event %d: %w", eventID, err)
	}
	return rd, nil
}

func (r *postgresRoundRepository) SetTableSize(ctx context.Context, id, tableSize int) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE rounds SET de_table_size = $1 WHERE id = $2`, tableSize, id)
	if err != nil {
		return fmt.Errorf("failed to set table size of round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) MarkStarted(ctx context.Context, id int) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE rounds SET is_started = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark round %d started: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) MarkComplete(ctx context.Context, id int) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE rounds SET is_complete = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark round %d complete: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}
