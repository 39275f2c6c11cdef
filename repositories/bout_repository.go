package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

type postgresBoutRepository struct {
	exec SQLExecutor
}

func NewPostgresBoutRepository(exec SQLExecutor) BoutRepository {
	return &postgresBoutRepository{exec: exec}
}

const boutColumns = `id, round_id, left_entrant_id, right_entrant_id, winner_id, left_score, right_score,
	table_of, pool_id, created_at`

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func scanBout(row interface{ Scan(...interface{}) error }) (*models.Bout, error) {
	var b models.Bout
	var left, right, winner, pool sql.NullInt64
	err := row.Scan(
		&b.ID,
		&b.RoundID,
		&left,
		&right,
		&winner,
		&b.LeftScore,
		&b.RightScore,
		&b.TableOf,
		&pool,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.LeftID, b.RightID, b.WinnerID, b.PoolID = nullIntPtr(left), nullIntPtr(right), nullIntPtr(winner), nullIntPtr(pool)
	return &b, nil
}

func (r *postgresBoutRepository) Create(ctx context.Context, b *models.Bout) error {
	query := `
		INSERT INTO bouts (round_id, left_entrant_id, right_entrant_id, winner_id, left_score, right_score, table_of, pool_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := r.exec.QueryRowContext(ctx, query,
		b.RoundID,
		b.LeftID,
		b.RightID,
		b.WinnerID,
		b.LeftScore,
		b.RightScore,
		b.TableOf,
		b.PoolID,
	).Scan(&b.ID, &b.CreatedAt)
	return mapPQError(err, "create bout")
}

func (r *postgresBoutRepository) get(ctx context.Context, query string, id int) (*models.Bout, error) {
	b, err := scanBout(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBoutNotFound
		}
		return nil, fmt.Errorf("failed to scan bout %d: %w", id, err)
	}
	return b, nil
}

func (r *postgresBoutRepository) GetByID(ctx context.Context, id int) (*models.Bout, error) {
	return r.get(ctx, `SELECT `+boutColumns+` FROM bouts WHERE id = $1`, id)
}

func (r *postgresBoutRepository) GetForUpdate(ctx context.Context, id int) (*models.Bout, error) {
	return r.get(ctx, `SELECT `+boutColumns+` FROM bouts WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresBoutRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Bout, error) {
	query := `SELECT ` + boutColumns + ` FROM bouts WHERE round_id = $1 ORDER BY id`
	rows, err := r.exec.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bouts of round %d: %w", roundID, err)
	}
	defer rows.Close()

	bouts := make([]*models.Bout, 0)
	for rows.Next() {
		b, err := scanBout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bout row: %w", err)
		}
		bouts = append(bouts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bout rows iteration: %w", err)
	}
	return bouts, nil
}

func (r *postgresBoutRepository) count(ctx context.Context, query string, roundID int) (int, error) {
	var n int
	if err := r.exec.QueryRowContext(ctx, query, roundID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bouts of round %d: %w", roundID, err)
	}
	return n, nil
}

func (r *postgresBoutRepository) CountByRound(ctx context.Context, roundID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bouts WHERE round_id = $1`, roundID)
}

func (r *postgresBoutRepository) CountUndecided(ctx context.Context, roundID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bouts WHERE round_id = $1 AND winner_id IS NULL`, roundID)
}

func (r *postgresBoutRepository) exists(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := r.exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bouts WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check bout %d: %w", id, err)
	}
	return ok, nil
}

// guardedUpdate runs an update whose WHERE clause also encodes a state check.
// No affected rows means either a missing bout or a failed check.
func (r *postgresBoutRepository) guardedUpdate(ctx context.Context, id int, conflict error, query string, args ...interface{}) error {
	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("update bout %d", id))
	}
	if err := checkAffectedRows(result, conflict); err == nil || !errors.Is(err, conflict) {
		return err
	}
	found, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrBoutNotFound
	}
	return conflict
}

func (r *postgresBoutRepository) SetWinner(ctx context.Context, id, winnerID int) error {
	query := `UPDATE bouts SET winner_id = $1 WHERE id = $2 AND winner_id IS NULL`
	return r.guardedUpdate(ctx, id, ErrBoutAlreadyDecided, query, winnerID, id)
}

func (r *postgresBoutRepository) SetSlot(ctx context.Context, id int, slot models.Slot, entrantID int) error {
	var query string
	switch slot {
	case models.SlotLeft:
		query = `UPDATE bouts SET left_entrant_id = $1 WHERE id = $2 AND (left_entrant_id IS NULL OR left_entrant_id = $1)`
	case models.SlotRight:
		query = `UPDATE bouts SET right_entrant_id = $1 WHERE id = $2 AND (right_entrant_id IS NULL OR right_entrant_id = $1)`
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
	return r.guardedUpdate(ctx, id, ErrSlotOccupied, query, entrantID, id)
}

func (r *postgresBoutRepository) SetScores(ctx context.Context, id, left, right int) error {
	query := `UPDATE bouts SET left_score = $1, right_score = $2 WHERE id = $3`
	result, err := r.exec.ExecContext(ctx, query, left, right, id)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("set scores of bout %d", id))
	}
	return checkAffectedRows(result, ErrBoutNotFound)
}

// CompletedStats folds every decided, fully occupied bout of the round into
// per-entrant aggregates, one row per side.
func (r *postgresBoutRepository) CompletedStats(ctx context.Context, roundID int) ([]models.BoutStats, error) {
	query := `
		SELECT entrant_id, SUM(won), COUNT(*), SUM(scored), SUM(received)
		FROM (
			SELECT left_entrant_id AS entrant_id,
			       CASE WHEN winner_id = left_entrant_id THEN 1 ELSE 0 END AS won,
			       left_score AS scored, right_score AS received
			FROM bouts
			WHERE round_id = $1 AND winner_id IS NOT NULL
			  AND left_entrant_id IS NOT NULL AND right_entrant_id IS NOT NULL
			UNION ALL
			SELECT right_entrant_id,
			       CASE WHEN winner_id = right_entrant_id THEN 1 ELSE 0 END,
			       right_score, left_score
			FROM bouts
			WHERE round_id = $1 AND winner_id IS NOT NULL
			  AND left_entrant_id IS NOT NULL AND right_entrant_id IS NOT NULL
		) sides
		GROUP BY entrant_id
		ORDER BY entrant_id`
	rows, err := r.exec.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bout stats of round %d: %w", roundID, err)
	}
	defer rows.Close()

	stats := make([]models.BoutStats, 0)
	for rows.Next() {
		var s models.BoutStats
		if err := rows.Scan(&s.EntrantID, &s.Wins, &s.BoutsPlayed, &s.TouchesScored, &s.TouchesReceived); err != nil {
			return nil, fmt.Errorf("failed to scan bout stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bout stats rows iteration: %w", err)
	}
	return stats, nil
}
