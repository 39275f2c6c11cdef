package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

type postgresBracketLinkRepository struct {
	exec SQLExecutor
}

func NewPostgresBracketLinkRepository(exec SQLExecutor) BracketLinkRepository {
	return &postgresBracketLinkRepository{exec: exec}
}

func (r *postgresBracketLinkRepository) Create(ctx context.Context, l *models.BracketLink) error {
	query := `INSERT INTO bracket_links (bout_id, round_id, next_bout_id, bout_order) VALUES ($1, $2, $3, $4)`
	_, err := r.exec.ExecContext(ctx, query, l.BoutID, l.RoundID, l.NextBoutID, l.Order)
	return mapPQError(err, fmt.Sprintf("create link for bout %d", l.BoutID))
}

func scanLink(row interface{ Scan(...interface{}) error }) (*models.BracketLink, error) {
	var l models.BracketLink
	var next sql.NullInt64
	if err := row.Scan(&l.BoutID, &l.RoundID, &next, &l.Order); err != nil {
		return nil, err
	}
	l.NextBoutID = nullIntPtr(next)
	return &l, nil
}

func (r *postgresBracketLinkRepository) GetByBout(ctx context.Context, boutID int) (*models.BracketLink, error) {
	query := `SELECT bout_id, round_id, next_bout_id, bout_order FROM bracket_links WHERE bout_id = $1`
	l, err := scanLink(r.exec.QueryRowContext(ctx, query, boutID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to scan link of bout %d: %w", boutID, err)
	}
	return l, nil
}

func (r *postgresBracketLinkRepository) ListByRound(ctx context.Context, roundID int) ([]*models.BracketLink, error) {
	query := `
		SELECT bout_id, round_id, next_bout_id, bout_order
		FROM bracket_links
		WHERE round_id = $1
		ORDER BY bout_id`
	rows, err := r.exec.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links of round %d: %w", roundID, err)
	}
	defer rows.Close()

	links := make([]*models.BracketLink, 0)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during link rows iteration: %w", err)
	}
	return links, nil
}
