package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/lib/pq"
)

type postgresEntrantRepository struct {
	exec SQLExecutor
}

func NewPostgresEntrantRepository(exec SQLExecutor) EntrantRepository {
	return &postgresEntrantRepository{exec: exec}
}

const entrantColumns = `id, event_id, kind, name, club_id, rating, rating_year, starters`

func scanEntrant(row interface{ Scan(...interface{}) error }) (*models.Entrant, error) {
	var e models.Entrant
	var club sql.NullInt64
	var starters pq.Int64Array
	if err := row.Scan(&e.ID, &e.EventID, &e.Kind, &e.Name, &club, &e.Rating, &e.RatingYear, &starters); err != nil {
		return nil, err
	}
	if club.Valid {
		c := int(club.Int64)
		e.ClubID = &c
	}
	if len(starters) > 0 {
		e.Starters = make([]int, len(starters))
		for i, id := range starters {
			e.Starters[i] = int(id)
		}
	}
	return &e, nil
}

func toInt64Array(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func (r *postgresEntrantRepository) Create(ctx context.Context, e *models.Entrant) error {
	if e.Kind == "" {
		e.Kind = models.EntrantIndividual
	}
	if e.Rating == "" {
		e.Rating = models.RatingUnrated
	}
	query := `
		INSERT INTO entrants (event_id, kind, name, club_id, rating, rating_year, starters)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.exec.QueryRowContext(ctx, query,
		e.EventID, e.Kind, e.Name, e.ClubID, e.Rating, e.RatingYear, toInt64Array(e.Starters),
	).Scan(&e.ID)
	return mapPQError(err, "create entrant")
}

func (r *postgresEntrantRepository) GetByID(ctx context.Context, id int) (*models.Entrant, error) {
	query := `SELECT ` + entrantColumns + ` FROM entrants WHERE id = $1`
	e, err := scanEntrant(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntrantNotFound
		}
		return nil, fmt.Errorf("failed to scan entrant %d: %w", id, err)
	}
	return e, nil
}

func (r *postgresEntrantRepository) ListByEvent(ctx context.Context, eventID int, kind models.EntrantKind) ([]*models.Entrant, error) {
	query := `SELECT ` + entrantColumns + ` FROM entrants WHERE event_id = $1 AND kind = $2 ORDER BY id`
	return r.list(ctx, query, eventID, kind)
}

func (r *postgresEntrantRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Entrant, error) {
	if len(ids) == 0 {
		return []*models.Entrant{}, nil
	}
	query := `SELECT ` + entrantColumns + ` FROM entrants WHERE id = ANY($1) ORDER BY id`
	return r.list(ctx, query, toInt64Array(ids))
}

func (r *postgresEntrantRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Entrant, error) {
	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entrants: %w", err)
	}
	defer rows.Close()

	entrants := make([]*models.Entrant, 0)
	for rows.Next() {
		e, err := scanEntrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entrant row: %w", err)
		}
		entrants = append(entrants, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entrant rows iteration: %w", err)
	}
	return entrants, nil
}
