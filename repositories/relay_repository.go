package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/lib/pq"
)

type postgresRelayRepository struct {
	exec SQLExecutor
}

func NewPostgresRelayRepository(exec SQLExecutor) RelayRepository {
	return &postgresRelayRepository{exec: exec}
}

func startersArray(s [models.TeamStarters]int) pq.Int64Array {
	return toInt64Array(s[:])
}

func (r *postgresRelayRepository) CreateState(ctx context.Context, s *models.RelayState) error {
	query := `
		INSERT INTO relay_states (team_bout_id, team_a_id, team_b_id, starters_a, starters_b,
		                          current_fencer_a_id, current_fencer_b_id, legs_played, score_a, score_b,
		                          winner_id, is_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.exec.ExecContext(ctx, query,
		s.TeamBoutID,
		s.TeamA,
		s.TeamB,
		startersArray(s.StartersA),
		startersArray(s.StartersB),
		s.CurrentFencerA,
		s.CurrentFencerB,
		s.LegsPlayed,
		s.ScoreA,
		s.ScoreB,
		s.WinnerID,
		s.Complete,
	)
	return mapPQError(err, fmt.Sprintf("create relay for bout %d", s.TeamBoutID))
}

func (r *postgresRelayRepository) GetState(ctx context.Context, teamBoutID int) (*models.RelayState, error) {
	query := `
		SELECT team_bout_id, team_a_id, team_b_id, starters_a, starters_b, current_fencer_a_id,
		       current_fencer_b_id, legs_played, score_a, score_b, winner_id, is_complete
		FROM relay_states
		WHERE team_bout_id = $1`
	var s models.RelayState
	var startersA, startersB pq.Int64Array
	var winner sql.NullInt64
	err := r.exec.QueryRowContext(ctx, query, teamBoutID).Scan(
		&s.TeamBoutID,
		&s.TeamA,
		&s.TeamB,
		&startersA,
		&startersB,
		&s.CurrentFencerA,
		&s.CurrentFencerB,
		&s.LegsPlayed,
		&s.ScoreA,
		&s.ScoreB,
		&winner,
		&s.Complete,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRelayNotFound
		}
		return nil, fmt.Errorf("failed to scan relay of bout %d: %w", teamBoutID, err)
	}
	for i := 0; i < models.TeamStarters && i < len(startersA); i++ {
		s.StartersA[i] = int(startersA[i])
	}
	for i := 0; i < models.TeamStarters && i < len(startersB); i++ {
		s.StartersB[i] = int(startersB[i])
	}
	s.WinnerID = nullIntPtr(winner)
	return &s, nil
}

func (r *postgresRelayRepository) UpdateState(ctx context.Context, s *models.RelayState) error {
	query := `
		UPDATE relay_states
		SET current_fencer_a_id = $1, current_fencer_b_id = $2, legs_played = $3,
		    score_a = $4, score_b = $5, winner_id = $6, is_complete = $7
		WHERE team_bout_id = $8`
	result, err := r.exec.ExecContext(ctx, query,
		s.CurrentFencerA,
		s.CurrentFencerB,
		s.LegsPlayed,
		s.ScoreA,
		s.ScoreB,
		s.WinnerID,
		s.Complete,
		s.TeamBoutID,
	)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("update relay of bout %d", s.TeamBoutID))
	}
	return checkAffectedRows(result, ErrRelayNotFound)
}

func (r *postgresRelayRepository) AppendLeg(ctx context.Context, l *models.RelayLeg) error {
	query := `
		INSERT INTO relay_legs (team_bout_id, leg_number, fencer_a_id, fencer_b_id, score_a, score_b)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.exec.ExecContext(ctx, query, l.TeamBoutID, l.LegNumber, l.FencerA, l.FencerB, l.ScoreA, l.ScoreB)
	return mapPQError(err, fmt.Sprintf("append leg %d of bout %d", l.LegNumber, l.TeamBoutID))
}

func (r *postgresRelayRepository) UpdateLeg(ctx context.Context, l *models.RelayLeg) error {
	query := `UPDATE relay_legs SET score_a = $1, score_b = $2 WHERE team_bout_id = $3 AND leg_number = $4`
	result, err := r.exec.ExecContext(ctx, query, l.ScoreA, l.ScoreB, l.TeamBoutID, l.LegNumber)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("update leg %d of bout %d", l.LegNumber, l.TeamBoutID))
	}
	return checkAffectedRows(result, ErrRelayLegNotFound)
}

func (r *postgresRelayRepository) ListLegs(ctx context.Context, teamBoutID int) ([]models.RelayLeg, error) {
	query := `
		SELECT team_bout_id, leg_number, fencer_a_id, fencer_b_id, score_a, score_b
		FROM relay_legs
		WHERE team_bout_id = $1
		ORDER BY leg_number`
	rows, err := r.exec.QueryContext(ctx, query, teamBoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to query legs of bout %d: %w", teamBoutID, err)
	}
	defer rows.Close()

	legs := make([]models.RelayLeg, 0)
	for rows.Next() {
		var l models.RelayLeg
		if err := rows.Scan(&l.TeamBoutID, &l.LegNumber, &l.FencerA, &l.FencerB, &l.ScoreA, &l.ScoreB); err != nil {
			return nil, fmt.Errorf("failed to scan relay leg row: %w", err)
		}
		legs = append(legs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during relay leg rows iteration: %w", err)
	}
	return legs, nil
}
