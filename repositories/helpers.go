package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx, so a repository can be
// bound to a transaction without changing its code.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	ErrRoundNotFound    = errors.New("round not found")
	ErrEntrantNotFound  = errors.New("entrant not found")
	ErrBoutNotFound     = errors.New("bout not found")
	ErrLinkNotFound     = errors.New("bracket link not found")
	ErrRelayNotFound    = errors.New("relay not found")
	ErrRelayLegNotFound = errors.New("relay leg not found")

	ErrBoutAlreadyDecided = errors.New("bout already has a winner")
	ErrSlotOccupied       = errors.New("bout slot already taken by another entrant")
	ErrRelayExists        = errors.New("relay already exists for bout")
	ErrSeedConflict       = errors.New("seed or entrant already seeded in round")
	ErrPoolSlotConflict   = errors.New("pool position or entrant already assigned in round")
	ErrLinkConflict       = errors.New("bout already linked")
	ErrLegExists          = errors.New("relay leg already recorded")
	ErrRoundOrderTaken    = errors.New("event already has a round at that order")
	ErrInvalidReference   = errors.New("referenced row does not exist")
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// constraintErrors maps schema constraint names to repository errors.
var constraintErrors = map[string]error{
	"seedings_round_kind_seed_key":    ErrSeedConflict,
	"seedings_round_kind_entrant_key": ErrSeedConflict,
	"pool_assignments_position_key":   ErrPoolSlotConflict,
	"pool_assignments_entrant_key":    ErrPoolSlotConflict,
	"bracket_links_pkey":              ErrLinkConflict,
	"relay_states_pkey":               ErrRelayExists,
	"relay_legs_pkey":                 ErrLegExists,
	"rounds_event_order_key":          ErrRoundOrderTaken,
}

// mapPQError translates constraint violations into repository errors and
// leaves everything else wrapped with context.
func mapPQError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if mapped, ok := constraintErrors[pqErr.Constraint]; ok {
			return mapped
		}
		if pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%s: %w (%s)", op, ErrInvalidReference, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
