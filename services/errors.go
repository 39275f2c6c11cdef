package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/repositories"
)

// Errors shared by every service and by the HTTP error mapping. The ones that
// also come out of the bracket engine are the same values, so errors.Is works
// across both layers.
var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrConfiguration     = brackets.ErrConfiguration
	ErrInvalidState      = brackets.ErrInvalidState
	ErrValidation        = brackets.ErrValidation
	ErrUnsupportedFormat = brackets.ErrUnsupportedFormat

	// ErrTieNeedsWinner rejects a level score with no winner named.
	ErrTieNeedsWinner = errors.New("scores are level, a winner must be given")

	ErrExportDisabled = errors.New("snapshot export is not configured")
)

// handleRepositoryError folds repository errors into the service sentinels
// while keeping the original error in the chain.
func handleRepositoryError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrRoundNotFound),
		errors.Is(err, repositories.ErrEntrantNotFound),
		errors.Is(err, repositories.ErrBoutNotFound),
		errors.Is(err, repositories.ErrRelayNotFound),
		errors.Is(err, repositories.ErrRelayLegNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, repositories.ErrBoutAlreadyDecided),
		errors.Is(err, repositories.ErrSlotOccupied),
		errors.Is(err, repositories.ErrRelayExists),
		errors.Is(err, repositories.ErrLegExists),
		errors.Is(err, repositories.ErrLinkConflict),
		errors.Is(err, repositories.ErrSeedConflict),
		errors.Is(err, repositories.ErrPoolSlotConflict),
		errors.Is(err, repositories.ErrRoundOrderTaken):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidState, err)
	case errors.Is(err, repositories.ErrInvalidReference):
		return fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
