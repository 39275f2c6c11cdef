package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/Dosada05/fencing-bracket/models"
)

type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	// GetForUpdate reads the round and holds it locked until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id int) (*models.Round, error)
	// GetPrevious returns the round of the same event ordered right before
	// order, or ErrRoundNotFound.
	GetPrevious(ctx context.Context, eventID, order int) (*models.Round, error)
	SetTableSize(ctx context.Context, id, tableSize int) error
	MarkStarted(ctx context.Context, id int) error
	MarkComplete(ctx context.Context, id int) error
}

type EntrantRepository interface {
	Create(ctx context.Context, entrant *models.Entrant) error
	GetByID(ctx context.Context, id int) (*models.Entrant, error)
	ListByEvent(ctx context.Context, eventID int, kind models.EntrantKind) ([]*models.Entrant, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Entrant, error)
}

type SeedingRepository interface {
	// Replace drops the round's seeding of that kind and stores entries.
	Replace(ctx context.Context, roundID int, kind models.SeedingKind, entries []*models.SeedingEntry) error
	ListByRound(ctx context.Context, roundID int, kind models.SeedingKind) ([]*models.SeedingEntry, error)
}

type PoolRepository interface {
	CreateAssignment(ctx context.Context, a *models.PoolAssignment) error
	ListByRound(ctx context.Context, roundID int) ([]*models.PoolAssignment, error)
}

type BoutRepository interface {
	Create(ctx context.Context, bout *models.Bout) error
	GetByID(ctx context.Context, id int) (*models.Bout, error)
	GetForUpdate(ctx context.Context, id int) (*models.Bout, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Bout, error)
	CountByRound(ctx context.Context, roundID int) (int, error)
	CountUndecided(ctx context.Context, roundID int) (int, error)
	SetWinner(ctx context.Context, id, winnerID int) error
	SetSlot(ctx context.Context, id int, slot models.Slot, entrantID int) error
	SetScores(ctx context.Context, id, left, right int) error
	CompletedStats(ctx context.Context, roundID int) ([]models.BoutStats, error)
}

type BracketLinkRepository interface {
	Create(ctx context.Context, link *models.BracketLink) error
	GetByBout(ctx context.Context, boutID int) (*models.BracketLink, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.BracketLink, error)
}

type RelayRepository interface {
	CreateState(ctx context.Context, state *models.RelayState) error
	GetState(ctx context.Context, teamBoutID int) (*models.RelayState, error)
	UpdateState(ctx context.Context, state *models.RelayState) error
	AppendLeg(ctx context.Context, leg *models.RelayLeg) error
	UpdateLeg(ctx context.Context, leg *models.RelayLeg) error
	ListLegs(ctx context.Context, teamBoutID int) ([]models.RelayLeg, error)
}

// Repositories groups every repository bound to the same executor.
type Repositories struct {
	Rounds   RoundRepository
	Entrants EntrantRepository
	Seeding  SeedingRepository
	Pools    PoolRepository
	Bouts    BoutRepository
	Links    BracketLinkRepository
	Relays   RelayRepository
}

// Store hands out repositories and runs units of work atomically. Inside
// WithinTx only the repositories passed to fn may be used.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func newPostgresRepositories(exec SQLExecutor) Repositories {
	return Repositories{
		Rounds:   NewPostgresRoundRepository(exec),
		Entrants: NewPostgresEntrantRepository(exec),
		Seeding:  NewPostgresSeedingRepository(exec),
		Pools:    NewPostgresPoolRepository(exec),
		Bouts:    NewPostgresBoutRepository(exec),
		Links:    NewPostgresBracketLinkRepository(exec),
		Relays:   NewPostgresRelayRepository(exec),
	}
}

func (s *postgresStore) Repos() Repositories {
	return newPostgresRepositories(s.db)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("ERROR: failed to rollback transaction: %v (original error: %v)", rbErr, err)
			}
			return
		}
		if cmErr := tx.Commit(); cmErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cmErr)
		}
	}()

	return fn(ctx, newPostgresRepositories(tx))
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
