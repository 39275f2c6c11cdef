package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/fencing-bracket/metrics"
	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/repositories"
	"github.com/Dosada05/fencing-bracket/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RoundSnapshot is the archived form of a round.
type RoundSnapshot struct {
	ExportedAt    time.Time                `json:"exported_at"`
	Round         *models.Round            `json:"round"`
	Seeding       []*models.SeedingEntry   `json:"seeding"`
	ResultSeeding []*models.SeedingEntry   `json:"result_seeding"`
	Pools         []*models.PoolAssignment `json:"pools"`
	Bouts         []*models.Bout           `json:"bouts"`
	Links         []*models.BracketLink    `json:"links"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExportService interface {
	ExportRound(ctx context.Context, roundID int) (*ExportResult, error)
}

type exportService struct {
	store    repositories.Store
	uploader storage.FileUploader
	metrics  *metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportService builds the service. A nil uploader leaves export disabled.
func NewExportService(store repositories.Store, uploader storage.FileUploader, rec *metrics.Recorder, logger *slog.Logger) ExportService {
	return &exportService{
		store:    store,
		uploader: uploader,
		metrics:  rec,
		logger:   loggerOrDefault(logger),
		now:      time.Now,
	}
}

func (s *exportService) ExportRound(ctx context.Context, roundID int) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}
	snap, err := s.snapshot(ctx, roundID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot of round %d: %w", roundID, err)
	}
	key := storage.SnapshotKey(roundID, uuid.NewString())
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	s.metrics.ExportFinished(err)
	if err != nil {
		s.logger.Error("snapshot upload failed", "round_id", roundID, "key", key, "error", err)
		return nil, fmt.Errorf("failed to upload snapshot of round %d: %w", roundID, err)
	}
	s.logger.Info("round snapshot exported", "round_id", roundID, "key", uploaded.Key, "bytes", len(body))
	return &ExportResult{Key: uploaded.Key, URL: uploaded.Location}, nil
}

func (s *exportService) snapshot(ctx context.Context, roundID int) (*RoundSnapshot, error) {
	repos := s.store.Repos()
	snap := &RoundSnapshot{ExportedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Round, err = repos.Rounds.GetByID(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("load round %d", roundID))
	})
	g.Go(func() error {
		var err error
		snap.Seeding, err = repos.Seeding.ListByRound(gctx, roundID, models.SeedingInitial)
		return handleRepositoryError(err, fmt.Sprintf("list seeding of round %d", roundID))
	})
	g.Go(func() error {
		var err error
		snap.ResultSeeding, err = repos.Seeding.ListByRound(gctx, roundID, models.SeedingResult)
		return handleRepositoryError(err, fmt.Sprintf("list result seeding of round %d", roundID))
	})
	g.Go(func() error {
		var err error
		snap.Pools, err = repos.Pools.ListByRound(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("list pools of round %d", roundID))
	})
	g.Go(func() error {
		var err error
		snap.Bouts, err = repos.Bouts.ListByRound(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("list bouts of round %d", roundID))
	})
	g.Go(func() error {
		var err error
		snap.Links, err = repos.Links.ListByRound(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("list links of round %d", roundID))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
