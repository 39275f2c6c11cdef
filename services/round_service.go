package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/metrics"
	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/repositories"
	"golang.org/x/sync/errgroup"
)

type InitializeResult struct {
	Round              *models.Round          `json:"round"`
	Seeding            []*models.SeedingEntry `json:"seeding"`
	Pools              []*models.Pool         `json:"pools,omitempty"`
	TableSize          int                    `json:"table_size,omitempty"`
	BoutsCreated       int                    `json:"bouts_created"`
	ByesResolved       int                    `json:"byes_resolved"`
	AlreadyInitialized bool                   `json:"already_initialized"`
}

type RoundOverview struct {
	Round          *models.Round `json:"round"`
	Entrants       int           `json:"entrants"`
	Bouts          int           `json:"bouts"`
	UndecidedBouts int           `json:"undecided_bouts"`
}

type PoolView struct {
	*models.Pool
	Bouts        []*models.Bout          `json:"bouts"`
	FencingOrder []brackets.PositionPair `json:"fencing_order"`
}

type BracketLevel struct {
	TableOf int            `json:"table_of"`
	Name    string         `json:"name"`
	Bouts   []*models.Bout `json:"bouts"`
}

type BracketView struct {
	RoundID    int             `json:"round_id"`
	TableSize  int             `json:"table_size"`
	Levels     []*BracketLevel `json:"levels"`
	ChampionID *int            `json:"champion_id,omitempty"`
}

type RoundService interface {
	// Initialize seeds the round and builds its pools or bracket. Calling it
	// again on a round that already has bouts changes nothing.
	Initialize(ctx context.Context, roundID int) (*InitializeResult, error)
	GetRound(ctx context.Context, roundID int) (*RoundOverview, error)
	GetPools(ctx context.Context, roundID int) ([]*PoolView, error)
	GetBracket(ctx context.Context, roundID int) (*BracketView, error)
}

type roundService struct {
	store        repositories.Store
	notifier     Notifier
	metrics      *metrics.Recorder
	logger       *slog.Logger
	minTableSize int
}

// NewRoundService builds the service. minTableSize forces every bracket to
// at least that table size; zero means the smallest table that fits.
func NewRoundService(store repositories.Store, notifier Notifier, rec *metrics.Recorder, logger *slog.Logger, minTableSize int) RoundService {
	return &roundService{
		store:        store,
		notifier:     notifierOrNop(notifier),
		metrics:      rec,
		logger:       loggerOrDefault(logger),
		minTableSize: minTableSize,
	}
}

func (s *roundService) Initialize(ctx context.Context, roundID int) (*InitializeResult, error) {
	var result *InitializeResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		round, err := repos.Rounds.GetForUpdate(ctx, roundID)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("lock round %d", roundID))
		}

		var gen brackets.BracketGenerator
		switch round.Type {
		case models.RoundTypePool:
		case models.RoundTypeDE:
			if gen, err = brackets.NewGenerator(round.DEFormat); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: round %d has unknown type %q", ErrConfiguration, round.ID, round.Type)
		}

		existing, err := repos.Bouts.CountByRound(ctx, round.ID)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("count bouts of round %d", round.ID))
		}
		if existing > 0 || round.IsStarted {
			seeding, err := repos.Seeding.ListByRound(ctx, round.ID, models.SeedingInitial)
			if err != nil {
				return handleRepositoryError(err, fmt.Sprintf("list seeding of round %d", round.ID))
			}
			result = &InitializeResult{Round: round, Seeding: seeding, TableSize: round.DETableSize, AlreadyInitialized: true}
			return nil
		}

		seeding, err := s.seedRound(ctx, repos, round)
		if err != nil {
			return err
		}
		if err := repos.Seeding.Replace(ctx, round.ID, models.SeedingInitial, seeding); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("save seeding of round %d", round.ID))
		}
		result = &InitializeResult{Round: round, Seeding: seeding}

		if round.Type == models.RoundTypePool {
			err = s.createPools(ctx, repos, round, seeding, result)
		} else {
			err = s.createBracket(ctx, repos, round, gen, seeding, result)
		}
		if err != nil {
			return err
		}

		if err := repos.Rounds.MarkStarted(ctx, round.ID); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("start round %d", round.ID))
		}
		round.IsStarted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyInitialized {
		s.logger.Debug("round already initialized", "round_id", roundID)
		return result, nil
	}

	s.metrics.RoundInitialized(string(result.Round.Type))
	s.metrics.ByesResolved(result.ByesResolved)
	s.logger.Info("round initialized",
		"round_id", roundID,
		"type", result.Round.Type,
		"entrants", len(result.Seeding),
		"bouts", result.BoutsCreated,
		"byes", result.ByesResolved,
		"table_size", result.TableSize,
	)
	if result.Round.Type == models.RoundTypePool {
		s.notifier.NotifyRound(roundID, brackets.MessagePoolsCreated, result)
	} else {
		s.notifier.NotifyRound(roundID, brackets.MessageBracketUpdated, result)
	}
	return result, nil
}

// seedRound decides who fences in the round and in which order. The first
// round of an event takes every entrant by preliminary strength; later rounds
// promote from the previous round's result seeding, computing it if needed.
func (s *roundService) seedRound(ctx context.Context, repos repositories.Repositories, round *models.Round) ([]*models.SeedingEntry, error) {
	prev, err := repos.Rounds.GetPrevious(ctx, round.EventID, round.Order)
	if errors.Is(err, repositories.ErrRoundNotFound) {
		return s.preliminarySeeding(ctx, repos, round)
	}
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("load round before %d", round.ID))
	}

	ranked, err := repos.Seeding.ListByRound(ctx, prev.ID, models.SeedingResult)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("list result seeding of round %d", prev.ID))
	}
	if len(ranked) == 0 {
		if ranked, err = rankRoundResults(ctx, repos, prev); err != nil {
			return nil, err
		}
	}
	if len(ranked) == 0 {
		s.logger.Warn("previous round has no results, falling back to preliminary seeding",
			"round_id", round.ID, "previous_round_id", prev.ID)
		return s.preliminarySeeding(ctx, repos, round)
	}

	var promoted []*models.SeedingEntry
	if prev.TargetBracket != nil {
		promoted, err = brackets.PromoteToTarget(ranked, *prev.TargetBracket)
	} else {
		percent := prev.PromotionPercent
		if percent == 0 {
			percent = 100
		}
		promoted, err = brackets.Promote(ranked, percent)
	}
	if err != nil {
		return nil, err
	}

	seeding := brackets.Reseed(round.ID, promoted)
	if err := attachEntrants(ctx, repos.Entrants, seeding); err != nil {
		return nil, err
	}
	return seeding, nil
}

func (s *roundService) preliminarySeeding(ctx context.Context, repos repositories.Repositories, round *models.Round) ([]*models.SeedingEntry, error) {
	kind := round.Kind
	if kind == "" {
		kind = models.EntrantIndividual
	}
	entrants, err := repos.Entrants.ListByEvent(ctx, round.EventID, kind)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("list entrants of event %d", round.EventID))
	}
	return brackets.Rank(round.ID, entrants, nil), nil
}

func (s *roundService) createPools(ctx context.Context, repos repositories.Repositories, round *models.Round, seeding []*models.SeedingEntry, result *InitializeResult) error {
	perPool := round.PoolSize
	if perPool <= 0 && round.PoolCount > 0 {
		perPool = (len(seeding) + round.PoolCount - 1) / round.PoolCount
	}
	pools, err := brackets.BuildPools(seeding, round.PoolCount, perPool)
	if err != nil {
		return err
	}
	for _, a := range brackets.Assignments(round.ID, pools) {
		if err := repos.Pools.CreateAssignment(ctx, a); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("assign entrant %d to pool %d", a.EntrantID, a.PoolID))
		}
	}
	for _, pool := range pools {
		for _, bout := range brackets.PoolBouts(round.ID, pool) {
			if err := repos.Bouts.Create(ctx, bout); err != nil {
				return handleRepositoryError(err, fmt.Sprintf("create bout in pool %d", pool.PoolID))
			}
			result.BoutsCreated++
		}
	}
	result.Pools = pools
	return nil
}

// createBracket persists the generated tree in two passes: every bout of
// every level first, then the links, since a link needs both bout ids.
func (s *roundService) createBracket(ctx context.Context, repos repositories.Repositories, round *models.Round, gen brackets.BracketGenerator, seeding []*models.SeedingEntry, result *InitializeResult) error {
	minTable := s.minTableSize
	if round.DETableSize > minTable {
		minTable = round.DETableSize
	}
	bracket, err := gen.GenerateBracket(ctx, brackets.GenerateBracketParams{
		RoundID:      round.ID,
		Seeding:      seeding,
		MinTableSize: minTable,
	})
	if err != nil {
		return err
	}

	matches := bracket.Matches()
	ids := make(map[*brackets.BracketMatch]int, len(matches))
	for _, m := range matches {
		bout := &models.Bout{
			RoundID:  round.ID,
			LeftID:   m.LeftID,
			RightID:  m.RightID,
			WinnerID: m.WinnerID,
			TableOf:  m.TableOf,
		}
		if err := repos.Bouts.Create(ctx, bout); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("create bout %d/%d", m.TableOf, m.Order))
		}
		ids[m] = bout.ID
		if m.IsBye {
			result.ByesResolved++
		}
	}
	for _, m := range matches {
		link := &models.BracketLink{RoundID: round.ID, BoutID: ids[m], Order: m.Order}
		if next, _, ok := bracket.Next(m); ok {
			link.NextBoutID = intPtr(ids[next])
		}
		if err := repos.Links.Create(ctx, link); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("link bout %d", link.BoutID))
		}
	}
	result.BoutsCreated = len(matches)
	result.TableSize = bracket.TableSize

	if len(matches) > 0 {
		if err := repos.Rounds.SetTableSize(ctx, round.ID, bracket.TableSize); err != nil {
			return handleRepositoryError(err, fmt.Sprintf("set table size of round %d", round.ID))
		}
		round.DETableSize = bracket.TableSize
	}
	// A lone entrant wins the final on a bye.
	if final := bracket.Final(); final != nil && final.WinnerID != nil {
		if err := markComplete(ctx, repos, round); err != nil {
			return err
		}
	}
	return nil
}

func (s *roundService) GetRound(ctx context.Context, roundID int) (*RoundOverview, error) {
	repos := s.store.Repos()
	overview := &RoundOverview{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		round, err := repos.Rounds.GetByID(gctx, roundID)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("load round %d", roundID))
		}
		overview.Round = round
		return nil
	})
	g.Go(func() error {
		seeding, err := repos.Seeding.ListByRound(gctx, roundID, models.SeedingInitial)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("list seeding of round %d", roundID))
		}
		overview.Entrants = len(seeding)
		return nil
	})
	g.Go(func() error {
		n, err := repos.Bouts.CountByRound(gctx, roundID)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("count bouts of round %d", roundID))
		}
		overview.Bouts = n
		return nil
	})
	g.Go(func() error {
		n, err := repos.Bouts.CountUndecided(gctx, roundID)
		if err != nil {
			return handleRepositoryError(err, fmt.Sprintf("count open bouts of round %d", roundID))
		}
		overview.UndecidedBouts = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *roundService) GetPools(ctx context.Context, roundID int) ([]*PoolView, error) {
	repos := s.store.Repos()
	round, err := repos.Rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("load round %d", roundID))
	}
	if round.Type != models.RoundTypePool {
		return nil, fmt.Errorf("%w: round %d is not a pool round", ErrInvalidState, roundID)
	}

	var assignments []*models.PoolAssignment
	var bouts []*models.Bout
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assignments, err = repos.Pools.ListByRound(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("list pools of round %d", roundID))
	})
	g.Go(func() error {
		var err error
		bouts, err = repos.Bouts.ListByRound(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("list bouts of round %d", roundID))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]int, len(assignments))
	for i, a := range assignments {
		ids[i] = a.EntrantID
	}
	byID, err := entrantsByID(ctx, repos.Entrants, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*PoolView, 0)
	byPool := make(map[int]*PoolView)
	for _, a := range assignments {
		v, ok := byPool[a.PoolID]
		if !ok {
			v = &PoolView{Pool: &models.Pool{PoolID: a.PoolID}, Bouts: []*models.Bout{}}
			byPool[a.PoolID] = v
			views = append(views, v)
		}
		v.Members = append(v.Members, models.PoolMember{Entrant: byID[a.EntrantID], Position: a.Position})
	}
	for _, b := range bouts {
		if b.PoolID == nil {
			continue
		}
		if v, ok := byPool[*b.PoolID]; ok {
			v.Bouts = append(v.Bouts, b)
		}
	}
	for _, v := range views {
		v.FencingOrder = brackets.FencingOrder(len(v.Members))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].PoolID < views[j].PoolID })
	return views, nil
}

func (s *roundService) GetBracket(ctx context.Context, roundID int) (*BracketView, error) {
	repos := s.store.Repos()
	var (
		round *models.Round
		bouts []*models.Bout
		links []*models.BracketLink
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		round, err = repos.Rounds.GetByID(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("load round %d", roundID))
	})
	g.Go(func() error {
		var err error
		bouts, err = repos.Bouts.ListByRound(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("list bouts of round %d", roundID))
	})
	g.Go(func() error {
		var err error
		links, err = repos.Links.ListByRound(gctx, roundID)
		return handleRepositoryError(err, fmt.Sprintf("list links of round %d", roundID))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if round.Type != models.RoundTypeDE {
		return nil, fmt.Errorf("%w: round %d is not a DE round", ErrInvalidState, roundID)
	}
	return buildBracketView(round, bouts, links), nil
}

func buildBracketView(round *models.Round, bouts []*models.Bout, links []*models.BracketLink) *BracketView {
	order := make(map[int]int, len(links))
	for _, l := range links {
		order[l.BoutID] = l.Order
	}

	view := &BracketView{RoundID: round.ID, TableSize: round.DETableSize, Levels: []*BracketLevel{}}
	byTable := make(map[int]*BracketLevel)
	for _, b := range bouts {
		lvl, ok := byTable[b.TableOf]
		if !ok {
			lvl = &BracketLevel{TableOf: b.TableOf, Name: brackets.RoundName(b.TableOf)}
			byTable[b.TableOf] = lvl
			view.Levels = append(view.Levels, lvl)
		}
		lvl.Bouts = append(lvl.Bouts, b)
		if b.TableOf == 2 && b.WinnerID != nil {
			view.ChampionID = intPtr(*b.WinnerID)
		}
	}
	sort.Slice(view.Levels, func(i, j int) bool { return view.Levels[i].TableOf > view.Levels[j].TableOf })
	for _, lvl := range view.Levels {
		sort.SliceStable(lvl.Bouts, func(i, j int) bool { return order[lvl.Bouts[i].ID] < order[lvl.Bouts[j].ID] })
	}
	return view
}
