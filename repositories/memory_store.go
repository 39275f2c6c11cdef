package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/models"
)

type seedingKey struct {
	roundID int
	kind    models.SeedingKind
}

type memoryState struct {
	lastID int

	rounds   map[int]models.Round
	entrants map[int]models.Entrant
	seedings map[seedingKey][]models.SeedingEntry
	pools    map[int][]models.PoolAssignment
	bouts    map[int]models.Bout
	links    map[int]models.BracketLink
	relays   map[int]models.RelayState
	legs     map[int][]models.RelayLeg
}

func newMemoryState() *memoryState {
	return &memoryState{
		rounds:   map[int]models.Round{},
		entrants: map[int]models.Entrant{},
		seedings: map[seedingKey][]models.SeedingEntry{},
		pools:    map[int][]models.PoolAssignment{},
		bouts:    map[int]models.Bout{},
		links:    map[int]models.BracketLink{},
		relays:   map[int]models.RelayState{},
		legs:     map[int][]models.RelayLeg{},
	}
}

func (s *memoryState) nextID() int {
	s.lastID++
	return s.lastID
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRound(r models.Round) models.Round {
	r.TargetBracket = copyInt(r.TargetBracket)
	return r
}

func cloneEntrant(e models.Entrant) models.Entrant {
	e.ClubID = copyInt(e.ClubID)
	if e.Starters != nil {
		e.Starters = append([]int(nil), e.Starters...)
	}
	return e
}

func cloneBout(b models.Bout) models.Bout {
	b.LeftID, b.RightID, b.WinnerID, b.PoolID = copyInt(b.LeftID), copyInt(b.RightID), copyInt(b.WinnerID), copyInt(b.PoolID)
	return b
}

func cloneLink(l models.BracketLink) models.BracketLink {
	l.NextBoutID = copyInt(l.NextBoutID)
	return l
}

func cloneRelay(r models.RelayState) models.RelayState {
	r.WinnerID = copyInt(r.WinnerID)
	return r
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	c.lastID = s.lastID
	for k, v := range s.rounds {
		c.rounds[k] = cloneRound(v)
	}
	for k, v := range s.entrants {
		c.entrants[k] = cloneEntrant(v)
	}
	for k, v := range s.seedings {
		c.seedings[k] = append([]models.SeedingEntry(nil), v...)
	}
	for k, v := range s.pools {
		c.pools[k] = append([]models.PoolAssignment(nil), v...)
	}
	for k, v := range s.bouts {
		c.bouts[k] = cloneBout(v)
	}
	for k, v := range s.links {
		c.links[k] = cloneLink(v)
	}
	for k, v := range s.relays {
		c.relays[k] = cloneRelay(v)
	}
	for k, v := range s.legs {
		c.legs[k] = append([]models.RelayLeg(nil), v...)
	}
	return c
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// memoryView resolves the state a repository works on. Outside a transaction
// every call takes the store mutex; inside one the mutex is already held and
// the view points at the transaction's private copy.
type memoryView struct {
	lock  sync.Locker
	state func() *memoryState
}

func (v *memoryView) with(fn func(st *memoryState) error) error {
	v.lock.Lock()
	defer v.lock.Unlock()
	return fn(v.state())
}

// MemoryStore keeps everything in process. Transactions run on a copy of the
// state that replaces the live one only when fn succeeds, and they are
// serialized by a single mutex.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func memoryRepositories(v *memoryView) Repositories {
	return Repositories{
		Rounds:   &memoryRoundRepository{v},
		Entrants: &memoryEntrantRepository{v},
		Seeding:  &memorySeedingRepository{v},
		Pools:    &memoryPoolRepository{v},
		Bouts:    &memoryBoutRepository{v},
		Links:    &memoryLinkRepository{v},
		Relays:   &memoryRelayRepository{v},
	}
}

func (s *MemoryStore) Repos() Repositories {
	return memoryRepositories(&memoryView{lock: &s.mu, state: func() *memoryState { return s.state }})
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.state.clone()
	repos := memoryRepositories(&memoryView{lock: noopLocker{}, state: func() *memoryState { return working }})
	if err := fn(ctx, repos); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *MemoryStore) Close() error { return nil }

type memoryRoundRepository struct{ v *memoryView }

func (r *memoryRoundRepository) Create(_ context.Context, round *models.Round) error {
	return r.v.with(func(st *memoryState) error {
		for _, existing := range st.rounds {
			if existing.EventID == round.EventID && existing.Order == round.Order {
				return ErrRoundOrderTaken
			}
		}
		round.ID = st.nextID()
		st.rounds[round.ID] = cloneRound(*round)
		return nil
	})
}

func (r *memoryRoundRepository) GetByID(_ context.Context, id int) (*models.Round, error) {
	var out *models.Round
	err := r.v.with(func(st *memoryState) error {
		rd, ok := st.rounds[id]
		if !ok {
			return ErrRoundNotFound
		}
		c := cloneRound(rd)
		out = &c
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock here: transactions already hold the store.
func (r *memoryRoundRepository) GetForUpdate(ctx context.Context, id int) (*models.Round, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRoundRepository) GetPrevious(_ context.Context, eventID, order int) (*models.Round, error) {
	var out *models.Round
	err := r.v.with(func(st *memoryState) error {
		for _, rd := range st.rounds {
			if rd.EventID != eventID || rd.Order >= order {
				continue
			}
			if out == nil || rd.Order > out.Order {
				c := cloneRound(rd)
				out = &c
			}
		}
		if out == nil {
			return ErrRoundNotFound
		}
		return nil
	})
	return out, err
}

func (r *memoryRoundRepository) update(id int, fn func(rd *models.Round)) error {
	return r.v.with(func(st *memoryState) error {
		rd, ok := st.rounds[id]
		if !ok {
			return ErrRoundNotFound
		}
		fn(&rd)
		st.rounds[id] = rd
		return nil
	})
}

func (r *memoryRoundRepository) SetTableSize(_ context.Context, id, tableSize int) error {
	return r.update(id, func(rd *models.Round) { rd.DETableSize = tableSize })
}

func (r *memoryRoundRepository) MarkStarted(_ context.Context, id int) error {
	return r.update(id, func(rd *models.Round) { rd.IsStarted = true })
}

func (r *memoryRoundRepository) MarkComplete(_ context.Context, id int) error {
	return r.update(id, func(rd *models.Round) { rd.IsComplete = true })
}

type memoryEntrantRepository struct{ v *memoryView }

func (r *memoryEntrantRepository) Create(_ context.Context, e *models.Entrant) error {
	if e.Kind == "" {
		e.Kind = models.EntrantIndividual
	}
	if e.Rating == "" {
		e.Rating = models.RatingUnrated
	}
	return r.v.with(func(st *memoryState) error {
		e.ID = st.nextID()
		st.entrants[e.ID] = cloneEntrant(*e)
		return nil
	})
}

func (r *memoryEntrantRepository) GetByID(_ context.Context, id int) (*models.Entrant, error) {
	var out *models.Entrant
	err := r.v.with(func(st *memoryState) error {
		e, ok := st.entrants[id]
		if !ok {
			return ErrEntrantNotFound
		}
		c := cloneEntrant(e)
		out = &c
		return nil
	})
	return out, err
}

func (r *memoryEntrantRepository) filter(keep func(e models.Entrant) bool) []*models.Entrant {
	var out []*models.Entrant
	_ = r.v.with(func(st *memoryState) error {
		out = make([]*models.Entrant, 0)
		for _, e := range st.entrants {
			if keep(e) {
				c := cloneEntrant(e)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryEntrantRepository) ListByEvent(_ context.Context, eventID int, kind models.EntrantKind) ([]*models.Entrant, error) {
	return r.filter(func(e models.Entrant) bool { return e.EventID == eventID && e.Kind == kind }), nil
}

func (r *memoryEntrantRepository) ListByIDs(_ context.Context, ids []int) ([]*models.Entrant, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(e models.Entrant) bool { return want[e.ID] }), nil
}

type memorySeedingRepository struct{ v *memoryView }

func (r *memorySeedingRepository) Replace(_ context.Context, roundID int, kind models.SeedingKind, entries []*models.SeedingEntry) error {
	return r.v.with(func(st *memoryState) error {
		if _, ok := st.rounds[roundID]; !ok {
			return ErrInvalidReference
		}
		seeds := make(map[int]bool, len(entries))
		ids := make(map[int]bool, len(entries))
		rows := make([]models.SeedingEntry, 0, len(entries))
		for _, e := range entries {
			if seeds[e.Seed] || ids[e.EntrantID] {
				return ErrSeedConflict
			}
			seeds[e.Seed], ids[e.EntrantID] = true, true
			rows = append(rows, models.SeedingEntry{RoundID: roundID, EntrantID: e.EntrantID, Seed: e.Seed})
		}
		st.seedings[seedingKey{roundID, kind}] = rows
		return nil
	})
}

func (r *memorySeedingRepository) ListByRound(_ context.Context, roundID int, kind models.SeedingKind) ([]*models.SeedingEntry, error) {
	var out []*models.SeedingEntry
	err := r.v.with(func(st *memoryState) error {
		rows := st.seedings[seedingKey{roundID, kind}]
		out = make([]*models.SeedingEntry, len(rows))
		for i := range rows {
			e := rows[i]
			out[i] = &e
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out, err
}

type memoryPoolRepository struct{ v *memoryView }

func (r *memoryPoolRepository) CreateAssignment(_ context.Context, a *models.PoolAssignment) error {
	return r.v.with(func(st *memoryState) error {
		if _, ok := st.rounds[a.RoundID]; !ok {
			return ErrInvalidReference
		}
		for _, existing := range st.pools[a.RoundID] {
			if existing.EntrantID == a.EntrantID || (existing.PoolID == a.PoolID && existing.Position == a.Position) {
				return ErrPoolSlotConflict
			}
		}
		st.pools[a.RoundID] = append(st.pools[a.RoundID], *a)
		return nil
	})
}

func (r *memoryPoolRepository) ListByRound(_ context.Context, roundID int) ([]*models.PoolAssignment, error) {
	var out []*models.PoolAssignment
	err := r.v.with(func(st *memoryState) error {
		rows := st.pools[roundID]
		out = make([]*models.PoolAssignment, len(rows))
		for i := range rows {
			a := rows[i]
			out[i] = &a
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].PoolID != out[j].PoolID {
			return out[i].PoolID < out[j].PoolID
		}
		return out[i].Position < out[j].Position
	})
	return out, err
}

type memoryBoutRepository struct{ v *memoryView }

func (r *memoryBoutRepository) Create(_ context.Context, b *models.Bout) error {
	return r.v.with(func(st *memoryState) error {
		if _, ok := st.rounds[b.RoundID]; !ok {
			return ErrInvalidReference
		}
		b.ID = st.nextID()
		b.CreatedAt = time.Now().UTC()
		st.bouts[b.ID] = cloneBout(*b)
		return nil
	})
}

func (r *memoryBoutRepository) GetByID(_ context.Context, id int) (*models.Bout, error) {
	var out *models.Bout
	err := r.v.with(func(st *memoryState) error {
		b, ok := st.bouts[id]
		if !ok {
			return ErrBoutNotFound
		}
		c := cloneBout(b)
		out = &c
		return nil
	})
	return out, err
}

func (r *memoryBoutRepository) GetForUpdate(ctx context.Context, id int) (*models.Bout, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryBoutRepository) byRound(st *memoryState, roundID int) []*models.Bout {
	out := make([]*models.Bout, 0)
	for _, b := range st.bouts {
		if b.RoundID == roundID {
			c := cloneBout(b)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryBoutRepository) ListByRound(_ context.Context, roundID int) ([]*models.Bout, error) {
	var out []*models.Bout
	err := r.v.with(func(st *memoryState) error {
		out = r.byRound(st, roundID)
		return nil
	})
	return out, err
}

func (r *memoryBoutRepository) CountByRound(_ context.Context, roundID int) (int, error) {
	n := 0
	err := r.v.with(func(st *memoryState) error {
		n = len(r.byRound(st, roundID))
		return nil
	})
	return n, err
}

func (r *memoryBoutRepository) CountUndecided(_ context.Context, roundID int) (int, error) {
	n := 0
	err := r.v.with(func(st *memoryState) error {
		for _, b := range r.byRound(st, roundID) {
			if !b.IsDecided() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memoryBoutRepository) update(id int, fn func(b *models.Bout) error) error {
	return r.v.with(func(st *memoryState) error {
		b, ok := st.bouts[id]
		if !ok {
			return ErrBoutNotFound
		}
		if err := fn(&b); err != nil {
			return err
		}
		st.bouts[id] = b
		return nil
	})
}

func (r *memoryBoutRepository) SetWinner(_ context.Context, id, winnerID int) error {
	return r.update(id, func(b *models.Bout) error {
		if b.WinnerID != nil {
			return ErrBoutAlreadyDecided
		}
		b.WinnerID = &winnerID
		return nil
	})
}

func (r *memoryBoutRepository) SetSlot(_ context.Context, id int, slot models.Slot, entrantID int) error {
	return r.update(id, func(b *models.Bout) error {
		target := &b.LeftID
		if slot == models.SlotRight {
			target = &b.RightID
		}
		if *target != nil && **target != entrantID {
			return ErrSlotOccupied
		}
		*target = &entrantID
		return nil
	})
}

func (r *memoryBoutRepository) SetScores(_ context.Context, id, left, right int) error {
	return r.update(id, func(b *models.Bout) error {
		b.LeftScore, b.RightScore = left, right
		return nil
	})
}

func (r *memoryBoutRepository) CompletedStats(_ context.Context, roundID int) ([]models.BoutStats, error) {
	var out []models.BoutStats
	err := r.v.with(func(st *memoryState) error {
		out = brackets.AggregateStats(r.byRound(st, roundID))
		return nil
	})
	return out, err
}

type memoryLinkRepository struct{ v *memoryView }

func (r *memoryLinkRepository) Create(_ context.Context, l *models.BracketLink) error {
	return r.v.with(func(st *memoryState) error {
		if _, ok := st.links[l.BoutID]; ok {
			return ErrLinkConflict
		}
		if _, ok := st.bouts[l.BoutID]; !ok {
			return ErrInvalidReference
		}
		if l.NextBoutID != nil {
			if _, ok := st.bouts[*l.NextBoutID]; !ok {
				return ErrInvalidReference
			}
		}
		st.links[l.BoutID] = cloneLink(*l)
		return nil
	})
}

func (r *memoryLinkRepository) GetByBout(_ context.Context, boutID int) (*models.BracketLink, error) {
	var out *models.BracketLink
	err := r.v.with(func(st *memoryState) error {
		l, ok := st.links[boutID]
		if !ok {
			return ErrLinkNotFound
		}
		c := cloneLink(l)
		out = &c
		return nil
	})
	return out, err
}

func (r *memoryLinkRepository) ListByRound(_ context.Context, roundID int) ([]*models.BracketLink, error) {
	var out []*models.BracketLink
	err := r.v.with(func(st *memoryState) error {
		out = make([]*models.BracketLink, 0)
		for _, l := range st.links {
			if l.RoundID == roundID {
				c := cloneLink(l)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].BoutID < out[j].BoutID })
	return out, err
}

type memoryRelayRepository struct{ v *memoryView }

func (r *memoryRelayRepository) CreateState(_ context.Context, s *models.RelayState) error {
	return r.v.with(func(st *memoryState) error {
		if _, ok := st.relays[s.TeamBoutID]; ok {
			return ErrRelayExists
		}
		if _, ok := st.bouts[s.TeamBoutID]; !ok {
			return ErrInvalidReference
		}
		st.relays[s.TeamBoutID] = cloneRelay(*s)
		return nil
	})
}

func (r *memoryRelayRepository) GetState(_ context.Context, teamBoutID int) (*models.RelayState, error) {
	var out *models.RelayState
	err := r.v.with(func(st *memoryState) error {
		s, ok := st.relays[teamBoutID]
		if !ok {
			return ErrRelayNotFound
		}
		c := cloneRelay(s)
		out = &c
		return nil
	})
	return out, err
}

func (r *memoryRelayRepository) UpdateState(_ context.Context, s *models.RelayState) error {
	return r.v.with(func(st *memoryState) error {
		if _, ok := st.relays[s.TeamBoutID]; !ok {
			return ErrRelayNotFound
		}
		st.relays[s.TeamBoutID] = cloneRelay(*s)
		return nil
	})
}

func (r *memoryRelayRepository) AppendLeg(_ context.Context, l *models.RelayLeg) error {
	return r.v.with(func(st *memoryState) error {
		if _, ok := st.relays[l.TeamBoutID]; !ok {
			return ErrInvalidReference
		}
		for _, existing := range st.legs[l.TeamBoutID] {
			if existing.LegNumber == l.LegNumber {
				return ErrLegExists
			}
		}
		st.legs[l.TeamBoutID] = append(st.legs[l.TeamBoutID], *l)
		return nil
	})
}

func (r *memoryRelayRepository) UpdateLeg(_ context.Context, l *models.RelayLeg) error {
	return r.v.with(func(st *memoryState) error {
		legs := st.legs[l.TeamBoutID]
		for i := range legs {
			if legs[i].LegNumber == l.LegNumber {
				legs[i].ScoreA, legs[i].ScoreB = l.ScoreA, l.ScoreB
				return nil
			}
		}
		return ErrRelayLegNotFound
	})
}

func (r *memoryRelayRepository) ListLegs(_ context.Context, teamBoutID int) ([]models.RelayLeg, error) {
	var out []models.RelayLeg
	err := r.v.with(func(st *memoryState) error {
		out = append([]models.RelayLeg{}, st.legs[teamBoutID]...)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LegNumber < out[j].LegNumber })
	return out, err
}
