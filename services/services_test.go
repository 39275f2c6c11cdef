package services

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/repositories"
	"github.com/Dosada05/fencing-bracket/storage"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) NotifyRound(_ int, messageType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, messageType)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.key, u.contentType, u.body = key, contentType, body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(context.Context, string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

// fixture is a memory store with every service wired to it.
type fixture struct {
	store    *repositories.MemoryStore
	notifier *recordingNotifier
	rounds   RoundService
	seeding  SeedingService
	bracket  BracketService
	bouts    BoutService
	relays   RelayService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	n := &recordingNotifier{}
	return &fixture{
		store:    store,
		notifier: n,
		rounds:   NewRoundService(store, n, nil, nil, 0),
		seeding:  NewSeedingService(store, nil),
		bracket:  NewBracketService(store, n, nil, nil),
		bouts:    NewBoutService(store, n, nil, nil),
		relays:   NewRelayService(store, n, nil, nil),
	}
}

func (f *fixture) addFencers(t *testing.T, eventID, n int) []*models.Entrant {
	t.Helper()
	out := make([]*models.Entrant, n)
	for i := range out {
		e := &models.Entrant{EventID: eventID, Kind: models.EntrantIndividual, Name: "fencer"}
		require.NoError(t, f.store.Repos().Entrants.Create(context.Background(), e))
		out[i] = e
	}
	return out
}

func (f *fixture) addTeam(t *testing.T, eventID int, starters ...int) *models.Entrant {
	t.Helper()
	e := &models.Entrant{EventID: eventID, Kind: models.EntrantTeam, Name: "team", Starters: starters}
	require.NoError(t, f.store.Repos().Entrants.Create(context.Background(), e))
	return e
}

func (f *fixture) addRound(t *testing.T, r models.Round) *models.Round {
	t.Helper()
	if r.Kind == "" {
		r.Kind = models.EntrantIndividual
	}
	require.NoError(t, f.store.Repos().Rounds.Create(context.Background(), &r))
	return &r
}

func (f *fixture) listBouts(t *testing.T, roundID int) []*models.Bout {
	t.Helper()
	out, err := f.store.Repos().Bouts.ListByRound(context.Background(), roundID)
	require.NoError(t, err)
	return out
}

func (f *fixture) getRound(t *testing.T, roundID int) *models.Round {
	t.Helper()
	r, err := f.store.Repos().Rounds.GetByID(context.Background(), roundID)
	require.NoError(t, err)
	return r
}
