package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/Dosada05/court-flow/repositories"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store is down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock moves forward one second on every reading.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// flakyRepository fails Save while failSave is set and counts successful saves.
type flakyRepository struct {
	repositories.SnapshotRepository

	mu       sync.Mutex
	failSave bool
	loadErr  error
	saves    int
}

func newFlakyRepository() *flakyRepository {
	return &flakyRepository{SnapshotRepository: repositories.NewMemorySnapshotRepository()}
}

func (r *flakyRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.SnapshotRepository.Load(ctx)
}

func (r *flakyRepository) Save(ctx context.Context, s *models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errStoreDown
	}
	r.saves++
	return r.SnapshotRepository.Save(ctx, s)
}

func (r *flakyRepository) setFailSave(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSave = fail
}

func (r *flakyRepository) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

type recordingAnnouncer struct {
	mu    sync.Mutex
	calls []announcement
	err   error
}

type announcement struct {
	court   string
	players []string
}

func (a *recordingAnnouncer) AnnounceCourtAssignment(_ context.Context, courtName string, playerNames []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, announcement{court: courtName, players: playerNames})
	return a.err
}

func (a *recordingAnnouncer) announcements() []announcement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]announcement{}, a.calls...)
}

type fixture struct {
	board     *Board
	repo      *flakyRepository
	clock     *fakeClock
	queue     QueueService
	courts    CourtService
	announcer *recordingAnnouncer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSnapshot(t, nil)
}

// newFixtureWithSnapshot seeds the store with s before the board loads it.
func newFixtureWithSnapshot(t *testing.T, s *models.Snapshot) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := newFlakyRepository()
	if s != nil {
		require.NoError(t, repo.SnapshotRepository.Save(ctx, s))
	}

	board, err := NewBoard(ctx, repo, DefaultInitialCourts, discardLogger())
	require.NoError(t, err)

	clock := newFakeClock()
	announcer := &recordingAnnouncer{}
	return &fixture{
		board:     board,
		repo:      repo,
		clock:     clock,
		queue:     NewQueueService(board, QueueServiceConfig{Now: clock.Now}),
		courts:    NewCourtService(board, CourtServiceConfig{Announcer: announcer, Now: clock.Now}, discardLogger()),
		announcer: announcer,
	}
}

func (f *fixture) checkIn(t *testing.T, names ...string) []models.Player {
	t.Helper()
	out := make([]models.Player, 0, len(names))
	for _, name := range names {
		p, err := f.queue.CheckIn(context.Background(), CheckInInput{DisplayName: name})
		require.NoError(t, err)
		out = append(out, *p)
	}
	return out
}

// fillReady checks in four players and promotes them.
func (f *fixture) fillReady(t *testing.T, names ...string) []models.Player {
	t.Helper()
	players := f.checkIn(t, names...)
	for _, p := range players {
		ok, err := f.queue.MoveToReady(context.Background(), p.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return players
}

func playerIDs(players []models.Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func courtNames(courts []models.Court) []string {
	names := make([]string, len(courts))
	for i, c := range courts {
		names[i] = c.Name
	}
	return names
}

func requireQueueSorted(t *testing.T, queue []models.Player) {
	t.Helper()
	for i := 1; i < len(queue); i++ {
		require.False(t, queue[i].CheckInTime.Before(queue[i-1].CheckInTime),
			"queue out of order at %d", i)
	}
}

func occupiedSnapshot(start time.Time) *models.Snapshot {
	s := models.InitialSnapshot(2)
	players := make([]models.Player, models.PlayersPerCourt)
	for i := range players {
		players[i] = models.Player{
			ID:          "busy-" + string(rune('a'+i)),
			DisplayName: "Busy " + string(rune('A'+i)),
			CheckInTime: start.Add(-time.Duration(10-i) * time.Minute),
			Status:      models.PlayerStatusPlaying,
		}
	}
	s.Courts[1].Status = models.CourtStatusOccupied
	s.Courts[1].MatchStartTime = &start
	s.Courts[1].Players = players
	return s
}
