package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/court-flow/models"
	"github.com/Dosada05/court-flow/repositories"
)

// DefaultInitialCourts is the size of the starting court roster.
const DefaultInitialCourts = 3

// Board owns the current snapshot of courts, queue and ready group.
//
// Mutations are applied to a working copy, saved, and only then committed and
// delivered to subscribers. Subscribers receive whole collections, never deltas.
// Callbacks run on the mutating goroutine and must not mutate the board or
// subscribe from inside the callback.
type Board struct {
	repo          repositories.SnapshotRepository
	logger        *slog.Logger
	initialCourts int

	mu    sync.RWMutex
	state *models.Snapshot

	// notifyMu keeps deliveries in commit order; published is the last delivered state.
	notifyMu  sync.Mutex
	published *models.Snapshot

	courtsSubs *registry[[]models.Court]
	queueSubs  *registry[[]models.Player]
	readySubs  *registry[[]models.Player]
}

// NewBoard loads the persisted snapshot. A missing or corrupt snapshot falls
// back to the initial roster; an unreachable store is returned as an error.
func NewBoard(ctx context.Context, repo repositories.SnapshotRepository, initialCourts int, logger *slog.Logger) (*Board, error) {
	if initialCourts < 0 {
		return nil, fmt.Errorf("initial court count must not be negative, got %d", initialCourts)
	}
	if logger == nil {
		logger = slog.Default()
	}

	state, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repositories.ErrSnapshotNotFound):
		logger.Info("no saved board, starting from initial roster", slog.Int("courts", initialCourts))
		state = models.InitialSnapshot(initialCourts)
	case errors.Is(err, repositories.ErrSnapshotCorrupt):
		logger.Warn("saved board is corrupt, starting from initial roster", slog.Any("error", err))
		state = models.InitialSnapshot(initialCourts)
	case err != nil:
		return nil, fmt.Errorf("failed to load board: %w", err)
	default:
		if vErr := state.Validate(); vErr != nil {
			logger.Warn("saved board violates invariants, starting from initial roster", slog.Any("error", vErr))
			state = models.InitialSnapshot(initialCourts)
		} else {
			state = state.Clone()
		}
	}

	return &Board{
		repo:          repo,
		logger:        logger,
		initialCourts: initialCourts,
		state:         state,
		published:     state,
		courtsSubs:    newRegistry[[]models.Court](),
		queueSubs:     newRegistry[[]models.Player](),
		readySubs:     newRegistry[[]models.Player](),
	}, nil
}

// Snapshot returns a deep copy of the committed state.
func (b *Board) Snapshot() *models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Clone()
}

// InitialCourts is the number of courts a reset restores.
func (b *Board) InitialCourts() int {
	return b.initialCourts
}

func (b *Board) SubscribeCourts(fn func([]models.Court)) (unsubscribe func()) {
	return subscribe(b, b.courtsSubs, fn, pickCourts)
}

func (b *Board) SubscribeQueue(fn func([]models.Player)) (unsubscribe func()) {
	return subscribe(b, b.queueSubs, fn, pickQueue)
}

func (b *Board) SubscribeReady(fn func([]models.Player)) (unsubscribe func()) {
	return subscribe(b, b.readySubs, fn, pickReady)
}

// mutate applies fn to a working copy of the state. fn reports whether it
// changed anything; unchanged boards are neither saved nor delivered.
func (b *Board) mutate(ctx context.Context, fn func(s *models.Snapshot) bool) (bool, error) {
	b.mu.Lock()
	next := b.state.Clone()
	if !fn(next) {
		b.mu.Unlock()
		return false, nil
	}
	if err := b.repo.Save(ctx, next); err != nil {
		b.mu.Unlock()
		return false, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	b.state = next

	b.notifyMu.Lock()
	b.mu.Unlock()
	defer b.notifyMu.Unlock()

	b.published = next
	deliver(b, b.courtsSubs, pickCourts, next)
	deliver(b, b.queueSubs, pickQueue, next)
	deliver(b, b.readySubs, pickReady, next)
	return true, nil
}

func pickCourts(s *models.Snapshot) []models.Court { return models.CloneCourts(s.Courts) }
func pickQueue(s *models.Snapshot) []models.Player { return append([]models.Player{}, s.Queue...) }
func pickReady(s *models.Snapshot) []models.Player { return append([]models.Player{}, s.ReadyGroup...) }

func subscribe[T any](b *Board, reg *registry[T], fn func(T), pick func(*models.Snapshot) T) func() {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	id := reg.add(fn)
	safeCall(b.logger, fn, pick(b.published))

	var once sync.Once
	return func() {
		once.Do(func() { reg.remove(id) })
	}
}

// deliver hands every subscriber its own copy of the collection.
func deliver[T any](b *Board, reg *registry[T], pick func(*models.Snapshot) T, s *models.Snapshot) {
	for _, fn := range reg.list() {
		safeCall(b.logger, fn, pick(s))
	}
}

func safeCall[T any](logger *slog.Logger, fn func(T), value T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("board subscriber panicked", slog.Any("panic", r))
		}
	}()
	fn(value)
}

// registry holds the callbacks of one collection.
type registry[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(T)
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{subs: make(map[uint64]func(T))}
}

func (r *registry[T]) add(fn func(T)) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.subs[r.nextID] = fn
	return r.nextID
}

func (r *registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

func (r *registry[T]) list() []func(T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]func(T), 0, len(r.subs))
	for _, fn := range r.subs {
		out = append(out, fn)
	}
	return out
}
