package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/court-flow/models"
)

// DefaultAutomationDebounce coalesces bursts of board changes into one pass.
const DefaultAutomationDebounce = 800 * time.Millisecond

const reconcileTimeout = 10 * time.Second

type AutomationFlags struct {
	AutoFillReady  bool `json:"auto_fill_ready"`
	AutoStartMatch bool `json:"auto_start_match"`
}

func (f AutomationFlags) Any() bool {
	return f.AutoFillReady || f.AutoStartMatch
}

// AutoMatcher fills the ready group and starts matches without an operator.
// Every board change or flag change restarts a debounce timer; when it fires
// with admin mode active and a flag set, one Reconcile pass runs.
//
// Reconcile is level-triggered and safe to repeat. Two servers sharing one
// store can still race each other; nothing here coordinates across processes.
type AutoMatcher struct {
	board  *Board
	courts CourtService
	gate   PrivilegeGate
	delay  time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	flags       AutomationFlags
	timer       *time.Timer
	stopped     bool
	unsubscribe []func()
}

func NewAutoMatcher(board *Board, courts CourtService, gate PrivilegeGate, delay time.Duration, logger *slog.Logger) *AutoMatcher {
	if delay <= 0 {
		delay = DefaultAutomationDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoMatcher{
		board:  board,
		courts: courts,
		gate:   gate,
		delay:  delay,
		logger: logger,
	}
}

// Start subscribes to the board. Call Stop to release the subscriptions.
func (m *AutoMatcher) Start() {
	onCourts := func([]models.Court) { m.schedule() }
	onPlayers := func([]models.Player) { m.schedule() }

	unsubs := []func(){
		m.board.SubscribeCourts(onCourts),
		m.board.SubscribeQueue(onPlayers),
		m.board.SubscribeReady(onPlayers),
	}

	m.mu.Lock()
	m.unsubscribe = append(m.unsubscribe, unsubs...)
	m.mu.Unlock()
}

func (m *AutoMatcher) Stop() {
	m.mu.Lock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
	}
	unsubs := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (m *AutoMatcher) Flags() AutomationFlags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

// SetFlags is only allowed in admin mode.
func (m *AutoMatcher) SetFlags(flags AutomationFlags) error {
	if !m.gate.Elevated() {
		return ErrForbiddenOperation
	}
	m.mu.Lock()
	m.flags = flags
	m.mu.Unlock()

	m.logger.Info("automation flags updated",
		slog.Bool("auto_fill_ready", flags.AutoFillReady),
		slog.Bool("auto_start_match", flags.AutoStartMatch),
	)
	m.schedule()
	return nil
}

func (m *AutoMatcher) schedule() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.delay, m.run)
}

func (m *AutoMatcher) run() {
	m.mu.Lock()
	stopped, flags := m.stopped, m.flags
	m.mu.Unlock()

	if stopped || !flags.Any() || !m.gate.Elevated() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	if _, err := m.Reconcile(ctx, flags); err != nil {
		m.logger.Error("automation pass failed", slog.Any("error", err))
	}
}

// Reconcile runs one pass: top the ready group up from the front of the queue,
// then send a full ready group to the first empty court. It reports whether
// anything changed.
func (m *AutoMatcher) Reconcile(ctx context.Context, flags AutomationFlags) (bool, error) {
	changed := false

	if flags.AutoFillReady {
		filled, err := m.board.mutate(ctx, func(snap *models.Snapshot) bool {
			moved := false
			for len(snap.ReadyGroup) < models.PlayersPerCourt && len(snap.Queue) > 0 {
				next := snap.Queue[0]
				snap.Queue = removeAt(snap.Queue, 0)
				next.Status = models.PlayerStatusReady
				snap.ReadyGroup = append(snap.ReadyGroup, next)
				moved = true
			}
			return moved
		})
		if err != nil {
			return changed, err
		}
		changed = changed || filled
	}

	if flags.AutoStartMatch {
		snap := m.board.Snapshot()
		if len(snap.ReadyGroup) == models.PlayersPerCourt {
			for _, c := range snap.Courts {
				if !c.IsEmpty() {
					continue
				}
				assigned, err := m.courts.AssignReadyToCourt(ctx, c.ID)
				if err != nil {
					return changed, err
				}
				changed = changed || len(assigned) > 0
				break
			}
		}
	}

	return changed, nil
}
