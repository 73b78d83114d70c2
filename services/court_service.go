package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/google/uuid"
)

// Announcer is told which players were just sent to which court.
// Its failures never undo the assignment.
type Announcer interface {
	AnnounceCourtAssignment(ctx context.Context, courtName string, playerNames []string) error
}

// SnapshotArchiver keeps a copy of the board before it is cleared.
type SnapshotArchiver interface {
	Archive(ctx context.Context, snapshot *models.Snapshot) (string, error)
}

type CourtService interface {
	AssignReadyToCourt(ctx context.Context, courtID string) ([]models.Player, error)
	EndMatch(ctx context.Context, courtID string) (bool, error)
	AddCourt(ctx context.Context) (*models.Court, error)
	RemoveLastCourt(ctx context.Context) (bool, error)
	RemoveCourt(ctx context.Context, courtID string) (bool, error)
	ClearTodaySchedule(ctx context.Context) error
}

type CourtServiceConfig struct {
	Announcer Announcer
	Archiver  SnapshotArchiver
	Now       func() time.Time
}

type courtService struct {
	board     *Board
	announcer Announcer
	archiver  SnapshotArchiver
	now       func() time.Time
	logger    *slog.Logger
}

func NewCourtService(board *Board, cfg CourtServiceConfig, logger *slog.Logger) CourtService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &courtService{
		board:     board,
		announcer: cfg.Announcer,
		archiver:  cfg.Archiver,
		now:       cfg.Now,
		logger:    logger,
	}
}

// AssignReadyToCourt moves a full ready group onto an empty court. It returns
// the assigned players, or nothing when the court is missing, busy, or the
// ready group is not full.
func (s *courtService) AssignReadyToCourt(ctx context.Context, courtID string) ([]models.Player, error) {
	var (
		assigned  []models.Player
		courtName string
	)
	changed, err := s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		idx := indexOfCourt(snap.Courts, courtID)
		if idx == -1 || !snap.Courts[idx].IsEmpty() {
			return false
		}
		if len(snap.ReadyGroup) != models.PlayersPerCourt {
			return false
		}

		start := s.now()
		players := make([]models.Player, len(snap.ReadyGroup))
		for i, p := range snap.ReadyGroup {
			p.Status = models.PlayerStatusPlaying
			players[i] = p
		}

		court := &snap.Courts[idx]
		court.Status = models.CourtStatusOccupied
		court.MatchStartTime = &start
		court.Players = players
		snap.ReadyGroup = []models.Player{}

		assigned = append([]models.Player{}, players...)
		courtName = court.Name
		return true
	})
	if err != nil || !changed {
		return nil, err
	}

	s.logger.Info("match started",
		slog.String("court_id", courtID),
		slog.String("court", courtName),
		slog.Int("players", len(assigned)),
	)
	s.announce(ctx, courtName, assigned)
	return assigned, nil
}

func (s *courtService) announce(ctx context.Context, courtName string, players []models.Player) {
	if s.announcer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("announcer panicked", slog.String("court", courtName), slog.Any("panic", r))
		}
	}()

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.DisplayName
	}
	if err := s.announcer.AnnounceCourtAssignment(ctx, courtName, names); err != nil {
		s.logger.Warn("court announcement failed", slog.String("court", courtName), slog.Any("error", err))
	}
}

// EndMatch sends the court's players back to the queue with a fresh check-in time.
// Unknown and already empty courts are left alone.
func (s *courtService) EndMatch(ctx context.Context, courtID string) (bool, error) {
	return s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		idx := indexOfCourt(snap.Courts, courtID)
		if idx == -1 || snap.Courts[idx].IsEmpty() {
			return false
		}

		now := s.now()
		court := &snap.Courts[idx]
		for _, p := range court.Players {
			checkIn := now
			if !checkIn.After(p.CheckInTime) {
				checkIn = p.CheckInTime.Add(time.Nanosecond)
			}
			p.CheckInTime = checkIn
			p.Status = models.PlayerStatusQueueing
			snap.Queue = append(snap.Queue, p)
		}

		court.Status = models.CourtStatusEmpty
		court.MatchStartTime = nil
		court.Players = []models.Player{}
		models.SortQueue(snap.Queue)
		return true
	})
}

func (s *courtService) AddCourt(ctx context.Context) (*models.Court, error) {
	court := models.Court{
		ID:      uuid.NewString(),
		Status:  models.CourtStatusEmpty,
		Players: []models.Player{},
	}
	_, err := s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		court.Name = models.CourtName(len(snap.Courts) + 1)
		snap.Courts = append(snap.Courts, court)
		return true
	})
	if err != nil {
		return nil, err
	}
	return &court, nil
}

// RemoveLastCourt removes the highest-positioned empty court.
func (s *courtService) RemoveLastCourt(ctx context.Context) (bool, error) {
	return s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		for i := len(snap.Courts) - 1; i >= 0; i-- {
			if snap.Courts[i].IsEmpty() {
				snap.Courts = removeCourtAt(snap.Courts, i)
				models.RenumberCourts(snap.Courts)
				return true
			}
		}
		return false
	})
}

func (s *courtService) RemoveCourt(ctx context.Context, courtID string) (bool, error) {
	return s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		idx := indexOfCourt(snap.Courts, courtID)
		if idx == -1 || !snap.Courts[idx].IsEmpty() {
			return false
		}
		snap.Courts = removeCourtAt(snap.Courts, idx)
		models.RenumberCourts(snap.Courts)
		return true
	})
}

// ClearTodaySchedule drops every player and restores the initial court roster.
func (s *courtService) ClearTodaySchedule(ctx context.Context) error {
	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, s.board.Snapshot())
		if err != nil {
			s.logger.Warn("failed to archive board before reset", slog.Any("error", err))
		} else {
			s.logger.Info("board archived before reset", slog.String("key", key))
		}
	}

	initial := models.InitialSnapshot(s.board.InitialCourts())
	_, err := s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		*snap = *initial
		return true
	})
	if err != nil {
		return err
	}
	s.logger.Info("today's schedule cleared", slog.Int("courts", len(initial.Courts)))
	return nil
}

func indexOfCourt(courts []models.Court, courtID string) int {
	for i, c := range courts {
		if c.ID == courtID {
			return i
		}
	}
	return -1
}

func removeCourtAt(courts []models.Court, idx int) []models.Court {
	out := make([]models.Court, 0, len(courts)-1)
	out = append(out, courts[:idx]...)
	return append(out, courts[idx+1:]...)
}
