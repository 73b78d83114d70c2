package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/google/uuid"
)

// DefaultAvatarBaseURL generates an avatar from a seed.
const DefaultAvatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

type QueueService interface {
	CheckIn(ctx context.Context, input CheckInInput) (*models.Player, error)
	MoveToReady(ctx context.Context, playerID string) (bool, error)
	MoveBackToQueue(ctx context.Context, playerID string) (bool, error)
	CancelPlayer(ctx context.Context, playerID string, source models.PlayerSource) (bool, error)
}

type CheckInInput struct {
	DisplayName string `json:"display_name"`
	AvatarSeed  string `json:"avatar_seed"`
}

type QueueServiceConfig struct {
	AvatarBaseURL string
	Now           func() time.Time
}

type queueService struct {
	board         *Board
	avatarBaseURL string
	now           func() time.Time
}

func NewQueueService(board *Board, cfg QueueServiceConfig) QueueService {
	if cfg.AvatarBaseURL == "" {
		cfg.AvatarBaseURL = DefaultAvatarBaseURL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &queueService{
		board:         board,
		avatarBaseURL: cfg.AvatarBaseURL,
		now:           cfg.Now,
	}
}

func (s *queueService) CheckIn(ctx context.Context, input CheckInInput) (*models.Player, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, ErrDisplayNameRequired
	}
	seed := strings.TrimSpace(input.AvatarSeed)
	if seed == "" {
		seed = name
	}

	player := models.Player{
		ID:          uuid.NewString(),
		DisplayName: name,
		AvatarURL:   s.avatarBaseURL + url.QueryEscape(seed),
		CheckInTime: s.now(),
		Status:      models.PlayerStatusQueueing,
	}

	_, err := s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		snap.Queue = append(snap.Queue, player)
		// Хвост не всегда самый поздний: вернувшиеся с корта встают по времени
		models.SortQueue(snap.Queue)
		return true
	})
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *queueService) MoveToReady(ctx context.Context, playerID string) (bool, error) {
	return s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		if len(snap.ReadyGroup) >= models.PlayersPerCourt {
			return false
		}
		idx := indexOfPlayer(snap.Queue, playerID)
		if idx == -1 {
			return false
		}
		player := snap.Queue[idx]
		snap.Queue = removeAt(snap.Queue, idx)
		player.Status = models.PlayerStatusReady
		snap.ReadyGroup = append(snap.ReadyGroup, player)
		return true
	})
}

func (s *queueService) MoveBackToQueue(ctx context.Context, playerID string) (bool, error) {
	return s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		idx := indexOfPlayer(snap.ReadyGroup, playerID)
		if idx == -1 {
			return false
		}
		player := snap.ReadyGroup[idx]
		snap.ReadyGroup = removeAt(snap.ReadyGroup, idx)
		player.Status = models.PlayerStatusQueueing
		snap.Queue = append(snap.Queue, player)
		models.SortQueue(snap.Queue)
		return true
	})
}

// CancelPlayer removes the player from the named collection only.
func (s *queueService) CancelPlayer(ctx context.Context, playerID string, source models.PlayerSource) (bool, error) {
	if !source.Valid() {
		return false, ErrInvalidSource
	}
	return s.board.mutate(ctx, func(snap *models.Snapshot) bool {
		target := &snap.Queue
		if source == models.SourceReady {
			target = &snap.ReadyGroup
		}
		idx := indexOfPlayer(*target, playerID)
		if idx == -1 {
			return false
		}
		*target = removeAt(*target, idx)
		return true
	})
}

func indexOfPlayer(players []models.Player, playerID string) int {
	for i, p := range players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func removeAt(players []models.Player, idx int) []models.Player {
	out := make([]models.Player, 0, len(players)-1)
	out = append(out, players[:idx]...)
	return append(out, players[idx+1:]...)
}
