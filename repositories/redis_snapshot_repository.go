package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/court-flow/models"
	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the key the board snapshot is stored under.
const DefaultRedisKey = "court_flow:board"

type redisSnapshotRepository struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotRepository stores the snapshot as one JSON document under key.
// A single SET keeps the write atomic.
func NewRedisSnapshotRepository(client *redis.Client, key string) SnapshotRepository {
	if key == "" {
		key = DefaultRedisKey
	}
	return &redisSnapshotRepository{client: client, key: key}
}

func (r *redisSnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot from redis (key: %s): %w", r.key, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	return &snapshot, nil
}

func (r *redisSnapshotRepository) Save(ctx context.Context, snapshot *models.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to redis (key: %s): %w", r.key, err)
	}
	return nil
}
