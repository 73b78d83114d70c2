package repositories

import (
	"context"
	"sync"

	"github.com/Dosada05/court-flow/models"
)

type memorySnapshotRepository struct {
	mu       sync.Mutex
	snapshot *models.Snapshot
}

// NewMemorySnapshotRepository keeps the snapshot in process memory. State is lost on restart.
func NewMemorySnapshotRepository() SnapshotRepository {
	return &memorySnapshotRepository{}
}

func (r *memorySnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		return nil, ErrSnapshotNotFound
	}
	return r.snapshot.Clone(), nil
}

func (r *memorySnapshotRepository) Save(ctx context.Context, snapshot *models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = snapshot.Clone()
	return nil
}
