package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/court-flow/models"
)

var (
	// ErrSnapshotNotFound означает, что сохранённого состояния ещё нет.
	ErrSnapshotNotFound = errors.New("board snapshot not found")
	// ErrSnapshotCorrupt означает, что сохранённое состояние нельзя прочитать.
	ErrSnapshotCorrupt = errors.New("board snapshot is corrupt")
)

// SnapshotRepository is the durable store behind the board.
// Save must replace the stored snapshot as a single unit: readers never
// observe a half-written board.
type SnapshotRepository interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
}
