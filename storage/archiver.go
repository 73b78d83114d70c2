package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/court-flow/models"
)

const archivePrefix = "schedules"

// SnapshotArchiver uploads the board as JSON before it is cleared.
type SnapshotArchiver struct {
	uploader FileUploader
	now      func() time.Time
}

func NewSnapshotArchiver(uploader FileUploader, now func() time.Time) *SnapshotArchiver {
	if now == nil {
		now = time.Now
	}
	return &SnapshotArchiver{uploader: uploader, now: now}
}

// Archive returns the object key the snapshot was stored under.
func (a *SnapshotArchiver) Archive(ctx context.Context, snapshot *models.Snapshot) (string, error) {
	body, err := json.MarshalIndent(snapshot, "", "\t")
	if err != nil {
		return "", fmt.Errorf("failed to encode board archive: %w", err)
	}

	ts := a.now().UTC()
	key := fmt.Sprintf("%s/%s/%s.json", archivePrefix, ts.Format("2006-01-02"), ts.Format("150405"))

	result, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return result.Key, nil
}
