package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *memoryUploader) Upload(_ context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.key, u.contentType, u.body = key, contentType, body
	return &UploadResult{Key: key}, nil
}

func TestSnapshotArchiver_UploadsDatedJSON(t *testing.T) {
	uploader := &memoryUploader{}
	at := time.Date(2024, 5, 1, 22, 15, 30, 0, time.UTC)
	archiver := NewSnapshotArchiver(uploader, func() time.Time { return at })

	snap := models.InitialSnapshot(2)
	snap.Queue = []models.Player{{ID: "a", DisplayName: "Ann", CheckInTime: at, Status: models.PlayerStatusQueueing}}

	key, err := archiver.Archive(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "schedules/2024-05-01/221530.json", key)
	assert.Equal(t, key, uploader.key)
	assert.Equal(t, "application/json", uploader.contentType)

	var decoded models.Snapshot
	require.NoError(t, json.Unmarshal(uploader.body, &decoded))
	assert.Len(t, decoded.Courts, 2)
	require.Len(t, decoded.Queue, 1)
	assert.Equal(t, "Ann", decoded.Queue[0].DisplayName)
}

func TestSnapshotArchiver_PropagatesUploadError(t *testing.T) {
	archiver := NewSnapshotArchiver(&memoryUploader{err: errors.New("access denied")}, nil)

	_, err := archiver.Archive(context.Background(), models.InitialSnapshot(1))
	assert.EqualError(t, err, "access denied")
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/schedules/a.json", publicURL("https://cdn.example.com", "schedules/a.json"))
	assert.Equal(t, "https://cdn.example.com/base/a.json", publicURL("https://cdn.example.com/base/", "/a.json"))
	assert.Empty(t, publicURL("", "a.json"))
}

func TestNewCloudflareR2Uploader_RequiresConfig(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"})
	assert.Error(t, err)
}
