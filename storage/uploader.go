package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// SnapshotKey is the object key of one exported snapshot of a round.
func SnapshotKey(roundID int, name string) string {
	return fmt.Sprintf("exports/rounds/%d/%s.json", roundID, name)
}
