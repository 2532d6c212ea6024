/*
Package storage provides the presigned-URL service backing file transfers.

Clients exchange file metadata over the relay (send_file / accept_file) and
move the bytes themselves through presigned upload and download URLs, so the
relay never proxies file content.
*/
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"partyrelay/internal/pkg/errs"
)

const (
	// MaxTransferSizeMB is the maximum allowed transfer size in megabytes.
	MaxTransferSizeMB = 50

	// MaxTransferSize is the maximum allowed transfer size in bytes.
	MaxTransferSize = MaxTransferSizeMB * 1024 * 1024

	// PresignedURLDuration is how long a presigned URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// ServiceConfig holds the configuration required to reach the storage backend.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Service is the public interface of the file storage backend.
type Service interface {
	// PresignUpload generates a presigned URL for uploading a file.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a presigned URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload stores the body under the given key. This is the server-side
	// fallback for clients that cannot PUT to a presigned URL directly.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// Delete removes the file stored under the given key.
	Delete(ctx context.Context, key string) error
}

// NewService is the factory for Service. Only S3-compatible backends are
// currently supported.
func NewService(cfg ServiceConfig) (Service, error) {
	return newS3Client(cfg)
}

// ValidateSize checks a transfer size against the limit.
func ValidateSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxTransferSize {
		return errs.NewError(errs.ErrFileTooLarge)
	}

	return nil
}

// BuildKey produces the object key for a transfer: the room id as prefix so
// keys can be checked against the caller's room, plus a random component to
// keep uploads from colliding.
func BuildKey(roomID, fileName string) string {
	base := path.Base(strings.TrimSpace(fileName))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s/%s_%s", roomID, uuid.New().String(), base)
}

// KeyInRoom reports whether the object key belongs to the given room prefix.
func KeyInRoom(key, roomID string) bool {
	return strings.HasPrefix(key, roomID+"/")
}
