// Package storage persists image bytes and returns the public URL they are served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/models"
)

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// ObjectStore stores binary objects under caller-chosen keys.
type ObjectStore interface {
	// Put stores body under key and returns a durable, publicly resolvable URL.
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New selects the store configured by STORAGE_DRIVER.
func New(cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3Store(S3Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.AWSBucket,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.AWSEndpoint,
			PublicRead:      cfg.AWSPublicRead,
		})
	case "disk", "":
		return NewDiskStore(cfg.UploadDir, strings.TrimRight(cfg.PublicBaseURL, "/")+"/uploads")
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// PhotoKey names a new photo object. Keys are unique per owner and upload instant.
func PhotoKey(owner models.ID, ext string, now time.Time) string {
	return objectKey("photos", owner, "", ext, now)
}

// ThumbnailKey names the thumbnail rendition stored next to a photo.
func ThumbnailKey(owner models.ID, now time.Time) string {
	return objectKey("thumbnails", owner, "-thumb", ".webp", now)
}

// AvatarKey names a new avatar object.
func AvatarKey(owner models.ID, ext string, now time.Time) string {
	return objectKey("avatars", owner, "", ext, now)
}

func objectKey(prefix string, owner models.ID, suffix, ext string, now time.Time) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%s-%d%s%s", prefix, owner.Canonical(), now.UnixMilli(), suffix, strings.ToLower(ext))
}

// cleanKey rejects keys that would leave the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
