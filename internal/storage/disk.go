package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"photoshare/internal/observability"
)

// DiskStore writes objects below a local directory served at baseURL.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates root if needed.
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root, baseURL: baseURL}, nil
}

// Root is the directory objects are written to.
func (d *DiskStore) Root() string {
	return d.root
}

func (d *DiskStore) Put(ctx context.Context, key, _ string, body []byte) (url string, err error) {
	_, span := observability.StartStorageSpan(ctx, "disk", "put", key)
	defer func() { observability.EndSpan(span, err) }()

	key, err = cleanKey(key)
	if err != nil {
		return "", err
	}

	target := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("commit object: %w", err)
	}
	if err := os.Chmod(target, 0o644); err != nil {
		return "", fmt.Errorf("chmod object: %w", err)
	}

	return d.baseURL + "/" + key, nil
}

func (d *DiskStore) Delete(ctx context.Context, key string) (err error) {
	_, span := observability.StartStorageSpan(ctx, "disk", "delete", key)
	defer func() { observability.EndSpan(span, err) }()

	key, err = cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(d.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
