package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	owner := models.ID("4F1C2E9A-1111-4222-8333-944455556666")
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "photos/4f1c2e9a-1111-4222-8333-944455556666-1700000000123.jpg", PhotoKey(owner, ".JPG", now))
	assert.Equal(t, "avatars/4f1c2e9a-1111-4222-8333-944455556666-1700000000123.png", AvatarKey(owner, "png", now))
	assert.Equal(t, "thumbnails/4f1c2e9a-1111-4222-8333-944455556666-1700000000123-thumb.webp", ThumbnailKey(owner, now))
}

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", "   ", "../etc/passwd", "photos/../../x", "photos/"} {
		_, err := cleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}

	key, err := cleanKey("/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photos/a.jpg", key)
}

func TestDiskStore_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "http://localhost:8081/uploads")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "photos/a.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/uploads/photos/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "photos", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), "photos/a.png"))
	_, err = os.Stat(filepath.Join(root, "photos", "a.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), "photos/a.png"), "deleting a missing object is not an error")
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNew_SelectsDriver(t *testing.T) {
	store, err := New(&config.Config{StorageDriver: "disk", UploadDir: t.TempDir(), PublicBaseURL: "http://example.test/"})
	require.NoError(t, err)
	disk, ok := store.(*DiskStore)
	require.True(t, ok)
	assert.Equal(t, "http://example.test/uploads", disk.baseURL)

	store, err = New(&config.Config{StorageDriver: "s3", AWSRegion: "eu-west-1", AWSBucket: "photos"})
	require.NoError(t, err)
	_, ok = store.(*S3Store)
	assert.True(t, ok)

	_, err = New(&config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}

type recordedRequest struct {
	method string
	path   string
	acl    string
	body   string
}

func fakeS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			acl:    r.Header.Get("X-Amz-Acl"),
			body:   string(body),
		})
		mu.Unlock()

		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func TestS3Store_PutAndDelete(t *testing.T) {
	srv, requests := fakeS3(t)

	store, err := NewS3Store(S3Options{
		Region:          "us-east-1",
		Bucket:          "photos",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        srv.URL,
		PublicRead:      true,
	})
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "photos/a.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/photos/photos/a.jpg", url)

	require.NoError(t, store.Delete(context.Background(), "photos/a.jpg"))

	got := requests()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/photos/photos/a.jpg", got[0].path)
	assert.Equal(t, "public-read", got[0].acl)
	assert.True(t, strings.Contains(got[0].body, "jpeg-bytes"))
	assert.Equal(t, http.MethodDelete, got[1].method)
}

func TestS3Store_URLWithoutEndpoint(t *testing.T) {
	store, err := NewS3Store(S3Options{Region: "eu-west-1", Bucket: "photos"})
	require.NoError(t, err)
	assert.Equal(t, "https://photos.s3.eu-west-1.amazonaws.com/photos/a.jpg", store.URL("photos/a.jpg"))
}
