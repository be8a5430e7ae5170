package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"photoshare/internal/cache"
	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

const testJWTSecret = "test-secret-that-is-at-least-32-characters"

type testEnv struct {
	app    *fiber.App
	server *Server
	rdb    *redis.Client
	cfg    *config.Config
}

// newTestEnv wires a full server over sqlite, miniredis and a disk store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	cfg := &config.Config{
		JWTSecret:            testJWTSecret,
		SessionTTLHours:      1,
		Env:                  "test",
		AllowedOrigins:       "http://localhost:3000",
		FeatureFlags:         "realtime_feed=on",
		StorageDriver:        "disk",
		UploadDir:            t.TempDir(),
		PublicBaseURL:        "http://localhost:8081",
		ImageMaxUploadSizeMB: 5,
	}

	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "photoshare.db")), cfg,
		database.ConnectOptions{ApplySchema: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store, err := storage.New(cfg)
	require.NoError(t, err)

	s, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)

	return &testEnv{app: s.NewApp(), server: s, rdb: rdb, cfg: cfg}
}

type apiResponse struct {
	status  int
	raw     string
	body    map[string]any
	cookies []*http.Cookie
}

func (r apiResponse) object(key string) map[string]any {
	obj, _ := r.body[key].(map[string]any)
	return obj
}

func (r apiResponse) list(key string) []any {
	items, _ := r.body[key].([]any)
	return items
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request, token string) apiResponse {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := apiResponse{status: resp.StatusCode, raw: string(raw), cookies: resp.Cookies()}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.body)
	}
	return out
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return doRequest(t, app, req, token)
}

// doMultipart sends fields plus one file part named fileField.
func doMultipart(t *testing.T, app *fiber.App, method, path, token string, fields map[string]string, fileField, filename string, content []byte) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return doRequest(t, app, req, token)
}

// registerAndLogin creates an account and returns its ID and session token.
func registerAndLogin(t *testing.T, app *fiber.App, login string) (string, string) {
	t.Helper()
	created := doJSON(t, app, http.MethodPost, "/api/users", "", map[string]string{
		"login_name": login,
		"password":   login + "-password",
		"first_name": "First",
		"last_name":  "Last",
	})
	require.Equal(t, http.StatusCreated, created.status, created.raw)

	loggedIn := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"login_name": login,
		"password":   login + "-password",
	})
	require.Equal(t, http.StatusOK, loggedIn.status, loggedIn.raw)

	token, _ := loggedIn.body["token"].(string)
	require.NotEmpty(t, token)
	id, _ := created.object("user")["id"].(string)
	require.NotEmpty(t, id)
	return id, token
}
