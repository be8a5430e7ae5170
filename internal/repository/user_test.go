package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"photoshare/internal/cache"
	"photoshare/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateRejectsDuplicateLogin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	createUser(t, db, "alice")

	err := repo.Create(context.Background(), &models.User{LoginName: "alice", Password: "x", FirstName: "A", LastName: "B"})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestUserRepository_Lookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	createUser(t, db, "bob")

	byName, err := repo.GetByLoginName(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, "hash", byName.Password)

	_, err = repo.GetByLoginName(ctx, "nobody")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	byID, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.LoginName)

	_, err = repo.GetByID(ctx, models.NewID())
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserRepository_UpdateProfileKeepsPasswordAndInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	cached, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.UserKey(alice.ID)))
	assert.Empty(t, cached.Password, "password hash is never cached")

	cached.Location = "Lisbon"
	require.NoError(t, repo.UpdateProfile(ctx, cached))
	assert.False(t, mr.Exists(cache.UserKey(alice.ID)))

	fresh, err := repo.GetByLoginName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", fresh.Location)
	assert.Equal(t, "hash", fresh.Password)
	assert.WithinDuration(t, time.Now(), fresh.UpdatedAt, time.Minute)

	err = repo.UpdateProfile(ctx, &models.User{ID: models.NewID(), LoginName: "ghost"})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_GetByID_SameShapeOnMissAndHit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := &models.User{LoginName: "alice", Password: "hash", FirstName: "A", LastName: "B",
		Avatar: "http://cdn.test/a.png", AvatarKey: "avatars/a.png"}
	require.NoError(t, repo.Create(ctx, alice))

	t.Run("without Redis", func(t *testing.T) {
		cache.SetClient(nil)
		user, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, user.Password)
		assert.Empty(t, user.AvatarKey)
		assert.Equal(t, "http://cdn.test/a.png", user.Avatar)
	})

	t.Run("cache miss then hit", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		t.Cleanup(func() { cache.SetClient(nil) })

		miss, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.True(t, mr.Exists(cache.UserKey(alice.ID)))
		hit, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)

		assert.Equal(t, miss.Password, hit.Password)
		assert.Equal(t, miss.AvatarKey, hit.AvatarKey)
		assert.Empty(t, miss.Password)
		assert.Empty(t, miss.AvatarKey)
		assert.Equal(t, miss.LoginName, hit.LoginName)
	})

	full, err := repo.GetByIDForUpdate(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", full.Password)
	assert.Equal(t, "avatars/a.png", full.AvatarKey)
}

func TestUserRepository_List_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" ORDER BY created_at ASC,login_name ASC`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background())
	assert.Equal(t, models.CodeStorageFailure, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.login_name")))
	assert.False(t, isUniqueConstraintError(errors.New("timeout")))
	assert.False(t, isUniqueConstraintError(nil))
}
