package repository

import (
	"context"
	"path/filepath"
	"testing"

	"photoshare/internal/database"
	"photoshare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a migrated sqlite database private to the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photoshare.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.ApplySchema(context.Background(), db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, login string) *models.User {
	t.Helper()
	user := &models.User{LoginName: login, Password: "hash", FirstName: "First", LastName: "Last"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func createPhoto(t *testing.T, db *gorm.DB, owner models.ID, caption string) *models.Photo {
	t.Helper()
	photo := &models.Photo{UserID: owner, FileName: "http://cdn.test/" + caption + ".jpg", Caption: caption}
	require.NoError(t, NewPhotoRepository(db).Create(context.Background(), photo))
	return photo
}
