package bootstrap

import (
	"path/filepath"
	"testing"

	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/models"
	"photoshare/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestSeedDatabase_CleanReplacesData(t *testing.T) {
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "bootstrap.db")), &config.Config{},
		database.ConnectOptions{ApplySchema: true})
	require.NoError(t, err)

	opts := Options{
		Preset: &seed.Preset{Random: seed.RandomSpec{Users: 2, PhotosPerUser: 1}},
		Seed:   seed.Options{Seed: 7, FastHash: true},
	}
	_, err = SeedDatabase(db, opts)
	require.NoError(t, err)

	opts.Clean = true
	res, err := SeedDatabase(db, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Users)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(2), users)
}

func TestSeedDatabase_RejectsInvalidPreset(t *testing.T) {
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "bootstrap.db")), &config.Config{},
		database.ConnectOptions{ApplySchema: true})
	require.NoError(t, err)

	_, err = SeedDatabase(db, Options{Preset: &seed.Preset{Random: seed.RandomSpec{LikeProbability: 3}}})
	assert.Error(t, err)
}
