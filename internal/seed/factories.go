// Package seed creates demo data for development databases. It writes
// through GORM directly and is not used by the request path.
package seed

import (
	"fmt"
	"strings"
	"time"

	"photoshare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

// Options tune generated content.
type Options struct {
	// Seed makes generated content reproducible; 0 picks a random seed.
	Seed int64
	// MaxDays spreads photo and comment timestamps over the past N days.
	MaxDays int
	// FastHash uses bcrypt.MinCost so large seeds finish quickly.
	FastHash bool
}

// Factory builds domain entities and persists them.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	seq   int
	hash  string
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(opts.Seed)}
}

// passwordHash hashes DefaultPassword once per factory.
func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.hash = string(hashed)
	return f.hash, nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back)
}

// CreateUser persists a generated user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.passwordHash()
	if err != nil {
		return nil, err
	}

	f.seq++
	first := f.faker.FirstName()
	last := f.faker.LastName()
	user := &models.User{
		LoginName:   fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), f.seq),
		Password:    hashed,
		FirstName:   first,
		LastName:    last,
		Email:       f.faker.Email(),
		Description: f.faker.Sentence(10),
		Occupation:  f.faker.JobTitle(),
		Location:    f.faker.City(),
		Avatar:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %q: %w", user.LoginName, err)
	}
	return user, nil
}

// CreatePhoto persists a photo owned by owner. Seeded photos point at
// placeholder URLs and have no stored objects.
func (f *Factory) CreatePhoto(owner *models.User, overrides ...func(*models.Photo)) (*models.Photo, error) {
	seed := f.faker.UUID()
	photo := &models.Photo{
		UserID:       owner.ID,
		FileName:     fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", seed),
		ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/256/171", seed),
		Caption:      f.faker.Sentence(6),
		Width:        1200,
		Height:       800,
		DateTime:     f.pastTime(),
	}
	for _, override := range overrides {
		override(photo)
	}

	if err := f.db.Create(photo).Error; err != nil {
		return nil, fmt.Errorf("create photo: %w", err)
	}
	return photo, nil
}

// CreateComment adds a comment by author to photo, dated after the photo.
func (f *Factory) CreateComment(photo *models.Photo, author *models.User, text string) (*models.Comment, error) {
	if text == "" {
		text = f.faker.Sentence(f.faker.Number(3, 12))
	}
	at := photo.DateTime.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if now := time.Now().UTC(); at.After(now) {
		at = now
	}
	comment := &models.Comment{
		PhotoID:  photo.ID,
		UserID:   author.ID,
		Comment:  text,
		DateTime: at,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Like records that user likes photo. Repeated likes are ignored.
func (f *Factory) Like(photo *models.Photo, user *models.User) error {
	like := models.PhotoLike{PhotoID: photo.ID, UserID: user.ID, CreatedAt: time.Now().UTC()}
	if err := f.db.Where(models.PhotoLike{PhotoID: photo.ID, UserID: user.ID}).
		FirstOrCreate(&like).Error; err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

// chance reports true with probability p.
func (f *Factory) chance(p float64) bool {
	return p > 0 && f.faker.Float64Range(0, 1) < p
}
