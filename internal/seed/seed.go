package seed

import (
	"fmt"
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/observability"

	"gorm.io/gorm"
)

// Result counts what a seed run created.
type Result struct {
	Users    int
	Photos   int
	Comments int
	Likes    int
}

// Seeder applies presets against a database.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll removes every row the application owns, children first.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{&models.PhotoLike{}, &models.Comment{}, &models.Photo{}, &models.User{}} {
		if err := s.db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	observability.Logger.Info("seed: database cleared")
	return nil
}

// Apply creates the preset's accounts, random users and engagement.
func (s *Seeder) Apply(p *Preset) (Result, error) {
	var res Result
	if err := p.Validate(); err != nil {
		return res, err
	}

	users := make([]*models.User, 0, len(p.Accounts)+p.Random.Users)
	photos := make([]*models.Photo, 0)

	for _, account := range p.Accounts {
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.LoginName = strings.TrimSpace(account.LoginName)
			if account.FirstName != "" {
				u.FirstName = account.FirstName
			}
			if account.LastName != "" {
				u.LastName = account.LastName
			}
			if account.Occupation != "" {
				u.Occupation = account.Occupation
			}
			if account.Location != "" {
				u.Location = account.Location
			}
		})
		if err != nil {
			return res, err
		}
		users = append(users, user)
		res.Users++

		for _, ps := range account.Photos {
			photo, err := s.factory.CreatePhoto(user, func(ph *models.Photo) {
				ph.Caption = ps.Caption
				if ps.URL != "" {
					ph.FileName = ps.URL
					ph.ThumbnailURL = ""
				}
			})
			if err != nil {
				return res, err
			}
			photos = append(photos, photo)
			res.Photos++

			for _, text := range ps.Comments {
				if _, err := s.factory.CreateComment(photo, user, text); err != nil {
					return res, err
				}
				res.Comments++
			}
		}
	}

	for range p.Random.Users {
		user, err := s.factory.CreateUser()
		if err != nil {
			return res, err
		}
		users = append(users, user)
		res.Users++

		for range p.Random.PhotosPerUser {
			photo, err := s.factory.CreatePhoto(user)
			if err != nil {
				return res, err
			}
			photos = append(photos, photo)
			res.Photos++
		}
	}

	if len(users) > 0 {
		for _, photo := range photos {
			for range p.Random.CommentsPerPhoto {
				author := users[s.factory.faker.Number(0, len(users)-1)]
				if _, err := s.factory.CreateComment(photo, author, ""); err != nil {
					return res, err
				}
				res.Comments++
			}
			for _, user := range users {
				if !s.factory.chance(p.Random.LikeProbability) {
					continue
				}
				if err := s.factory.Like(photo, user); err != nil {
					return res, err
				}
				res.Likes++
			}
		}
	}

	observability.Logger.Info("seed: preset applied",
		"preset", p.Name,
		"users", res.Users,
		"photos", res.Photos,
		"comments", res.Comments,
		"likes", res.Likes,
	)
	return res, nil
}
