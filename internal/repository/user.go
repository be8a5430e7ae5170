package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"photoshare/internal/cache"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id models.ID) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id models.ID) (*models.User, error)
	GetByLoginName(ctx context.Context, loginName string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// profileColumns are the columns a profile update may write.
var profileColumns = []string{
	"login_name", "first_name", "last_name", "email", "avatar", "avatar_key",
	"description", "occupation", "location", "updated_at",
}

// GetByID serves from the user cache. The result never carries the password
// hash or the avatar object key, whether or not it came from the cache.
func (r *userRepository) GetByID(ctx context.Context, id models.ID) (_ *models.User, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", "users")
	defer func() { observability.EndSpan(span, err) }()

	var user models.User
	err = cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return storageErr(err)
		}
		user.Password = ""
		user.AvatarKey = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate reads the full row, bypassing the cache.
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id models.ID) (_ *models.User, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByIDForUpdate", "users")
	defer func() { observability.EndSpan(span, err) }()

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, storageErr(err)
	}
	return &user, nil
}

func (r *userRepository) GetByLoginName(ctx context.Context, loginName string) (_ *models.User, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByLoginName", "users")
	defer func() { observability.EndSpan(span, err) }()

	var user models.User
	if err := r.db.WithContext(ctx).Where("login_name = ?", strings.TrimSpace(loginName)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", loginName)
		}
		return nil, storageErr(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) (_ []models.User, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "List", "users")
	defer func() { observability.EndSpan(span, err) }()

	var users []models.User
	err = r.db.WithContext(ctx).Order("created_at ASC").Order("login_name ASC").Find(&users).Error
	return users, storageErr(err)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "users")
	defer func() { observability.EndSpan(span, err) }()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("login_name already exists")
		}
		return storageErr(err)
	}
	return nil
}

// UpdateProfile writes the profile columns of user. The password hash is never touched.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "UpdateProfile", "users")
	defer func() { observability.EndSpan(span, err) }()

	user.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Select(profileColumns).
		Updates(user)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewValidationError("login_name already exists")
		}
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}
