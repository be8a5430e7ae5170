package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/repository"
	"photoshare/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginNameLen   = 50
	maxDescriptionLen = 1000
)

type UserService struct {
	userRepo repository.UserRepository
	store    storage.ObjectStore
	images   *ImageProcessor
	now      func() time.Time
}

type RegisterInput struct {
	LoginName string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileInput carries only the fields the client sent; nil means unchanged.
type UpdateProfileInput struct {
	Requester   models.ID
	UserID      models.ID
	LoginName   *string
	FirstName   *string
	LastName    *string
	Email       *string
	Description *string
	Occupation  *string
	Location    *string
	Avatar      *ImageUpload
}

func NewUserService(userRepo repository.UserRepository, store storage.ObjectStore, images *ImageProcessor) *UserService {
	if images == nil {
		images = NewImageProcessor(DefaultImageMaxUploadSizeMB)
	}
	return &UserService{userRepo: userRepo, store: store, images: images, now: time.Now}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) GetUserByID(ctx context.Context, id models.ID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	loginName := strings.TrimSpace(in.LoginName)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if loginName == "" || in.Password == "" || firstName == "" || lastName == "" {
		return nil, models.NewValidationError("login_name, password, first_name and last_name are required")
	}
	if len(loginName) > maxLoginNameLen {
		return nil, models.NewValidationError(fmt.Sprintf("login_name too long (max %d characters)", maxLoginNameLen))
	}

	if _, err := s.userRepo.GetByLoginName(ctx, loginName); err == nil {
		return nil, models.NewValidationError("login_name already exists")
	} else if models.ErrorCode(err) != models.CodeNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		LoginName: loginName,
		Password:  string(hashed),
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords are
// reported identically.
func (s *UserService) Authenticate(ctx context.Context, loginName, password string) (*models.User, error) {
	loginName = strings.TrimSpace(loginName)
	if loginName == "" || password == "" {
		return nil, models.NewValidationError("login_name and password are required")
	}

	user, err := s.userRepo.GetByLoginName(ctx, loginName)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewValidationError("Invalid login name or password")
		}
		return nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		if errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.NewValidationError("Invalid login name or password")
		}
		return nil, models.NewStorageError(cmpErr)
	}
	return user, nil
}

// UpdateProfile lets a user edit their own profile and avatar.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := requireRequester(in.Requester); err != nil {
		return nil, err
	}
	if err := RequireOwner(in.UserID, in.Requester); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByIDForUpdate(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.LoginName != nil {
		loginName := strings.TrimSpace(*in.LoginName)
		if loginName == "" {
			return nil, models.NewValidationError("login_name cannot be empty")
		}
		if len(loginName) > maxLoginNameLen {
			return nil, models.NewValidationError(fmt.Sprintf("login_name too long (max %d characters)", maxLoginNameLen))
		}
		if loginName != user.LoginName {
			existing, err := s.userRepo.GetByLoginName(ctx, loginName)
			switch {
			case err == nil && !existing.ID.Equal(user.ID):
				return nil, models.NewValidationError("login_name already exists")
			case err != nil && models.ErrorCode(err) != models.CodeNotFound:
				return nil, err
			}
			user.LoginName = loginName
		}
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, models.NewValidationError("first_name cannot be empty")
		}
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, models.NewValidationError("last_name cannot be empty")
		}
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.Description != nil {
		if len(*in.Description) > maxDescriptionLen {
			return nil, models.NewValidationError(fmt.Sprintf("description too long (max %d characters)", maxDescriptionLen))
		}
		user.Description = *in.Description
	}
	if in.Occupation != nil {
		user.Occupation = strings.TrimSpace(*in.Occupation)
	}
	if in.Location != nil {
		user.Location = strings.TrimSpace(*in.Location)
	}

	previousAvatarKey := user.AvatarKey
	var newAvatarKey string
	if in.Avatar != nil {
		img, err := s.images.Process(*in.Avatar)
		if err != nil {
			return nil, err
		}
		newAvatarKey = storage.AvatarKey(user.ID, img.Ext, s.now())
		url, err := s.store.Put(ctx, newAvatarKey, img.ContentType, img.Original)
		if err != nil {
			return nil, models.NewStorageError(fmt.Errorf("upload avatar: %w", err))
		}
		user.Avatar = url
		user.AvatarKey = newAvatarKey
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if newAvatarKey != "" {
			s.discardAvatar(ctx, newAvatarKey)
		}
		return nil, err
	}
	if newAvatarKey != "" && previousAvatarKey != "" {
		s.discardAvatar(ctx, previousAvatarKey)
	}
	return user, nil
}

func (s *UserService) discardAvatar(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		observability.Logger.WarnContext(ctx, "failed to delete avatar object", "key", key, "error", err)
	}
}
