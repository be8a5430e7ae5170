package repository

import (
	"context"
	"errors"
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhotoRepository persists the photo aggregate: the photo row, its comment
// thread and its likes set. It performs no authorization.
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	FindByID(ctx context.Context, id models.ID) (*models.Photo, error)
	FindByOwner(ctx context.Context, ownerID models.ID) ([]*models.Photo, error)
	FindAll(ctx context.Context) ([]*models.Photo, error)
	FindLikedBy(ctx context.Context, userID models.ID) ([]*models.Photo, error)
	UpdateCaption(ctx context.Context, id models.ID, caption string) error
	AppendComment(ctx context.Context, photoID, authorID models.ID, text string) (*models.Comment, error)
	UpdateComment(ctx context.Context, photoID, commentID models.ID, text string) error
	RemoveComment(ctx context.Context, photoID, commentID models.ID) error
	ToggleLike(ctx context.Context, photoID, userID models.ID) (models.LikeOutcome, error)
	Remove(ctx context.Context, id models.ID) error
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository returns a gorm-backed PhotoRepository.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// withRelations loads owner, comment thread (oldest first) with authors, and likes.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("date_time ASC").Order("id ASC")
		}).
		Preload("Comments.User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("user_id ASC")
		})
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "photos")
	defer func() { observability.EndSpan(span, err) }()

	photo.Comments = nil
	photo.Likes = nil
	return storageErr(r.db.WithContext(ctx).Omit(clause.Associations).Create(photo).Error)
}

func (r *photoRepository) FindByID(ctx context.Context, id models.ID) (_ *models.Photo, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "FindByID", "photos")
	defer func() { observability.EndSpan(span, err) }()

	var photo models.Photo
	if err := withRelations(r.db.WithContext(ctx)).First(&photo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Photo", id)
		}
		return nil, storageErr(err)
	}
	return &photo, nil
}

func (r *photoRepository) FindByOwner(ctx context.Context, ownerID models.ID) (_ []*models.Photo, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "FindByOwner", "photos")
	defer func() { observability.EndSpan(span, err) }()

	var photos []*models.Photo
	err = withRelations(r.db.WithContext(ctx)).
		Where("user_id = ?", ownerID).
		Order("date_time DESC").
		Find(&photos).Error
	return photos, storageErr(err)
}

func (r *photoRepository) FindAll(ctx context.Context) (_ []*models.Photo, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "FindAll", "photos")
	defer func() { observability.EndSpan(span, err) }()

	var photos []*models.Photo
	err = withRelations(r.db.WithContext(ctx)).
		Order("date_time DESC").
		Find(&photos).Error
	return photos, storageErr(err)
}

func (r *photoRepository) FindLikedBy(ctx context.Context, userID models.ID) (_ []*models.Photo, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "FindLikedBy", "photos")
	defer func() { observability.EndSpan(span, err) }()

	var photos []*models.Photo
	err = withRelations(r.db.WithContext(ctx)).
		Joins("JOIN photo_likes ON photo_likes.photo_id = photos.id AND photo_likes.user_id = ?", userID).
		Order("photos.date_time DESC").
		Find(&photos).Error
	return photos, storageErr(err)
}

func (r *photoRepository) UpdateCaption(ctx context.Context, id models.ID, caption string) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "UpdateCaption", "photos")
	defer func() { observability.EndSpan(span, err) }()

	caption = strings.TrimSpace(caption)
	if caption == "" {
		return models.NewValidationError("Caption cannot be empty")
	}

	res := r.db.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", id).Update("caption", caption)
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Photo", id)
	}
	return nil
}

func (r *photoRepository) AppendComment(ctx context.Context, photoID, authorID models.ID, text string) (_ *models.Comment, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "AppendComment", "comments")
	defer func() { observability.EndSpan(span, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	comment := &models.Comment{PhotoID: photoID, UserID: authorID, Comment: text}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePhoto(tx, photoID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return comment, nil
}

func (r *photoRepository) UpdateComment(ctx context.Context, photoID, commentID models.ID, text string) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "UpdateComment", "comments")
	defer func() { observability.EndSpan(span, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return models.NewValidationError("Comment cannot be empty")
	}

	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND photo_id = ?", commentID, photoID).
		Update("comment", text)
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}

func (r *photoRepository) RemoveComment(ctx context.Context, photoID, commentID models.ID) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "RemoveComment", "comments")
	defer func() { observability.EndSpan(span, err) }()

	res := r.db.WithContext(ctx).
		Where("id = ? AND photo_id = ?", commentID, photoID).
		Delete(&models.Comment{})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}

// ToggleLike flips userID's membership in the likes set inside one
// transaction. The composite key plus ON CONFLICT DO NOTHING keep concurrent
// toggles from producing a duplicate like.
func (r *photoRepository) ToggleLike(ctx context.Context, photoID, userID models.ID) (outcome models.LikeOutcome, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ToggleLike", "photo_likes")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePhoto(tx, photoID); err != nil {
			return err
		}

		res := tx.Where("photo_id = ? AND user_id = ?", photoID, userID).Delete(&models.PhotoLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			outcome = models.LikeOutcomeUnliked
			return nil
		}

		like := models.PhotoLike{PhotoID: photoID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			return err
		}
		outcome = models.LikeOutcomeLiked
		return nil
	})
	if err != nil {
		return "", storageErr(err)
	}
	return outcome, nil
}

// Remove deletes the photo with its comments and likes.
func (r *photoRepository) Remove(ctx context.Context, id models.ID) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Remove", "photos")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", id).Delete(&models.PhotoLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("photo_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Photo{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Photo", id)
		}
		return nil
	})
	return storageErr(err)
}

func requirePhoto(tx *gorm.DB, id models.ID) error {
	var count int64
	if err := tx.Model(&models.Photo{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError("Photo", id)
	}
	return nil
}
