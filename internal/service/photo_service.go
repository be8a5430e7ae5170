package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/repository"
	"photoshare/internal/storage"
)

// PhotoService runs photo, comment and like use cases. Every mutation takes
// the requester explicitly and checks ownership before touching the store.
type PhotoService struct {
	photoRepo repository.PhotoRepository
	store     storage.ObjectStore
	images    *ImageProcessor
	now       func() time.Time
}

type CreatePhotoInput struct {
	Requester models.ID
	Caption   string
	Upload    ImageUpload
}

type UpdateCaptionInput struct {
	Requester models.ID
	PhotoID   models.ID
	Caption   string
}

type DeletePhotoInput struct {
	Requester models.ID
	PhotoID   models.ID
}

type AddCommentInput struct {
	Requester models.ID
	PhotoID   models.ID
	Text      string
}

type UpdateCommentInput struct {
	Requester models.ID
	PhotoID   models.ID
	CommentID models.ID
	Text      string
}

type DeleteCommentInput struct {
	Requester models.ID
	PhotoID   models.ID
	CommentID models.ID
}

func NewPhotoService(photoRepo repository.PhotoRepository, store storage.ObjectStore, images *ImageProcessor) *PhotoService {
	if images == nil {
		images = NewImageProcessor(DefaultImageMaxUploadSizeMB)
	}
	return &PhotoService{
		photoRepo: photoRepo,
		store:     store,
		images:    images,
		now:       time.Now,
	}
}

// CreatePhoto validates the upload, stores the original and its thumbnail,
// then records the photo. Stored objects are removed again if recording fails.
func (s *PhotoService) CreatePhoto(ctx context.Context, in CreatePhotoInput) (*models.Photo, error) {
	if err := requireRequester(in.Requester); err != nil {
		return nil, err
	}

	img, err := s.images.Process(in.Upload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := storage.PhotoKey(in.Requester, img.Ext, now)
	url, err := s.store.Put(ctx, key, img.ContentType, img.Original)
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("upload photo: %w", err))
	}

	thumbKey := storage.ThumbnailKey(in.Requester, now)
	thumbURL, err := s.store.Put(ctx, thumbKey, "image/webp", img.Thumbnail)
	if err != nil {
		s.discardObjects(ctx, key)
		return nil, models.NewStorageError(fmt.Errorf("upload thumbnail: %w", err))
	}

	photo := &models.Photo{
		UserID:       in.Requester,
		FileName:     url,
		StorageKey:   key,
		ThumbnailURL: thumbURL,
		ThumbnailKey: thumbKey,
		Caption:      strings.TrimSpace(in.Caption),
		Width:        img.Width,
		Height:       img.Height,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		s.discardObjects(ctx, key, thumbKey)
		return nil, err
	}

	observability.PhotoUploads.Inc()
	observability.UploadBytes.Observe(float64(len(img.Original)))

	return s.photoRepo.FindByID(ctx, photo.ID)
}

func (s *PhotoService) GetPhoto(ctx context.Context, id models.ID) (*models.Photo, error) {
	return s.photoRepo.FindByID(ctx, id)
}

func (s *PhotoService) ListPhotos(ctx context.Context) ([]*models.Photo, error) {
	return s.photoRepo.FindAll(ctx)
}

func (s *PhotoService) ListUserPhotos(ctx context.Context, ownerID models.ID) ([]*models.Photo, error) {
	return s.photoRepo.FindByOwner(ctx, ownerID)
}

func (s *PhotoService) ListLikedPhotos(ctx context.Context, requester models.ID) ([]*models.Photo, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	return s.photoRepo.FindLikedBy(ctx, requester)
}

func (s *PhotoService) UpdateCaption(ctx context.Context, in UpdateCaptionInput) (*models.Photo, error) {
	if err := requireRequester(in.Requester); err != nil {
		return nil, err
	}
	caption := strings.TrimSpace(in.Caption)
	if caption == "" {
		return nil, models.NewValidationError("Caption cannot be empty")
	}

	photo, err := s.photoRepo.FindByID(ctx, in.PhotoID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(photo.UserID, in.Requester); err != nil {
		return nil, err
	}

	if err := s.photoRepo.UpdateCaption(ctx, photo.ID, caption); err != nil {
		return nil, err
	}
	return s.photoRepo.FindByID(ctx, photo.ID)
}

// DeletePhoto removes the aggregate, then its stored objects. Object removal
// is best effort; a leftover object does not fail the request.
func (s *PhotoService) DeletePhoto(ctx context.Context, in DeletePhotoInput) (*models.Photo, error) {
	if err := requireRequester(in.Requester); err != nil {
		return nil, err
	}

	photo, err := s.photoRepo.FindByID(ctx, in.PhotoID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(photo.UserID, in.Requester); err != nil {
		return nil, err
	}

	if err := s.photoRepo.Remove(ctx, photo.ID); err != nil {
		return nil, err
	}
	s.discardObjects(ctx, photo.StorageKey, photo.ThumbnailKey)
	return photo, nil
}

func (s *PhotoService) AddComment(ctx context.Context, in AddCommentInput) (*models.Photo, *models.Comment, error) {
	if err := requireRequester(in.Requester); err != nil {
		return nil, nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, nil, models.NewValidationError("Comment cannot be empty")
	}

	comment, err := s.photoRepo.AppendComment(ctx, in.PhotoID, in.Requester, text)
	if err != nil {
		return nil, nil, err
	}
	photo, err := s.photoRepo.FindByID(ctx, in.PhotoID)
	if err != nil {
		return nil, nil, err
	}
	return photo, comment, nil
}

// UpdateComment lets a comment's author edit it. The photo owner has no
// special rights over other users' comments.
func (s *PhotoService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Photo, error) {
	if err := requireRequester(in.Requester); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	photo, comment, err := s.loadComment(ctx, in.PhotoID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(comment.UserID, in.Requester); err != nil {
		return nil, err
	}

	if err := s.photoRepo.UpdateComment(ctx, photo.ID, comment.ID, text); err != nil {
		return nil, err
	}
	return s.photoRepo.FindByID(ctx, photo.ID)
}

// DeleteComment lets a comment's author remove it.
func (s *PhotoService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Photo, error) {
	if err := requireRequester(in.Requester); err != nil {
		return nil, err
	}

	photo, comment, err := s.loadComment(ctx, in.PhotoID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(comment.UserID, in.Requester); err != nil {
		return nil, err
	}

	if err := s.photoRepo.RemoveComment(ctx, photo.ID, comment.ID); err != nil {
		return nil, err
	}
	return s.photoRepo.FindByID(ctx, photo.ID)
}

// ToggleLike flips the requester's like and returns the refreshed photo.
func (s *PhotoService) ToggleLike(ctx context.Context, photoID, requester models.ID) (models.LikeOutcome, *models.Photo, error) {
	if err := requireRequester(requester); err != nil {
		return "", nil, err
	}

	outcome, err := s.photoRepo.ToggleLike(ctx, photoID, requester)
	if err != nil {
		return "", nil, err
	}
	observability.LikeToggles.WithLabelValues(string(outcome)).Inc()

	photo, err := s.photoRepo.FindByID(ctx, photoID)
	if err != nil {
		return "", nil, err
	}
	return outcome, photo, nil
}

func (s *PhotoService) loadComment(ctx context.Context, photoID, commentID models.ID) (*models.Photo, *models.Comment, error) {
	photo, err := s.photoRepo.FindByID(ctx, photoID)
	if err != nil {
		return nil, nil, err
	}
	comment, ok := photo.FindComment(commentID)
	if !ok {
		return nil, nil, models.NewNotFoundError("Comment", commentID)
	}
	return photo, comment, nil
}

func (s *PhotoService) discardObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			observability.Logger.WarnContext(ctx, "failed to delete stored object", "key", key, "error", err)
		}
	}
}
