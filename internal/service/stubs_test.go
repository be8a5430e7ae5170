package service

import (
	"context"

	"photoshare/internal/models"
)

// photoRepoStub is a stub for repository.PhotoRepository.
type photoRepoStub struct {
	createFn        func(context.Context, *models.Photo) error
	findByIDFn      func(context.Context, models.ID) (*models.Photo, error)
	findByOwnerFn   func(context.Context, models.ID) ([]*models.Photo, error)
	findAllFn       func(context.Context) ([]*models.Photo, error)
	findLikedByFn   func(context.Context, models.ID) ([]*models.Photo, error)
	updateCaptionFn func(context.Context, models.ID, string) error
	appendCommentFn func(context.Context, models.ID, models.ID, string) (*models.Comment, error)
	updateCommentFn func(context.Context, models.ID, models.ID, string) error
	removeCommentFn func(context.Context, models.ID, models.ID) error
	toggleLikeFn    func(context.Context, models.ID, models.ID) (models.LikeOutcome, error)
	removeFn        func(context.Context, models.ID) error
}

func (s *photoRepoStub) Create(ctx context.Context, photo *models.Photo) error {
	return s.createFn(ctx, photo)
}
func (s *photoRepoStub) FindByID(ctx context.Context, id models.ID) (*models.Photo, error) {
	return s.findByIDFn(ctx, id)
}
func (s *photoRepoStub) FindByOwner(ctx context.Context, ownerID models.ID) ([]*models.Photo, error) {
	return s.findByOwnerFn(ctx, ownerID)
}
func (s *photoRepoStub) FindAll(ctx context.Context) ([]*models.Photo, error) {
	return s.findAllFn(ctx)
}
func (s *photoRepoStub) FindLikedBy(ctx context.Context, userID models.ID) ([]*models.Photo, error) {
	return s.findLikedByFn(ctx, userID)
}
func (s *photoRepoStub) UpdateCaption(ctx context.Context, id models.ID, caption string) error {
	return s.updateCaptionFn(ctx, id, caption)
}
func (s *photoRepoStub) AppendComment(ctx context.Context, photoID, authorID models.ID, text string) (*models.Comment, error) {
	return s.appendCommentFn(ctx, photoID, authorID, text)
}
func (s *photoRepoStub) UpdateComment(ctx context.Context, photoID, commentID models.ID, text string) error {
	return s.updateCommentFn(ctx, photoID, commentID, text)
}
func (s *photoRepoStub) RemoveComment(ctx context.Context, photoID, commentID models.ID) error {
	return s.removeCommentFn(ctx, photoID, commentID)
}
func (s *photoRepoStub) ToggleLike(ctx context.Context, photoID, userID models.ID) (models.LikeOutcome, error) {
	return s.toggleLikeFn(ctx, photoID, userID)
}
func (s *photoRepoStub) Remove(ctx context.Context, id models.ID) error {
	return s.removeFn(ctx, id)
}

func noopPhotoRepo() *photoRepoStub {
	return &photoRepoStub{
		createFn:        func(_ context.Context, _ *models.Photo) error { return nil },
		findByIDFn:      func(_ context.Context, id models.ID) (*models.Photo, error) { return &models.Photo{ID: id}, nil },
		findByOwnerFn:   func(_ context.Context, _ models.ID) ([]*models.Photo, error) { return nil, nil },
		findAllFn:       func(_ context.Context) ([]*models.Photo, error) { return nil, nil },
		findLikedByFn:   func(_ context.Context, _ models.ID) ([]*models.Photo, error) { return nil, nil },
		updateCaptionFn: func(_ context.Context, _ models.ID, _ string) error { return nil },
		appendCommentFn: func(_ context.Context, photoID, authorID models.ID, text string) (*models.Comment, error) {
			return &models.Comment{ID: models.NewID(), PhotoID: photoID, UserID: authorID, Comment: text}, nil
		},
		updateCommentFn: func(_ context.Context, _, _ models.ID, _ string) error { return nil },
		removeCommentFn: func(_ context.Context, _, _ models.ID) error { return nil },
		toggleLikeFn: func(_ context.Context, _, _ models.ID) (models.LikeOutcome, error) {
			return models.LikeOutcomeLiked, nil
		},
		removeFn: func(_ context.Context, _ models.ID) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn          func(context.Context, models.ID) (*models.User, error)
	getByIDForUpdateFn func(context.Context, models.ID) (*models.User, error)
	getByLoginNameFn   func(context.Context, string) (*models.User, error)
	listFn             func(context.Context) ([]models.User, error)
	createFn           func(context.Context, *models.User) error
	updateProfileFn    func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id models.ID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDForUpdate(ctx context.Context, id models.ID) (*models.User, error) {
	return s.getByIDForUpdateFn(ctx, id)
}
func (s *userRepoStub) GetByLoginName(ctx context.Context, loginName string) (*models.User, error) {
	return s.getByLoginNameFn(ctx, loginName)
}
func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) {
	return s.listFn(ctx)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:          func(_ context.Context, id models.ID) (*models.User, error) { return &models.User{ID: id}, nil },
		getByIDForUpdateFn: func(_ context.Context, id models.ID) (*models.User, error) { return &models.User{ID: id}, nil },
		getByLoginNameFn: func(_ context.Context, name string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", name)
		},
		listFn:          func(_ context.Context) ([]models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateProfileFn: func(_ context.Context, _ *models.User) error { return nil },
	}
}
