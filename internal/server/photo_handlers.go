package server

import (
	"photoshare/internal/models"
	"photoshare/internal/notifications"
	"photoshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

type captionRequest struct {
	Caption string `json:"caption" form:"caption"`
}

// ListPhotos handles GET /api/photos
// @Summary List all photos
// @Description Most recent first, formatted for the caller.
// @Tags photos
// @Produce json
// @Success 200 {object} object{message=string,photos=[]service.PhotoView}
// @Router /photos [get]
func (s *Server) ListPhotos(c *fiber.Ctx) error {
	photos, err := s.photoService.ListPhotos(c.UserContext())
	if err != nil {
		return respondError(c, "list_photos", err)
	}
	message := "Photos retrieved"
	if len(photos) == 0 {
		message = "No photos found"
	}
	return c.JSON(fiber.Map{"message": message, "photos": service.FormatPhotos(photos, viewer(c))})
}

// ListLikedPhotos handles GET /api/photos/liked
// @Summary Photos the caller likes
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string,photos=[]service.PhotoView}
// @Failure 401 {object} models.ErrorResponse
// @Router /photos/liked [get]
func (s *Server) ListLikedPhotos(c *fiber.Ctx) error {
	me := viewer(c)
	photos, err := s.photoService.ListLikedPhotos(c.UserContext(), me)
	if err != nil {
		return respondError(c, "list_liked_photos", err)
	}
	message := "Photos retrieved"
	if len(photos) == 0 {
		message = "You have not liked any photos yet"
	}
	return c.JSON(fiber.Map{"message": message, "photos": service.FormatPhotos(photos, me)})
}

// GetPhoto handles GET /api/photos/:id
// @Summary Get a photo
// @Tags photos
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} object{message=string,photo=service.PhotoView}
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id} [get]
func (s *Server) GetPhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	photo, err := s.photoService.GetPhoto(c.UserContext(), id)
	if err != nil {
		return respondError(c, "get_photo", err)
	}
	return c.JSON(fiber.Map{"message": "Photo found", "photo": service.FormatPhoto(photo, viewer(c))})
}

// CreatePhoto handles POST /api/photos
// @Summary Upload a photo
// @Tags photos
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file (jpeg, png, gif or webp)"
// @Param caption formData string false "Caption"
// @Success 201 {object} object{message=string,photo=service.PhotoView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /photos [post]
func (s *Server) CreatePhoto(c *fiber.Ctx) error {
	me := viewer(c)

	upload, err := readUpload(c, "image")
	if err != nil {
		return respondError(c, "create_photo", err)
	}
	if upload == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	photo, err := s.photoService.CreatePhoto(c.UserContext(), service.CreatePhotoInput{
		Requester: me,
		Caption:   c.FormValue("caption"),
		Upload:    *upload,
	})
	if err != nil {
		return respondError(c, "create_photo", err)
	}

	view := service.FormatPhoto(photo, me)
	s.publishFeedEvent(c.UserContext(), notifications.EventPhotoCreated, photoEventPayload(view))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Photo uploaded", "photo": view})
}

// UpdatePhoto handles PATCH /api/photos/:id
// @Summary Update a caption
// @Description Only the photo owner may update the caption. A blank caption is rejected.
// @Tags photos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param request body captionRequest true "New caption"
// @Success 200 {object} object{message=string,photo=service.PhotoView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id} [patch]
func (s *Server) UpdatePhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req captionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	me := viewer(c)
	photo, err := s.photoService.UpdateCaption(c.UserContext(), service.UpdateCaptionInput{
		Requester: me,
		PhotoID:   id,
		Caption:   req.Caption,
	})
	if err != nil {
		return respondError(c, "update_photo", err)
	}

	view := service.FormatPhoto(photo, me)
	s.publishFeedEvent(c.UserContext(), notifications.EventPhotoUpdated, photoEventPayload(view))

	return c.JSON(fiber.Map{"message": "Caption updated", "photo": view})
}

// DeletePhoto handles DELETE /api/photos/:id
// @Summary Delete a photo
// @Description Removes the photo with its comments and likes. Only the owner may delete it.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id} [delete]
func (s *Server) DeletePhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	me := viewer(c)
	photo, err := s.photoService.DeletePhoto(c.UserContext(), service.DeletePhotoInput{Requester: me, PhotoID: id})
	if err != nil {
		return respondError(c, "delete_photo", err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.EventPhotoDeleted, map[string]any{
		"photo_id": photo.ID,
		"user_id":  photo.UserID,
	})

	return c.JSON(fiber.Map{"message": "Photo deleted"})
}

// ToggleLike handles POST /api/photos/:id/like
// @Summary Like or unlike a photo
// @Description Flips the caller's like. Calling twice restores the original state.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 200 {object} object{message=string,liked=bool,photo=service.PhotoView}
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	me := viewer(c)
	outcome, photo, err := s.photoService.ToggleLike(c.UserContext(), id, me)
	if err != nil {
		return respondError(c, "toggle_like", err)
	}

	view := service.FormatPhoto(photo, me)
	eventType := notifications.EventPhotoUnliked
	if outcome == models.LikeOutcomeLiked {
		eventType = notifications.EventPhotoLiked
	}
	payload := photoEventPayload(view)
	payload["actor_id"] = me
	s.publishFeedEvent(c.UserContext(), eventType, payload)
	if outcome == models.LikeOutcomeLiked {
		s.notifyOwner(c.UserContext(), photo.UserID, me, eventType, map[string]any{"photo_id": photo.ID})
	}

	return c.JSON(fiber.Map{
		"message": outcome.Message(),
		"liked":   outcome == models.LikeOutcomeLiked,
		"photo":   view,
	})
}
