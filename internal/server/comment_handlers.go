package server

import (
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/notifications"
	"photoshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// commentRequest also accepts the older "commentUp" field used by edit forms.
type commentRequest struct {
	Comment   string `json:"comment" form:"comment"`
	CommentUp string `json:"commentUp" form:"commentUp"`
}

func (r commentRequest) text() string {
	if strings.TrimSpace(r.Comment) != "" {
		return r.Comment
	}
	return r.CommentUp
}

func commentEventPayload(photoID, commentID, authorID models.ID) map[string]any {
	return map[string]any{
		"photo_id":   photoID,
		"comment_id": commentID,
		"user_id":    authorID,
	}
}

// AddComment handles POST /api/photos/:id/comments
// @Summary Comment on a photo
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param request body commentRequest true "Comment text"
// @Success 201 {object} object{message=string,comment=models.Comment,photo=service.PhotoView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	photoID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	me := viewer(c)
	photo, comment, err := s.photoService.AddComment(c.UserContext(), service.AddCommentInput{
		Requester: me,
		PhotoID:   photoID,
		Text:      req.text(),
	})
	if err != nil {
		return respondError(c, "add_comment", err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.EventCommentCreated,
		commentEventPayload(photo.ID, comment.ID, me))
	s.notifyOwner(c.UserContext(), photo.UserID, me, notifications.EventCommentCreated,
		map[string]any{"photo_id": photo.ID, "comment_id": comment.ID})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment added",
		"comment": comment,
		"photo":   service.FormatPhoto(photo, me),
	})
}

// UpdateComment handles PATCH /api/photos/:id/comments/:commentId
// @Summary Edit a comment
// @Description Only the comment's author may edit it; the photo owner may not.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param commentId path string true "Comment ID"
// @Param request body commentRequest true "New text"
// @Success 200 {object} object{message=string,photo=service.PhotoView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/comments/{commentId} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	photoID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	me := viewer(c)
	photo, err := s.photoService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		Requester: me,
		PhotoID:   photoID,
		CommentID: commentID,
		Text:      req.text(),
	})
	if err != nil {
		return respondError(c, "update_comment", err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.EventCommentUpdated,
		commentEventPayload(photo.ID, commentID, me))

	return c.JSON(fiber.Map{"message": "Comment updated", "photo": service.FormatPhoto(photo, me)})
}

// DeleteComment handles DELETE /api/photos/:id/comments/:commentId
// @Summary Delete a comment
// @Description Only the comment's author may delete it; the photo owner may not.
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} object{message=string,photo=service.PhotoView}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	photoID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}

	me := viewer(c)
	photo, err := s.photoService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		Requester: me,
		PhotoID:   photoID,
		CommentID: commentID,
	})
	if err != nil {
		return respondError(c, "delete_comment", err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.EventCommentDeleted,
		commentEventPayload(photo.ID, commentID, me))

	return c.JSON(fiber.Map{"message": "Comment deleted", "photo": service.FormatPhoto(photo, me)})
}
