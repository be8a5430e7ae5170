package server

import (
	"time"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	LoginName string `json:"login_name" form:"login_name"`
	Password  string `json:"password" form:"password"`
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Verify credentials and start a session. The token is returned in the body and set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} object{message=string,user=models.User,token=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.LoginName, req.Password)
	if err != nil {
		return respondError(c, "login", err)
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return respondError(c, "login", models.NewStorageError(err))
	}
	s.setSessionCookie(c, token, time.Now().Add(s.sessions.TTL()))

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Logout handles POST /api/auth/logout
// @Summary Log out
// @Description Revoke the current session token and clear the cookie
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Revoke(c.UserContext(), middleware.CurrentSession(c)); err != nil {
		observability.Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err)
	}
	s.setSessionCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, "me", err)
	}
	return c.JSON(fiber.Map{"message": "User found", "user": user})
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
