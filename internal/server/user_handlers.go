package server

import (
	"photoshare/internal/models"
	"photoshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	LoginName string `json:"login_name" form:"login_name"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

// updateProfileRequest uses pointers so omitted JSON fields stay unchanged.
type updateProfileRequest struct {
	LoginName   *string `json:"login_name"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Description *string `json:"description"`
	Occupation  *string `json:"occupation"`
	Location    *string `json:"location"`
}

// ListUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} object{message=string,users=[]models.User}
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, "list_users", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(fiber.Map{"message": "Users retrieved", "users": users})
}

// GetUser handles GET /api/users/:id
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, "get_user", err)
	}
	return c.JSON(fiber.Map{"message": "User found", "user": user})
}

// Register handles POST /api/users
// @Summary Register
// @Tags users
// @Accept json
// @Produce json
// @Param request body registerRequest true "New account"
// @Success 201 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		LoginName: req.LoginName,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondError(c, "register", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered", "user": user})
}

// UpdateUser handles PATCH /api/users/:id
// @Summary Update own profile
// @Description Accepts JSON, or multipart with an optional avatar file. Only the account owner may update it.
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param avatar formData file false "Avatar image"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id} [patch]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	in := service.UpdateProfileInput{Requester: viewer(c), UserID: id}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		in.LoginName, _ = formValue(form, "login_name")
		in.FirstName, _ = formValue(form, "first_name")
		in.LastName, _ = formValue(form, "last_name")
		in.Email, _ = formValue(form, "email")
		in.Description, _ = formValue(form, "description")
		in.Occupation, _ = formValue(form, "occupation")
		in.Location, _ = formValue(form, "location")

		avatar, err := readUpload(c, "avatar")
		if err != nil {
			return respondError(c, "update_user", err)
		}
		in.Avatar = avatar
	} else {
		var req updateProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.LoginName = req.LoginName
		in.FirstName = req.FirstName
		in.LastName = req.LastName
		in.Email = req.Email
		in.Description = req.Description
		in.Occupation = req.Occupation
		in.Location = req.Location
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondError(c, "update_user", err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "user": user})
}

// ListUserPhotos handles GET /api/users/:id/photos
// @Summary Photos of a user
// @Description Most recent first. An empty list carries an explanatory message.
// @Tags photos
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} object{message=string,photos=[]service.PhotoView}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/photos [get]
func (s *Server) ListUserPhotos(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	if _, err := s.userService.GetUserByID(ctx, id); err != nil {
		return respondError(c, "list_user_photos", err)
	}
	photos, err := s.photoService.ListUserPhotos(ctx, id)
	if err != nil {
		return respondError(c, "list_user_photos", err)
	}

	message := "Photos retrieved"
	if len(photos) == 0 {
		message = "This user has not posted any photos yet"
	}
	return c.JSON(fiber.Map{"message": message, "photos": service.FormatPhotos(photos, viewer(c))})
}
