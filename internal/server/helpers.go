package server

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"unicode"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID reads a route parameter as a canonical ID. On failure it writes a
// 400 response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (models.ID, error) {
	id, err := models.ParseID(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return "", errResponseWritten
	}
	return id, nil
}

// humanizeParam converts a route param name into a human-readable label:
// "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	prefix, ok := strings.CutSuffix(param, "Id")
	if !ok {
		return param
	}
	var words []string
	start := 0
	for i, r := range prefix {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, prefix[start:i])
			start = i
		}
	}
	words = append(words, prefix[start:])
	return strings.ToLower(strings.Join(words, " ")) + " ID"
}

// respondError writes err with the status its code maps to. Storage failures
// are logged and counted; client mistakes are not.
func respondError(c *fiber.Ctx, operation string, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		observability.StorageFailures.WithLabelValues(operation).Inc()
		observability.Logger.ErrorContext(c.UserContext(), "request failed",
			"operation", operation, "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// viewer returns the authenticated identity, or the empty ID for anonymous requests.
func viewer(c *fiber.Ctx) models.ID {
	id, _ := middleware.CurrentUserID(c)
	return id
}

// readUpload loads a multipart file field. A missing field yields nil; size
// and type checks belong to the image processor.
func readUpload(c *fiber.Ctx, field string) (*service.ImageUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}

	f, err := header.Open()
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// formValue returns a multipart/urlencoded value and whether the key was sent.
func formValue(form *multipart.Form, key string) (*string, bool) {
	if form == nil {
		return nil, false
	}
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	v := vals[0]
	return &v, true
}
