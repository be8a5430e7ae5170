package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/feature-flags
// @Summary Feature flags for the caller
// @Tags meta
// @Produce json
// @Success 200 {object} object{message=string,flags=map[string]bool}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Feature flags",
		"flags":   s.featureFlags.Snapshot(viewer(c)),
	})
}
