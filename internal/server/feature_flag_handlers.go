package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns configured feature flags and their state for the
// caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	user, err := s.auth.Authenticate(c.UserContext(), token(c))
	if err != nil {
		return respond(c, err)
	}

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(user.ID),
	})
}
