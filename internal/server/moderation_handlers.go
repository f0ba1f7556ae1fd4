package server

import (
	"github.com/gofiber/fiber/v2"
)

type reportRequest struct {
	Reason string `json:"reason"`
}

// ReportPost handles POST /api/posts/:post/report
func (s *Server) ReportPost(c *fiber.Ctx) error {
	var req reportRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := s.moderation.ReportPost(c.UserContext(), token(c), c.Params("post"), req.Reason); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReportComment handles POST .../comments/:comment/report
func (s *Server) ReportComment(c *fiber.Ctx) error {
	var req reportRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := s.moderation.ReportComment(c.UserContext(), token(c), commentPath(c), req.Reason); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
