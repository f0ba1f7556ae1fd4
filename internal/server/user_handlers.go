package server

import (
	"github.com/gofiber/fiber/v2"
)

// SearchUsers handles GET /api/users/search?fragment=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.relationships.SearchUsers(c.UserContext(), token(c), c.Query("fragment"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(users)
}

// GetProfile handles GET /api/users/:username
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.relationships.GetProfileDetails(c.UserContext(), token(c), c.Params("username"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/users/:username/posts?batch=N
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.feed.GetPostsForUser(c.UserContext(), token(c), c.Params("username"), batchParam(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(posts)
}

// relationshipHandler adapts a follow or block operation to a 204 handler.
func (s *Server) relationshipHandler(op func(*fiber.Ctx, string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := op(c, c.Params("username")); err != nil {
			return respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Follow handles POST /api/users/:username/follow
func (s *Server) Follow(c *fiber.Ctx) error {
	return s.relationshipHandler(func(c *fiber.Ctx, username string) error {
		return s.relationships.Follow(c.UserContext(), token(c), username)
	})(c)
}

// Unfollow handles DELETE /api/users/:username/follow
func (s *Server) Unfollow(c *fiber.Ctx) error {
	return s.relationshipHandler(func(c *fiber.Ctx, username string) error {
		return s.relationships.Unfollow(c.UserContext(), token(c), username)
	})(c)
}

// Block handles POST /api/users/:username/block
func (s *Server) Block(c *fiber.Ctx) error {
	return s.relationshipHandler(func(c *fiber.Ctx, username string) error {
		return s.relationships.Block(c.UserContext(), token(c), username)
	})(c)
}

// Unblock handles DELETE /api/users/:username/block
func (s *Server) Unblock(c *fiber.Ctx) error {
	return s.relationshipHandler(func(c *fiber.Ctx, username string) error {
		return s.relationships.Unblock(c.UserContext(), token(c), username)
	})(c)
}
