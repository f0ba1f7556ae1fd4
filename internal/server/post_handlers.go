package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/posts/feed?batch=N
func (s *Server) GetFeed(c *fiber.Ctx) error {
	posts, err := s.feed.GetPostsInFeed(c.UserContext(), token(c), batchParam(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(posts)
}

// GetFollowedFeed handles GET /api/posts/following?batch=N
func (s *Server) GetFollowedFeed(c *fiber.Ctx) error {
	posts, err := s.feed.GetPostsForFollowedUsers(c.UserContext(), token(c), batchParam(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		ImageURL string `json:"image_url"`
		Caption  string `json:"caption"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	identifier, err := s.posts.MakePost(c.UserContext(), token(c), req.ImageURL, req.Caption)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post_identifier": identifier})
}

// GetPost handles GET /api/posts/:post
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.posts.GetPostDetails(c.UserContext(), token(c), c.Params("post"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:post
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.posts.DeletePost(c.UserContext(), token(c), c.Params("post")); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:post/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	if err := s.posts.LikePost(c.UserContext(), token(c), c.Params("post")); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnlikePost handles DELETE /api/posts/:post/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	if err := s.posts.UnlikePost(c.UserContext(), token(c), c.Params("post")); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
