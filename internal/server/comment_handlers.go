package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetThreads handles GET /api/posts/:post/threads?batch=N
func (s *Server) GetThreads(c *fiber.Ctx) error {
	threads, err := s.feed.GetCommentThreadsForPost(c.UserContext(), token(c), c.Params("post"), batchParam(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(threads)
}

// GetThreadComments handles GET /api/posts/:post/threads/:thread/comments?batch=N
func (s *Server) GetThreadComments(c *fiber.Ctx) error {
	comments, err := s.feed.GetCommentsForThread(c.UserContext(), token(c), c.Params("thread"), batchParam(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comments)
}

type commentRequest struct {
	CommentText string `json:"comment_text"`
}

// CommentOnPost handles POST /api/posts/:post/threads
func (s *Server) CommentOnPost(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	thread, comment, err := s.comments.CommentOnPost(c.UserContext(), token(c), c.Params("post"), req.CommentText)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"comment_thread_identifier": thread,
		"comment_identifier":        comment,
	})
}

// ReplyToThread handles POST /api/posts/:post/threads/:thread/comments
func (s *Server) ReplyToThread(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.comments.ReplyToCommentThread(c.UserContext(), token(c),
		c.Params("post"), c.Params("thread"), req.CommentText)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment_identifier": comment})
}

// DeleteComment handles DELETE /api/posts/:post/threads/:thread/comments/:comment
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	if err := s.comments.DeleteComment(c.UserContext(), token(c), commentPath(c)); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeComment handles POST .../comments/:comment/like
func (s *Server) LikeComment(c *fiber.Ctx) error {
	if err := s.comments.LikeComment(c.UserContext(), token(c), commentPath(c)); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnlikeComment handles DELETE .../comments/:comment/like
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	if err := s.comments.UnlikeComment(c.UserContext(), token(c), commentPath(c)); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
