package server

import (
	"positiveonly/internal/featureflags"
	"positiveonly/internal/service"

	"github.com/gofiber/fiber/v2"
)

// rememberMeAllowed gates login cookie issuance behind the remember_me flag.
func (s *Server) rememberMeAllowed(requested bool) bool {
	return requested && s.featureFlags.Enabled(featureflags.RememberMe, 0)
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username   string `json:"username"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	creds, err := s.auth.Register(c.UserContext(), service.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: s.rememberMeAllowed(req.RememberMe),
		IP:         c.IP(),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newCredentialsResponse(creds))
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		UsernameOrEmail string `json:"username_or_email"`
		Password        string `json:"password"`
		RememberMe      bool   `json:"remember_me"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	creds, err := s.auth.Login(c.UserContext(), service.LoginInput{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
		RememberMe:      s.rememberMeAllowed(req.RememberMe),
		IP:              c.IP(),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(newCredentialsResponse(creds))
}

// LoginWithRememberMe handles POST /api/auth/remember-me. The previous
// session token travels in the body because it has usually expired.
func (s *Server) LoginWithRememberMe(c *fiber.Ctx) error {
	var req struct {
		SessionManagementToken string `json:"session_management_token"`
		SeriesIdentifier       string `json:"series_identifier"`
		LoginCookieToken       string `json:"login_cookie_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	creds, err := s.auth.LoginWithRememberMe(c.UserContext(), service.RememberMeInput{
		SessionToken:     req.SessionManagementToken,
		SeriesIdentifier: req.SeriesIdentifier,
		CookieToken:      req.LoginCookieToken,
		IP:               c.IP(),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(newCredentialsResponse(creds))
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.auth.Logout(c.UserContext(), token(c)); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteAccount handles DELETE /api/auth/account
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.auth.DeleteUser(c.UserContext(), token(c)); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RequestPasswordReset handles POST /api/auth/password-reset/request. The
// answer is the same whether or not the account exists.
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		UsernameOrEmail string `json:"username_or_email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := s.auth.RequestPasswordReset(c.UserContext(), req.UsernameOrEmail); err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If the account exists, a reset code has been sent",
	})
}

// VerifyPasswordReset handles POST /api/auth/password-reset/verify
func (s *Server) VerifyPasswordReset(c *fiber.Ctx) error {
	var req struct {
		UsernameOrEmail string `json:"username_or_email"`
		ResetID         string `json:"reset_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := s.auth.VerifyReset(c.UserContext(), req.UsernameOrEmail, req.ResetID); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResetPassword handles POST /api/auth/password-reset
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := s.auth.ResetPassword(c.UserContext(), req.Username, req.Email, req.Password); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VerifyIdentity handles POST /api/users/me/verify-identity
func (s *Server) VerifyIdentity(c *fiber.Ctx) error {
	var req struct {
		DateOfBirth string `json:"date_of_birth"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	status, err := s.auth.VerifyIdentity(c.UserContext(), token(c), req.DateOfBirth)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(status)
}
