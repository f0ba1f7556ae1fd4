package server

import (
	"log/slog"
	"strconv"

	"positiveonly/internal/middleware"
	"positiveonly/internal/models"
	"positiveonly/internal/service"

	"github.com/gofiber/fiber/v2"
)

// respond writes err with the status its category maps to.
func respond(c *fiber.Ctx, err error) error {
	if models.ErrorCode(err) == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, models.StatusCode(err), err)
}

func invalidBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewValidationError("Invalid request body"))
}

// batchParam reads ?batch=. A missing value is batch 0; anything that is not
// an integer becomes -1 so the service reports the BATCH field.
func batchParam(c *fiber.Ctx) int {
	raw := c.Query("batch")
	if raw == "" {
		return 0
	}
	batch, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return batch
}

func token(c *fiber.Ctx) string {
	return middleware.SessionToken(c)
}

func commentPath(c *fiber.Ctx) service.CommentPath {
	return service.CommentPath{
		PostIdentifier:    c.Params("post"),
		ThreadIdentifier:  c.Params("thread"),
		CommentIdentifier: c.Params("comment"),
	}
}

// codeForStatus labels errors raised by Fiber itself.
func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnsupportedMediaType:
		return models.CodeValidation
	case fiber.StatusTooManyRequests:
		return models.CodeRateLimited
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	default:
		return models.CodeInternal
	}
}

// credentialsResponse is the body of every endpoint that issues a session.
type credentialsResponse struct {
	SessionManagementToken string              `json:"session_management_token"`
	RememberMe             *rememberMeResponse `json:"remember_me"`
}

type rememberMeResponse struct {
	SeriesIdentifier string `json:"series_identifier"`
	LoginCookieToken string `json:"login_cookie_token"`
}

func newCredentialsResponse(creds *service.IssuedCredentials) credentialsResponse {
	out := credentialsResponse{SessionManagementToken: creds.SessionToken}
	if cookie, ok := creds.Cookie(); ok {
		out.RememberMe = &rememberMeResponse{
			SeriesIdentifier: cookie.SeriesIdentifier,
			LoginCookieToken: cookie.CookieToken,
		}
	}
	return out
}
