package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"

	"positiveonly/internal/mailer"
	"positiveonly/internal/models"
	"positiveonly/internal/observability"
	"positiveonly/internal/security"
	"positiveonly/internal/validation"
)

var errResetCodeMismatch = models.NewUnauthorizedError("reset code does not match")

// RequestPasswordReset mails a six digit code to the account owner. Unknown
// accounts get the same nil result.
func (s *AuthService) RequestPasswordReset(ctx context.Context, usernameOrEmail string) (err error) {
	span, ctx := observability.NewSpan(ctx, "auth.reset_request")
	defer span.End()
	defer func() {
		span.SetError(err)
		observability.RecordAuthEvent("reset_request", err)
	}()

	fields := &validation.Fields{}
	if err := fields.Check(validation.FieldUsernameOrEmail, usernameOrEmail, validation.UsernameOrEmail).Err(); err != nil {
		return err
	}
	if !s.allow(ctx, s.resetLimiter, LimitResetCode, usernameOrEmail) {
		return models.NewRateLimitedError("too many password reset requests")
	}

	user, err := s.users.GetByIdentity(ctx, usernameOrEmail)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	code, value, err := security.NewResetCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.SetResetCode(ctx, user.ID, value, s.now().Add(s.resetCodeTTL)); err != nil {
		return err
	}

	mailer.Dispatch(ctx, s.mail, mailer.Message{
		To:      user.Email,
		Subject: "Your PositiveOnly password reset code",
		Body: fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. It expires in %d minutes.\n\n"+
			"If you did not ask for a reset you can ignore this message.\n",
			user.Username, code, int(s.resetCodeTTL.Minutes())),
	})
	return nil
}

// VerifyReset checks a reset code and opens a short window for ResetPassword.
// A code verifies at most once.
func (s *AuthService) VerifyReset(ctx context.Context, usernameOrEmail, code string) (err error) {
	defer func() { observability.RecordAuthEvent("reset_verify", err) }()

	fields := &validation.Fields{}
	fields.Check(validation.FieldUsernameOrEmail, usernameOrEmail, validation.UsernameOrEmail).
		Check(validation.FieldResetID, code, validation.ResetCode)
	if err := fields.Err(); err != nil {
		return err
	}
	if !s.allow(ctx, s.resetLimiter, LimitResetVerify, usernameOrEmail) {
		return models.NewRateLimitedError("too many reset code attempts")
	}

	value, err := strconv.Atoi(code)
	if err != nil {
		return errResetCodeMismatch
	}
	user, err := s.users.GetByIdentity(ctx, usernameOrEmail)
	if err != nil {
		return err
	}
	if user == nil {
		return errResetCodeMismatch
	}

	now := s.now()
	if !user.HasActiveResetCode(now) ||
		subtle.ConstantTimeEq(int32(user.ResetCode), int32(value)) != 1 {
		return errResetCodeMismatch
	}
	consumed, err := s.users.ConsumeResetCode(ctx, user.ID, value, now.Add(s.resetVerifiedTTL))
	if err != nil {
		return err
	}
	if !consumed {
		return errResetCodeMismatch
	}
	return nil
}

// ResetPassword stores a new password after a successful VerifyReset and
// signs the account out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, username, email, newPassword string) (err error) {
	span, ctx := observability.NewSpan(ctx, "auth.reset_password")
	defer span.End()
	defer func() {
		span.SetError(err)
		observability.RecordAuthEvent("reset_password", err)
	}()

	fields := &validation.Fields{}
	fields.Check(validation.FieldUsername, username, validation.Alphanumeric).
		Check(validation.FieldEmail, email, validation.Email).
		Check(validation.FieldPassword, newPassword, validation.Password)
	if err := fields.Err(); err != nil {
		return err
	}

	user, err := s.users.GetByUsernameAndEmail(ctx, username, email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", username)
	}
	if !user.ResetVerified(s.now()) {
		return models.NewUnauthorizedError("password reset not verified")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return models.NewInternalError(err)
	}
	updated, err := s.users.CompletePasswordReset(ctx, user.ID, hash)
	if err != nil {
		return err
	}
	if !updated {
		return models.NewUnauthorizedError("password reset not verified")
	}
	return nil
}
