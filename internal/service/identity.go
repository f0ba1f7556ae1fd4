package service

import (
	"context"
	"time"

	"positiveonly/internal/models"
	"positiveonly/internal/observability"
	"positiveonly/internal/validation"
)

// AdultAge is the age in whole years at which a verified user is an adult.
const AdultAge = 18

// IdentityStatus is the outcome of VerifyIdentity.
type IdentityStatus struct {
	IdentityIsVerified bool `json:"identity_is_verified"`
	IsAdult            bool `json:"is_adult"`
}

// VerifyIdentity records the session owner's date of birth check and derives
// IsAdult from it. Verification happens once; a second call is a Conflict.
func (s *AuthService) VerifyIdentity(ctx context.Context, sessionToken, dateOfBirth string) (status *IdentityStatus, err error) {
	span, ctx := observability.NewSpan(ctx, "auth.verify_identity")
	defer span.End()
	defer func() {
		span.SetError(err)
		observability.RecordAuthEvent("verify_identity", err)
	}()

	fields := &validation.Fields{}
	fields.Check(validation.FieldSessionManagementToken, sessionToken, validation.Alphanumeric).
		Check(validation.FieldDateOfBirth, dateOfBirth, validation.Date)
	if err := fields.Err(); err != nil {
		return nil, err
	}
	born, _ := time.Parse(validation.DateLayout, dateOfBirth)
	today := s.now().UTC().Truncate(24 * time.Hour)
	if born.After(today) {
		return nil, models.NewFieldsError([]string{validation.FieldDateOfBirth})
	}

	user, err := s.Authenticate(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	adult := IsAdult(born, today)
	updated, err := s.users.MarkIdentityVerified(ctx, user.ID, adult)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, models.NewConflictError("identity is already verified")
	}
	return &IdentityStatus{IdentityIsVerified: true, IsAdult: adult}, nil
}

// IsAdult reports whether someone born on born is at least AdultAge on day.
func IsAdult(born, day time.Time) bool {
	return !born.AddDate(AdultAge, 0, 0).After(day)
}
