package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"positiveonly/internal/mailer"
	"positiveonly/internal/models"
	"positiveonly/internal/observability"
	"positiveonly/internal/repository"
	"positiveonly/internal/security"
	"positiveonly/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Limiter resources.
const (
	LimitLogin       = "login"
	LimitResetCode   = "reset_request"
	LimitResetVerify = "reset_verify"
)

// AuthConfig holds the tunables of AuthService. Zero values are replaced by
// defaults.
type AuthConfig struct {
	ResetCodeTTL     time.Duration
	ResetVerifiedTTL time.Duration
	LoginLimiter     Limiter
	ResetLimiter     Limiter
	Now              func() time.Time
}

// AuthService owns registration, login, sessions and password reset.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   *security.Hasher
	mail     mailer.Sender

	resetCodeTTL     time.Duration
	resetVerifiedTTL time.Duration
	loginLimiter     Limiter
	resetLimiter     Limiter
	now              func() time.Time
}

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	RememberMe bool
	IP         string
}

// LoginInput is the payload of Login.
type LoginInput struct {
	UsernameOrEmail string
	Password        string
	RememberMe      bool
	IP              string
}

// RememberMeInput is the payload of LoginWithRememberMe.
type RememberMeInput struct {
	SessionToken     string
	SeriesIdentifier string
	CookieToken      string
	IP               string
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher *security.Hasher,
	mail mailer.Sender,
	cfg AuthConfig,
) *AuthService {
	s := &AuthService{
		users:            users,
		sessions:         sessions,
		hasher:           hasher,
		mail:             mail,
		resetCodeTTL:     cfg.ResetCodeTTL,
		resetVerifiedTTL: cfg.ResetVerifiedTTL,
		loginLimiter:     cfg.LoginLimiter,
		resetLimiter:     cfg.ResetLimiter,
		now:              cfg.Now,
	}
	if s.hasher == nil {
		s.hasher = security.NewHasher(0)
	}
	if s.resetCodeTTL <= 0 {
		s.resetCodeTTL = 15 * time.Minute
	}
	if s.resetVerifiedTTL <= 0 {
		s.resetVerifiedTTL = 10 * time.Minute
	}
	if s.loginLimiter == nil {
		s.loginLimiter = AllowAll
	}
	if s.resetLimiter == nil {
		s.resetLimiter = AllowAll
	}
	if s.now == nil {
		s.now = utcNow
	}
	return s
}

var errCredentialsIncorrect = models.NewUnauthorizedError("credentials incorrect")

// allow consults a limiter. Limiter failures are logged and let the attempt through.
func (s *AuthService) allow(ctx context.Context, limiter Limiter, resource, identity string) bool {
	allowed, err := limiter(ctx, resource, strings.ToLower(identity))
	if err != nil {
		slog.WarnContext(ctx, "attempt limiter unavailable",
			slog.String("resource", resource),
			slog.String("error", err.Error()))
		return true
	}
	return allowed
}

func newSession(userID uint, ip string) (*models.Session, string, error) {
	token, err := security.NewToken()
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return &models.Session{TokenHash: security.HashToken(token), UserID: userID, IP: ip}, token, nil
}

func newLoginCookie() (*models.LoginCookie, RememberMeCookie, error) {
	token, err := security.NewToken()
	if err != nil {
		return nil, RememberMeCookie{}, models.NewInternalError(err)
	}
	series := security.NewSeriesIdentifier()
	return &models.LoginCookie{SeriesIdentifier: series, TokenHash: security.HashToken(token)},
		RememberMeCookie{SeriesIdentifier: series, CookieToken: token}, nil
}

// issue builds a session and, when requested, a login cookie for userID.
func issue(userID uint, ip string, rememberMe bool) (*models.Session, *models.LoginCookie, *IssuedCredentials, error) {
	session, token, err := newSession(userID, ip)
	if err != nil {
		return nil, nil, nil, err
	}
	creds := &IssuedCredentials{SessionToken: token, RememberMe: NoRememberMe{}}
	if !rememberMe {
		return session, nil, creds, nil
	}
	cookie, issued, err := newLoginCookie()
	if err != nil {
		return nil, nil, nil, err
	}
	creds.RememberMe = issued
	return session, cookie, creds, nil
}

// Register creates an account and its first session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (creds *IssuedCredentials, err error) {
	span, ctx := observability.NewSpan(ctx, "auth.register")
	defer span.End()
	defer func() {
		span.SetError(err)
		observability.RecordAuthEvent("register", err)
	}()

	fields := &validation.Fields{}
	fields.Check(validation.FieldUsername, in.Username, validation.Alphanumeric).
		Check(validation.FieldEmail, in.Email, validation.Email).
		Check(validation.FieldPassword, in.Password, validation.Password).
		Check(validation.FieldIP, in.IP, validation.IP)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("username already taken")
	}
	existing, err = s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("email already registered")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	session, cookie, creds, err := issue(0, in.IP, in.RememberMe)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Identifier:   security.NewIdentifier(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		ResetCode:    models.NoResetCode,
	}
	if err := s.users.CreateAccount(ctx, user, session, cookie); err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.Bool("auth.remember_me", in.RememberMe))
	return creds, nil
}

// Login checks a password and opens a new session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (creds *IssuedCredentials, err error) {
	span, ctx := observability.NewSpan(ctx, "auth.login")
	defer span.End()
	defer func() {
		span.SetError(err)
		observability.RecordAuthEvent("login", err)
	}()

	fields := &validation.Fields{}
	fields.Check(validation.FieldUsernameOrEmail, in.UsernameOrEmail, validation.UsernameOrEmail).
		Check(validation.FieldPassword, in.Password, validation.Password).
		Check(validation.FieldIP, in.IP, validation.IP)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if !s.allow(ctx, s.loginLimiter, LimitLogin, in.UsernameOrEmail) {
		return nil, errCredentialsIncorrect
	}

	user, err := s.users.GetByIdentity(ctx, in.UsernameOrEmail)
	if err != nil {
		return nil, err
	}
	storedHash := ""
	if user != nil {
		storedHash = user.PasswordHash
	}
	ok, err := s.hasher.Check(in.Password, storedHash)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok || user == nil {
		return nil, errCredentialsIncorrect
	}

	session, cookie, creds, err := issue(user.ID, in.IP, in.RememberMe)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.CreateLogin(ctx, session, cookie); err != nil {
		return nil, err
	}
	return creds, nil
}

// LoginWithRememberMe exchanges a login cookie for a new session and rotates
// the cookie token. A stale token revokes the series as a theft signal.
func (s *AuthService) LoginWithRememberMe(ctx context.Context, in RememberMeInput) (creds *IssuedCredentials, err error) {
	span, ctx := observability.NewSpan(ctx, "auth.remember_me")
	defer span.End()
	defer func() {
		span.SetError(err)
		observability.RecordAuthEvent("remember_me", err)
	}()

	fields := &validation.Fields{}
	fields.Check(validation.FieldSessionManagementToken, in.SessionToken, validation.Alphanumeric).
		Check(validation.FieldSeriesIdentifier, in.SeriesIdentifier, validation.UUID4).
		Check(validation.FieldLoginCookieToken, in.CookieToken, validation.Alphanumeric).
		Check(validation.FieldIP, in.IP, validation.IP)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	cookies, err := s.sessions.FindCookiesBySeries(ctx, in.SeriesIdentifier)
	if err != nil {
		return nil, err
	}
	if len(cookies) != 1 {
		return nil, models.NewNotFoundError("LoginCookie", in.SeriesIdentifier)
	}
	cookie := cookies[0]

	if !security.TokenMatches(in.CookieToken, cookie.TokenHash) {
		if err := s.sessions.RevokeSeries(ctx, cookie.SeriesIdentifier, cookie.UserID); err != nil {
			return nil, err
		}
		observability.RememberMeTheft.Inc()
		slog.WarnContext(ctx, "remember-me token mismatch, series revoked",
			slog.Uint64("user_id", uint64(cookie.UserID)),
			slog.String("ip", in.IP))
		return nil, models.NewUnauthorizedError("login cookie is no longer valid")
	}

	var retire uint
	presented, err := s.sessions.GetByTokenHash(ctx, security.HashToken(in.SessionToken))
	if err != nil {
		return nil, err
	}
	if presented != nil {
		if presented.UserID != cookie.UserID {
			return nil, models.NewUnauthorizedError("session does not belong to the login cookie owner")
		}
		retire = presented.ID
	}

	session, sessionToken, err := newSession(cookie.UserID, in.IP)
	if err != nil {
		return nil, err
	}
	cookieToken, err := security.NewToken()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	rotated, err := s.sessions.RotateCookie(ctx, repository.CookieRotation{
		SeriesIdentifier: cookie.SeriesIdentifier,
		OldTokenHash:     cookie.TokenHash,
		NewTokenHash:     security.HashToken(cookieToken),
		NewSession:       session,
		RetireSessionID:  retire,
	})
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, models.NewUnauthorizedError("login cookie is no longer valid")
	}

	return &IssuedCredentials{
		SessionToken: sessionToken,
		RememberMe: RememberMeCookie{
			SeriesIdentifier: cookie.SeriesIdentifier,
			CookieToken:      cookieToken,
		},
	}, nil
}

// Logout destroys one session.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) (err error) {
	defer func() { observability.RecordAuthEvent("logout", err) }()

	fields := &validation.Fields{}
	if err := fields.Check(validation.FieldSessionManagementToken, sessionToken, validation.Alphanumeric).Err(); err != nil {
		return err
	}
	removed, err := s.sessions.DeleteByTokenHash(ctx, security.HashToken(sessionToken))
	if err != nil {
		return err
	}
	if !removed {
		return models.NewUnauthorizedError("session is not valid")
	}
	return nil
}

// DeleteUser removes the session owner and everything they created.
func (s *AuthService) DeleteUser(ctx context.Context, sessionToken string) (err error) {
	span, ctx := observability.NewSpan(ctx, "auth.delete_user")
	defer span.End()
	defer func() {
		span.SetError(err)
		observability.RecordAuthEvent("delete_user", err)
	}()

	user, err := authenticate(ctx, s, sessionToken, &validation.Fields{})
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, user.ID)
}

// Authenticate resolves a session token. Unknown tokens are UNAUTHORIZED.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*models.User, error) {
	if !validation.Matches(sessionToken, validation.Alphanumeric) {
		return nil, models.NewFieldsError([]string{validation.FieldSessionManagementToken})
	}
	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(sessionToken))
	if err != nil {
		return nil, err
	}
	if session == nil || session.User.ID == 0 {
		return nil, models.NewUnauthorizedError("session is not valid")
	}
	return &session.User, nil
}
