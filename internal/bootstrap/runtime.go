// Package bootstrap connects the runtime dependencies and assembles the
// services the HTTP server exposes.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"positiveonly/internal/cache"
	"positiveonly/internal/classifier"
	"positiveonly/internal/config"
	"positiveonly/internal/database"
	"positiveonly/internal/featureflags"
	"positiveonly/internal/mailer"
	"positiveonly/internal/middleware"
	"positiveonly/internal/notifications"
	"positiveonly/internal/repository"
	"positiveonly/internal/security"
	"positiveonly/internal/server"
	"positiveonly/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the connected dependencies.
type Runtime struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Flags    *featureflags.Manager
	Notifier *notifications.Notifier
	Services server.Services
}

// InitRuntime connects to the database and Redis and builds the services.
// Redis is optional.
func InitRuntime(cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(rdb)

	return &Runtime{
		DB:       db,
		Redis:    rdb,
		Flags:    flags,
		Notifier: notifier,
		Services: NewServices(cfg, db, rdb, notifier, flags),
	}, nil
}

// NewServices wires repositories, classifiers, mail and notifications into
// the service layer.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, publisher notifications.Publisher, flags *featureflags.Manager) server.Services {
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	relationships := repository.NewRelationshipRepository(db)

	activity := notifications.Gated(publisher, func(userID uint) bool {
		return flags.Enabled(featureflags.ActivityNotifications, userID)
	})
	images, texts := newClassifiers(cfg)

	auth := service.NewAuthService(users, repository.NewSessionRepository(db),
		security.NewHasher(cfg.BcryptCost), newMailer(cfg), service.AuthConfig{
			ResetCodeTTL:     cfg.ResetCodeTTL,
			ResetVerifiedTTL: cfg.ResetVerifiedTTL,
			LoginLimiter:     attemptLimiter(rdb, cfg.LoginAttemptLimit, cfg.LoginAttemptWindow),
			ResetLimiter:     attemptLimiter(rdb, cfg.ResetAttemptLimit, cfg.ResetCodeTTL),
		})

	return server.Services{
		Auth:          auth,
		Feed:          service.NewFeedService(auth, users, posts, comments, relationships, nil),
		Posts:         service.NewPostService(auth, posts, relationships, images, texts, activity),
		Comments:      service.NewCommentService(auth, posts, comments, relationships, texts, activity),
		Moderation:    service.NewModerationService(auth, posts, comments, relationships, repository.NewReportRepository(db), activity),
		Relationships: service.NewRelationshipService(auth, users, relationships, activity),
	}
}

// WatchModeration logs every hide decision published on the moderation
// channel until ctx is done. Without Redis it does nothing.
func (r *Runtime) WatchModeration(ctx context.Context) error {
	return r.Notifier.StartModerationSubscriber(ctx, func(event notifications.ModerationEvent) {
		middleware.Logger.InfoContext(ctx, "content hidden",
			slog.String("target_type", event.TargetType),
			slog.String("target", event.Target),
			slog.Int64("report_count", event.ReportCount))
	})
}

func newMailer(cfg *config.Config) mailer.Sender {
	if cfg.MailDriver == config.MailDriverSMTP {
		return mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}
	return mailer.NewLog(middleware.Logger)
}

func newClassifiers(cfg *config.Config) (classifier.ImageClassifier, classifier.TextClassifier) {
	if cfg.ClassifierDriver != config.ClassifierDriverHTTP {
		static := classifier.NewStatic()
		return static, static
	}
	client := &http.Client{Timeout: cfg.ClassifierTimeout}
	images := classifier.NewHTTP(classifier.HTTPConfig{Endpoint: cfg.ImageClassifierURL, HTTPClient: client})
	texts := classifier.NewHTTP(classifier.HTTPConfig{Endpoint: cfg.TextClassifierURL, HTTPClient: client})
	return images, texts
}

// attemptLimiter counts attempts in Redis with a fixed window.
func attemptLimiter(rdb *redis.Client, limit int, window time.Duration) service.Limiter {
	return func(ctx context.Context, resource, id string) (bool, error) {
		return middleware.CheckRateLimit(ctx, rdb, resource, id, limit, window)
	}
}
