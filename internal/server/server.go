// Package server exposes the services over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"positiveonly/internal/config"
	"positiveonly/internal/featureflags"
	"positiveonly/internal/middleware"
	"positiveonly/internal/models"
	"positiveonly/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services are the operations the handlers call.
type Services struct {
	Auth          *service.AuthService
	Feed          *service.FeedService
	Posts         *service.PostService
	Comments      *service.CommentService
	Moderation    *service.ModerationService
	Relationships *service.RelationshipService
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	auth          *service.AuthService
	feed          *service.FeedService
	posts         *service.PostService
	comments      *service.CommentService
	moderation    *service.ModerationService
	relationships *service.RelationshipService
}

// NewServer builds a Server from already initialized dependencies. redisClient
// may be nil.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, svc Services, flags *featureflags.Manager) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("positiveonly-api"),
		featureFlags:   flags,
		auth:           svc.Auth,
		feed:           svc.Feed,
		posts:          svc.Posts,
		comments:       svc.Comments,
		moderation:     svc.Moderation,
		relationships:  svc.Relationships,
	}
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "PositiveOnly API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, &models.AppError{
					Code:    codeForStatus(fe.Code),
					Message: fe.Message,
				})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", s.Login)
	auth.Post("/remember-me", s.LoginWithRememberMe)
	auth.Post("/password-reset/request", s.RequestPasswordReset)
	auth.Post("/password-reset/verify", s.VerifyPasswordReset)
	auth.Post("/password-reset", s.ResetPassword)
	auth.Post("/logout", middleware.AuthRequired, s.Logout)
	auth.Delete("/account", middleware.AuthRequired, s.DeleteAccount)

	protected := api.Group("", middleware.AuthRequired)
	protected.Get("/features", s.GetFeatureFlags)

	posts := protected.Group("/posts")
	posts.Get("/feed", s.GetFeed)
	posts.Get("/following", s.GetFollowedFeed)
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Specific /:post/<resource> routes before the generic /:post routes.
	posts.Post("/:post/like", s.LikePost)
	posts.Delete("/:post/like", s.UnlikePost)
	posts.Post("/:post/report", s.ReportPost)

	threads := posts.Group("/:post/threads")
	threads.Get("/", s.GetThreads)
	threads.Post("/", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CommentOnPost)
	threads.Get("/:thread/comments", s.GetThreadComments)
	threads.Post("/:thread/comments", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.ReplyToThread)
	threads.Post("/:thread/comments/:comment/like", s.LikeComment)
	threads.Delete("/:thread/comments/:comment/like", s.UnlikeComment)
	threads.Post("/:thread/comments/:comment/report", s.ReportComment)
	threads.Delete("/:thread/comments/:comment", s.DeleteComment)

	posts.Get("/:post", s.GetPost)
	posts.Delete("/:post", s.DeletePost)

	users := protected.Group("/users")
	users.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchUsers)
	users.Post("/me/verify-identity", s.VerifyIdentity)
	users.Get("/:username/posts", s.GetUserPosts)
	users.Post("/:username/follow", s.Follow)
	users.Delete("/:username/follow", s.Unfollow)
	users.Post("/:username/block", s.Block)
	users.Delete("/:username/block", s.Unblock)
	users.Get("/:username", s.GetProfile)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so a
// missing client degrades readiness without failing it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	case redisStatus != "healthy":
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
