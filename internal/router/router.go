package router

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anonto42/nano-midea/engagement/internal/cache"
	"github.com/anonto42/nano-midea/engagement/internal/handlers"
	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/middleware"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/internal/services"
	"github.com/anonto42/nano-midea/engagement/internal/validators"
	"github.com/anonto42/nano-midea/engagement/pkg/config"
)

// Deps are the backing stores and identity provider the routes are wired to.
type Deps struct {
	Postgres *gorm.DB
	Posts    repositories.PostRepository
	// Firebase verifies ID tokens. When nil, /api/v1 is guarded by HS256 JWTs signed
	// with cfg.JWTSecret instead.
	Firebase middleware.TokenVerifier
}

// SetupRoutes migrates the relational schema, builds the engagement services and
// registers every route on e.
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Deps, log *logrus.Logger) error {
	if err := repositories.AutoMigrate(deps.Postgres); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed")

	e.Validator = validators.NewValidator()
	e.Use(metrics.Middleware())

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Services ---
	store := repositories.NewGormStore(deps.Postgres)
	userCache, err := cache.NewUserCache(cfg.UserCacheSize, cfg.UserCacheTTL)
	if err != nil {
		return fmt.Errorf("user cache: %w", err)
	}
	users := services.NewUserDirectory(userCache)
	engagement := services.NewEngagementService(
		store,
		deps.Posts,
		users,
		services.NewFriendshipService(log),
		services.NewCommentService(users, log),
		services.NewNotificationService(deps.Posts, users, log),
		services.EngagementOptions{NotifyOnLike: cfg.NotifyOnLike},
		log,
	)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if deps.Firebase != nil {
		api.Use(middleware.FirebaseAuthMiddleware(deps.Firebase, store.Users(), log))
		log.Info("firebase authentication applied to /api/v1")
	} else {
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET must be set when firebase is not configured")
		}
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		log.Info("JWT authentication applied to /api/v1")
	}

	handlers.NewUserHandler(engagement).RegisterProfileRoutes(api)
	handlers.NewPostHandler(engagement).RegisterPostRoutes(api)
	handlers.NewCommentHandler(engagement).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(engagement).RegisterLikeRoutes(api)
	handlers.NewFriendshipHandler(engagement).RegisterFriendshipRoutes(api)
	handlers.NewNotificationHandler(engagement).RegisterNotificationRoutes(api)

	log.WithField("routes", len(e.Routes())).Info("all routes configured")
	return nil
}
