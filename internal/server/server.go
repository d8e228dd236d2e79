// Package server contains the HTTP handlers for the post API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/featureflags"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/notifications"
	"chirp/internal/repository"
	"chirp/internal/service"
	"chirp/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators the server runs on. Mongo,
// DB and Redis are only used for readiness and shutdown; the data path goes
// through the repositories.
type Deps struct {
	Mongo   *mongo.Client
	DB      *gorm.DB
	Redis   *redis.Client
	Posts   repository.PostRepository
	Users   repository.UserRepository
	Emitter notifications.Emitter
	Objects storage.ObjectStore
}

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	deps         Deps
	auth         *middleware.Authenticator
	featureFlags *featureflags.Manager
	shutdownCtx  context.Context
	shutdownFn   context.CancelFunc

	postService    *service.PostService
	likeService    *service.LikeService
	commentService *service.CommentService
	reconciler     *service.LikeReconciler
}

// NewServer wires services over deps.
func NewServer(cfg *config.Config, deps Deps) *Server {
	flags := featureflags.NewManager(cfg.FeatureFlags)
	var store *cache.Store
	if flags.Enabled(featureflags.PostCache, "") {
		store = cache.NewStore(deps.Redis, cfg.PostCacheTTL())
	}
	attachments := storage.NewAttachmentManager(deps.Objects, cfg.StorageTimeout())
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		config:         cfg,
		deps:           deps,
		auth:           middleware.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer),
		featureFlags:   flags,
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		postService:    service.NewPostService(deps.Posts, deps.Users, attachments, store),
		likeService:    service.NewLikeService(deps.Posts, deps.Users, deps.Emitter, store),
		commentService: service.NewCommentService(deps.Posts, deps.Users, store),
		reconciler:     service.NewLikeReconciler(deps.Posts, deps.Users),
	}
}

// NewApp returns a fiber app with the error handler every route relies on.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "chirp API",
		BodyLimit: 12 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())

	middleware.InitMetrics(app, "chirp-api")
	app.Use(middleware.MetricsMiddleware())

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if local, ok := s.deps.Objects.(*storage.LocalStore); ok {
		app.Static(storage.MediaPrefix, local.Dir(), fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	posts := api.Group("/posts")
	posts.Get("/all", s.GetAllPosts)
	posts.Get("/following", s.auth.Required, s.GetFollowingPosts)
	posts.Get("/likes/:id", s.GetLikedPosts)
	posts.Get("/user/:username", s.GetUserPosts)

	posts.Post("/create", s.auth.Required,
		middleware.RateLimit(s.deps.Redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/update/:id", s.auth.Required, s.UpdatePost)
	posts.Post("/delete/:id", s.auth.Required, s.DeletePost)
	posts.Post("/like/:id", s.auth.Required,
		middleware.RateLimit(s.deps.Redis, 60, time.Minute, "like"), s.LikePost)
	// specific comment routes before the generic /comment/:id
	posts.Post("/comment/delete/:postId/:id", s.auth.Required, s.DeleteComment)
	posts.Post("/comment/update/:postId/:id", s.auth.Required, s.UpdateComment)
	posts.Post("/comment/:id", s.auth.Required,
		middleware.RateLimit(s.deps.Redis, 20, time.Minute, "comment"), s.CommentOnPost)

	// generic /:id last
	posts.Get("/:id", s.GetPost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Mongo and Postgres are
// required; Redis only backs the cache, notification fan-out and rate
// limits, all of which degrade without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	mongoStatus := "unavailable"
	if s.deps.Mongo != nil {
		mongoStatus = "healthy"
		if err := s.deps.Mongo.Ping(ctx, nil); err != nil {
			mongoStatus = "unhealthy"
		}
	}

	dbStatus := "unavailable"
	if s.deps.DB != nil {
		dbStatus = "healthy"
		sqlDB, err := s.deps.DB.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "unavailable"
	if s.deps.Redis != nil {
		redisStatus = "healthy"
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if mongoStatus != "healthy" || dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"mongodb":  mongoStatus,
			"postgres": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// StartBackground launches the like reconciliation ticker when the
// like_reconcile flag is on. It stops on Shutdown.
func (s *Server) StartBackground() {
	if !s.featureFlags.Enabled(featureflags.LikeReconcile, "") {
		return
	}
	interval := s.config.ReconcileInterval()
	if interval <= 0 {
		return
	}
	go s.reconcileLoop(s.shutdownCtx, interval)
}

func (s *Server) reconcileLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, interval)
			if _, err := s.reconciler.Run(runCtx); err != nil {
				middleware.Logger.ErrorContext(runCtx, "like reconciliation failed", "error", err)
			}
			cancel()
		}
	}
}

// Shutdown stops background work and closes the connections in deps.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	var errs []error
	if s.deps.Mongo != nil {
		if err := s.deps.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
	}
	if s.deps.DB != nil {
		if sqlDB, err := s.deps.DB.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("close postgres: %w", cerr))
			}
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
