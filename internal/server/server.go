// Package server contains HTTP and WebSocket handlers for the photo-sharing API.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "photoshare/docs" // swagger docs
	"photoshare/internal/cache"
	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/featureflags"
	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/notifications"
	"photoshare/internal/observability"
	"photoshare/internal/repository"
	"photoshare/internal/service"
	"photoshare/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultAllowedOrigins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:5173"

// Per-route quotas. Limits are skipped outside staging and production.
var (
	loginRule    = middleware.Rule{Resource: "login", Limit: 10, Window: 5 * time.Minute, Policy: middleware.FailClosed}
	registerRule = middleware.Rule{Resource: "register", Limit: 3, Window: 10 * time.Minute, Policy: middleware.FailClosed}
	uploadRule   = middleware.Rule{Resource: "upload", Limit: 20, Window: time.Hour, Policy: middleware.FailOpen}
	commentRule  = middleware.Rule{Resource: "comment", Limit: 30, Window: time.Minute, Policy: middleware.FailOpen}
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.ObjectStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	sessions       *middleware.Sessions
	userRepo       repository.UserRepository
	photoRepo      repository.PhotoRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	userService    *service.UserService
	photoService   *service.PhotoService
}

// NewServer connects to the database, Redis and the object store, then
// builds a Server over them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; revocation, rate limits and cross-instance feed
// delivery are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore) (*Server, error) {
	if cfg == nil || db == nil || store == nil {
		return nil, errors.New("config, database and object store are required")
	}

	images := service.NewImageProcessor(cfg.ImageMaxUploadSizeMB)
	userRepo := repository.NewUserRepository(db)
	photoRepo := repository.NewPhotoRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("photoshare-api"),
		sessions:       middleware.NewSessions(cfg, redisClient),
		userRepo:       userRepo,
		photoRepo:      photoRepo,
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userService:    service.NewUserService(userRepo, store, images),
		photoService:   service.NewPhotoService(photoRepo, store, images),
	}
	s.hub.SetAudience(func(viewer models.ID) bool {
		return s.featureFlags.Enabled(featureflags.RealtimeFeed, viewer)
	})
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}
	return s, nil
}

// NewApp builds a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024
	if bodyLimit <= 1024*1024 {
		bodyLimit = (service.DefaultImageMaxUploadSizeMB + 1) * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:   "Photoshare API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
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
	app.Use(middleware.Tracing())

	// Propagate request and trace IDs into the request context for logging.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Uploaded images are embedded by a frontend on another origin.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := strings.TrimSpace(s.config.AllowedOrigins)
	if origins == "" {
		origins = defaultAllowedOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
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
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if disk, ok := s.store.(*storage.DiskStore); ok {
		app.Static("/uploads", disk.Root(), fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := s.sessions.RequireAuth()
	optionalAuth := s.sessions.OptionalAuth()

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(s.redis, loginRule), s.Login)
	auth.Post("/logout", requireAuth, s.Logout)
	auth.Get("/me", requireAuth, s.Me)

	users := api.Group("/users")
	users.Get("/", s.ListUsers)
	users.Post("/", middleware.RateLimit(s.redis, registerRule), s.Register)
	users.Get("/:id/photos", optionalAuth, s.ListUserPhotos)
	users.Get("/:id", s.GetUser)
	users.Patch("/:id", requireAuth, s.UpdateUser)

	photos := api.Group("/photos")
	photos.Get("/", optionalAuth, s.ListPhotos)
	// Static segments before /:id.
	photos.Get("/liked", requireAuth, s.ListLikedPhotos)
	photos.Post("/", requireAuth, middleware.RateLimit(s.redis, uploadRule), s.CreatePhoto)
	photos.Post("/:id/like", requireAuth, s.ToggleLike)
	photos.Post("/:id/comments", requireAuth, middleware.RateLimit(s.redis, commentRule), s.AddComment)
	photos.Patch("/:id/comments/:commentId", requireAuth, s.UpdateComment)
	photos.Delete("/:id/comments/:commentId", requireAuth, s.DeleteComment)
	photos.Get("/:id", optionalAuth, s.GetPhoto)
	photos.Patch("/:id", requireAuth, s.UpdatePhoto)
	photos.Delete("/:id", requireAuth, s.DeletePhoto)

	api.Get("/feature-flags", optionalAuth, s.GetFeatureFlags)
	api.Get("/ws/feed", optionalAuth, s.FeedUpgrade, s.FeedHandler())
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports database, Redis and schema health.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	schemaStatus := "healthy"
	for table, ok := range database.SchemaStatus(ctx, s.db) {
		if !ok {
			schemaStatus = "missing " + table
			break
		}
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	// Redis is optional; the API degrades without it.
	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || schemaStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"schema":   schemaStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start serves HTTP on the configured port and wires the realtime feed.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.app = s.NewApp()

	if s.notifier != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			observability.Logger.Error("failed to start feed wiring", "error", err)
		}
	}

	observability.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server, closes websocket clients and releases
// database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		observability.Logger.Error("error shutting down feed hub", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", "error", rerr)
		}
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
