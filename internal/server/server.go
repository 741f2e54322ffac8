// Package server contains the HTTP and WebSocket handlers for the site.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "scribble/docs" // swagger docs
	"scribble/internal/cache"
	"scribble/internal/config"
	"scribble/internal/database"
	"scribble/internal/featureflags"
	"scribble/internal/middleware"
	"scribble/internal/models"
	"scribble/internal/notifications"
	"scribble/internal/observability"
	"scribble/internal/repository"
	"scribble/internal/service"

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

// Locals keys set by SessionMiddleware.
const (
	localsUserID   = "userID"
	localsUsername = "username"
	localsSession  = "session"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	flags          *featureflags.Set
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	groupRepo      repository.GroupRepository
	followRepo     repository.FollowRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	imageService   *service.ImageService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
	authService    *service.AuthService
}

// NewServer connects to the database and Redis described by cfg and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching, revocation and notifications.
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires config and database")
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		flags:          featureflags.Parse(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	server.imageService = service.NewImageService(cfg)
	server.postService = service.NewPostService(
		server.postRepo,
		server.groupRepo,
		server.userRepo,
		server.commentRepo,
		server.followRepo,
		server.imageService,
		server.notifier,
		cfg.PageSize,
	)
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo)
	server.followService = service.NewFollowService(server.followRepo, server.userRepo, server.notifier)
	server.userService = service.NewUserService(server.userRepo)
	server.authService = service.NewAuthService(server.userRepo, cfg, redisClient)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// The session must be resolved before ContextMiddleware copies userID into the context.
	app.Use(s.SessionMiddleware())
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8375,http://127.0.0.1:8375"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
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
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Static("/media", s.imageService.MediaRoot(), fiber.Static{
		Browse: false,
		MaxAge: 86400,
	})

	// Auth
	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupForm)
	auth.Post("/signup/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout/", s.Logout)

	// Public listings
	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)

	required := s.AuthRequired()

	// Follow management and feed
	app.Get("/follow/", required, s.FollowIndex)
	app.Post("/profile/:username/follow/", required, s.ProfileFollow)
	app.Post("/profile/:username/unfollow/", required, s.ProfileUnfollow)

	// Posts: specific prefixes before the generic /posts/:id/
	app.Get("/create/", required, s.CreatePostForm)
	app.Post("/create/", required, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	app.Post("/posts/delete/:id", required, s.DeletePost)
	app.Post("/posts/like/:id/", required, s.LikePost)
	app.Post("/posts/like_comment/:id/", required, s.LikeComment)
	app.Get("/posts/:id/edit/", required, s.EditPostForm)
	app.Post("/posts/:id/edit/", required, s.EditPost)
	app.Post("/posts/:id/comment/", required, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.AddComment)
	app.Get("/posts/:id/", s.PostDetail)

	// Profile edit
	app.Get("/users/:id/edit/", required, s.EditProfileForm)
	app.Post("/users/:id/edit/", required, s.EditProfile)

	// Notifications socket
	app.Get("/ws", s.FeatureRequired(featureflags.LiveNotifications), required, s.WebsocketUpgradeRequired, s.WebsocketHandler())
}

// App builds the Fiber application with middleware and routes, once.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := int(s.config.ImageMaxUploadBytes()) + 1<<20
	if bodyLimit < 4<<20 {
		bodyLimit = 4 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:   "Scribble",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok && fe.Code < fiber.StatusInternalServerError {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	switch {
	case s.redis != nil:
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	case strings.TrimSpace(s.config.RedisURL) == "":
		redisStatus = "disabled"
	default:
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || (redisStatus != "healthy" && redisStatus != "disabled") {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// SessionMiddleware resolves the session token, if any, into locals.
// Invalid or revoked tokens are treated as anonymous.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.SessionToken(c, s.config.SessionCookie)
		if token == "" {
			return c.Next()
		}
		session, err := s.authService.ParseToken(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}
		c.Locals(localsUserID, session.UserID)
		c.Locals(localsUsername, session.Username)
		c.Locals(localsSession, session)
		return c.Next()
	}
}

// AuthRequired redirects anonymous visitors to the login page with ?next= set.
// The WebSocket endpoint cannot follow redirects and gets a 401 instead.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUserID(c) != 0 {
			return c.Next()
		}
		if c.Path() == "/ws" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		return c.Redirect(middleware.LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
	}
}

// FeatureRequired answers 404 when the named feature is off for the requester.
func (s *Server) FeatureRequired(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.flags.Enabled(name, currentUserID(c)) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Feature", name))
		}
		return c.Next()
	}
}

// Start starts the server and blocks until it stops listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start notification wiring", "error", err)
		}
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the Redis subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down notification hub", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
