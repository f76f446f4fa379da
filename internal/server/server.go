// Package server contains the HTTP handlers for the relationship, messaging
// and notification API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "circle/docs" // swagger docs
	"circle/internal/config"
	"circle/internal/middleware"
	"circle/internal/notifications"
	"circle/internal/repository"
	"circle/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	rateLimiter    *middleware.RateLimiter

	friendRequests *service.FriendRequestService
	relationships  *service.RelationshipService
	readState      *service.ReadStateService
	messages       *service.MessageService
	posts          *service.PostService
	comments       *service.CommentService
	sync           *service.SyncService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewFriendRequestRepository(db)
	relationshipStore := repository.NewRelationshipStore(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	emitter := notifications.NewFanout(db, notifications.DefaultObservers(middleware.Logger)...)

	notifEvery, feedEvery, chatEvery := cfg.PollIntervals()
	intervals := service.PollIntervals{
		Notifications: int(notifEvery / time.Second),
		Feed:          int(feedEvery / time.Second),
		Chat:          int(chatEvery / time.Second),
	}

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("circle-api"),
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),

		friendRequests: service.NewFriendRequestService(db, requestRepo, relationshipStore, userRepo, emitter),
		relationships:  service.NewRelationshipService(relationshipStore, requestRepo, userRepo),
		readState:      service.NewReadStateService(notificationRepo, messageRepo),
		messages:       service.NewMessageService(messageRepo, userRepo, emitter),
		posts:          service.NewPostService(postRepo),
		comments:       service.NewCommentService(commentRepo, postRepo, emitter),
		sync:           service.NewSyncService(notificationRepo, messageRepo, postRepo, cfg.SyncSettle(), intervals),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	// Tracing before context propagation so the trace ID reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS must run before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	protected := api.Group("", middleware.AuthRequired(middleware.AuthConfig{
		JWTSecret:     s.config.JWTSecret,
		TrustedHeader: s.config.TrustedUserHeader,
	}))

	// Friend routes. Specific paths before the generic /:userId.
	friends := protected.Group("/friends")
	friends.Post("/request", s.rateLimiter.Limit(10, 5*time.Minute, "friend_request", middleware.FailOpen), s.SendFriendRequest)
	friends.Post("/accept/:id", s.AcceptFriendRequest)
	friends.Post("/reject/:id", s.RejectFriendRequest)
	friends.Post("/cancel/:id", s.CancelFriendRequest)
	friends.Delete("/remove", s.RemoveFriendship)
	friends.Get("/check/:id1/:id2", s.CheckFriendship)
	friends.Get("/list/:userId", s.ListFriends)
	friends.Get("/requests/pending/:userId", s.ListPendingRequests)
	friends.Get("/requests/sent/:userId", s.ListSentRequests)
	friends.Delete("/:userId", s.RemoveFriend)

	follows := protected.Group("/follows")
	follows.Get("/:userId/followers", s.ListFollowers)
	follows.Get("/:userId/following", s.ListFollowing)
	follows.Post("/:userId", s.FollowUser)
	follows.Delete("/:userId", s.UnfollowUser)

	notifs := protected.Group("/notifications")
	notifs.Get("/:userId/unread-count", s.UnreadNotificationCount)
	notifs.Put("/:userId/read-all", s.MarkAllNotificationsRead)
	notifs.Put("/:id/read", s.MarkNotificationRead)
	notifs.Get("/:userId", s.ListNotifications)

	messages := protected.Group("/messages")
	messages.Post("/send", s.rateLimiter.Limit(30, time.Minute, "send_message", middleware.FailOpen), s.SendMessage)
	messages.Post("/mark-read", s.MarkMessagesRead)
	messages.Post("/mark-conversation-read", s.MarkConversationRead)
	messages.Get("/conversations/:userId", s.ListConversations)
	messages.Get("/conversation/:u1/:u2", s.GetConversation)
	messages.Get("/unread-count/:userId", s.UnreadMessageCount)
	messages.Delete("/:id", s.DeleteMessage)

	posts := protected.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Get("/", s.GetFeed)
	posts.Post("/:id/comments", s.CreateComment)
	posts.Get("/:id/comments", s.ListComments)
	posts.Delete("/:id", s.DeletePost)
	protected.Delete("/comments/:id", s.DeleteComment)

	protected.Get("/sync/:userId", s.Sync)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests. Redis only backs rate
// limiting, so its absence degrades readiness without failing it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus == "unhealthy" || redisStatus == "unhealthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus == "unavailable":
		overallStatus = "degraded"
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

// Shutdown releases the database and Redis connections.
func (s *Server) Shutdown(_ context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
