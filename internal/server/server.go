package server

import (
	"time"

	"backend-waylog/internal/annotation"
	"backend-waylog/internal/auth"
	"backend-waylog/internal/config"
	"backend-waylog/internal/stats"
	"backend-waylog/internal/stream"
	"backend-waylog/internal/tracking"
	"backend-waylog/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Session  *tracking.Session
	Provider *tracking.PushProvider
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	provider := tracking.NewPushProvider()
	sess := tracking.NewSession(trip.NewService(db), tracking.NewStore(db), provider, hub, nil)
	if cfg.TrackingWriteRetries > 0 {
		sess.WriteAttempts = cfg.TrackingWriteRetries
	}
	if cfg.TrackingRetryDelayMs > 0 {
		sess.RetryDelay = time.Duration(cfg.TrackingRetryDelayMs) * time.Millisecond
	}

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   hub,
		Session:  sess,
		Provider: provider,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	trip.RegisterRoutes(s.App.Group("/trips"), trip.NewService(s.DB), jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Session, s.Provider, tracking.NewStore(s.DB), jwtMiddleware)
	annotation.RegisterRoutes(s.App.Group("/annotations"), annotation.NewService(s.DB), jwtMiddleware)
	stats.RegisterRoutes(s.App.Group("/stats"), stats.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
