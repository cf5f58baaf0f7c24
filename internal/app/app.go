// Package app wires configuration, storage, services and handlers into a
// Fiber application.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"csvinsight/internal/charts"
	"csvinsight/internal/config"
	"csvinsight/internal/database"
	"csvinsight/internal/handlers"
	"csvinsight/internal/middleware"
	"csvinsight/internal/models"
	"csvinsight/internal/repositories"
	"csvinsight/internal/services"
	"csvinsight/internal/views"
	"csvinsight/pkg/logger"
	"csvinsight/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/streadway/amqp"
	"gorm.io/gorm"
)

// StaticPrefix is the URL prefix generated charts are served under.
const StaticPrefix = "/static"

// Dependencies are the external resources an application instance uses.
type Dependencies struct {
	DB *gorm.DB
	// Fs holds uploaded files and generated charts.
	Fs       afero.Fs
	Sessions repositories.SessionRevocationStore
	// Publisher receives analysis events. Optional.
	Publisher services.EventPublisher
	// AccessLog enables the per-request access log.
	AccessLog bool
}

// New builds the Fiber application.
func New(cfg *config.Config, deps Dependencies) (*fiber.App, error) {
	if deps.DB == nil {
		return nil, errors.New("app: database is required")
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Sessions == nil {
		deps.Sessions = repositories.NewMemorySessionStore()
	}

	engine := views.New()
	if err := engine.Load(); err != nil {
		return nil, err
	}

	// --- Repositories & services ---
	userRepo := repositories.NewGORMUserRepository(deps.DB)
	authService := services.NewAuthService(userRepo, deps.Sessions, services.AuthConfig{
		Secret:     cfg.SessionSecret,
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	})
	uploadService := services.NewUploadService(deps.Fs, cfg.UploadDir)
	renderer := charts.NewRenderer(deps.Fs, cfg.StaticDir, StaticPrefix)
	renderer.MaxAge = cfg.ChartTTL
	analysisService := services.NewAnalysisService(deps.Fs, renderer, deps.Publisher)

	// --- Handlers ---
	pageHandler := handlers.NewPageHandler()
	authHandler := handlers.NewAuthHandler(authService)
	uploadHandler := handlers.NewUploadHandler(uploadService, analysisService)

	app := fiber.New(fiber.Config{
		AppName:               "csvinsight",
		Views:                 engine,
		BodyLimit:             cfg.MaxUploadBytes,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: handlers.RequestIDLocalsKey,
	}))
	if deps.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Use(StaticPrefix, filesystem.New(filesystem.Config{
		Root: afero.NewHttpFs(afero.NewBasePathFs(deps.Fs, cfg.StaticDir)),
	}))

	// --- Operational endpoints ---
	app.Get("/health", healthHandler(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// --- Pages ---
	app.Use(middleware.LoadSession(authService))
	pageHandler.RegisterRoutes(app)
	authHandler.RegisterRoutes(app)
	uploadHandler.RegisterRoutes(app, middleware.SessionRequired(authService))

	return app, nil
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"time":     time.Now().Format(time.RFC3339),
				"database": "unreachable",
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "connected",
		})
	}
}

// errorHandler logs unexpected errors and answers with a generic message.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		log := logger.Get()
		log.Error().
			Err(err).
			Str("request_id", fmt.Sprint(c.Locals(handlers.RequestIDLocalsKey))).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(message)
}

// Server is a wired application together with the resources it owns.
type Server struct {
	App     *fiber.App
	closers []func() error
}

// Bootstrap opens every resource named by cfg and builds the application.
// Redis and RabbitMQ are only used when configured.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Server, error) {
	log := logger.Get()
	srv := &Server{}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, func() error { return database.Close(db) })
	log.Info().Str("driver", cfg.DBDriver).Msg("database connected")

	deps := Dependencies{DB: db, Fs: afero.NewOsFs(), AccessLog: true}

	if cfg.RedisAddr != "" {
		client, err := repositories.ConnectRedis(ctx, repositories.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			_ = srv.Close()
			return nil, err
		}
		srv.closers = append(srv.closers, client.Close)
		deps.Sessions = repositories.NewRedisSessionStore(client)
		log.Info().Str("addr", cfg.RedisAddr).Msg("session revocations stored in redis")
	}

	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			_ = srv.Close()
			return nil, err
		}
		srv.closers = append(srv.closers, mq.Close)
		deps.Publisher = mq

		if err := mq.Consume(logAnalysisEvent); err != nil {
			log.Warn().Err(err).Msg("failed to start analysis event consumer")
		}
		log.Info().Str("queue", cfg.RabbitMQQueue).Msg("publishing analysis events")
	}

	app, err := New(cfg, deps)
	if err != nil {
		_ = srv.Close()
		return nil, err
	}
	srv.App = app
	return srv, nil
}

// Close releases the resources opened by Bootstrap, newest first.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// logAnalysisEvent is the consumer side of the analysis event queue. Malformed
// messages are dropped rather than requeued.
func logAnalysisEvent(msg amqp.Delivery) error {
	log := logger.Get()
	event, err := rabbitmq.DecodeJSON[models.AnalysisEvent](msg)
	if err != nil {
		log.Warn().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("dropping malformed analysis event")
		return nil
	}
	log.Info().
		Str("request_id", event.RequestID).
		Str("user", event.User).
		Str("file", event.Filename).
		Int("rows", event.Rows).
		Strs("charts", event.Charts).
		Msg("analysis event received")
	return nil
}
