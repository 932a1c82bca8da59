package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/projtrack/apiserver/config"
	"github.com/projtrack/apiserver/internal/db"
	"github.com/projtrack/apiserver/internal/handlers"
	"github.com/projtrack/apiserver/internal/mq"
	"github.com/projtrack/apiserver/internal/notify"
	"github.com/projtrack/apiserver/internal/services"
	"github.com/projtrack/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier, queue, err := BuildNotifier(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	projectRepo := store.NewProjectRepository(dbConn)

	userService := services.NewUserService(userRepo, notifier)
	projectService := services.NewProjectService(projectRepo, notifier)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/projects", func(r chi.Router) {
		handlers.ProjectRouter(r, projectService, userService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// BuildNotifier wires the notification path selected by config: a
// queue-backed dispatcher for rabbitmq/pubsub, or a direct log-only
// notifier for development. The returned queue is nil for the direct
// path.
func BuildNotifier(ctx context.Context, cfg config.Config) (services.Notifier, *mq.MQ, error) {
	backend, err := OpenQueueBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if backend == nil {
		return notify.NewDirectNotifier(notify.NewLogSender()), nil, nil
	}
	queue := mq.New(backend)
	return notify.NewQueueNotifier(queue, cfg.Notify.Channel), queue, nil
}

// OpenQueueBackend opens the configured broker, or returns nil for the
// brokerless "log" backend.
func OpenQueueBackend(ctx context.Context, cfg config.Config) (mq.Backend, error) {
	switch cfg.Notify.Backend {
	case "rabbitmq":
		return mq.NewRabbitMQClient(cfg.Notify.RabbitMQ)
	case "pubsub":
		return mq.NewPubSubClient(ctx, cfg.Notify.PubSub)
	case "log", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Notify.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	return s.httpServer.Close()
}
