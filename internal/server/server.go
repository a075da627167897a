// Package server is the REST API that authenticated clients sync with.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/tgienger/todo/internal/api"
	"github.com/tgienger/todo/internal/config"
	"github.com/tgienger/todo/internal/db"
)

// Server serves the todo API
type Server struct {
	echo   *echo.Echo
	users  UserRepo
	logger *log.Logger
	redis  *redis.Client
}

// New wires routes onto a fresh echo instance. redisClient may be nil.
func New(database *db.DB, auth *Auth, redisClient *redis.Client, cacheTTL time.Duration, logger *log.Logger) *Server {
	var todos TodoRepo = SQLTodos{DB: database}
	if redisClient != nil {
		todos = NewCache(todos, redisClient, cacheTTL)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = errorHandler(logger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(requestLogger(logger))

	s := &Server{echo: e, users: database, logger: logger, redis: redisClient}
	Register(e, database, todos, auth, logger)
	return s
}

// Register wires up all API routes on the provided echo instance
func Register(e *echo.Echo, users UserRepo, todos TodoRepo, auth *Auth, logger log.FieldLogger) {
	h := &handlers{users: users, todos: todos, auth: auth, logger: logger}

	g := e.Group("/api")
	g.POST("/register", h.register)
	g.POST("/login", h.login)

	requireAuth := auth.RequireAuth()
	g.POST("/logout", h.logout, requireAuth)
	g.GET("/profile", h.profile, requireAuth)
	g.GET("/todos", h.listTodos, requireAuth)
	g.POST("/todos", h.createTodo, requireAuth)
	g.PUT("/todos/:id", h.updateTodo, requireAuth)
	g.DELETE("/todos/:id", h.deleteTodo, requireAuth)

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.pruneRevocations(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("api listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

func (s *Server) pruneRevocations(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		if err := s.users.PruneRevokedTokens(time.Now()); err != nil {
			s.logger.WithError(err).Warn("prune revoked tokens")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NewRedis connects to url (redis://host:port/db). Empty url returns nil.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// FromConfig opens the server's database and dependencies from cfg
func FromConfig(ctx context.Context, cfg config.ServerConfig, logger *log.Logger) (*Server, func() error, error) {
	if cfg.JWTSecret == "" {
		return nil, nil, errors.New("server.jwt_secret must be set")
	}
	database, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	rc, err := NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	if rc == nil {
		logger.Info("redis not configured, serving todo lists uncached")
	}
	auth := NewAuth(cfg.JWTSecret, cfg.TokenTTL, database)
	return New(database, auth, rc, cfg.CacheTTL, logger), database.Close, nil
}

func errorHandler(logger log.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			logger.WithError(err).WithField("path", c.Path()).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, api.ErrorResponse{Message: msg})
		}
		if err != nil {
			logger.WithError(err).Warn("writing error response")
		}
	}
}

func requestLogger(logger log.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError: true,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Info("request")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	})
}
