package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devopsblog/blog/engine/infra/monitoring"
	"github.com/devopsblog/blog/engine/infra/postgres"
	"github.com/devopsblog/blog/engine/infra/server/middleware/ratelimit"
	"github.com/devopsblog/blog/engine/post"
	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

const (
	defaultShutdownTimeout    = 5 * time.Second
	monitoringShutdownTimeout = 5 * time.Second
	dbShutdownTimeout         = 10 * time.Second
)

// ErrPoolFault is the cancellation cause after the database pool reports an
// unrecoverable error.
var ErrPoolFault = errors.New("database pool fault")

type Server struct {
	config    *config.Config
	startTime time.Time
	ready     chan string
}

// NewServer prepares a server for cfg. Nothing is started until Run.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{config: cfg, startTime: time.Now(), ready: make(chan string, 1)}
}

// Ready yields the listen address once the HTTP listener is accepting.
func (s *Server) Ready() <-chan string {
	return s.ready
}

// Run initializes storage, serves HTTP until ctx is canceled or SIGINT/SIGTERM
// arrives, then shuts down gracefully. A failed storage initialization or a
// pool fault is returned as an error.
func (s *Server) Run(parent context.Context) error {
	log := logger.FromContext(parent)
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon, err := monitoring.NewMonitoringService(
		ctx,
		monitoring.ConfigFrom(s.config),
		monitoring.WithStartTime(s.startTime),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize monitoring: %w", err)
	}
	defer s.shutdownMonitoring(ctx, mon)

	store, err := postgres.NewStore(
		ctx,
		postgres.ConfigFrom(&s.config.Database),
		postgres.WithMeterProvider(mon.MeterProvider()),
		postgres.WithFaultHandler(func(faultErr error) {
			log.Error("Database pool fault, shutting down", "error", faultErr)
			cancel(fmt.Errorf("%w: %w", ErrPoolFault, faultErr))
		}),
	)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.WithoutCancel(ctx), dbShutdownTimeout)
		defer closeCancel()
		store.Close(closeCtx)
	}()

	if err := store.Initialize(sigCtx); err != nil {
		return err
	}
	watchCtx, stopWatch := context.WithCancel(sigCtx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		store.Watch(watchCtx)
	}()
	defer func() {
		stopWatch()
		<-watchDone
	}()

	rdb, err := s.rateLimitStore(sigCtx)
	if err != nil {
		return err
	}
	var limiterStore redis.UniversalClient
	if rdb != nil {
		limiterStore = rdb
		defer rdb.Close()
	}

	repo := postgres.NewPostRepo(store)
	if err := mon.TrackPosts(ctx, repo); err != nil {
		log.Warn("Post count metric unavailable", "error", err)
	}
	handler, err := NewRouter(&Dependencies{
		Config:         s.config,
		Logger:         log,
		Posts:          post.NewService(repo),
		DB:             store,
		Monitoring:     mon,
		RateLimitStore: limiterStore,
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         s.config.Server.Address(),
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return logger.ContextWithLogger(ctx, log) },
	}
	return s.serve(ctx, sigCtx, srv)
}

// rateLimitStore connects the shared limiter store when one is configured.
func (s *Server) rateLimitStore(ctx context.Context) (*redis.Client, error) {
	rl := s.config.RateLimit
	if rl.Limit <= 0 || rl.RedisURL.Value() == "" {
		return nil, nil
	}
	return ratelimit.NewRedisClient(ctx, rl.RedisURL.Value())
}

func (s *Server) serve(ctx, sigCtx context.Context, srv *http.Server) error {
	log := logger.FromContext(ctx)
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	address := listener.Addr().String()
	log.Info("Server listening",
		"address", address,
		"service", s.config.Service.Name,
		"environment", s.config.Runtime.Environment,
	)
	select {
	case s.ready <- address:
	default:
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}
	log.Info("Shutting down server")
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		_ = srv.Close()
	}
	if cause := context.Cause(ctx); errors.Is(cause, ErrPoolFault) {
		return cause
	}
	log.Info("Server stopped")
	return nil
}

func (s *Server) shutdownMonitoring(ctx context.Context, mon *monitoring.Service) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), monitoringShutdownTimeout)
	defer cancel()
	if err := mon.Shutdown(shutdownCtx); err != nil {
		logger.FromContext(ctx).Warn("Monitoring shutdown failed", "error", err)
	}
}
