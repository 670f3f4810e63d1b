package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const DefaultWorkers = 4

type Server struct {
	Name   string
	Router *Router
	Cache  *Cache

	config         Config
	workers        int
	webroot        string
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	freezeOnce sync.Once
	frozen     *settings
	frozenErr  error

	mu       sync.Mutex
	listener net.Listener
	pool     *WorkerPool
	accepted atomic.Uint64
}

type Option func(server *Server)

func WithConfig(config Config) Option {
	return func(server *Server) {
		server.config = config
	}
}

func WithWorkers(workers int) Option {
	return func(server *Server) {
		server.workers = workers
	}
}

// WithWebroot sets the directory unmatched requests are served from. Without
// a webroot every unmatched request gets a 404.
func WithWebroot(dir string) Option {
	return func(server *Server) {
		server.webroot = dir
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(server *Server) {
		server.logger = logger
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(server *Server) {
		server.meterProvider = provider
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(server *Server) {
		server.tracerProvider = provider
	}
}

func NewServer(name string, options ...Option) *Server {
	server := &Server{
		Name:    name,
		Router:  NewRouter(),
		Cache:   NewCache(),
		config:  DefaultConfig(),
		workers: DefaultWorkers,
	}

	for _, option := range options {
		option(server)
	}

	server.config = server.config.withDefaults()
	if server.logger == nil {
		server.logger = slog.Default()
	}
	if server.meterProvider == nil {
		server.meterProvider = otel.GetMeterProvider()
	}
	if server.tracerProvider == nil {
		server.tracerProvider = otel.GetTracerProvider()
	}

	return server
}

// Route registers handler for the path pattern.
func (s *Server) Route(pattern string, handler HandlerFunc, middleware ...Middleware) {
	s.Router.RouteFunc(pattern, handler, middleware...)
}

// CacheFile preloads path into the response cache.
func (s *Server) CacheFile(path string) error {
	return s.Cache.CacheFile(path)
}

// settings is the immutable state shared by every connection.
type settings struct {
	routes     *routeTable
	fallback   Handler
	cache      *Cache
	config     Config
	logger     *slog.Logger
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	metrics    *serverMetrics
}

// freeze snapshots routes, cache and configuration the first time the server
// starts serving. Changes made afterwards are not seen by the server.
func (s *Server) freeze() (*settings, error) {
	s.freezeOnce.Do(func() {
		recoverer := RecoverMiddleware(s.logger)

		var fallback Handler = NotFoundHandler
		if s.webroot != "" {
			static, err := NewStaticResolver(s.webroot, s.logger)
			if err != nil {
				s.frozenErr = fmt.Errorf("http: webroot %s: %w", s.webroot, err)
				return
			}
			fallback = static
		}

		metrics, err := newServerMetrics(s.meterProvider.Meter(instrumentationName))
		if err != nil {
			s.frozenErr = fmt.Errorf("http: creating metrics: %w", err)
			return
		}

		s.frozen = &settings{
			routes:     s.Router.snapshot(recoverer),
			fallback:   recoverer(fallback),
			cache:      s.Cache.clone(),
			config:     s.config,
			logger:     s.logger,
			tracer:     s.tracerProvider.Tracer(instrumentationName),
			propagator: otel.GetTextMapPropagator(),
			metrics:    metrics,
		}
	})

	return s.frozen, s.frozenErr
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var listenConfig net.ListenConfig
	listener, err := listenConfig.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(listener)
}

// Serve accepts connections on listener and hands each one to the worker
// pool. It returns ErrServerClosed after Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	st, err := s.freeze()
	if err != nil {
		listener.Close()
		return err
	}

	pool, err := NewWorkerPool(s.workers, s.logger)
	if err != nil {
		listener.Close()
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.pool = pool
	s.mu.Unlock()

	s.logger.Info("listening",
		"server", s.Name,
		"addr", listener.Addr().String(),
		"workers", pool.Size(),
		"routes", len(st.routes.routes),
		"cached", st.cache.Len(),
	)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}

			s.logger.Error("accepting connection failed", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		count := s.accepted.Add(1)
		if count == 1 || count%200 == 0 {
			s.logger.Debug("accepted connections", "server", s.Name, "count", count)
		}
		st.metrics.connections.Add(context.Background(), 1)

		if err := pool.Execute(func() { st.serveConn(conn) }); err != nil {
			conn.Close()
			return ErrServerClosed
		}
	}
}

// ServeConn runs the connection loop on conn in the calling goroutine.
func (s *Server) ServeConn(conn net.Conn) {
	st, err := s.freeze()
	if err != nil {
		s.logger.Error("serving connection failed", "error", err)
		conn.Close()
		return
	}

	st.serveConn(conn)
}

// Shutdown stops accepting connections and waits for the workers to finish
// the connections they own.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	listener, pool := s.listener, s.pool
	s.mu.Unlock()

	if listener != nil {
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}

	if pool == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
