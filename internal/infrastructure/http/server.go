package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	handler        *handler.CartHandler
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler
	httpServer     *http.Server
}

// NewServer creates a new HTTP server. metricsHandler serves /metrics and
// may be nil.
func NewServer(
	cfg *config.ServerConfig,
	handler *handler.CartHandler,
	logger *slog.Logger,
	meterProvider metric.MeterProvider,
	metricsHandler http.Handler,
) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		handler:        handler,
		logger:         logger,
		meterProvider:  meterProvider,
		metricsHandler: metricsHandler,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for handlers, so open event streams must end first
	s.httpServer.RegisterOnShutdown(s.handler.CloseStreams)

	return s
}

func (s *Server) setupMiddleware() {
	meter := s.meterProvider.Meter("cart-api")

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
}

func (s *Server) setupRoutes() {
	s.router.Route("/cart", func(r chi.Router) {
		r.Get("/", s.handler.GetCart)
		r.Get("/events", s.handler.StreamCart)
		r.Post("/items", s.handler.AddProduct)
		r.Put("/items/{id}", s.handler.UpdateProductAmount)
		r.Delete("/items/{id}", s.handler.RemoveProduct)
	})

	s.router.Get("/notifications", s.handler.ListNotifications)
	s.router.Get("/health", s.handler.Health)

	if s.metricsHandler != nil {
		s.router.Get("/metrics", s.metricsHandler.ServeHTTP)
	}
}

// Handler returns the router wrapped with otelhttp tracing and metrics
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithMeterProvider(s.meterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			routePattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					routePattern = pattern
				}
			}
			return []attribute.KeyValue{
				attribute.String("http.route", routePattern),
			}
		}),
	)
}

// Start listens on the configured address until Shutdown is called
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", ln.Addr().String()),
	)

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
