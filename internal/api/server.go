// Package api exposes plans, catalog, jobs, invoices and line items over
// JSON HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexanderramin/fieldops/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Services are the use cases the handlers call.
type Services struct {
	Plans    service.PlanService
	Catalog  service.CatalogService
	Jobs     service.JobService
	Invoices service.InvoiceService
	Lines    service.LineService
	Upcoming service.UpcomingService
}

type Server struct {
	svc          Services
	logger       *zap.Logger
	upcomingDays int
	now          func() time.Time
	echo         *echo.Echo
}

type Option func(*Server)

// WithUpcomingDays sets the window used when /api/upcoming has no days query.
func WithUpcomingDays(days int) Option {
	return func(s *Server) { s.upcomingDays = days }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(svc Services, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:          svc,
		logger:       logger.Named("api"),
		upcomingDays: 60,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(s.logger)
	e.Use(middleware.Recover())
	e.Use(s.requestLogger)

	g := e.Group("/api")
	s.registerPlans(g.Group("/locations/:locationID"))
	s.registerCatalog(g.Group("/catalog"))
	s.registerJobs(g.Group("/jobs"))
	s.registerInvoices(g.Group("/invoices"))
	g.GET("/upcoming", s.listUpcoming)
	s.echo = e
	return s
}

func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.logger.Debug("request",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("error", err != nil),
		)
		return err
	}
}
