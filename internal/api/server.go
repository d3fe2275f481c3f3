package api

import (
	"context"
	"net/http"
	"time"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/api/handlers"
	"example.com/tbmnc/services/tracker/internal/metrics"
	"example.com/tbmnc/services/tracker/internal/services"
	"example.com/tbmnc/services/tracker/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services bundles the service layer dependencies of the HTTP server
type Services struct {
	Supplier    *services.SupplierService
	Affiliate   *services.AffiliateService
	Deliverable *services.DeliverableService
	Assignment  *services.AssignmentService
	Alert       *services.AlertService
	User        *services.UserService
	Analytics   *services.AnalyticsService
	Insight     *services.InsightService
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	svc        Services
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, svc Services, m *metrics.Metrics, tracer tracing.Tracer) *Server {
	server := &Server{
		config:  cfg,
		svc:     svc,
		metrics: m,
		tracer:  tracer,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(s.countRequests())
	router.Use(s.traceRequests())

	v1 := router.Group("/api/v1")

	handlers.NewSupplierHandler(s.svc.Supplier, s.svc.Insight).RegisterRoutes(v1)
	handlers.NewAffiliateHandler(s.svc.Affiliate).RegisterRoutes(v1)
	handlers.NewDeliverableHandler(s.svc.Deliverable).RegisterRoutes(v1)
	handlers.NewAssignmentHandler(s.svc.Assignment).RegisterRoutes(v1)
	handlers.NewAlertHandler(s.svc.Alert).RegisterRoutes(v1)
	handlers.NewUserHandler(s.svc.User).RegisterRoutes(v1)
	handlers.NewAnalyticsHandler(s.svc.Analytics).RegisterRoutes(v1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.config.MetricsEnabled {
		router.GET("/metrics", func(c *gin.Context) {
			c.JSON(http.StatusOK, s.metrics.Snapshot())
		})
	}

	return router
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.metrics.IncrementCounter("http.requests")
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.metrics.IncrementCounter("http.errors")
		}
	}
}

func (s *Server) traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := s.tracer.StartTransaction(c.Request.Method + " " + c.FullPath())
		s.tracer.AddAttribute(txn, "http.path", c.Request.URL.Path)
		c.Next()
		s.tracer.AddAttribute(txn, "http.status", c.Writer.Status())
		if len(c.Errors) > 0 {
			s.tracer.RecordError(txn, c.Errors.Last())
		}
		s.tracer.EndTransaction(txn)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
