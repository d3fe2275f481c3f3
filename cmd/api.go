package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/ai"
	"example.com/tbmnc/services/tracker/internal/api"
	"example.com/tbmnc/services/tracker/internal/cache"
	"example.com/tbmnc/services/tracker/internal/database"
	"example.com/tbmnc/services/tracker/internal/messaging"
	"example.com/tbmnc/services/tracker/internal/metrics"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/search"
	"example.com/tbmnc/services/tracker/internal/services"
	"example.com/tbmnc/services/tracker/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for supplier qualification tracking`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	if err := database.AutoMigrate(db); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	gormDB, err := db.DB()
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search")
	}

	bus, err := messaging.NewServiceBusClient(cfg.Azure, "tracker-api")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus client, continuing without alert publishing")
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracer")
	}
	defer tracer.Close()

	metricsCollector := metrics.NewMetrics()
	metricsCollector.SetHealth("database", true)
	metricsCollector.SetHealth("cache", redisCache.Enabled())
	metricsCollector.SetHealth("search", elasticClient.Enabled())

	supplierRepo := repository.NewSupplierRepository(gormDB)
	affiliateRepo := repository.NewAffiliateRepository(gormDB)
	deliverableRepo := repository.NewDeliverableRepository(gormDB)
	assignmentRepo := repository.NewAssignmentRepository(gormDB)
	alertRepo := repository.NewAlertRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	supplierSvc := services.NewSupplierService(supplierRepo, elasticClient)
	affiliateSvc := services.NewAffiliateService(affiliateRepo)
	deliverableSvc := services.NewDeliverableService(deliverableRepo)
	assignmentSvc := services.NewAssignmentService(assignmentRepo, deliverableRepo, supplierSvc, affiliateSvc)
	alertSvc := services.NewAlertService(alertRepo, bus)
	userSvc := services.NewUserService(userRepo)
	analyticsSvc := services.NewAnalyticsService(supplierSvc, affiliateSvc, assignmentSvc, deliverableSvc, alertSvc, userSvc, redisCache, tracer)
	insightSvc := services.NewInsightService(ai.NewService(cfg.AI, nil), supplierRepo, affiliateRepo, deliverableRepo)

	server := api.NewServer(cfg, api.Services{
		Supplier:    supplierSvc,
		Affiliate:   affiliateSvc,
		Deliverable: deliverableSvc,
		Assignment:  assignmentSvc,
		Alert:       alertSvc,
		User:        userSvc,
		Analytics:   analyticsSvc,
		Insight:     insightSvc,
	}, metricsCollector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
