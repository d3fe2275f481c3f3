package cmd

import (
	"context"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/cache"
	"example.com/tbmnc/services/tracker/internal/database"
	"example.com/tbmnc/services/tracker/internal/messaging"
	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/search"
	"example.com/tbmnc/services/tracker/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that sweeps deadlines, stalled engagements, and day counters`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	g, ctx := errgroup.WithContext(ctx)

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

	bus, err := messaging.NewServiceBusClient(cfg.Azure, "tracker-worker")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus client, continuing without alert publishing")
	}

	supplierRepo := repository.NewSupplierRepository(gormDB)
	affiliateRepo := repository.NewAffiliateRepository(gormDB)
	deliverableRepo := repository.NewDeliverableRepository(gormDB)
	assignmentRepo := repository.NewAssignmentRepository(gormDB)
	alertRepo := repository.NewAlertRepository(gormDB)

	supplierSvc := services.NewSupplierService(supplierRepo, elasticClient)
	affiliateSvc := services.NewAffiliateService(affiliateRepo)
	deliverableSvc := services.NewDeliverableService(deliverableRepo)
	assignmentSvc := services.NewAssignmentService(assignmentRepo, deliverableRepo, supplierSvc, affiliateSvc)
	alertSvc := services.NewAlertService(alertRepo, bus)

	sweeper := &sweeper{
		cfg:            cfg.Worker,
		supplierSvc:    supplierSvc,
		deliverableSvc: deliverableSvc,
		assignmentSvc:  assignmentSvc,
		alertSvc:       alertSvc,
		cache:          redisCache,
	}

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		jobs := []struct {
			name     string
			interval time.Duration
			run      func(context.Context)
		}{
			{"deadline sweep", cfg.Worker.OverdueInterval, sweeper.sweepDeadlines},
			{"stalled sweep", cfg.Worker.StalledInterval, sweeper.sweepStalled},
			{"day counter", cfg.Worker.DayCounterInterval, sweeper.updateDayCounters},
			{"alert cleanup", cfg.Worker.CleanupInterval, sweeper.cleanupAlerts},
		}

		for _, j := range jobs {
			job := j
			_, err := scheduler.NewJob(
				gocron.DurationJob(job.interval),
				gocron.NewTask(func() {
					log.Debug().Str("job", job.name).Msg("running scheduled job")
					job.run(ctx)
				}),
			)
			if err != nil {
				return errors.Wrapf(err, "failed to schedule %s", job.name)
			}
			log.Info().Str("job", job.name).Dur("interval", job.interval).Msg("scheduled job")
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}

// sweeper runs the periodic maintenance passes over the tracked entities
type sweeper struct {
	cfg            config.WorkerConfig
	supplierSvc    *services.SupplierService
	deliverableSvc *services.DeliverableService
	assignmentSvc  *services.AssignmentService
	alertSvc       *services.AlertService
	cache          *cache.RedisCache
}

// sweepDeadlines flips past-due deliverables to overdue and raises
// deadline alerts for work due within the configured window.
func (s *sweeper) sweepDeadlines(ctx context.Context) {
	flipped, err := s.deliverableSvc.CheckOverdueDeliverables(ctx)
	if err != nil {
		log.Error().Err(err).Msg("overdue sweep failed")
		return
	}

	for _, id := range flipped {
		deliverable, err := s.deliverableSvc.GetDeliverable(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("deliverable_id", id).Msg("failed to load overdue deliverable")
			continue
		}
		if _, err := s.alertSvc.CreateOverdueAlert(ctx, deliverable.ID, deliverable.Title, alertRecipients(deliverable)); err != nil {
			log.Error().Err(err).Str("deliverable_id", id).Msg("failed to create overdue alert")
		}
	}

	approaching, err := s.deliverableSvc.GetApproachingDeadlines(ctx, s.cfg.DeadlineWindow)
	if err != nil {
		log.Error().Err(err).Msg("deadline window query failed")
		return
	}

	now := time.Now()
	for _, d := range approaching {
		if d.Timing.DueDate == nil {
			continue
		}
		open, err := s.hasOpenAlert(ctx, "deliverable", d.ID, models.AlertDeadlineApproaching)
		if err != nil || open {
			continue
		}
		daysRemaining := int(math.Ceil(d.Timing.DueDate.Sub(now).Hours() / 24))
		if _, err := s.alertSvc.CreateApproachingDeadlineAlert(ctx, d.ID, d.Title, daysRemaining, alertRecipients(&d)); err != nil {
			log.Error().Err(err).Str("deliverable_id", d.ID).Msg("failed to create deadline alert")
		}
	}
}

// sweepStalled raises alerts for active assignments with no recent contact
func (s *sweeper) sweepStalled(ctx context.Context) {
	stalled, err := s.assignmentSvc.CheckStalledAssignments(ctx, s.cfg.StalledAfter)
	if err != nil {
		log.Error().Err(err).Msg("stalled sweep failed")
		return
	}

	now := time.Now()
	for _, a := range stalled {
		open, err := s.hasOpenAlert(ctx, "assignment", a.ID, models.AlertAssignmentStalled)
		if err != nil || open {
			continue
		}
		daysInactive := int(s.cfg.StalledAfter.Hours() / 24)
		if a.LastContact != nil {
			daysInactive = int(now.Sub(*a.LastContact).Hours() / 24)
		}
		recipients := []string{}
		if a.CreatedBy != "" {
			recipients = append(recipients, a.CreatedBy)
		}
		if _, err := s.alertSvc.CreateStalledAlert(ctx, a.ID, a.Title, daysInactive, recipients); err != nil {
			log.Error().Err(err).Str("assignment_id", a.ID).Msg("failed to create stalled alert")
		}
	}
}

// updateDayCounters advances the per-supplier day counters
func (s *sweeper) updateDayCounters(ctx context.Context) {
	updated, err := s.supplierSvc.UpdateDaysInProcess(ctx)
	if err != nil {
		log.Error().Err(err).Msg("day counter sweep failed")
		return
	}
	if updated > 0 {
		log.Info().Int("count", updated).Msg("advanced supplier day counters")
	}
}

// cleanupAlerts drops expired alerts and invalidates the cached dashboard
func (s *sweeper) cleanupAlerts(ctx context.Context) {
	if _, err := s.alertSvc.CleanupExpiredAlerts(ctx); err != nil {
		log.Error().Err(err).Msg("alert cleanup failed")
		return
	}
	if s.cache.Enabled() {
		if err := s.cache.Delete(ctx, cache.GetDashboardCacheKey()); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate dashboard cache")
		}
	}
}

func (s *sweeper) hasOpenAlert(ctx context.Context, entityType, entityID string, alertType models.AlertType) (bool, error) {
	alerts, err := s.alertSvc.GetEntityAlerts(ctx, entityType, entityID)
	if err != nil {
		return false, err
	}
	for _, a := range alerts {
		if a.Type == alertType && !a.Resolved {
			return true, nil
		}
	}
	return false, nil
}

func alertRecipients(d *models.Deliverable) []string {
	recipients := []string{}
	if d.CreatedBy != "" {
		recipients = append(recipients, d.CreatedBy)
	}
	if d.AffiliateID != "" {
		recipients = append(recipients, d.AffiliateID)
	}
	return recipients
}
