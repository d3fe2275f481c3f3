package services

import (
	"context"
	"time"

	"example.com/tbmnc/services/tracker/internal/cache"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const dashboardCacheTTL = 5 * time.Minute

// Dashboard is the combined rollup served to the overview screens
type Dashboard struct {
	Suppliers    *SupplierStats        `json:"suppliers"`
	Affiliates   *AffiliateUtilization `json:"affiliates"`
	Assignments  *AssignmentStats      `json:"assignments"`
	Deliverables *DeliverableStats     `json:"deliverables"`
	Alerts       *AlertStats           `json:"alerts"`
	Users        *UserStats            `json:"users"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// AnalyticsService assembles cross-entity rollups
type AnalyticsService struct {
	supplierSvc    *SupplierService
	affiliateSvc   *AffiliateService
	assignmentSvc  *AssignmentService
	deliverableSvc *DeliverableService
	alertSvc       *AlertService
	userSvc        *UserService
	cache          *cache.RedisCache
	tracer         tracing.Tracer
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	supplierSvc *SupplierService,
	affiliateSvc *AffiliateService,
	assignmentSvc *AssignmentService,
	deliverableSvc *DeliverableService,
	alertSvc *AlertService,
	userSvc *UserService,
	redisCache *cache.RedisCache,
	tracer tracing.Tracer,
) *AnalyticsService {
	return &AnalyticsService{
		supplierSvc:    supplierSvc,
		affiliateSvc:   affiliateSvc,
		assignmentSvc:  assignmentSvc,
		deliverableSvc: deliverableSvc,
		alertSvc:       alertSvc,
		userSvc:        userSvc,
		cache:          redisCache,
		tracer:         tracer,
	}
}

// GetDashboard returns the rollup, served from cache when fresh
func (s *AnalyticsService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	key := cache.GetDashboardCacheKey()

	if s.cache.Enabled() {
		var cached Dashboard
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	dashboard, err := s.buildDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, dashboard, dashboardCacheTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache dashboard")
		}
	}
	return dashboard, nil
}

// InvalidateDashboard drops the cached rollup
func (s *AnalyticsService) InvalidateDashboard(ctx context.Context) error {
	return s.cache.Delete(ctx, cache.GetDashboardCacheKey())
}

func (s *AnalyticsService) buildDashboard(ctx context.Context) (*Dashboard, error) {
	txn := s.tracer.StartTransaction("build-dashboard")
	defer s.tracer.EndTransaction(txn)

	supplierSpan := s.tracer.StartSpan("supplier-stats", txn)
	supplierStats, err := s.supplierSvc.GetSupplierStats(ctx)
	supplierSpan.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to build supplier stats")
	}

	utilization, err := s.affiliateSvc.GetUtilization(ctx)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to build affiliate utilization")
	}

	assignmentSpan := s.tracer.StartSpan("assignment-stats", txn)
	assignmentStats, err := s.assignmentSvc.GetAssignmentStats(ctx, repository.AssignmentFilter{})
	assignmentSpan.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to build assignment stats")
	}

	deliverableStats, err := s.deliverableSvc.GetDeliverableStats(ctx)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to build deliverable stats")
	}

	alertStats, err := s.alertSvc.GetAlertStats(ctx)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to build alert stats")
	}

	userStats, err := s.userSvc.GetUserStats(ctx)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to build user stats")
	}

	return &Dashboard{
		Suppliers:    supplierStats,
		Affiliates:   utilization,
		Assignments:  assignmentStats,
		Deliverables: deliverableStats,
		Alerts:       alertStats,
		Users:        userStats,
		GeneratedAt:  time.Now(),
	}, nil
}
