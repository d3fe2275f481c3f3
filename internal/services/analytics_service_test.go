package services

import (
	"context"
	"testing"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/tracing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardRollsUpAllSections(t *testing.T) {
	supplierRepo := new(MockSupplierRepository)
	supplierRepo.On("List", mock.Anything, repository.SupplierFilter{}).Return([]models.Supplier{
		{Status: models.SupplierActive, CurrentStage: 2},
	}, nil)

	affiliateRepo := new(MockAffiliateRepository)
	affiliateRepo.On("List", mock.Anything, repository.AffiliateFilter{Status: models.AffiliateActive}).Return([]models.Affiliate{
		{Capacity: models.Capacity{CurrentLoad: 3, MaxCapacity: 5, Availability: models.AvailabilityAvailable}},
		{Capacity: models.Capacity{CurrentLoad: 5, MaxCapacity: 5, Availability: models.AvailabilityUnavailable}},
	}, nil)

	assignmentRepo := new(MockAssignmentRepository)
	assignmentRepo.On("List", mock.Anything, mock.AnythingOfType("repository.AssignmentFilter")).Return([]models.Assignment{}, nil)

	deliverableRepo := new(MockDeliverableRepository)
	deliverableRepo.On("List", mock.Anything, repository.DeliverableFilter{}).Return([]models.Deliverable{
		{Status: models.DeliverableCompleted},
		{Status: models.DeliverableInProgress},
		{Status: models.DeliverableOverdue},
	}, nil)

	alertRepo := new(MockAlertRepository)
	alertRepo.On("List", mock.Anything, repository.AlertFilter{}).Return([]models.Alert{
		{Type: models.AlertOverdue, Severity: models.SeverityHigh},
	}, nil)
	alertRepo.On("CountBySeverity", mock.Anything, false).Return(map[models.AlertSeverity]int64{
		models.SeverityHigh: 1,
	}, nil)

	userRepo := new(MockUserRepository)
	userRepo.On("List", mock.Anything, repository.UserFilter{}).Return([]models.User{}, nil)

	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)

	service := &AnalyticsService{
		supplierSvc:    &SupplierService{repo: supplierRepo},
		affiliateSvc:   &AffiliateService{repo: affiliateRepo},
		assignmentSvc:  &AssignmentService{repo: assignmentRepo},
		deliverableSvc: &DeliverableService{repo: deliverableRepo},
		alertSvc:       &AlertService{repo: alertRepo},
		userSvc:        &UserService{repo: userRepo},
		tracer:         tracer,
	}

	dashboard, err := service.GetDashboard(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(1), dashboard.Suppliers.Total)
	require.Equal(t, int64(2), dashboard.Affiliates.Active)
	require.Equal(t, int64(10), dashboard.Affiliates.TotalCapacity)
	require.Equal(t, int64(8), dashboard.Affiliates.TotalLoad)
	require.InDelta(t, 80.0, dashboard.Affiliates.UtilizationPct, 0.001)
	require.Equal(t, int64(1), dashboard.Affiliates.ByAvailability[models.AvailabilityUnavailable])
	require.Equal(t, int64(3), dashboard.Deliverables.Total)
	require.Equal(t, int64(1), dashboard.Deliverables.Overdue)
	require.Equal(t, int64(1), dashboard.Deliverables.ByStatus[models.DeliverableCompleted])
	require.Equal(t, int64(1), dashboard.Alerts.Unresolved)
	require.False(t, dashboard.GeneratedAt.IsZero())
}
