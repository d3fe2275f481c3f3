package services

import (
	"context"
	"testing"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Save(ctx context.Context, assignment *models.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssignmentRepository) FindStalled(ctx context.Context, cutoff time.Time) ([]models.Assignment, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func TestApproveAssignmentFromPending(t *testing.T) {
	mockRepo := new(MockAssignmentRepository)

	assignment := &models.Assignment{
		Base:   models.Base{ID: "asg-1"},
		Status: models.AssignmentPending,
	}
	mockRepo.On("FindByID", mock.Anything, "asg-1").Return(assignment, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "asg-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AssignmentService{repo: mockRepo}

	_, err := service.ApproveAssignment(context.Background(), "asg-1", "manager-1")
	require.NoError(t, err)
	require.Equal(t, models.AssignmentActive, captured["status"])
	require.Equal(t, "manager-1", captured["approved_by"])
}

func TestApproveAssignmentRejectsNonPending(t *testing.T) {
	mockRepo := new(MockAssignmentRepository)
	mockRepo.On("FindByID", mock.Anything, "asg-1").Return(&models.Assignment{
		Base:   models.Base{ID: "asg-1"},
		Status: models.AssignmentActive,
	}, nil)

	service := &AssignmentService{repo: mockRepo}

	_, err := service.ApproveAssignment(context.Background(), "asg-1", "manager-1")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidState))

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshDeliverableProgressIsIdempotent(t *testing.T) {
	mockRepo := new(MockAssignmentRepository)
	mockDelRepo := new(MockDeliverableRepository)

	assignment := &models.Assignment{
		Base:         models.Base{ID: "asg-1"},
		Deliverables: []string{"del-1", "del-2", "del-3", "del-4"},
		Performance:  models.AssignmentPerformance{ProgressPercentage: 25},
	}
	mockRepo.On("FindByID", mock.Anything, "asg-1").Return(assignment, nil)

	deliverables := []models.Deliverable{
		{Base: models.Base{ID: "del-1"}, Status: models.DeliverableCompleted},
		{Base: models.Base{ID: "del-2"}, Status: models.DeliverableCompleted},
		{Base: models.Base{ID: "del-3"}, Status: models.DeliverableInProgress},
		{Base: models.Base{ID: "del-4"}, Status: models.DeliverableNotStarted},
	}
	mockDelRepo.On("FindByIDs", mock.Anything, assignment.Deliverables).Return(deliverables, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "asg-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AssignmentService{repo: mockRepo, deliverableRepo: mockDelRepo}

	// Two passes over the same state must land on the same counters.
	for i := 0; i < 2; i++ {
		_, err := service.RefreshDeliverableProgress(context.Background(), "asg-1")
		require.NoError(t, err)
		require.Equal(t, 2, captured["completed_deliverables"])
		require.Equal(t, 4, captured["total_deliverables"])
		perf := captured["performance"].(models.AssignmentPerformance)
		require.InDelta(t, 50.0, perf.ProgressPercentage, 0.0001)
	}
}

func TestUpdateFinancialsOverBudgetCountsIssue(t *testing.T) {
	mockRepo := new(MockAssignmentRepository)

	assignment := &models.Assignment{
		Base: models.Base{ID: "asg-1"},
		Financial: models.Financial{
			BudgetAllocated: 10000,
			BudgetSpent:     8000,
		},
		Performance: models.AssignmentPerformance{IssuesCount: 1},
	}
	mockRepo.On("FindByID", mock.Anything, "asg-1").Return(assignment, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "asg-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AssignmentService{repo: mockRepo}

	spent := 12000.0
	err := service.UpdateFinancials(context.Background(), "asg-1", FinancialUpdate{
		BudgetSpent: &spent,
		Invoice:     &models.Invoice{Amount: 4000, Status: "issued"},
	})
	require.NoError(t, err)

	financial := captured["financial"].(models.Financial)
	performance := captured["performance"].(models.AssignmentPerformance)
	require.Equal(t, 12000.0, financial.BudgetSpent)
	require.Len(t, financial.Invoices, 1)
	require.NotEmpty(t, financial.Invoices[0].ID)
	require.Equal(t, 2, performance.IssuesCount)
}

func TestAddDeliverableIsIdempotent(t *testing.T) {
	mockRepo := new(MockAssignmentRepository)
	mockRepo.On("FindByID", mock.Anything, "asg-1").Return(&models.Assignment{
		Base:         models.Base{ID: "asg-1"},
		Deliverables: []string{"del-1"},
	}, nil)

	service := &AssignmentService{repo: mockRepo}

	err := service.AddDeliverable(context.Background(), "asg-1", "del-1")
	require.NoError(t, err)

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAssignmentStatsIgnoresStatusFilter(t *testing.T) {
	mockRepo := new(MockAssignmentRepository)

	assignments := []models.Assignment{
		{Status: models.AssignmentActive, Performance: models.AssignmentPerformance{OnTrack: true}},
		{Status: models.AssignmentActive, Performance: models.AssignmentPerformance{OnTrack: false}},
		{Status: models.AssignmentCompleted},
		{Status: models.AssignmentPending},
	}
	mockRepo.On("List", mock.Anything, repository.AssignmentFilter{SupplierID: "sup-1"}).Return(assignments, nil)

	service := &AssignmentService{repo: mockRepo}

	stats, err := service.GetAssignmentStats(context.Background(), repository.AssignmentFilter{
		SupplierID: "sup-1",
		Status:     models.AssignmentActive,
	})
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)

	mockRepo.AssertExpectations(t)
}
