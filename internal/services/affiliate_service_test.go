package services

import (
	"context"
	"testing"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock repositories for testing
type MockAffiliateRepository struct {
	mock.Mock
}

func (m *MockAffiliateRepository) Create(ctx context.Context, affiliate *models.Affiliate) error {
	args := m.Called(ctx, affiliate)
	return args.Error(0)
}

func (m *MockAffiliateRepository) FindByID(ctx context.Context, id string) (*models.Affiliate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Affiliate), args.Error(1)
}

func (m *MockAffiliateRepository) List(ctx context.Context, filter repository.AffiliateFilter) ([]models.Affiliate, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Affiliate), args.Error(1)
}

func (m *MockAffiliateRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockAffiliateRepository) Save(ctx context.Context, affiliate *models.Affiliate) error {
	args := m.Called(ctx, affiliate)
	return args.Error(0)
}

func (m *MockAffiliateRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAffiliateRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func TestAvailabilityFor(t *testing.T) {
	require.Equal(t, models.AvailabilityAvailable, AvailabilityFor(0, 5))
	require.Equal(t, models.AvailabilityAvailable, AvailabilityFor(3, 5))
	require.Equal(t, models.AvailabilityLimited, AvailabilityFor(4, 5))
	require.Equal(t, models.AvailabilityUnavailable, AvailabilityFor(5, 5))
	require.Equal(t, models.AvailabilityUnavailable, AvailabilityFor(6, 5))
	require.Equal(t, models.AvailabilityUnavailable, AvailabilityFor(0, 0))
}

func TestAddAssignmentRecomputesCapacity(t *testing.T) {
	mockRepo := new(MockAffiliateRepository)

	affiliate := &models.Affiliate{
		Base: models.Base{ID: "aff-1"},
		Assignments: models.AssignmentLists{
			Current: []string{"sup-1", "sup-2", "sup-3"},
		},
		Capacity: models.Capacity{
			CurrentLoad: 3,
			MaxCapacity: 5,
		},
	}

	mockRepo.On("FindByID", mock.Anything, "aff-1").Return(affiliate, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "aff-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AffiliateService{repo: mockRepo}

	err := service.AddAssignment(context.Background(), "aff-1", "sup-4")
	require.NoError(t, err)

	assignments := captured["assignments"].(models.AssignmentLists)
	capacity := captured["capacity"].(models.Capacity)
	require.Equal(t, []string{"sup-1", "sup-2", "sup-3", "sup-4"}, assignments.Current)
	require.Equal(t, 4, assignments.TotalActive)
	require.Equal(t, 4, capacity.CurrentLoad)
	require.Equal(t, models.AvailabilityLimited, capacity.Availability)

	mockRepo.AssertExpectations(t)
}

func TestAddAssignmentIsIdempotent(t *testing.T) {
	mockRepo := new(MockAffiliateRepository)

	affiliate := &models.Affiliate{
		Base:        models.Base{ID: "aff-1"},
		Assignments: models.AssignmentLists{Current: []string{"sup-1"}},
		Capacity:    models.Capacity{CurrentLoad: 1, MaxCapacity: 5},
	}

	mockRepo.On("FindByID", mock.Anything, "aff-1").Return(affiliate, nil)

	service := &AffiliateService{repo: mockRepo}

	err := service.AddAssignment(context.Background(), "aff-1", "sup-1")
	require.NoError(t, err)

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteAssignmentReleasesCapacity(t *testing.T) {
	mockRepo := new(MockAffiliateRepository)

	affiliate := &models.Affiliate{
		Base: models.Base{ID: "aff-1"},
		Assignments: models.AssignmentLists{
			Current: []string{"sup-1", "sup-2"},
			Past:    []string{"sup-0"},
		},
		Capacity: models.Capacity{CurrentLoad: 2, MaxCapacity: 2},
	}

	mockRepo.On("FindByID", mock.Anything, "aff-1").Return(affiliate, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "aff-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AffiliateService{repo: mockRepo}

	err := service.CompleteAssignment(context.Background(), "aff-1", "sup-1")
	require.NoError(t, err)

	assignments := captured["assignments"].(models.AssignmentLists)
	capacity := captured["capacity"].(models.Capacity)
	require.Equal(t, []string{"sup-2"}, assignments.Current)
	require.Equal(t, []string{"sup-0", "sup-1"}, assignments.Past)
	require.Equal(t, 1, assignments.TotalActive)
	require.Equal(t, 2, assignments.TotalCompleted)
	require.Equal(t, 1, capacity.CurrentLoad)
	require.Equal(t, models.AvailabilityAvailable, capacity.Availability)
}

func TestUpdatePerformanceFoldsRunningAverages(t *testing.T) {
	mockRepo := new(MockAffiliateRepository)

	affiliate := &models.Affiliate{
		Base:        models.Base{ID: "aff-1"},
		Assignments: models.AssignmentLists{TotalCompleted: 4},
		Performance: models.Performance{
			AverageRating:      4.0,
			TotalRatings:       3,
			OnTimeDeliveryRate: 0.75,
		},
	}

	mockRepo.On("FindByID", mock.Anything, "aff-1").Return(affiliate, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "aff-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AffiliateService{repo: mockRepo}

	rating := 5.0
	onTime := true
	err := service.UpdatePerformance(context.Background(), "aff-1", PerformanceUpdate{
		Rating:         &rating,
		OnTimeDelivery: &onTime,
	})
	require.NoError(t, err)

	perf := captured["performance"].(models.Performance)
	require.InDelta(t, 4.25, perf.AverageRating, 0.0001)
	require.Equal(t, 4, perf.TotalRatings)
	require.InDelta(t, 0.8, perf.OnTimeDeliveryRate, 0.0001)
}

func TestCreateAffiliateDefaults(t *testing.T) {
	mockRepo := new(MockAffiliateRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Affiliate")).Return(nil)

	service := &AffiliateService{repo: mockRepo}

	created, err := service.CreateAffiliate(context.Background(), &models.Affiliate{
		Name: "Consulting Co",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, models.AffiliatePendingApproval, created.Status)
	require.Equal(t, 5, created.Capacity.MaxCapacity)
	require.Equal(t, 0, created.Capacity.CurrentLoad)
	require.Equal(t, models.AvailabilityAvailable, created.Capacity.Availability)

	mockRepo.AssertExpectations(t)
}
