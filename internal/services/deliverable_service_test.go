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

type MockDeliverableRepository struct {
	mock.Mock
}

func (m *MockDeliverableRepository) Create(ctx context.Context, deliverable *models.Deliverable) error {
	args := m.Called(ctx, deliverable)
	return args.Error(0)
}

func (m *MockDeliverableRepository) FindByID(ctx context.Context, id string) (*models.Deliverable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deliverable), args.Error(1)
}

func (m *MockDeliverableRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Deliverable, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.Deliverable), args.Error(1)
}

func (m *MockDeliverableRepository) List(ctx context.Context, filter repository.DeliverableFilter) ([]models.Deliverable, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Deliverable), args.Error(1)
}

func (m *MockDeliverableRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockDeliverableRepository) Save(ctx context.Context, deliverable *models.Deliverable) error {
	args := m.Called(ctx, deliverable)
	return args.Error(0)
}

func (m *MockDeliverableRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeliverableRepository) FindDependents(ctx context.Context, id string) ([]models.Deliverable, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]models.Deliverable), args.Error(1)
}

func (m *MockDeliverableRepository) FindOverdue(ctx context.Context, now time.Time) ([]models.Deliverable, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]models.Deliverable), args.Error(1)
}

func (m *MockDeliverableRepository) FindApproachingDeadline(ctx context.Context, now time.Time, within time.Duration) ([]models.Deliverable, error) {
	args := m.Called(ctx, now, within)
	return args.Get(0).([]models.Deliverable), args.Error(1)
}

func (m *MockDeliverableRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func TestStatusForProgress(t *testing.T) {
	require.Equal(t, models.DeliverableNotStarted, statusForProgress(0))
	require.Equal(t, models.DeliverableInProgress, statusForProgress(1))
	require.Equal(t, models.DeliverableInProgress, statusForProgress(99.5))
	require.Equal(t, models.DeliverableCompleted, statusForProgress(100))
}

func TestCreateDeliverableBlockedByUnresolvedDependencies(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)

	deps := []models.Deliverable{
		{Base: models.Base{ID: "dep-done"}, Status: models.DeliverableCompleted},
		{Base: models.Base{ID: "dep-open"}, Status: models.DeliverableInProgress},
	}
	mockRepo.On("FindByIDs", mock.Anything, []string{"dep-done", "dep-open"}).Return(deps, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Deliverable")).Return(nil)

	service := &DeliverableService{repo: mockRepo}

	created, err := service.CreateDeliverable(context.Background(), &models.Deliverable{
		Title:        "Process audit",
		Dependencies: []string{"dep-done", "dep-open"},
	}, "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"dep-open"}, created.BlockedBy)
	require.Equal(t, models.DeliverableBlocked, created.Status)
	require.Equal(t, "user-1", created.CreatedBy)

	mockRepo.AssertExpectations(t)
}

func TestUpdateProgressRejectsCancelled(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)
	mockRepo.On("FindByID", mock.Anything, "del-1").Return(&models.Deliverable{
		Base:   models.Base{ID: "del-1"},
		Status: models.DeliverableCancelled,
	}, nil)

	service := &DeliverableService{repo: mockRepo}

	_, err := service.UpdateProgress(context.Background(), "del-1", 50, "user-1")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidState))

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProgressCompletionUnblocksDependents(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)

	start := time.Now().Add(-49 * time.Hour)
	deliverable := &models.Deliverable{
		Base:   models.Base{ID: "del-1"},
		Status: models.DeliverableInProgress,
		Timing: models.Timing{StartDate: &start},
	}
	mockRepo.On("FindByID", mock.Anything, "del-1").Return(deliverable, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "del-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	dependent := models.Deliverable{
		Base:      models.Base{ID: "del-2"},
		Status:    models.DeliverableBlocked,
		BlockedBy: []string{"del-1"},
	}
	mockRepo.On("FindDependents", mock.Anything, "del-1").Return([]models.Deliverable{dependent}, nil)

	var dependentUpdates map[string]interface{}
	mockRepo.On("Update", mock.Anything, "del-2", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			dependentUpdates = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &DeliverableService{repo: mockRepo}

	_, err := service.UpdateProgress(context.Background(), "del-1", 120, "user-1")
	require.NoError(t, err)

	require.Equal(t, models.DeliverableCompleted, captured["status"])
	progress := captured["progress"].(models.Progress)
	require.Equal(t, float64(100), progress.Percentage)
	timing := captured["timing"].(models.Timing)
	require.NotNil(t, timing.CompletedDate)
	require.Equal(t, 3, timing.ActualDuration)

	require.Equal(t, []string{}, dependentUpdates["blocked_by"])
	require.Equal(t, models.DeliverableNotStarted, dependentUpdates["status"])
}

func TestCompleteMilestoneDerivesProgress(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)

	deliverable := &models.Deliverable{
		Base:   models.Base{ID: "del-1"},
		Status: models.DeliverableInProgress,
		Progress: models.Progress{
			Milestones: []models.Milestone{
				{ID: "m-1", Title: "Kickoff", Completed: true},
				{ID: "m-2", Title: "Site visit"},
				{ID: "m-3", Title: "Final report"},
				{ID: "m-4", Title: "Signoff"},
			},
			CompletedMilestones: 1,
			TotalMilestones:     4,
			Percentage:          25,
		},
	}
	mockRepo.On("FindByID", mock.Anything, "del-1").Return(deliverable, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "del-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &DeliverableService{repo: mockRepo}

	_, err := service.CompleteMilestone(context.Background(), "del-1", "m-2")
	require.NoError(t, err)

	progress := captured["progress"].(models.Progress)
	require.Equal(t, 2, progress.CompletedMilestones)
	require.Equal(t, float64(50), progress.Percentage)
	require.True(t, progress.Milestones[1].Completed)
	require.NotNil(t, progress.Milestones[1].CompletedDate)
	require.Equal(t, models.DeliverableInProgress, captured["status"])
}

func TestCompleteMilestoneUnknownID(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)
	mockRepo.On("FindByID", mock.Anything, "del-1").Return(&models.Deliverable{
		Base: models.Base{ID: "del-1"},
		Progress: models.Progress{
			Milestones: []models.Milestone{{ID: "m-1"}},
		},
	}, nil)

	service := &DeliverableService{repo: mockRepo}

	_, err := service.CompleteMilestone(context.Background(), "del-1", "m-missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestCheckOverdueDeliverablesFlipsStatus(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)

	overdue := []models.Deliverable{
		{Base: models.Base{ID: "del-1"}, Status: models.DeliverableInProgress},
		{Base: models.Base{ID: "del-2"}, Status: models.DeliverableInProgress},
	}
	mockRepo.On("FindOverdue", mock.Anything, mock.AnythingOfType("time.Time")).Return(overdue, nil)
	mockRepo.On("Update", mock.Anything, "del-1", mock.AnythingOfType("map[string]interface {}")).Return(nil)
	mockRepo.On("Update", mock.Anything, "del-2", mock.AnythingOfType("map[string]interface {}")).Return(nil)

	service := &DeliverableService{repo: mockRepo}

	flipped, err := service.CheckOverdueDeliverables(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"del-1", "del-2"}, flipped)

	mockRepo.AssertExpectations(t)
}

func TestCheckOverdueDeliverablesSkipsBlockedWork(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)

	overdue := []models.Deliverable{
		{Base: models.Base{ID: "del-1"}, Status: models.DeliverableInProgress},
		{Base: models.Base{ID: "del-2"}, Status: models.DeliverableBlocked, BlockedBy: []string{"del-9"}},
		{Base: models.Base{ID: "del-3"}, Status: models.DeliverableNotStarted},
	}
	mockRepo.On("FindOverdue", mock.Anything, mock.AnythingOfType("time.Time")).Return(overdue, nil)
	mockRepo.On("Update", mock.Anything, "del-1", mock.AnythingOfType("map[string]interface {}")).Return(nil)

	service := &DeliverableService{repo: mockRepo}

	flipped, err := service.CheckOverdueDeliverables(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"del-1"}, flipped)

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, "del-2", mock.Anything)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, "del-3", mock.Anything)
}

func TestGetAffiliateStatsOnTimeRate(t *testing.T) {
	mockRepo := new(MockDeliverableRepository)

	due := time.Now()
	early := due.Add(-24 * time.Hour)
	late := due.Add(24 * time.Hour)
	deliverables := []models.Deliverable{
		{Status: models.DeliverableCompleted, Timing: models.Timing{DueDate: &due, CompletedDate: &early}},
		{Status: models.DeliverableCompleted, Timing: models.Timing{DueDate: &due, CompletedDate: &late}},
		{Status: models.DeliverableOverdue},
		{Status: models.DeliverableInProgress},
	}
	mockRepo.On("List", mock.Anything, repository.DeliverableFilter{AffiliateID: "aff-1"}).Return(deliverables, nil)

	service := &DeliverableService{repo: mockRepo}

	stats, err := service.GetAffiliateStats(context.Background(), "aff-1")
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 2, stats.Completed)
	require.Equal(t, 1, stats.Overdue)
	require.Equal(t, 1, stats.InProgress)
	require.InDelta(t, 50.0, stats.OnTimeRate, 0.0001)
}
