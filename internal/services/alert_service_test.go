package services

import (
	"context"
	"testing"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertRepository) List(ctx context.Context, filter repository.AlertFilter) ([]models.Alert, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Alert), args.Error(1)
}

func (m *MockAlertRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockAlertRepository) Save(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) CountBySeverity(ctx context.Context, resolved bool) (map[models.AlertSeverity]int64, error) {
	args := m.Called(ctx, resolved)
	return args.Get(0).(map[models.AlertSeverity]int64), args.Error(1)
}

func TestEscalateSeverity(t *testing.T) {
	require.Equal(t, models.SeverityLow, EscalateSeverity(models.SeverityInfo))
	require.Equal(t, models.SeverityMedium, EscalateSeverity(models.SeverityLow))
	require.Equal(t, models.SeverityHigh, EscalateSeverity(models.SeverityMedium))
	require.Equal(t, models.SeverityCritical, EscalateSeverity(models.SeverityHigh))
	require.Equal(t, models.SeverityCritical, EscalateSeverity(models.SeverityCritical))
}

func TestMarkAsReadRequiresAllRecipients(t *testing.T) {
	mockRepo := new(MockAlertRepository)

	alert := &models.Alert{
		Base:       models.Base{ID: "alert-1"},
		Recipients: []string{"user-1", "user-2"},
		ReadBy:     []string{},
	}
	mockRepo.On("FindByID", mock.Anything, "alert-1").Return(alert, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "alert-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AlertService{repo: mockRepo}

	_, err := service.MarkAsRead(context.Background(), "alert-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"user-1"}, captured["read_by"])
	require.Equal(t, false, captured["read"])
}

func TestMarkAsReadLastRecipientFlipsRead(t *testing.T) {
	mockRepo := new(MockAlertRepository)

	alert := &models.Alert{
		Base:       models.Base{ID: "alert-1"},
		Recipients: []string{"user-1", "user-2"},
		ReadBy:     []string{"user-1"},
		ReadAt:     map[string]time.Time{"user-1": time.Now()},
	}
	mockRepo.On("FindByID", mock.Anything, "alert-1").Return(alert, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "alert-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AlertService{repo: mockRepo}

	_, err := service.MarkAsRead(context.Background(), "alert-1", "user-2")
	require.NoError(t, err)
	require.Equal(t, true, captured["read"])
}

func TestEscalateAlertWidensAudienceAndReevaluatesRead(t *testing.T) {
	mockRepo := new(MockAlertRepository)

	alert := &models.Alert{
		Base:       models.Base{ID: "alert-1"},
		Severity:   models.SeverityMedium,
		Recipients: []string{"user-1"},
		ReadBy:     []string{"user-1"},
		Read:       true,
	}
	mockRepo.On("FindByID", mock.Anything, "alert-1").Return(alert, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "alert-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &AlertService{repo: mockRepo}

	_, err := service.EscalateAlert(context.Background(), "alert-1", "manager-1")
	require.NoError(t, err)
	require.Equal(t, models.SeverityHigh, captured["severity"])
	require.Equal(t, []string{"user-1", "manager-1"}, captured["recipients"])
	require.Equal(t, true, captured["escalated"])
	require.Equal(t, false, captured["read"])
}

func TestCreateAlertWithoutRecipientsIsRead(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Alert")).Return(nil)

	service := &AlertService{repo: mockRepo}

	created, err := service.CreateAlert(context.Background(), &models.Alert{
		Type:    models.AlertSystem,
		Title:   "Maintenance window",
		Message: "Planned downtime this weekend",
	})
	require.NoError(t, err)
	require.True(t, created.Read)
	require.Equal(t, models.SeverityInfo, created.Severity)
	require.NotEmpty(t, created.ID)
}

func TestCleanupExpiredAlerts(t *testing.T) {
	mockRepo := new(MockAlertRepository)
	mockRepo.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	service := &AlertService{repo: mockRepo}

	removed, err := service.CleanupExpiredAlerts(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)
}

func TestGetAlertStatsCountsUnresolvedBySeverityAndType(t *testing.T) {
	mockRepo := new(MockAlertRepository)

	alerts := []models.Alert{
		{Type: models.AlertOverdue, Severity: models.SeverityHigh},
		{Type: models.AlertOverdue, Severity: models.SeverityHigh},
		{Type: models.AlertAssignmentStalled, Severity: models.SeverityMedium},
		{Type: models.AlertOverdue, Severity: models.SeverityHigh, Resolved: true},
	}
	mockRepo.On("List", mock.Anything, repository.AlertFilter{}).Return(alerts, nil)
	mockRepo.On("CountBySeverity", mock.Anything, false).Return(map[models.AlertSeverity]int64{
		models.SeverityHigh:   2,
		models.SeverityMedium: 1,
	}, nil)

	service := &AlertService{repo: mockRepo}

	stats, err := service.GetAlertStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), stats.Total)
	require.Equal(t, int64(3), stats.Unresolved)
	require.Equal(t, int64(2), stats.BySeverity[models.SeverityHigh])
	require.Equal(t, int64(2), stats.ByType[models.AlertOverdue])
	require.Equal(t, int64(1), stats.ByType[models.AlertAssignmentStalled])
}
