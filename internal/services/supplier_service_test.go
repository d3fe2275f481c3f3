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

type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id string) (*models.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) List(ctx context.Context, filter repository.SupplierFilter) ([]models.Supplier, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *models.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSupplierRepository) FindByAffiliate(ctx context.Context, affiliateID string) ([]models.Supplier, error) {
	args := m.Called(ctx, affiliateID)
	return args.Get(0).([]models.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) CountByStatus(ctx context.Context) (map[models.SupplierStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[models.SupplierStatus]int64), args.Error(1)
}

func (m *MockSupplierRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func TestCreateSupplierStartsAtStageOne(t *testing.T) {
	mockRepo := new(MockSupplierRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Supplier")).Return(nil)

	service := &SupplierService{repo: mockRepo}

	created, err := service.CreateSupplier(context.Background(), &models.Supplier{
		CompanyName: "Cell Components Ltd",
	}, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, models.SupplierPending, created.Status)
	require.Equal(t, 1, created.CurrentStage)
	require.Equal(t, models.RiskLow, created.RiskLevel)
	require.Equal(t, []string{}, created.AssignedAffiliates)
	require.Equal(t, "user-1", created.CreatedBy)

	mockRepo.AssertExpectations(t)
}

func TestUpdateStageResetsDayCounter(t *testing.T) {
	mockRepo := new(MockSupplierRepository)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "sup-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)
	mockRepo.On("FindByID", mock.Anything, "sup-1").Return(&models.Supplier{
		Base:         models.Base{ID: "sup-1"},
		CurrentStage: 3,
	}, nil)

	service := &SupplierService{repo: mockRepo}

	_, err := service.UpdateStage(context.Background(), "sup-1", 3, "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, captured["current_stage"])
	require.Equal(t, 0, captured["days_in_current_stage"])
}

func TestUpdateProgressClampsPercentage(t *testing.T) {
	mockRepo := new(MockSupplierRepository)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "sup-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)
	mockRepo.On("FindByID", mock.Anything, "sup-1").Return(&models.Supplier{
		Base: models.Base{ID: "sup-1"},
	}, nil)

	service := &SupplierService{repo: mockRepo}

	_, err := service.UpdateProgress(context.Background(), "sup-1", 140, "user-1")
	require.NoError(t, err)
	require.Equal(t, float64(100), captured["progress_percentage"])

	_, err = service.UpdateProgress(context.Background(), "sup-1", -5, "user-1")
	require.NoError(t, err)
	require.Equal(t, float64(0), captured["progress_percentage"])
}

func TestAssignAffiliateIsIdempotent(t *testing.T) {
	mockRepo := new(MockSupplierRepository)
	mockRepo.On("FindByID", mock.Anything, "sup-1").Return(&models.Supplier{
		Base:               models.Base{ID: "sup-1"},
		AssignedAffiliates: []string{"aff-1"},
	}, nil)

	service := &SupplierService{repo: mockRepo}

	supplier, err := service.AssignAffiliate(context.Background(), "sup-1", "aff-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"aff-1"}, supplier.AssignedAffiliates)

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateDaysInProcessAdvancesBothCounters(t *testing.T) {
	mockRepo := new(MockSupplierRepository)

	active := []models.Supplier{
		{Base: models.Base{ID: "sup-1"}, DaysInCurrentStage: 4, TotalDaysInProcess: 30},
	}
	mockRepo.On("List", mock.Anything, repository.SupplierFilter{Status: models.SupplierActive}).Return(active, nil)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "sup-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	service := &SupplierService{repo: mockRepo}

	count, err := service.UpdateDaysInProcess(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 5, captured["days_in_current_stage"])
	require.Equal(t, 31, captured["total_days_in_process"])
}

func TestSearchSuppliersFallsBackToDatabase(t *testing.T) {
	mockRepo := new(MockSupplierRepository)
	mockRepo.On("List", mock.Anything, repository.SupplierFilter{}).Return([]models.Supplier{
		{Base: models.Base{ID: "sup-1"}, CompanyName: "Prime Battery Cells", Status: models.SupplierActive, CurrentStage: 3},
		{Base: models.Base{ID: "sup-2"}, CompanyName: "Other Corp", Categories: []string{"stamping"}},
	}, nil)

	service := &SupplierService{repo: mockRepo}

	results, err := service.SearchSuppliers(context.Background(), "battery", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "sup-1", results[0]["id"])

	results, err = service.SearchSuppliers(context.Background(), "STAMPING", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "sup-2", results[0]["id"])
}

func TestGetSupplierStats(t *testing.T) {
	mockRepo := new(MockSupplierRepository)

	suppliers := []models.Supplier{
		{Status: models.SupplierActive, CurrentStage: 2, RiskLevel: models.RiskLow, ProgressPercentage: 40, TotalDaysInProcess: 10},
		{Status: models.SupplierActive, CurrentStage: 2, RiskLevel: models.RiskHigh, ProgressPercentage: 60, TotalDaysInProcess: 30},
		{Status: models.SupplierQualified, CurrentStage: 5, RiskLevel: models.RiskLow, ProgressPercentage: 100, TotalDaysInProcess: 80},
	}
	mockRepo.On("List", mock.Anything, repository.SupplierFilter{}).Return(suppliers, nil)

	service := &SupplierService{repo: mockRepo}

	stats, err := service.GetSupplierStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(2), stats.ByStatus[models.SupplierActive])
	require.Equal(t, int64(2), stats.ByStage[2])
	require.Equal(t, int64(2), stats.ByRisk[models.RiskLow])
	require.InDelta(t, 66.6667, stats.AverageProgress, 0.001)
	require.InDelta(t, 40.0, stats.AverageDaysInProcess, 0.001)
}
