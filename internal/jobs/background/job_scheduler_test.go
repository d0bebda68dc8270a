package background

import (
	"context"
	"testing"
	"time"

	"appaudit/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) Run(ctx context.Context, actorID, connID uuid.UUID) (*models.Scan, error) {
	args := m.Called(ctx, actorID, connID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scan), args.Error(1)
}

func (m *MockScanService) RunSystem(ctx context.Context, connID uuid.UUID) (*models.Scan, error) {
	args := m.Called(ctx, connID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scan), args.Error(1)
}

func (m *MockScanService) ListScans(ctx context.Context, actorID, connID uuid.UUID, limit int) ([]*models.Scan, error) {
	args := m.Called(ctx, actorID, connID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Scan), args.Error(1)
}

func (m *MockScanService) ListApps(ctx context.Context, actorID, connID uuid.UUID, riskLevel string) ([]models.App, error) {
	args := m.Called(ctx, actorID, connID, riskLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.App), args.Error(1)
}

func (m *MockScanService) Summary(ctx context.Context, actorID, connID uuid.UUID) (*models.ScanCounts, error) {
	args := m.Called(ctx, actorID, connID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanCounts), args.Error(1)
}

type MockConnectionRepo struct {
	mock.Mock
}

func (m *MockConnectionRepo) Create(ctx context.Context, conn *models.Connection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *MockConnectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockConnectionRepo) Update(ctx context.Context, conn *models.Connection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *MockConnectionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockConnectionRepo) UpdateLastScanned(ctx context.Context, id uuid.UUID, scannedAt time.Time) error {
	return m.Called(ctx, id, scannedAt).Error(0)
}

func (m *MockConnectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConnectionRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Connection, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Connection), args.Error(1)
}

func (m *MockConnectionRepo) ListByStatus(ctx context.Context, status string) ([]*models.Connection, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Connection), args.Error(1)
}

func (m *MockConnectionRepo) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	args := m.Called(ctx, propertyID)
	return args.Int(0), args.Error(1)
}

type MockScanRepo struct {
	mock.Mock
}

func (m *MockScanRepo) Insert(ctx context.Context, scan *models.Scan) error {
	return m.Called(ctx, scan).Error(0)
}

func (m *MockScanRepo) ListByConnection(ctx context.Context, connID uuid.UUID, limit int) ([]*models.Scan, error) {
	args := m.Called(ctx, connID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Scan), args.Error(1)
}

func (m *MockScanRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestScanSweep_CoversActiveAndErroredConnections(t *testing.T) {
	ctx := context.Background()
	activeID := uuid.New()
	erroredID := uuid.New()

	scanSvc := new(MockScanService)
	connectionRepo := new(MockConnectionRepo)
	scanRepo := new(MockScanRepo)

	connectionRepo.On("ListByStatus", ctx, models.ConnectionStatusActive).
		Return([]*models.Connection{{ID: activeID, Status: models.ConnectionStatusActive}}, nil)
	connectionRepo.On("ListByStatus", ctx, models.ConnectionStatusError).
		Return([]*models.Connection{{ID: erroredID, Status: models.ConnectionStatusError}}, nil)

	// A connection parked in error status after a provider outage must
	// still be scanned so a successful run can restore it to active.
	scanSvc.On("RunSystem", ctx, activeID).Return(&models.Scan{}, nil)
	scanSvc.On("RunSystem", ctx, erroredID).Return(&models.Scan{}, nil)

	js := NewJobScheduler(scanSvc, connectionRepo, scanRepo, time.Hour, 2)
	err := js.scanActiveConnections(ctx)

	assert.NoError(t, err)
	scanSvc.AssertCalled(t, "RunSystem", ctx, activeID)
	scanSvc.AssertCalled(t, "RunSystem", ctx, erroredID)
	connectionRepo.AssertExpectations(t)
}

func TestScanSweep_ContinuesWhenOneScanFails(t *testing.T) {
	ctx := context.Background()
	firstID := uuid.New()
	secondID := uuid.New()

	scanSvc := new(MockScanService)
	connectionRepo := new(MockConnectionRepo)
	scanRepo := new(MockScanRepo)

	connectionRepo.On("ListByStatus", ctx, models.ConnectionStatusActive).
		Return([]*models.Connection{{ID: firstID}, {ID: secondID}}, nil)
	connectionRepo.On("ListByStatus", ctx, models.ConnectionStatusError).
		Return([]*models.Connection{}, nil)

	scanSvc.On("RunSystem", ctx, firstID).Return(nil, assert.AnError)
	scanSvc.On("RunSystem", ctx, secondID).Return(&models.Scan{}, nil)

	js := NewJobScheduler(scanSvc, connectionRepo, scanRepo, time.Hour, 1)
	err := js.scanActiveConnections(ctx)

	assert.NoError(t, err)
	scanSvc.AssertCalled(t, "RunSystem", ctx, secondID)
}

func TestCleanupExpiredScans(t *testing.T) {
	ctx := context.Background()

	scanSvc := new(MockScanService)
	connectionRepo := new(MockConnectionRepo)
	scanRepo := new(MockScanRepo)

	scanRepo.On("DeleteExpired", ctx).Return(int64(4), nil)

	js := NewJobScheduler(scanSvc, connectionRepo, scanRepo, time.Hour, 1)
	err := js.cleanupExpiredScans(ctx)

	assert.NoError(t, err)
	scanRepo.AssertExpectations(t)
}
