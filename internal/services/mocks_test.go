package services

import (
	"context"
	"time"

	"appaudit/internal/models"
	"appaudit/internal/msgraph"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockOrganizationRepo struct {
	mock.Mock
}

func (m *MockOrganizationRepo) Create(ctx context.Context, org *models.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepo) Update(ctx context.Context, org *models.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrganizationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Organization), args.Error(1)
}

type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) Add(ctx context.Context, member *models.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockMemberRepo) Get(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, orgID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepo) UpdateRole(ctx context.Context, orgID, userID uuid.UUID, role models.Role) error {
	return m.Called(ctx, orgID, userID, role).Error(0)
}

func (m *MockMemberRepo) Remove(ctx context.Context, orgID, userID uuid.UUID) error {
	return m.Called(ctx, orgID, userID).Error(0)
}

func (m *MockMemberRepo) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

type MockPropertyRepo struct {
	mock.Mock
}

func (m *MockPropertyRepo) Create(ctx context.Context, property *models.Property) error {
	return m.Called(ctx, property).Error(0)
}

func (m *MockPropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepo) Update(ctx context.Context, property *models.Property) error {
	return m.Called(ctx, property).Error(0)
}

func (m *MockPropertyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyRepo) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Property, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
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

type MockAppRepo struct {
	mock.Mock
}

func (m *MockAppRepo) ReplaceForConnection(ctx context.Context, connID uuid.UUID, apps []models.App) error {
	return m.Called(ctx, connID, apps).Error(0)
}

func (m *MockAppRepo) ListByConnection(ctx context.Context, connID uuid.UUID, riskLevel string) ([]models.App, error) {
	args := m.Called(ctx, connID, riskLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.App), args.Error(1)
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

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) AcquireScanLock(ctx context.Context, connID uuid.UUID) (bool, error) {
	args := m.Called(ctx, connID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ReleaseScanLock(ctx context.Context, connID uuid.UUID) error {
	return m.Called(ctx, connID).Error(0)
}

func (m *MockCacheService) GetScanSummary(ctx context.Context, connID uuid.UUID) (*models.ScanCounts, error) {
	args := m.Called(ctx, connID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanCounts), args.Error(1)
}

func (m *MockCacheService) SetScanSummary(ctx context.Context, connID uuid.UUID, counts models.ScanCounts) error {
	return m.Called(ctx, connID, counts).Error(0)
}

func (m *MockCacheService) InvalidateScanSummary(ctx context.Context, connID uuid.UUID) error {
	return m.Called(ctx, connID).Error(0)
}

func (m *MockCacheService) IncrementRate(ctx context.Context, key string, window time.Duration) (int64, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockTenantValidator struct {
	mock.Mock
}

func (m *MockTenantValidator) GetToken(ctx context.Context, tenantID, clientID, secretRef string) (msgraph.Token, error) {
	args := m.Called(ctx, tenantID, clientID, secretRef)
	return args.Get(0).(msgraph.Token), args.Error(1)
}

func (m *MockTenantValidator) Invalidate(tenantID string) {
	m.Called(tenantID)
}

type MockAppScanner struct {
	mock.Mock
}

func (m *MockAppScanner) Scan(ctx context.Context, conn *models.Connection) (*msgraph.ScanResult, error) {
	args := m.Called(ctx, conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*msgraph.ScanResult), args.Error(1)
}
