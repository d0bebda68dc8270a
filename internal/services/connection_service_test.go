package services

import (
	"context"
	"testing"
	"time"

	"appaudit/internal/models"
	"appaudit/internal/msgraph"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ConnectionServiceTestSuite struct {
	suite.Suite
	connectionRepo *MockConnectionRepo
	propertyRepo   *MockPropertyRepo
	memberRepo     *MockMemberRepo
	orgRepo        *MockOrganizationRepo
	validator      *MockTenantValidator
	service        ConnectionService
	orgID          uuid.UUID
	propertyID     uuid.UUID
	connID         uuid.UUID
	actorID        uuid.UUID
	ctx            context.Context
}

func (suite *ConnectionServiceTestSuite) SetupTest() {
	suite.connectionRepo = new(MockConnectionRepo)
	suite.propertyRepo = new(MockPropertyRepo)
	suite.memberRepo = new(MockMemberRepo)
	suite.orgRepo = new(MockOrganizationRepo)
	suite.validator = new(MockTenantValidator)

	orgs := NewOrganizationService(suite.orgRepo, suite.memberRepo)
	suite.service = NewConnectionService(suite.connectionRepo, suite.propertyRepo, orgs, suite.validator)

	suite.orgID = uuid.New()
	suite.propertyID = uuid.New()
	suite.connID = uuid.New()
	suite.actorID = uuid.New()
	suite.ctx = context.Background()
}

func TestConnectionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConnectionServiceTestSuite))
}

func (suite *ConnectionServiceTestSuite) grantRole(role models.Role) {
	suite.memberRepo.On("Get", suite.ctx, suite.orgID, suite.actorID).
		Return(&models.Member{OrgID: suite.orgID, UserID: suite.actorID, Role: role}, nil)
}

func (suite *ConnectionServiceTestSuite) stubProperty() {
	suite.propertyRepo.On("GetByID", suite.ctx, suite.propertyID).
		Return(&models.Property{ID: suite.propertyID, OrgID: suite.orgID, Name: "HQ"}, nil)
}

func (suite *ConnectionServiceTestSuite) connection() *models.Connection {
	return &models.Connection{
		ID:         suite.connID,
		PropertyID: suite.propertyID,
		Provider:   "microsoft365",
		TenantID:   "tenant-123",
		ClientID:   "client-abc",
		SecretRef:  "secrets/tenant-123",
		Status:     models.ConnectionStatusActive,
	}
}

func (suite *ConnectionServiceTestSuite) createRequest() CreateConnectionRequest {
	return CreateConnectionRequest{
		PropertyID: suite.propertyID,
		TenantID:   "tenant-123",
		TenantName: "Contoso",
		ClientID:   "client-abc",
		SecretRef:  "secrets/tenant-123",
	}
}

func (suite *ConnectionServiceTestSuite) TestCreate_ValidatesCredentialsBeforePersisting() {
	suite.grantRole(models.RoleAdmin)
	suite.stubProperty()
	suite.validator.On("GetToken", suite.ctx, "tenant-123", "client-abc", "secrets/tenant-123").
		Return(msgraph.Token{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	suite.connectionRepo.On("Create", suite.ctx, mock.MatchedBy(func(c *models.Connection) bool {
		return c.Status == models.ConnectionStatusActive && c.TenantID == "tenant-123"
	})).Return(nil)

	conn, err := suite.service.Create(suite.ctx, suite.actorID, suite.createRequest())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ConnectionStatusActive, conn.Status)
	assert.Equal(suite.T(), "microsoft365", conn.Provider)
}

func (suite *ConnectionServiceTestSuite) TestCreate_BadCredentialsNeverPersisted() {
	suite.grantRole(models.RoleAdmin)
	suite.stubProperty()
	suite.validator.On("GetToken", suite.ctx, "tenant-123", "client-abc", "secrets/tenant-123").
		Return(msgraph.Token{}, &msgraph.TokenExchangeError{StatusCode: 401, ProviderMessage: "invalid_client"})

	_, err := suite.service.Create(suite.ctx, suite.actorID, suite.createRequest())
	assert.Error(suite.T(), err)
	suite.connectionRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestCreate_AnalystDenied() {
	suite.grantRole(models.RoleAnalyst)
	suite.stubProperty()

	_, err := suite.service.Create(suite.ctx, suite.actorID, suite.createRequest())
	assert.ErrorIs(suite.T(), err, ErrPermissionDenied)
	suite.validator.AssertNotCalled(suite.T(), "GetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestCreate_MissingFieldsRejected() {
	req := suite.createRequest()
	req.SecretRef = ""

	_, err := suite.service.Create(suite.ctx, suite.actorID, req)
	assert.Error(suite.T(), err)
}

func (suite *ConnectionServiceTestSuite) TestRevoke_MarksRevokedAndDropsToken() {
	suite.grantRole(models.RoleAdmin)
	suite.stubProperty()
	suite.connectionRepo.On("GetByID", suite.ctx, suite.connID).Return(suite.connection(), nil)
	suite.connectionRepo.On("UpdateStatus", suite.ctx, suite.connID, models.ConnectionStatusRevoked).Return(nil)
	suite.validator.On("Invalidate", "tenant-123").Return()

	err := suite.service.Revoke(suite.ctx, suite.actorID, suite.connID)
	assert.NoError(suite.T(), err)
	suite.validator.AssertCalled(suite.T(), "Invalidate", "tenant-123")
}

func (suite *ConnectionServiceTestSuite) TestDelete_AdminOnly() {
	suite.grantRole(models.RoleViewer)
	suite.stubProperty()
	suite.connectionRepo.On("GetByID", suite.ctx, suite.connID).Return(suite.connection(), nil)

	err := suite.service.Delete(suite.ctx, suite.actorID, suite.connID)
	assert.ErrorIs(suite.T(), err, ErrPermissionDenied)
	suite.connectionRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestGet_ViewerAllowed() {
	suite.grantRole(models.RoleViewer)
	suite.stubProperty()
	suite.connectionRepo.On("GetByID", suite.ctx, suite.connID).Return(suite.connection(), nil)

	conn, err := suite.service.Get(suite.ctx, suite.actorID, suite.connID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "tenant-123", conn.TenantID)
}
