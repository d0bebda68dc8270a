package repositories

import (
	"context"
	"testing"
	"time"

	"appaudit/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type MemberRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    MemberRepository
	orgID   uuid.UUID
	userID  uuid.UUID
	context context.Context
}

func (suite *MemberRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewMemberRepo(mock)
	suite.orgID = uuid.New()
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *MemberRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestMemberRepoTestSuite(t *testing.T) {
	suite.Run(t, new(MemberRepoTestSuite))
}

func (suite *MemberRepoTestSuite) TestAdd_Success() {
	member := &models.Member{
		OrgID:  suite.orgID,
		UserID: suite.userID,
		Role:   models.RoleAnalyst,
	}

	suite.mock.ExpectExec(`INSERT INTO members`).
		WithArgs(member.OrgID, member.UserID, member.Role).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Add(suite.context, member)
	assert.NoError(suite.T(), err)
}

func (suite *MemberRepoTestSuite) TestGet_Success() {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"org_id", "user_id", "role", "created_at", "updated_at"}).
		AddRow(suite.orgID, suite.userID, models.RoleAdmin, now, now)

	suite.mock.ExpectQuery(`SELECT org_id, user_id, role, created_at, updated_at\s+FROM members`).
		WithArgs(suite.orgID, suite.userID).
		WillReturnRows(rows)

	member, err := suite.repo.Get(suite.context, suite.orgID, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleAdmin, member.Role)
	assert.Equal(suite.T(), suite.userID, member.UserID)
}

func (suite *MemberRepoTestSuite) TestUpdateRole_Success() {
	suite.mock.ExpectExec(`UPDATE members`).
		WithArgs(models.RoleViewer, suite.orgID, suite.userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.UpdateRole(suite.context, suite.orgID, suite.userID, models.RoleViewer)
	assert.NoError(suite.T(), err)
}

func (suite *MemberRepoTestSuite) TestRemove_Success() {
	suite.mock.ExpectExec(`DELETE FROM members`).
		WithArgs(suite.orgID, suite.userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Remove(suite.context, suite.orgID, suite.userID)
	assert.NoError(suite.T(), err)
}

func (suite *MemberRepoTestSuite) TestListByOrg_Success() {
	now := time.Now()
	other := uuid.New()
	rows := pgxmock.NewRows([]string{"org_id", "user_id", "role", "created_at", "updated_at"}).
		AddRow(suite.orgID, suite.userID, models.RoleOwner, now, now).
		AddRow(suite.orgID, other, models.RoleViewer, now, now)

	suite.mock.ExpectQuery(`SELECT org_id, user_id, role, created_at, updated_at\s+FROM members`).
		WithArgs(suite.orgID).
		WillReturnRows(rows)

	members, err := suite.repo.ListByOrg(suite.context, suite.orgID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), members, 2)
	assert.Equal(suite.T(), models.RoleOwner, members[0].Role)
}
