package repositories

import (
	"context"

	"appaudit/internal/models"

	"github.com/google/uuid"
)

type MemberRepository interface {
	Add(ctx context.Context, member *models.Member) error
	Get(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error)
	UpdateRole(ctx context.Context, orgID, userID uuid.UUID, role models.Role) error
	Remove(ctx context.Context, orgID, userID uuid.UUID) error
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error)
}

type memberRepo struct {
	db Database
}

func NewMemberRepo(db Database) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Add(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (org_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, member.OrgID, member.UserID, member.Role)
	return err
}

func (r *memberRepo) Get(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	member := &models.Member{}
	query := `
		SELECT org_id, user_id, role, created_at, updated_at
		FROM members
		WHERE org_id = $1 AND user_id = $2
	`
	err := r.db.QueryRow(ctx, query, orgID, userID).Scan(&member.OrgID, &member.UserID, &member.Role, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *memberRepo) UpdateRole(ctx context.Context, orgID, userID uuid.UUID, role models.Role) error {
	query := `
		UPDATE members
		SET role = $1, updated_at = NOW()
		WHERE org_id = $2 AND user_id = $3
	`
	_, err := r.db.Exec(ctx, query, role, orgID, userID)
	return err
}

func (r *memberRepo) Remove(ctx context.Context, orgID, userID uuid.UUID) error {
	query := `DELETE FROM members WHERE org_id = $1 AND user_id = $2`
	_, err := r.db.Exec(ctx, query, orgID, userID)
	return err
}

func (r *memberRepo) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	query := `
		SELECT org_id, user_id, role, created_at, updated_at
		FROM members
		WHERE org_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(&member.OrgID, &member.UserID, &member.Role, &member.CreatedAt, &member.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
