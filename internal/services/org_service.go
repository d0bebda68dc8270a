package services

import (
	"context"
	"errors"
	"strings"

	"appaudit/internal/models"
	"appaudit/internal/repositories"

	"github.com/google/uuid"
)

type OrganizationService interface {
	Create(ctx context.Context, actorID uuid.UUID, name string) (*models.Organization, error)
	Get(ctx context.Context, actorID, orgID uuid.UUID) (*models.Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	Rename(ctx context.Context, actorID, orgID uuid.UUID, name string) error
	Delete(ctx context.Context, actorID, orgID uuid.UUID) error

	AddMember(ctx context.Context, actorID, orgID, userID uuid.UUID, role models.Role, manageOwners bool) error
	UpdateMemberRole(ctx context.Context, actorID, orgID, userID uuid.UUID, role models.Role, manageOwners bool) error
	RemoveMember(ctx context.Context, actorID, orgID, userID uuid.UUID, manageOwners bool) error
	ListMembers(ctx context.Context, actorID, orgID uuid.UUID) ([]*models.Member, error)

	// RequireRole verifies the user holds at least min in the organization.
	// Other services lean on it for every mutating call.
	RequireRole(ctx context.Context, orgID, userID uuid.UUID, min models.Role) error
}

type orgService struct {
	orgRepo    repositories.OrganizationRepository
	memberRepo repositories.MemberRepository
}

func NewOrganizationService(orgRepo repositories.OrganizationRepository, memberRepo repositories.MemberRepository) OrganizationService {
	return &orgService{orgRepo: orgRepo, memberRepo: memberRepo}
}

func (s *orgService) Create(ctx context.Context, actorID uuid.UUID, name string) (*models.Organization, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("organization name is required")
	}

	org := &models.Organization{
		ID:        uuid.New(),
		Name:      name,
		CreatedBy: actorID,
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	// The creator is the founding owner.
	member := &models.Member{OrgID: org.ID, UserID: actorID, Role: models.RoleOwner}
	if err := s.memberRepo.Add(ctx, member); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *orgService) Get(ctx context.Context, actorID, orgID uuid.UUID) (*models.Organization, error) {
	if err := s.RequireRole(ctx, orgID, actorID, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.orgRepo.GetByID(ctx, orgID)
}

func (s *orgService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	return s.orgRepo.ListByUser(ctx, userID)
}

func (s *orgService) Rename(ctx context.Context, actorID, orgID uuid.UUID, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("organization name is required")
	}
	if err := s.RequireRole(ctx, orgID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	org.Name = name
	return s.orgRepo.Update(ctx, org)
}

func (s *orgService) Delete(ctx context.Context, actorID, orgID uuid.UUID) error {
	if err := s.RequireRole(ctx, orgID, actorID, models.RoleOwner); err != nil {
		return err
	}
	return s.orgRepo.Delete(ctx, orgID)
}

func (s *orgService) AddMember(ctx context.Context, actorID, orgID, userID uuid.UUID, role models.Role, manageOwners bool) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	actor, err := s.memberRepo.Get(ctx, orgID, actorID)
	if err != nil {
		return ErrPermissionDenied
	}
	if !s.mayAssign(actor.Role, role, manageOwners) {
		return ErrPermissionDenied
	}

	return s.memberRepo.Add(ctx, &models.Member{OrgID: orgID, UserID: userID, Role: role})
}

func (s *orgService) UpdateMemberRole(ctx context.Context, actorID, orgID, userID uuid.UUID, role models.Role, manageOwners bool) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	actor, err := s.memberRepo.Get(ctx, orgID, actorID)
	if err != nil {
		return ErrPermissionDenied
	}
	target, err := s.memberRepo.Get(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !s.mayManage(actor.Role, target.Role, manageOwners) || !s.mayAssign(actor.Role, role, manageOwners) {
		return ErrPermissionDenied
	}

	return s.memberRepo.UpdateRole(ctx, orgID, userID, role)
}

func (s *orgService) RemoveMember(ctx context.Context, actorID, orgID, userID uuid.UUID, manageOwners bool) error {
	actor, err := s.memberRepo.Get(ctx, orgID, actorID)
	if err != nil {
		return ErrPermissionDenied
	}
	target, err := s.memberRepo.Get(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !s.mayManage(actor.Role, target.Role, manageOwners) {
		return ErrPermissionDenied
	}

	return s.memberRepo.Remove(ctx, orgID, userID)
}

func (s *orgService) ListMembers(ctx context.Context, actorID, orgID uuid.UUID) ([]*models.Member, error) {
	if err := s.RequireRole(ctx, orgID, actorID, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.memberRepo.ListByOrg(ctx, orgID)
}

func (s *orgService) RequireRole(ctx context.Context, orgID, userID uuid.UUID, min models.Role) error {
	member, err := s.memberRepo.Get(ctx, orgID, userID)
	if err != nil {
		return ErrPermissionDenied
	}
	if member.Role.Rank() < min.Rank() {
		return ErrPermissionDenied
	}
	return nil
}

// mayManage implements the hierarchy rule: an actor may only act on a
// member ranking strictly below itself. Owner-on-owner actions are allowed
// only with the explicit owner-management permission.
func (s *orgService) mayManage(actor, target models.Role, manageOwners bool) bool {
	if actor.CanManage(target) {
		return true
	}
	return actor == models.RoleOwner && target == models.RoleOwner && manageOwners
}

// mayAssign mirrors mayManage for the role being granted: an actor can
// never hand out its own rank or above, except an owner explicitly
// permitted to appoint owners.
func (s *orgService) mayAssign(actor, granted models.Role, manageOwners bool) bool {
	if actor.CanManage(granted) {
		return true
	}
	return actor == models.RoleOwner && granted == models.RoleOwner && manageOwners
}
