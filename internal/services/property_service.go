package services

import (
	"context"
	"errors"
	"strings"

	"appaudit/internal/models"
	"appaudit/internal/repositories"

	"github.com/google/uuid"
)

type CreatePropertyRequest struct {
	OrgID       uuid.UUID `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type UpdatePropertyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PropertyService interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreatePropertyRequest) (*models.Property, error)
	Get(ctx context.Context, actorID, propertyID uuid.UUID) (*models.Property, error)
	Update(ctx context.Context, actorID, propertyID uuid.UUID, req UpdatePropertyRequest) error
	Delete(ctx context.Context, actorID, propertyID uuid.UUID) error
	ListByOrg(ctx context.Context, actorID, orgID uuid.UUID) ([]*models.Property, error)
}

type propertyService struct {
	propertyRepo   repositories.PropertyRepository
	connectionRepo repositories.ConnectionRepository
	orgs           OrganizationService
}

func NewPropertyService(propertyRepo repositories.PropertyRepository, connectionRepo repositories.ConnectionRepository, orgs OrganizationService) PropertyService {
	return &propertyService{propertyRepo: propertyRepo, connectionRepo: connectionRepo, orgs: orgs}
}

func (s *propertyService) Create(ctx context.Context, actorID uuid.UUID, req CreatePropertyRequest) (*models.Property, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("property name is required")
	}
	if err := s.orgs.RequireRole(ctx, req.OrgID, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	property := &models.Property{
		ID:          uuid.New(),
		OrgID:       req.OrgID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *propertyService) Get(ctx context.Context, actorID, propertyID uuid.UUID) (*models.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.RequireRole(ctx, property.OrgID, actorID, models.RoleViewer); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *propertyService) Update(ctx context.Context, actorID, propertyID uuid.UUID, req UpdatePropertyRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("property name is required")
	}

	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if err := s.orgs.RequireRole(ctx, property.OrgID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	property.Name = req.Name
	property.Description = req.Description
	return s.propertyRepo.Update(ctx, property)
}

// Delete refuses to remove a property that still has connections: deleting
// a connection drops its collected audit data, so that must be an explicit
// separate action.
func (s *propertyService) Delete(ctx context.Context, actorID, propertyID uuid.UUID) error {
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if err := s.orgs.RequireRole(ctx, property.OrgID, actorID, models.RoleAdmin); err != nil {
		return err
	}

	count, err := s.connectionRepo.CountByProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrPropertyHasConnections
	}

	return s.propertyRepo.Delete(ctx, propertyID)
}

func (s *propertyService) ListByOrg(ctx context.Context, actorID, orgID uuid.UUID) ([]*models.Property, error) {
	if err := s.orgs.RequireRole(ctx, orgID, actorID, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.propertyRepo.ListByOrg(ctx, orgID)
}
