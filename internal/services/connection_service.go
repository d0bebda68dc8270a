package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"appaudit/internal/models"
	"appaudit/internal/msgraph"
	"appaudit/internal/repositories"

	"github.com/google/uuid"
)

// TenantValidator proves that a connection's credentials work before the
// connection goes active, and drops cached tokens when it is revoked. The
// token manager satisfies it.
type TenantValidator interface {
	GetToken(ctx context.Context, tenantID, clientID, secretRef string) (msgraph.Token, error)
	Invalidate(tenantID string)
}

type CreateConnectionRequest struct {
	PropertyID uuid.UUID `json:"property_id"`
	Provider   string    `json:"provider"`
	TenantID   string    `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	ClientID   string    `json:"client_id"`
	SecretRef  string    `json:"secret_ref"`
}

type ConnectionService interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateConnectionRequest) (*models.Connection, error)
	Get(ctx context.Context, actorID, connID uuid.UUID) (*models.Connection, error)
	ListByProperty(ctx context.Context, actorID, propertyID uuid.UUID) ([]*models.Connection, error)
	Revoke(ctx context.Context, actorID, connID uuid.UUID) error
	Delete(ctx context.Context, actorID, connID uuid.UUID) error
}

type connectionService struct {
	connectionRepo repositories.ConnectionRepository
	propertyRepo   repositories.PropertyRepository
	orgs           OrganizationService
	validator      TenantValidator
}

func NewConnectionService(connectionRepo repositories.ConnectionRepository, propertyRepo repositories.PropertyRepository, orgs OrganizationService, validator TenantValidator) ConnectionService {
	return &connectionService{
		connectionRepo: connectionRepo,
		propertyRepo:   propertyRepo,
		orgs:           orgs,
		validator:      validator,
	}
}

// Create validates the tenant credentials with a live token exchange before
// persisting. A connection never reaches active status on unproven
// credentials.
func (s *connectionService) Create(ctx context.Context, actorID uuid.UUID, req CreateConnectionRequest) (*models.Connection, error) {
	if strings.TrimSpace(req.TenantID) == "" || strings.TrimSpace(req.ClientID) == "" || strings.TrimSpace(req.SecretRef) == "" {
		return nil, errors.New("tenant_id, client_id and secret_ref are required")
	}
	if req.Provider == "" {
		req.Provider = "microsoft365"
	}

	property, err := s.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.RequireRole(ctx, property.OrgID, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}

	if _, err := s.validator.GetToken(ctx, req.TenantID, req.ClientID, req.SecretRef); err != nil {
		return nil, fmt.Errorf("tenant credential validation failed: %w", err)
	}

	conn := &models.Connection{
		ID:         uuid.New(),
		PropertyID: req.PropertyID,
		Provider:   req.Provider,
		TenantID:   req.TenantID,
		TenantName: req.TenantName,
		ClientID:   req.ClientID,
		SecretRef:  req.SecretRef,
		Status:     models.ConnectionStatusActive,
	}
	if err := s.connectionRepo.Create(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *connectionService) Get(ctx context.Context, actorID, connID uuid.UUID) (*models.Connection, error) {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, conn, models.RoleViewer); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *connectionService) ListByProperty(ctx context.Context, actorID, propertyID uuid.UUID) ([]*models.Connection, error) {
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.RequireRole(ctx, property.OrgID, actorID, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.connectionRepo.ListByProperty(ctx, propertyID)
}

// Revoke marks the connection revoked and drops its cached token so no
// further provider calls can reuse it. Collected audit data stays.
func (s *connectionService) Revoke(ctx context.Context, actorID, connID uuid.UUID) error {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actorID, conn, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.connectionRepo.UpdateStatus(ctx, connID, models.ConnectionStatusRevoked); err != nil {
		return err
	}
	s.validator.Invalidate(conn.TenantID)
	return nil
}

// Delete removes the connection and, via the schema's cascading foreign
// keys, its apps and scan history.
func (s *connectionService) Delete(ctx context.Context, actorID, connID uuid.UUID) error {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actorID, conn, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.connectionRepo.Delete(ctx, connID); err != nil {
		return err
	}
	s.validator.Invalidate(conn.TenantID)
	return nil
}

func (s *connectionService) authorize(ctx context.Context, actorID uuid.UUID, conn *models.Connection, min models.Role) error {
	property, err := s.propertyRepo.GetByID(ctx, conn.PropertyID)
	if err != nil {
		return err
	}
	return s.orgs.RequireRole(ctx, property.OrgID, actorID, min)
}
