package services

import (
	"context"
	"errors"
	"log"
	"time"

	"appaudit/internal/caching"
	"appaudit/internal/models"
	"appaudit/internal/msgraph"
	"appaudit/internal/repositories"

	"github.com/google/uuid"
)

// defaultScanRetention is how long scan records stay queryable before the
// cleanup job removes them.
const defaultScanRetention = 90 * 24 * time.Hour

// AppScanner runs a full tenant audit for one connection. The graph
// scanner satisfies it; tests swap in a mock.
type AppScanner interface {
	Scan(ctx context.Context, conn *models.Connection) (*msgraph.ScanResult, error)
}

type ScanService interface {
	// Run executes a scan on behalf of a user. Analyst role or above.
	Run(ctx context.Context, actorID, connID uuid.UUID) (*models.Scan, error)

	// RunSystem executes a scan without an acting user, for the scheduler.
	RunSystem(ctx context.Context, connID uuid.UUID) (*models.Scan, error)

	ListScans(ctx context.Context, actorID, connID uuid.UUID, limit int) ([]*models.Scan, error)
	ListApps(ctx context.Context, actorID, connID uuid.UUID, riskLevel string) ([]models.App, error)
	Summary(ctx context.Context, actorID, connID uuid.UUID) (*models.ScanCounts, error)
}

type scanService struct {
	connectionRepo repositories.ConnectionRepository
	propertyRepo   repositories.PropertyRepository
	appRepo        repositories.AppRepository
	scanRepo       repositories.ScanRepository
	orgs           OrganizationService
	scanner        AppScanner
	cache          caching.CacheService
	retention      time.Duration
	now            func() time.Time
}

func NewScanService(
	connectionRepo repositories.ConnectionRepository,
	propertyRepo repositories.PropertyRepository,
	appRepo repositories.AppRepository,
	scanRepo repositories.ScanRepository,
	orgs OrganizationService,
	scanner AppScanner,
	cache caching.CacheService,
	retention time.Duration,
) ScanService {
	if retention <= 0 {
		retention = defaultScanRetention
	}
	return &scanService{
		connectionRepo: connectionRepo,
		propertyRepo:   propertyRepo,
		appRepo:        appRepo,
		scanRepo:       scanRepo,
		orgs:           orgs,
		scanner:        scanner,
		cache:          cache,
		retention:      retention,
		now:            time.Now,
	}
}

func (s *scanService) Run(ctx context.Context, actorID, connID uuid.UUID) (*models.Scan, error) {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, conn, models.RoleAnalyst); err != nil {
		return nil, err
	}
	return s.runLocked(ctx, conn)
}

func (s *scanService) RunSystem(ctx context.Context, connID uuid.UUID) (*models.Scan, error) {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return nil, err
	}
	return s.runLocked(ctx, conn)
}

// runLocked serializes scans per connection via the redis lock, runs the
// tenant audit, and persists the outcome. App rows are the source of truth:
// a failed app write fails the scan, while failures recording the
// scan-history row or the last-scanned timestamp only log.
func (s *scanService) runLocked(ctx context.Context, conn *models.Connection) (*models.Scan, error) {
	if conn.Status != models.ConnectionStatusActive && conn.Status != models.ConnectionStatusError {
		return nil, errors.New("connection is not active")
	}

	ok, err := s.cache.AcquireScanLock(ctx, conn.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrScanInProgress
	}
	defer func() {
		if err := s.cache.ReleaseScanLock(context.WithoutCancel(ctx), conn.ID); err != nil {
			log.Printf("WARN: releasing scan lock for connection %s: %v", conn.ID, err)
		}
	}()

	result, err := s.scanner.Scan(ctx, conn)
	if err != nil {
		s.recordFailure(ctx, conn, err)
		return nil, err
	}

	if err := s.appRepo.ReplaceForConnection(ctx, conn.ID, result.Apps); err != nil {
		return nil, &StoreWriteError{Target: "apps", Err: err}
	}

	scan := &models.Scan{
		ID:           uuid.New(),
		ConnectionID: conn.ID,
		ScannedAt:    result.ScannedAt,
		Counts:       result.Summary,
		ExpiresAt:    result.ScannedAt.Add(s.retention),
	}
	if err := s.scanRepo.Insert(ctx, scan); err != nil {
		// The app set is already current; a lost history row is not worth
		// failing the scan for.
		log.Printf("WARN: recording scan history for connection %s: %v", conn.ID, err)
	}
	if err := s.connectionRepo.UpdateLastScanned(ctx, conn.ID, result.ScannedAt); err != nil {
		log.Printf("WARN: updating last-scanned time for connection %s: %v", conn.ID, err)
	}
	if conn.Status == models.ConnectionStatusError {
		if err := s.connectionRepo.UpdateStatus(ctx, conn.ID, models.ConnectionStatusActive); err != nil {
			log.Printf("WARN: restoring connection %s to active: %v", conn.ID, err)
		}
	}
	if err := s.cache.SetScanSummary(ctx, conn.ID, result.Summary); err != nil {
		log.Printf("WARN: caching scan summary for connection %s: %v", conn.ID, err)
	}

	return scan, nil
}

// recordFailure leaves an audit-trail row for the failed attempt and flags
// the connection. Previously collected app rows are left untouched.
func (s *scanService) recordFailure(ctx context.Context, conn *models.Connection, scanErr error) {
	now := s.now()
	scan := &models.Scan{
		ID:           uuid.New(),
		ConnectionID: conn.ID,
		ScannedAt:    now,
		Error:        scanErr.Error(),
		ExpiresAt:    now.Add(s.retention),
	}
	if err := s.scanRepo.Insert(ctx, scan); err != nil {
		log.Printf("WARN: recording failed scan for connection %s: %v", conn.ID, err)
	}
	if err := s.connectionRepo.UpdateStatus(ctx, conn.ID, models.ConnectionStatusError); err != nil {
		log.Printf("WARN: flagging connection %s after scan failure: %v", conn.ID, err)
	}
}

func (s *scanService) ListScans(ctx context.Context, actorID, connID uuid.UUID, limit int) ([]*models.Scan, error) {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, conn, models.RoleViewer); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.scanRepo.ListByConnection(ctx, connID, limit)
}

func (s *scanService) ListApps(ctx context.Context, actorID, connID uuid.UUID, riskLevel string) ([]models.App, error) {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, conn, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.appRepo.ListByConnection(ctx, connID, riskLevel)
}

// Summary serves the cached counts when present and falls back to the most
// recent successful scan row. Failed scans record zero counts, so they are
// skipped to keep serving the last known-good data after an outage.
func (s *scanService) Summary(ctx context.Context, actorID, connID uuid.UUID) (*models.ScanCounts, error) {
	conn, err := s.connectionRepo.GetByID(ctx, connID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, conn, models.RoleViewer); err != nil {
		return nil, err
	}

	if counts, err := s.cache.GetScanSummary(ctx, connID); err == nil && counts != nil {
		return counts, nil
	}

	scans, err := s.scanRepo.ListByConnection(ctx, connID, 10)
	if err != nil {
		return nil, err
	}
	for _, scan := range scans {
		if scan.Error == "" {
			return &scan.Counts, nil
		}
	}
	return &models.ScanCounts{}, nil
}

func (s *scanService) authorize(ctx context.Context, actorID uuid.UUID, conn *models.Connection, min models.Role) error {
	property, err := s.propertyRepo.GetByID(ctx, conn.PropertyID)
	if err != nil {
		return err
	}
	return s.orgs.RequireRole(ctx, property.OrgID, actorID, min)
}
