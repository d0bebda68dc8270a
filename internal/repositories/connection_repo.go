package repositories

import (
	"context"
	"time"

	"appaudit/internal/models"

	"github.com/google/uuid"
)

type ConnectionRepository interface {
	Create(ctx context.Context, conn *models.Connection) error
	// GetByID looks a connection up by its own id without knowing the
	// parent property; scan callbacks often only carry the child id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error)
	Update(ctx context.Context, conn *models.Connection) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateLastScanned(ctx context.Context, id uuid.UUID, scannedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Connection, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Connection, error)
	CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error)
}

type connectionRepo struct {
	db Database
}

func NewConnectionRepo(db Database) ConnectionRepository {
	return &connectionRepo{db: db}
}

const connectionColumns = `id, property_id, provider, tenant_id, tenant_name, client_id, secret_ref, status, last_scanned_at, created_at, updated_at`

func (r *connectionRepo) Create(ctx context.Context, conn *models.Connection) error {
	query := `
		INSERT INTO connections (id, property_id, provider, tenant_id, tenant_name, client_id, secret_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, conn.ID, conn.PropertyID, conn.Provider, conn.TenantID, conn.TenantName, conn.ClientID, conn.SecretRef, conn.Status)
	return err
}

func (r *connectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	conn := &models.Connection{}
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&conn.ID, &conn.PropertyID, &conn.Provider, &conn.TenantID, &conn.TenantName,
		&conn.ClientID, &conn.SecretRef, &conn.Status, &conn.LastScannedAt, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepo) Update(ctx context.Context, conn *models.Connection) error {
	query := `
		UPDATE connections
		SET tenant_name = $1, client_id = $2, secret_ref = $3, status = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, conn.TenantName, conn.ClientID, conn.SecretRef, conn.Status, conn.ID)
	return err
}

func (r *connectionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE connections SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *connectionRepo) UpdateLastScanned(ctx context.Context, id uuid.UUID, scannedAt time.Time) error {
	query := `UPDATE connections SET last_scanned_at = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, scannedAt, id)
	return err
}

func (r *connectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM connections WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *connectionRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE property_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, propertyID)
}

func (r *connectionRepo) ListByStatus(ctx context.Context, status string) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE status = $1 ORDER BY last_scanned_at ASC NULLS FIRST`
	return r.list(ctx, query, status)
}

func (r *connectionRepo) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM connections WHERE property_id = $1`
	err := r.db.QueryRow(ctx, query, propertyID).Scan(&count)
	return count, err
}

func (r *connectionRepo) list(ctx context.Context, query string, args ...any) ([]*models.Connection, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*models.Connection
	for rows.Next() {
		conn := &models.Connection{}
		if err := rows.Scan(
			&conn.ID, &conn.PropertyID, &conn.Provider, &conn.TenantID, &conn.TenantName,
			&conn.ClientID, &conn.SecretRef, &conn.Status, &conn.LastScannedAt, &conn.CreatedAt, &conn.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}
