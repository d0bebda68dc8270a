package repositories

import (
	"context"

	"appaudit/internal/models"

	"github.com/google/uuid"
)

type ScanRepository interface {
	// Insert appends one scan record to the audit trail. Records are never
	// updated; retention is enforced by DeleteExpired.
	Insert(ctx context.Context, scan *models.Scan) error
	ListByConnection(ctx context.Context, connID uuid.UUID, limit int) ([]*models.Scan, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type scanRepo struct {
	db Database
}

func NewScanRepo(db Database) ScanRepository {
	return &scanRepo{db: db}
}

func (r *scanRepo) Insert(ctx context.Context, scan *models.Scan) error {
	query := `
		INSERT INTO scans (id, connection_id, scanned_at, total, high, medium, low, first_party, third_party, error, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		scan.ID, scan.ConnectionID, scan.ScannedAt,
		scan.Counts.Total, scan.Counts.High, scan.Counts.Medium, scan.Counts.Low,
		scan.Counts.FirstParty, scan.Counts.ThirdParty,
		scan.Error, scan.ExpiresAt,
	)
	return err
}

func (r *scanRepo) ListByConnection(ctx context.Context, connID uuid.UUID, limit int) ([]*models.Scan, error) {
	query := `
		SELECT id, connection_id, scanned_at, total, high, medium, low, first_party, third_party, error, expires_at
		FROM scans
		WHERE connection_id = $1
		ORDER BY scanned_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, connID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*models.Scan
	for rows.Next() {
		scan := &models.Scan{}
		if err := rows.Scan(
			&scan.ID, &scan.ConnectionID, &scan.ScannedAt,
			&scan.Counts.Total, &scan.Counts.High, &scan.Counts.Medium, &scan.Counts.Low,
			&scan.Counts.FirstParty, &scan.Counts.ThirdParty,
			&scan.Error, &scan.ExpiresAt,
		); err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

func (r *scanRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM scans WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
