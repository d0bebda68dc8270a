package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"appaudit/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// appBatchSize bounds how many upserts go into one batched request,
// mirroring the per-request item limit of the underlying store.
const appBatchSize = 25

type AppRepository interface {
	// ReplaceForConnection persists apps as the new authoritative app list
	// for the connection: upsert by stable app id in bounded batches, then
	// drop rows the latest scan no longer returned.
	ReplaceForConnection(ctx context.Context, connID uuid.UUID, apps []models.App) error
	ListByConnection(ctx context.Context, connID uuid.UUID, riskLevel string) ([]models.App, error)
}

type appRepo struct {
	db Database
}

func NewAppRepo(db Database) AppRepository {
	return &appRepo{db: db}
}

const upsertAppQuery = `
	INSERT INTO apps (connection_id, app_id, client_id, display_name, publisher, homepage, is_first_party, enabled, app_created_at, delegated_permissions, consent_type, user_count, risk_level, risk_factors, discovered_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (connection_id, app_id) DO UPDATE SET
		client_id = EXCLUDED.client_id,
		display_name = EXCLUDED.display_name,
		publisher = EXCLUDED.publisher,
		homepage = EXCLUDED.homepage,
		is_first_party = EXCLUDED.is_first_party,
		enabled = EXCLUDED.enabled,
		app_created_at = EXCLUDED.app_created_at,
		delegated_permissions = EXCLUDED.delegated_permissions,
		consent_type = EXCLUDED.consent_type,
		user_count = EXCLUDED.user_count,
		risk_level = EXCLUDED.risk_level,
		risk_factors = EXCLUDED.risk_factors,
		discovered_at = EXCLUDED.discovered_at
`

func (r *appRepo) ReplaceForConnection(ctx context.Context, connID uuid.UUID, apps []models.App) error {
	keep := make([]string, 0, len(apps))

	for start := 0; start < len(apps); start += appBatchSize {
		end := start + appBatchSize
		if end > len(apps) {
			end = len(apps)
		}

		batch := &pgx.Batch{}
		for _, app := range apps[start:end] {
			factors, err := json.Marshal(app.RiskFactors)
			if err != nil {
				return fmt.Errorf("encoding risk factors for app %s: %w", app.AppID, err)
			}
			batch.Queue(upsertAppQuery,
				connID, app.AppID, app.ClientID, app.DisplayName, app.Publisher, app.Homepage,
				app.IsFirstParty, app.Enabled, app.AppCreatedAt, app.DelegatedPermissions,
				app.ConsentType, app.UserCount, app.RiskLevel, factors, app.DiscoveredAt,
			)
			keep = append(keep, app.AppID)
		}

		results := r.db.SendBatch(ctx, batch)
		for i := start; i < end; i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}

	// A scan is authoritative for the app set it returns: anything the
	// provider no longer reports is removed, never merged.
	deleteStale := `DELETE FROM apps WHERE connection_id = $1 AND NOT (app_id = ANY($2))`
	_, err := r.db.Exec(ctx, deleteStale, connID, keep)
	return err
}

func (r *appRepo) ListByConnection(ctx context.Context, connID uuid.UUID, riskLevel string) ([]models.App, error) {
	query := `
		SELECT connection_id, app_id, client_id, display_name, publisher, homepage, is_first_party, enabled, app_created_at, delegated_permissions, consent_type, user_count, risk_level, risk_factors, discovered_at
		FROM apps
		WHERE connection_id = $1
	`
	args := []any{connID}
	if riskLevel != "" {
		query += ` AND risk_level = $2`
		args = append(args, riskLevel)
	}
	query += `
		ORDER BY CASE risk_level WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, display_name ASC
	`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []models.App
	for rows.Next() {
		var app models.App
		var factors []byte
		if err := rows.Scan(
			&app.ConnectionID, &app.AppID, &app.ClientID, &app.DisplayName, &app.Publisher, &app.Homepage,
			&app.IsFirstParty, &app.Enabled, &app.AppCreatedAt, &app.DelegatedPermissions,
			&app.ConsentType, &app.UserCount, &app.RiskLevel, &factors, &app.DiscoveredAt,
		); err != nil {
			return nil, err
		}
		if len(factors) > 0 {
			if err := json.Unmarshal(factors, &app.RiskFactors); err != nil {
				return nil, fmt.Errorf("decoding risk factors for app %s: %w", app.AppID, err)
			}
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
