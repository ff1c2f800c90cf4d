package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rosterline/rosterauth/internal/database"
	"github.com/rosterline/rosterauth/internal/models"
)

// AuthLogRepository reads and prunes the auth_logs audit trail. Writes happen inside login transactions.
type AuthLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuthLogRepository(db *database.DB) *AuthLogRepository {
	return &AuthLogRepository{pool: db.Pool}
}

func insertAuthLog(ctx context.Context, q database.Querier, entry *models.AuthLogEntry) error {
	query := `
		INSERT INTO auth_logs (user_id, ip_address, fingerprint, success, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING log_id
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := q.QueryRow(ctx, query,
		entry.AccountID, entry.IPAddress, entry.Fingerprint,
		entry.Success, entry.ErrorMessage, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append auth log: %w", database.MapPostgresError(err))
	}

	return nil
}

// ListByAccount returns the newest entries first.
func (r *AuthLogRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.AuthLogEntry, error) {
	query := `
		SELECT log_id, user_id, ip_address, fingerprint, success, error_message, created_at
		FROM auth_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuthLogEntry, 0)
	for rows.Next() {
		var entry models.AuthLogEntry
		if err := rows.Scan(
			&entry.ID, &entry.AccountID, &entry.IPAddress, &entry.Fingerprint,
			&entry.Success, &entry.ErrorMessage, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan auth log: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// DeleteOlderThan removes entries created before cutoff and reports how many were removed.
func (r *AuthLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM auth_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
