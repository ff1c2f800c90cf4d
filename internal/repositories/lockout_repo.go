package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rosterline/rosterauth/internal/database"
	"github.com/rosterline/rosterauth/internal/models"
)

// LockoutRepository serves administrative reads and resets of lockout rows outside a login attempt.
type LockoutRepository struct {
	pool *pgxpool.Pool
}

func NewLockoutRepository(db *database.DB) *LockoutRepository {
	return &LockoutRepository{pool: db.Pool}
}

// GetByAccountID returns ErrNotFound when the account has never attempted a login.
func (r *LockoutRepository) GetByAccountID(ctx context.Context, accountID string) (*models.LockoutState, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, models.ErrNotFound
	}

	query := `SELECT ` + lockoutColumns + ` FROM account_lockout WHERE user_id = $1`
	return scanLockoutRow(r.pool.QueryRow(ctx, query, accountID))
}

// Unlock clears the counter and lock flag. Accounts without a lockout row are left untouched.
func (r *LockoutRepository) Unlock(ctx context.Context, accountID string) (*models.LockoutState, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, models.ErrNotFound
	}

	query := `
		UPDATE account_lockout
		SET failed_attempts = 0, locked = FALSE, unlock_time = NULL
		WHERE user_id = $1
		RETURNING ` + lockoutColumns

	return scanLockoutRow(r.pool.QueryRow(ctx, query, accountID))
}
