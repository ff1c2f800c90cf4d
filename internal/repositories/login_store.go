package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rosterline/rosterauth/internal/database"
	"github.com/rosterline/rosterauth/internal/models"
)

const lockoutColumns = `user_id, failed_attempts, locked, unlock_time, last_failed_ip, last_failed_time`

// LockoutTx is the view of one account's lockout row held under a row lock
// for the duration of a login attempt.
type LockoutTx interface {
	// State returns the lockout row as of the last read or write in this transaction.
	State() models.LockoutState
	Reset(ctx context.Context) error
	RecordFailure(ctx context.Context, failure models.LockoutFailure) (models.LockoutState, error)
	AppendAuthLog(ctx context.Context, entry *models.AuthLogEntry) error
}

// LoginStore runs the credential-store side of a login attempt.
type LoginStore struct {
	db *database.DB
}

func NewLoginStore(db *database.DB) *LoginStore {
	return &LoginStore{db: db}
}

func (s *LoginStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return getAccountByEmail(ctx, s.db.Pool, email)
}

// WithLockout creates the lockout row if absent, locks it FOR UPDATE and runs fn.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *LoginStore) WithLockout(ctx context.Context, accountID string, fn func(LockoutTx) error) error {
	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO account_lockout (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
			accountID,
		)
		if err != nil {
			return fmt.Errorf("failed to ensure lockout row: %w", err)
		}

		query := `SELECT ` + lockoutColumns + ` FROM account_lockout WHERE user_id = $1 FOR UPDATE`
		state, err := scanLockoutRow(tx.QueryRow(ctx, query, accountID))
		if err != nil {
			return fmt.Errorf("failed to lock lockout row: %w", err)
		}

		return fn(&lockoutTx{tx: tx, state: *state})
	})
}

type lockoutTx struct {
	tx    pgx.Tx
	state models.LockoutState
}

func (l *lockoutTx) State() models.LockoutState {
	return l.state
}

func (l *lockoutTx) Reset(ctx context.Context) error {
	query := `
		UPDATE account_lockout
		SET failed_attempts = 0, locked = FALSE, unlock_time = NULL
		WHERE user_id = $1
		RETURNING ` + lockoutColumns

	state, err := scanLockoutRow(l.tx.QueryRow(ctx, query, l.state.AccountID))
	if err != nil {
		return fmt.Errorf("failed to reset lockout: %w", err)
	}
	l.state = *state
	return nil
}

// RecordFailure increments the counter and decides the lock in one statement,
// so the threshold check always sees the incremented value.
func (l *lockoutTx) RecordFailure(ctx context.Context, failure models.LockoutFailure) (models.LockoutState, error) {
	query := `
		UPDATE account_lockout
		SET failed_attempts  = failed_attempts + 1,
		    last_failed_ip   = $2,
		    last_failed_time = $3,
		    locked           = (failed_attempts + 1 >= $4),
		    unlock_time      = CASE WHEN failed_attempts + 1 >= $4 THEN $5::timestamptz ELSE unlock_time END
		WHERE user_id = $1
		RETURNING ` + lockoutColumns

	state, err := scanLockoutRow(l.tx.QueryRow(ctx, query,
		l.state.AccountID, failure.IPAddress, failure.At, failure.MaxAttempts, failure.UnlockAt,
	))
	if err != nil {
		return models.LockoutState{}, fmt.Errorf("failed to record failed attempt: %w", err)
	}
	l.state = *state
	return *state, nil
}

func (l *lockoutTx) AppendAuthLog(ctx context.Context, entry *models.AuthLogEntry) error {
	return insertAuthLog(ctx, l.tx, entry)
}

func scanLockoutRow(scanner rowScanner) (*models.LockoutState, error) {
	var state models.LockoutState

	err := scanner.Scan(
		&state.AccountID, &state.FailedAttempts, &state.Locked,
		&state.UnlockTime, &state.LastFailedIP, &state.LastFailedTime,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &state, nil
}
