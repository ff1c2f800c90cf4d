package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rosterline/rosterauth/internal/models"
	"github.com/rosterline/rosterauth/internal/repositories"
	pkgauth "github.com/rosterline/rosterauth/pkg/auth"
	pkglogger "github.com/rosterline/rosterauth/pkg/logger"
)

// LoginStore is the credential store as seen by a login attempt.
type LoginStore interface {
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	WithLockout(ctx context.Context, accountID string, fn func(repositories.LockoutTx) error) error
}

// PasswordVerifier reports whether password matches a stored hash.
type PasswordVerifier func(password, encodedHash string) (bool, error)

// LockoutPolicy decides when consecutive failures lock an account and for how long.
type LockoutPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// Authenticator decides login attempts and maintains per-account lockout state.
type Authenticator struct {
	store       LoginStore
	verify      PasswordVerifier
	policy      LockoutPolicy
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

type AuthenticatorOption func(*Authenticator)

// WithClock replaces the wall clock used for lockout decisions.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) { a.now = now }
}

func WithPasswordVerifier(verify PasswordVerifier) AuthenticatorOption {
	return func(a *Authenticator) { a.verify = verify }
}

func NewAuthenticator(store LoginStore, policy LockoutPolicy, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		store:       store,
		verify:      pkgauth.VerifyPassword,
		policy:      policy,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AttemptLogin checks one email/password pair and updates the account's lockout state.
//
// The returned error is non-nil only when the credential store failed; it wraps
// models.ErrStoreUnavailable and the result must not be read as a credential decision.
// Every other outcome, including unknown accounts and lockouts, is reported in the result.
func (a *Authenticator) AttemptLogin(ctx context.Context, email, password, originAddress, deviceFingerprint string) (models.AuthResult, error) {
	account, err := a.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		result := models.AccountNotFound()
		a.audit(ctx, result, "", email, originAddress, deviceFingerprint)
		return result, nil
	}
	if err != nil {
		a.logger.Error("account lookup failed", slog.Any("error", err))
		return models.AuthResult{}, fmt.Errorf("%w: account lookup: %w", models.ErrStoreUnavailable, err)
	}

	var result models.AuthResult
	err = a.store.WithLockout(ctx, account.ID, func(tx repositories.LockoutTx) error {
		var txErr error
		result, txErr = a.decide(ctx, tx, account, password, originAddress)
		if txErr != nil {
			return txErr
		}
		return tx.AppendAuthLog(ctx, newAuthLogEntry(account.ID, originAddress, deviceFingerprint, result, a.now()))
	})
	if err != nil {
		a.logger.Error("login transaction failed", slog.String("account_id", account.ID), slog.Any("error", err))
		return models.AuthResult{}, fmt.Errorf("%w: login transaction: %w", models.ErrStoreUnavailable, err)
	}

	a.audit(ctx, result, account.ID, email, originAddress, deviceFingerprint)
	return result, nil
}

// decide runs with the lockout row locked. Writes made here commit together with the auth log entry.
func (a *Authenticator) decide(ctx context.Context, tx repositories.LockoutTx, account *models.Account, password, originAddress string) (models.AuthResult, error) {
	now := a.now()
	state := tx.State()

	if state.Locked {
		if state.LockedAt(now) {
			return models.AccountLocked(*state.UnlockTime), nil
		}
		if err := tx.Reset(ctx); err != nil {
			return models.AuthResult{}, err
		}
	}

	matched, err := a.verify(password, account.PasswordHash)
	if err != nil {
		a.logger.Error("stored password hash is unreadable",
			slog.String("account_id", account.ID),
			slog.Any("error", err))
		matched = false
	}

	if matched {
		if err := tx.Reset(ctx); err != nil {
			return models.AuthResult{}, err
		}
		return models.Authenticated(account.Identity()), nil
	}

	unlockAt := now.Add(a.policy.LockoutDuration)
	updated, err := tx.RecordFailure(ctx, models.LockoutFailure{
		IPAddress:   originAddress,
		At:          now,
		MaxAttempts: a.policy.MaxAttempts,
		UnlockAt:    unlockAt,
	})
	if err != nil {
		return models.AuthResult{}, err
	}

	if updated.Locked {
		if updated.UnlockTime != nil {
			unlockAt = *updated.UnlockTime
		}
		return models.AccountLockedJustNow(unlockAt), nil
	}
	return models.InvalidPassword(), nil
}

func newAuthLogEntry(accountID, originAddress, deviceFingerprint string, result models.AuthResult, at time.Time) *models.AuthLogEntry {
	entry := &models.AuthLogEntry{
		AccountID:   &accountID,
		IPAddress:   originAddress,
		Fingerprint: deviceFingerprint,
		Success:     result.Succeeded(),
		CreatedAt:   at,
	}
	if !result.Succeeded() {
		msg := result.Message()
		entry.ErrorMessage = &msg
	}
	return entry
}

func (a *Authenticator) audit(ctx context.Context, result models.AuthResult, accountID, email, originAddress, deviceFingerprint string) {
	if a.auditLogger == nil {
		return
	}

	eventType := "login_failed"
	if result.Succeeded() {
		eventType = "login_success"
	}

	a.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:   eventType,
		AccountID:   accountID,
		Email:       email,
		IPAddress:   originAddress,
		Fingerprint: deviceFingerprint,
		Outcome:     result.Outcome.String(),
		Success:     result.Succeeded(),
	})
}
