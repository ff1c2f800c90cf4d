package models

import (
	"fmt"
	"time"
)

// AuthOutcome is the closed set of results a login attempt can produce.
type AuthOutcome int

const (
	OutcomeUnknown AuthOutcome = iota
	OutcomeAuthenticated
	OutcomeAccountNotFound
	OutcomeAccountLocked
	OutcomeAccountLockedJustNow
	OutcomeInvalidPassword
)

// String returns the machine-readable outcome code.
func (o AuthOutcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeAccountNotFound:
		return "account_not_found"
	case OutcomeAccountLocked:
		return "account_locked"
	case OutcomeAccountLockedJustNow:
		return "account_locked_just_now"
	case OutcomeInvalidPassword:
		return "invalid_password"
	default:
		return "unknown"
	}
}

// AuthResult is the outcome of one login attempt.
// Identity is set only for OutcomeAuthenticated; UnlockTime only for the two locked outcomes.
type AuthResult struct {
	Outcome    AuthOutcome
	Identity   *Identity
	UnlockTime *time.Time
}

func Authenticated(identity *Identity) AuthResult {
	return AuthResult{Outcome: OutcomeAuthenticated, Identity: identity}
}

func AccountNotFound() AuthResult {
	return AuthResult{Outcome: OutcomeAccountNotFound}
}

func AccountLocked(unlockTime time.Time) AuthResult {
	return AuthResult{Outcome: OutcomeAccountLocked, UnlockTime: &unlockTime}
}

func AccountLockedJustNow(unlockTime time.Time) AuthResult {
	return AuthResult{Outcome: OutcomeAccountLockedJustNow, UnlockTime: &unlockTime}
}

func InvalidPassword() AuthResult {
	return AuthResult{Outcome: OutcomeInvalidPassword}
}

// Succeeded reports whether the attempt authenticated the caller.
func (r AuthResult) Succeeded() bool {
	return r.Outcome == OutcomeAuthenticated
}

// Message returns the human-readable message shown to the caller and stored in the audit log.
func (r AuthResult) Message() string {
	switch r.Outcome {
	case OutcomeAuthenticated:
		return "Login successful"
	case OutcomeAccountNotFound:
		return "Account with email does not exist"
	case OutcomeAccountLocked:
		return fmt.Sprintf("Account is locked until %s", formatUnlock(r.UnlockTime))
	case OutcomeAccountLockedJustNow:
		return fmt.Sprintf("Account locked due to too many failed attempts. Unlock at %s", formatUnlock(r.UnlockTime))
	case OutcomeInvalidPassword:
		return "Invalid password"
	default:
		return "Login failed"
	}
}

func formatUnlock(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
