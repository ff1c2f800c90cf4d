package models

import "time"

// LockoutState tracks consecutive failed logins for one account.
// A row is created lazily on the first login attempt and is never deleted by the login flow.
type LockoutState struct {
	AccountID      string     `json:"account_id"`
	FailedAttempts int        `json:"failed_attempts"`
	Locked         bool       `json:"locked"`
	UnlockTime     *time.Time `json:"unlock_time,omitempty"`
	LastFailedIP   *string    `json:"last_failed_ip,omitempty"`
	LastFailedTime *time.Time `json:"last_failed_time,omitempty"`
}

// LockedAt reports whether the lockout is still in force at now.
// A locked row without an unlock time is treated as expired.
func (s *LockoutState) LockedAt(now time.Time) bool {
	return s.Locked && s.UnlockTime != nil && s.UnlockTime.After(now)
}

// LockoutFailure describes one failed attempt to be applied atomically to a LockoutState.
type LockoutFailure struct {
	IPAddress   string
	At          time.Time
	MaxAttempts int
	UnlockAt    time.Time
}
