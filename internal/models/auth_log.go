package models

import "time"

// AuthLogEntry is an append-only record of one login attempt.
type AuthLogEntry struct {
	ID           string    `json:"id"`
	AccountID    *string   `json:"account_id,omitempty"`
	IPAddress    string    `json:"ip_address"`
	Fingerprint  string    `json:"fingerprint"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
