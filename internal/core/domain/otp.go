package domain

import "time"

// OTPRecord is a one-time passcode issued to a user for email verification.
type OTPRecord struct {
	ID        string
	UserID    string
	Code      string
	CreatedAt time.Time
}

// Expired reports whether the record is older than ttl at now. A non-positive ttl never expires.
func (r OTPRecord) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return !now.Before(r.CreatedAt.Add(ttl))
}
