package model

import "time"

// PasswordResetToken is a single-use token row for the password reset flow.
// It is deleted on successful consumption or when found expired.
type PasswordResetToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
}
