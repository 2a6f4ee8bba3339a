package auth

import "time"

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	TOTPSecret   string
	CreatedAt    time.Time
}

// MFAEnrolled reports whether sign-in requires a one-time code.
func (a *Admin) MFAEnrolled() bool {
	return a.TOTPSecret != ""
}
