package domain

import "time"

// User is an account that can own tickets and, when IsAdmin is set, be assigned them.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsAdmin      bool
	IsActive     bool
	CreatedAt    time.Time
}

// FullName joins first and last name the way ticket views display people.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
