package model

import "time"

// User represents a user in the database.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the session-carried view of a user. It never holds the password hash.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity returns the session view of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Credentials is the raw, untrusted sign-in input.
type Credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by sign-in and the session endpoint.
type SessionResponse struct {
	User      Identity  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
