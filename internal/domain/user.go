package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff account. Email is the login key.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	AvatarURL    string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Country      string    `json:"country,omitempty" db:"country"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsSuperuser  bool      `json:"is_superuser" db:"is_superuser"`
	Roles        []string  `json:"roles" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Identity builds the acting identity for this user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Superuser: u.IsSuperuser,
		Roles:     u.Roles,
	}
}
