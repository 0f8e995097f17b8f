package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Nama         string    `json:"nama"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	NoTelp       string    `json:"no_telp"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ProfileUpdate holds the optional profile fields a user may change.
type ProfileUpdate struct {
	Nama         *string
	Email        *string
	NoTelp       *string
	PasswordHash *string
}
