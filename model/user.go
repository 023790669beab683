package model

import "time"

// User is an account record as stored in the users table.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Fullname     string    `json:"fullname"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	WatchHistory []string  `json:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the outward projection of a User: no password digest, no refresh credential.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Fullname   string    `json:"fullname"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public strips the secret fields of u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Fullname:   u.Fullname,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// OwnerSummary is the reduced account projection embedded in watch-history entries.
type OwnerSummary struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}
