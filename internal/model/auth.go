package model

import (
	"slices"
	"time"
)

const RoleAdmin = "admin"

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=128"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// AuthUser is the request-scoped principal established by the auth
// middleware. It is decoded from token claims only; no DB lookup happens
// per request.
type AuthUser struct {
	ID       int64
	Username string
	Roles    []string
}

func (u *AuthUser) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DisabledAt   *time.Time
}

// PublicUser is the client-facing representation. The password hash is
// deliberately absent from the type, not just tagged out.
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	Disabled  bool      `json:"disabled"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
		Disabled:  u.DisabledAt != nil,
	}
}
