package model

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer or admin account. PasswordHash is never exposed
// in API responses.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	OrderCount   int       `json:"-"` // orders placed, drives new-user voucher eligibility
	CreatedAt    time.Time `json:"-"`
}

// RegisterRequest is the DTO for POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// LoginRequest is the DTO for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the DTO for POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UserListResponse is the paginated account list DTO for GET /api/users/all.
type UserListResponse struct {
	Users      []User `json:"users"`
	Page       int    `json:"page"`
	TotalDocs  int    `json:"total_docs"`
	TotalPages int    `json:"total_pages"`
}

// LoginResponse carries the authenticated user and their access token.
type LoginResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}
