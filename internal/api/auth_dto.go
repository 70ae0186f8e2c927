package api

import (
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest is the payload for POST /v1/auth/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UserResponse is the shape of account data returned by the API.
type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role,omitempty"`
	HallID      string `json:"hall_id,omitempty"`
	IsSiteAdmin bool   `json:"is_site_admin"`
}

// LoginResponse is the response for POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// MeResponse is the response for GET /v1/me.
type MeResponse struct {
	User UserResponse `json:"user"`
}

// NewUserResponse converts a domain user into its API shape.
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Role:        string(u.Role),
		HallID:      u.HallID,
		IsSiteAdmin: u.IsSiteAdmin,
	}
}
