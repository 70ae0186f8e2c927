package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrUsernameTaken      = apperror.New(http.StatusConflict, "username already taken")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid username or password")
	ErrWrongPassword      = apperror.New(http.StatusBadRequest, "old password is incorrect")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "password is too short")
)

// Role is the closed set of hall staff roles. Authorization goes through
// the capability methods below, not string comparison at call sites.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleViewer:
		return true
	}
	return false
}

// CanManageBookings reports whether the role may approve, edit or cancel
// bookings for its hall.
func (r Role) CanManageBookings() bool {
	return r == RoleOwner || r == RoleManager
}

// CanEditHall reports whether the role may change hall details.
func (r Role) CanEditHall() bool {
	return r == RoleOwner
}

// CanViewAuditLog reports whether the role may read the hall's audit log.
func (r Role) CanViewAuditLog() bool {
	return r == RoleOwner
}

// User is a hall staff account or a site administrator.
// Site admins have no hall and no role.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	HallID       string
	IsSiteAdmin  bool
	CreatedAt    time.Time
}

// Filter defines filter options for listing users.
type Filter struct {
	HallID   string
	Page     int
	PageSize int
}
