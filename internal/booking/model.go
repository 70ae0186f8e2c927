package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrHallNotFound     = apperror.New(http.StatusNotFound, "hall not found")
	ErrSlotConflict     = apperror.New(http.StatusConflict, "this slot is already booked")
	ErrInvalidSlot      = apperror.New(http.StatusBadRequest, "time slot must be morning or evening")
	ErrInvalidDate      = apperror.New(http.StatusBadRequest, "invalid booking date")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrAlreadyCancelled = apperror.New(http.StatusConflict, "booking is already cancelled")

	// errCodeCollision signals a booking code clash; creation retries with
	// a fresh code.
	errCodeCollision = apperror.Conflict("booking code collision")
)

// Status is the booking lifecycle state. A slot is held while its booking
// is pending or approved; cancellation is the only terminal state and
// bookings are never deleted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the booking currently holds its slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Submitter is the public visitor who requested the booking.
type Submitter struct {
	Name     string
	Phone    string
	IDNumber string
}

// Booking is one hold on a (hall, date, slot) triple.
type Booking struct {
	ID   string
	Code string // short public booking code, unique

	HallID   string
	HallSlug string
	HallName string

	Date time.Time // calendar date at UTC midnight
	Slot hall.Slot

	Status Status

	UserName    string
	PhoneNumber string
	IDNumber    string

	CreatedAt time.Time
}

// Filter selects bookings for listing.
type Filter struct {
	HallID   string
	Status   Status
	Page     int
	PageSize int
}
