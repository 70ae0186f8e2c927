package http

import (
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
)

// CreateBookingBody is the public booking submission payload.
type CreateBookingBody struct {
	Date     string `json:"date" binding:"required"`
	Slot     string `json:"slot" binding:"required,oneof=morning evening"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Phone    string `json:"phone" binding:"required,min=5,max=30"`
	IDNumber string `json:"id_number" binding:"required,min=4,max=30"`
}

// UpdateBookingBody carries staff edits. Absent fields keep current values.
type UpdateBookingBody struct {
	Date     string `json:"date"`
	Slot     string `json:"slot" binding:"omitempty,oneof=morning evening"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IDNumber string `json:"id_number"`
}

// ListBookingsRequest defines query parameters for the dashboard list.
type ListBookingsRequest struct {
	request.ListParams
	HallID string `form:"hall_id" binding:"omitempty,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=pending approved cancelled"`
}

type BookingResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	HallSlug  string    `json:"hall_slug"`
	HallName  string    `json:"hall_name"`
	Date      string    `json:"date"`
	Slot      string    `json:"slot"`
	Status    string    `json:"status"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IDNumber  string    `json:"id_number"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		Code:      b.Code,
		HallSlug:  b.HallSlug,
		HallName:  b.HallName,
		Date:      b.Date.Format("2006-01-02"),
		Slot:      string(b.Slot),
		Status:    string(b.Status),
		Name:      b.UserName,
		Phone:     b.PhoneNumber,
		IDNumber:  b.IDNumber,
		CreatedAt: b.CreatedAt,
	}
}

// PublicBookingResponse is the lookup-by-code view. It omits the internal
// ID and the submitter's ID number.
type PublicBookingResponse struct {
	Code      string    `json:"code"`
	HallSlug  string    `json:"hall_slug"`
	HallName  string    `json:"hall_name"`
	Date      string    `json:"date"`
	Slot      string    `json:"slot"`
	Status    string    `json:"status"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPublicBookingResponse(b *booking.Booking) PublicBookingResponse {
	return PublicBookingResponse{
		Code:      b.Code,
		HallSlug:  b.HallSlug,
		HallName:  b.HallName,
		Date:      b.Date.Format("2006-01-02"),
		Slot:      string(b.Slot),
		Status:    string(b.Status),
		Name:      b.UserName,
		CreatedAt: b.CreatedAt,
	}
}
