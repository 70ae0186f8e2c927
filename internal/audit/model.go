package audit

import "time"

// Well-known action names recorded in the audit log.
const (
	ActionHallCreated    = "Hall Created"
	ActionHallEdited     = "Edit Hall"
	ActionBookingEdited  = "Edit Booking"
	ActionBookingApprove = "Approve Booking"
	ActionBookingCancel  = "Cancel Booking"
	ActionPasswordChange = "Change Password"
)

// Entry is one immutable audit record. Entries are only ever appended,
// in the same transaction as the mutation they describe.
type Entry struct {
	ID        string
	HallID    string
	UserID    string
	Username  string
	Action    string
	Details   string
	Timestamp time.Time
}

// Filter selects entries for listing. A zero HallID means all halls
// (site admin view).
type Filter struct {
	HallID   string
	Page     int
	PageSize int
}
