package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
	"github.com/nekogravitycat/hall-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// bookingCodeLength is the length of the short public booking code.
const bookingCodeLength = 10

// maxCodeAttempts bounds how many fresh codes creation tries before giving up.
const maxCodeAttempts = 5

// HallDirectory is the slice of the hall service the booking service needs.
type HallDirectory interface {
	GetBySlug(ctx context.Context, slug string) (*hall.Hall, error)
}

// CreateRequest is a public booking submission.
type CreateRequest struct {
	HallSlug  string
	Date      string // YYYY-MM-DD
	Slot      string
	Submitter Submitter
}

// UpdateRequest carries staff edits to a booking. Status transitions go
// through Approve and Cancel, not here.
type UpdateRequest struct {
	Date      string
	Slot      string
	Submitter Submitter
}

type Service interface {
	// Create places a pending hold on the requested slot. A losing race on
	// the same slot returns ErrSlotConflict.
	Create(ctx context.Context, req CreateRequest) (*Booking, error)

	// GetByCode looks up a booking by its public code. No authentication.
	GetByCode(ctx context.Context, code string) (*Booking, error)

	GetByID(ctx context.Context, id string, actor auth.Actor) (*Booking, error)

	// List returns bookings visible to the actor. Hall staff only ever see
	// their own hall regardless of the requested filter.
	List(ctx context.Context, filter Filter, actor auth.Actor) ([]*Booking, int, error)

	// Approve confirms a pending booking. Approving an approved booking is
	// a no-op; a cancelled booking cannot be approved.
	Approve(ctx context.Context, id string, actor auth.Actor) (*Booking, error)

	// Cancel releases the slot. Cancelling a cancelled booking is a no-op.
	Cancel(ctx context.Context, id string, actor auth.Actor) (*Booking, error)

	// Update edits the booking's slot and submitter details.
	Update(ctx context.Context, id string, req UpdateRequest, actor auth.Actor) (*Booking, error)
}

type service struct {
	repo   Repository
	halls  HallDirectory
	logger observability.Logger
}

func NewService(repo Repository, halls HallDirectory, logger observability.Logger) Service {
	return &service{
		repo:   repo,
		halls:  halls,
		logger: logger,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	slot := hall.Slot(req.Slot)
	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}

	date, err := pricing.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	h, err := s.halls.GetBySlug(ctx, req.HallSlug)
	if err != nil {
		if errors.Is(err, hall.ErrNotFound) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}

	// Cheap pre-check for the common case; the insert's conflict guard is
	// what actually decides a race.
	taken, err := s.repo.HasActive(ctx, h.ID, date, slot, "")
	if err != nil {
		return nil, err
	}
	if taken {
		observability.BookingConflicts.Inc()
		return nil, ErrSlotConflict
	}

	b := &Booking{
		HallID:      h.ID,
		HallSlug:    h.Slug,
		HallName:    h.Name,
		Date:        date,
		Slot:        slot,
		Status:      StatusPending,
		UserName:    strings.TrimSpace(req.Submitter.Name),
		PhoneNumber: strings.TrimSpace(req.Submitter.Phone),
		IDNumber:    strings.TrimSpace(req.Submitter.IDNumber),
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		b.Code = newBookingCode()

		err = s.repo.Create(ctx, b)
		if err == nil {
			observability.BookingsCreated.Inc()
			s.logger.WithFields(map[string]interface{}{
				"hall": h.Slug,
				"date": req.Date,
				"slot": string(slot),
				"code": b.Code,
			}).Info("booking created")
			return b, nil
		}
		if errors.Is(err, ErrSlotConflict) {
			observability.BookingConflicts.Inc()
			return nil, ErrSlotConflict
		}
		if !errors.Is(err, errCodeCollision) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("could not generate a unique booking code after %d attempts", maxCodeAttempts)
}

func (s *service) GetByCode(ctx context.Context, code string) (*Booking, error) {
	return s.repo.GetByCode(ctx, strings.TrimSpace(code))
}

func (s *service) GetByID(ctx context.Context, id string, actor auth.Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, b) {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter, actor auth.Actor) ([]*Booking, int, error) {
	if !actor.IsSiteAdmin {
		if actor.HallID == "" {
			return nil, 0, ErrPermissionDenied
		}
		filter.HallID = actor.HallID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Approve(ctx context.Context, id string, actor auth.Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, b) {
		return nil, ErrPermissionDenied
	}

	switch b.Status {
	case StatusApproved:
		return b, nil
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	}

	b.Status = StatusApproved
	entry := &audit.Entry{
		HallID:   b.HallID,
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   audit.ActionBookingApprove,
		Details:  fmt.Sprintf("Approved booking %s (%s, %s)", b.Code, b.Date.Format("2006-01-02"), b.Slot),
	}
	if err := s.repo.UpdateWithAudit(ctx, b, entry); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, id string, actor auth.Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, b) {
		return nil, ErrPermissionDenied
	}

	if b.Status == StatusCancelled {
		return b, nil
	}

	b.Status = StatusCancelled
	entry := &audit.Entry{
		HallID:   b.HallID,
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   audit.ActionBookingCancel,
		Details:  fmt.Sprintf("Cancelled booking %s (%s, %s)", b.Code, b.Date.Format("2006-01-02"), b.Slot),
	}
	if err := s.repo.UpdateWithAudit(ctx, b, entry); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, actor auth.Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, b) {
		return nil, ErrPermissionDenied
	}

	changed := []string{}

	if req.Date != "" {
		date, err := pricing.ParseDate(req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		if !date.Equal(b.Date) {
			b.Date = date
			changed = append(changed, "date")
		}
	}
	if req.Slot != "" {
		slot := hall.Slot(req.Slot)
		if !slot.Valid() {
			return nil, ErrInvalidSlot
		}
		if slot != b.Slot {
			b.Slot = slot
			changed = append(changed, "slot")
		}
	}
	if req.Submitter.Name != "" {
		b.UserName = strings.TrimSpace(req.Submitter.Name)
		changed = append(changed, "name")
	}
	if req.Submitter.Phone != "" {
		b.PhoneNumber = strings.TrimSpace(req.Submitter.Phone)
		changed = append(changed, "phone")
	}
	if req.Submitter.IDNumber != "" {
		b.IDNumber = strings.TrimSpace(req.Submitter.IDNumber)
		changed = append(changed, "id number")
	}

	if len(changed) == 0 {
		return b, nil
	}

	// Moving an active booking must not land on an occupied slot. The
	// partial index backs this up inside the update transaction.
	if b.Status.Active() {
		taken, err := s.repo.HasActive(ctx, b.HallID, b.Date, b.Slot, b.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSlotConflict
		}
	}

	entry := &audit.Entry{
		HallID:   b.HallID,
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   audit.ActionBookingEdited,
		Details:  fmt.Sprintf("Edited booking %s: %s", b.Code, strings.Join(changed, ", ")),
	}
	if err := s.repo.UpdateWithAudit(ctx, b, entry); err != nil {
		return nil, err
	}
	return b, nil
}

func canView(actor auth.Actor, b *Booking) bool {
	if actor.IsSiteAdmin {
		return true
	}
	return actor.HallID == b.HallID
}

func canManage(actor auth.Actor, b *Booking) bool {
	if actor.IsSiteAdmin {
		return true
	}
	return actor.HallID == b.HallID && user.Role(actor.Role).CanManageBookings()
}

func newBookingCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:bookingCodeLength]
}
