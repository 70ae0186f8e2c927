package booking

import (
	"context"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/calendar"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
)

// AvailabilityService turns a hall's active bookings into per-slot status
// maps for calendar rendering.
type AvailabilityService interface {
	// StatusMaps returns, for each slot, a map of ISO dates (YYYY-MM-DD) to
	// cell colors for bookings in [from, to). Dates without an active
	// booking are absent and render as free.
	StatusMaps(ctx context.Context, hallID string, from, to time.Time) (map[hall.Slot]map[string]calendar.DayStatus, error)
}

type availabilityService struct {
	repo Repository
}

func NewAvailabilityService(repo Repository) AvailabilityService {
	return &availabilityService{repo: repo}
}

func (s *availabilityService) StatusMaps(ctx context.Context, hallID string, from, to time.Time) (map[hall.Slot]map[string]calendar.DayStatus, error) {
	bookings, err := s.repo.ListActiveBetween(ctx, hallID, from, to)
	if err != nil {
		return nil, err
	}

	maps := map[hall.Slot]map[string]calendar.DayStatus{
		hall.SlotMorning: {},
		hall.SlotEvening: {},
	}

	for _, b := range bookings {
		slotMap, ok := maps[b.Slot]
		if !ok {
			continue
		}
		key := b.Date.Format("2006-01-02")

		// Approved always wins; pending never downgrades an approved day.
		switch b.Status {
		case StatusApproved:
			slotMap[key] = calendar.StatusBooked
		case StatusPending:
			if _, set := slotMap[key]; !set {
				slotMap[key] = calendar.StatusPending
			}
		}
	}

	return maps, nil
}
