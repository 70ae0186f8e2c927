package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hall-booking-backend/internal/calendar"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
)

func TestStatusMaps(t *testing.T) {
	repo := newFakeRepository()
	day := func(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }

	repo.bookings["a"] = &Booking{ID: "a", HallID: "hall-1", Date: day(5), Slot: hall.SlotMorning, Status: StatusApproved}
	repo.bookings["b"] = &Booking{ID: "b", HallID: "hall-1", Date: day(6), Slot: hall.SlotMorning, Status: StatusPending}
	repo.bookings["c"] = &Booking{ID: "c", HallID: "hall-1", Date: day(5), Slot: hall.SlotEvening, Status: StatusPending}
	// Cancelled bookings never show up.
	repo.bookings["d"] = &Booking{ID: "d", HallID: "hall-1", Date: day(7), Slot: hall.SlotMorning, Status: StatusCancelled}
	// Other halls don't leak in.
	repo.bookings["e"] = &Booking{ID: "e", HallID: "hall-2", Date: day(8), Slot: hall.SlotMorning, Status: StatusApproved}

	svc := NewAvailabilityService(repo)
	maps, err := svc.StatusMaps(context.Background(), "hall-1", day(1), day(31))
	require.NoError(t, err)

	morning := maps[hall.SlotMorning]
	evening := maps[hall.SlotEvening]

	assert.Equal(t, calendar.StatusBooked, morning["2026-10-05"])
	assert.Equal(t, calendar.StatusPending, morning["2026-10-06"])
	assert.Equal(t, calendar.StatusPending, evening["2026-10-05"])

	_, ok := morning["2026-10-07"]
	assert.False(t, ok)
	_, ok = morning["2026-10-08"]
	assert.False(t, ok)
}

func TestStatusMapsApprovedWinsOverPending(t *testing.T) {
	repo := newFakeRepository()
	day := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	// Dirty data on the same slot must still render red, whichever row
	// comes back first.
	repo.bookings["p"] = &Booking{ID: "p", HallID: "hall-1", Date: day, Slot: hall.SlotMorning, Status: StatusPending}
	repo.bookings["a"] = &Booking{ID: "a", HallID: "hall-1", Date: day, Slot: hall.SlotMorning, Status: StatusApproved}

	svc := NewAvailabilityService(repo)
	maps, err := svc.StatusMaps(context.Background(), "hall-1", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, calendar.StatusBooked, maps[hall.SlotMorning]["2026-10-05"])
}

func TestStatusMapsDateRange(t *testing.T) {
	repo := newFakeRepository()
	day := func(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }

	repo.bookings["in"] = &Booking{ID: "in", HallID: "hall-1", Date: day(10), Slot: hall.SlotMorning, Status: StatusApproved}
	repo.bookings["out"] = &Booking{ID: "out", HallID: "hall-1", Date: day(31), Slot: hall.SlotMorning, Status: StatusApproved}

	svc := NewAvailabilityService(repo)
	maps, err := svc.StatusMaps(context.Background(), "hall-1", day(1), day(31))
	require.NoError(t, err)

	assert.Len(t, maps[hall.SlotMorning], 1)
	assert.Empty(t, maps[hall.SlotEvening])
}
