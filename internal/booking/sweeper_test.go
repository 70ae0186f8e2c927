package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
)

func newTestSweeper(repo *fakeRepository, now time.Time) *Sweeper {
	s := NewSweeper(repo, observability.NewLogger())
	s.now = func() time.Time { return now }
	return s
}

func addPending(repo *fakeRepository, id string, createdAt time.Time) {
	repo.bookings[id] = &Booking{
		ID:        id,
		HallID:    "hall-1",
		Date:      time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		Slot:      hall.SlotMorning,
		Status:    StatusPending,
		CreatedAt: createdAt,
	}
}

func TestSweeperExpiresStalePending(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	addPending(repo, "stale", now.Add(-25*time.Hour))
	addPending(repo, "fresh", now.Add(-1*time.Hour))

	sweeper := newTestSweeper(repo, now)

	expired, err := sweeper.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	assert.Equal(t, StatusCancelled, repo.bookings["stale"].Status)
	assert.Equal(t, StatusPending, repo.bookings["fresh"].Status)
}

func TestSweeperRunsOncePerDay(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	sweeper := newTestSweeper(repo, now)

	_, err := sweeper.RunIfDue(context.Background())
	require.NoError(t, err)
	_, err = sweeper.RunIfDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.expireCalls)

	// The next day it runs again.
	sweeper.now = func() time.Time { return now.AddDate(0, 0, 1) }
	_, err = sweeper.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.expireCalls)
}

func TestSweeperRetriesAfterFailure(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.expireErr = errors.New("db down")
	sweeper := newTestSweeper(repo, now)

	_, err := sweeper.RunIfDue(context.Background())
	require.Error(t, err)

	// A failed sweep does not burn the day.
	repo.expireErr = nil
	_, err = sweeper.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.expireCalls)
}

func TestSweeperConcurrentRequestsSweepOnce(t *testing.T) {
	now := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	sweeper := newTestSweeper(repo, now)

	// Only the CAS winner may reach the repository.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sweeper.RunIfDue(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.expireCalls)
}
