package booking

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
)

// pendingTTL is how long a pending booking holds its slot before the sweep
// cancels it.
const pendingTTL = 24 * time.Hour

// Sweeper expires stale pending bookings at most once per UTC day. The
// first request of a new day triggers the sweep; concurrent requests race
// on an atomic day counter so only one of them runs it.
type Sweeper struct {
	repo   Repository
	logger observability.Logger

	// lastRun holds the UTC day number of the last sweep.
	lastRun atomic.Int64

	now func() time.Time // injectable clock
}

func NewSweeper(repo Repository, logger observability.Logger) *Sweeper {
	return &Sweeper{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// RunIfDue sweeps if no sweep has run today. Returns how many bookings were
// expired, or 0 when the sweep was skipped.
func (s *Sweeper) RunIfDue(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	today := dayNumber(now)

	last := s.lastRun.Load()
	if last >= today || !s.lastRun.CompareAndSwap(last, today) {
		return 0, nil
	}

	expired, err := s.repo.ExpirePending(ctx, now.Add(-pendingTTL))
	if err != nil {
		// Give the next request a chance to retry today.
		s.lastRun.CompareAndSwap(today, last)
		return 0, err
	}

	if expired > 0 {
		observability.BookingsExpired.Add(float64(expired))
		s.logger.WithField("expired", expired).Info("expired stale pending bookings")
	}
	return expired, nil
}

// Middleware runs the daily sweep before request handling. Sweep failures
// are logged and never fail the request.
func (s *Sweeper) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.RunIfDue(c.Request.Context()); err != nil {
			s.logger.WithField("error", err.Error()).Error("booking expiry sweep failed")
		}
		c.Next()
	}
}

func dayNumber(t time.Time) int64 {
	return t.Unix() / (24 * 60 * 60)
}
