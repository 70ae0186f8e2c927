package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hall-booking-backend/internal/pricing"
)

func TestBuildMonthGridShape(t *testing.T) {
	// September 2026 starts on a Tuesday and ends on a Wednesday.
	m := BuildMonth(2026, time.September, nil, nil)

	assert.Equal(t, 2026, m.Year)
	assert.Equal(t, 9, m.Month)
	require.Len(t, m.Weeks, 5)

	for i, week := range m.Weeks {
		assert.Len(t, week, 7, "week %d", i)
	}

	// Monday before the 1st is out of month.
	assert.Nil(t, m.Weeks[0][0])
	require.NotNil(t, m.Weeks[0][1])
	assert.Equal(t, 1, m.Weeks[0][1].Day)
	assert.Equal(t, "2026-09-01", m.Weeks[0][1].Date)

	// The 30th is the Wednesday of the last week; the rest is padding.
	last := m.Weeks[4]
	require.NotNil(t, last[2])
	assert.Equal(t, 30, last[2].Day)
	for i := 3; i < 7; i++ {
		assert.Nil(t, last[i], "cell %d", i)
	}
}

func TestBuildMonthStartingOnMonday(t *testing.T) {
	// June 2026 starts on a Monday: no leading padding.
	m := BuildMonth(2026, time.June, nil, nil)

	require.NotEmpty(t, m.Weeks)
	require.NotNil(t, m.Weeks[0][0])
	assert.Equal(t, 1, m.Weeks[0][0].Day)
}

func TestBuildMonthStatuses(t *testing.T) {
	statuses := map[string]DayStatus{
		"2026-09-10": StatusBooked,
		"2026-09-11": StatusPending,
	}

	m := BuildMonth(2026, time.September, statuses, nil)

	byDate := make(map[string]*Cell)
	for _, week := range m.Weeks {
		for _, cell := range week {
			if cell != nil {
				byDate[cell.Date] = cell
			}
		}
	}

	assert.Equal(t, StatusBooked, byDate["2026-09-10"].Status)
	assert.Equal(t, StatusPending, byDate["2026-09-11"].Status)
	assert.Equal(t, StatusFree, byDate["2026-09-12"].Status)
}

func TestBuildMonthPrices(t *testing.T) {
	priceFor := func(date time.Time) pricing.Price {
		if date.Day() == 10 {
			return pricing.PriceOf(1200)
		}
		return pricing.NotAvailable
	}

	m := BuildMonth(2026, time.September, nil, priceFor)

	for _, week := range m.Weeks {
		for _, cell := range week {
			if cell == nil {
				continue
			}
			if cell.Day == 10 {
				assert.Equal(t, pricing.PriceOf(1200), cell.Price)
			} else {
				assert.Equal(t, pricing.NotAvailable, cell.Price)
			}
		}
	}
}

func TestBuildMonthNilPriceFunc(t *testing.T) {
	m := BuildMonth(2026, time.September, nil, nil)

	require.NotNil(t, m.Weeks[0][1])
	assert.Equal(t, pricing.NotAvailable, m.Weeks[0][1].Price)
}
