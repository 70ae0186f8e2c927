package calendar

import (
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/pricing"
)

const dateLayout = "2006-01-02"

// DayStatus is the render color of a calendar cell.
type DayStatus string

const (
	StatusBooked  DayStatus = "red"    // approved booking holds the slot
	StatusPending DayStatus = "orange" // unconfirmed hold
	StatusFree    DayStatus = "green"  // available
)

// Cell is a single in-month day. Out-of-month positions in a week are nil.
type Cell struct {
	Day    int           `json:"day"`
	Date   string        `json:"date"`
	Status DayStatus     `json:"status"`
	Price  pricing.Price `json:"price"`
}

// Month is a render-ready month grid: Monday-first weeks of exactly 7 cells,
// padded with nils for days belonging to adjacent months.
type Month struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Weeks [][]*Cell `json:"weeks"`
}

// PriceFunc resolves the display price for an in-month day.
type PriceFunc func(date time.Time) pricing.Price

// BuildMonth builds the grid for one month. statuses maps ISO dates
// (YYYY-MM-DD) to a cell color; absent dates render green. priceFor may be
// nil, in which case every cell shows the not-available price.
//
// BuildMonth is a pure function of its inputs so a 12-month horizon can be
// rendered from a single pre-loaded status map.
func BuildMonth(year int, month time.Month, statuses map[string]DayStatus, priceFor PriceFunc) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	// Rewind to the Monday on or before the 1st.
	cursor := first.AddDate(0, 0, -mondayOffset(first))
	end := first.AddDate(0, 1, 0)

	var weeks [][]*Cell
	for cursor.Before(end) {
		week := make([]*Cell, 7)
		for i := 0; i < 7; i++ {
			day := cursor.AddDate(0, 0, i)
			if day.Month() != month {
				continue
			}

			status, ok := statuses[day.Format(dateLayout)]
			if !ok {
				status = StatusFree
			}

			price := pricing.NotAvailable
			if priceFor != nil {
				price = priceFor(day)
			}

			week[i] = &Cell{
				Day:    day.Day(),
				Date:   day.Format(dateLayout),
				Status: status,
				Price:  price,
			}
		}
		weeks = append(weeks, week)
		cursor = cursor.AddDate(0, 0, 7)
	}

	return Month{
		Year:  year,
		Month: int(month),
		Weeks: weeks,
	}
}

// mondayOffset returns how many days t is past the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
