package pricing

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date (YYYY-MM-DD) at UTC midnight, the
// normal form used by rulesets and booking dates throughout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// Price is the resolved per-day price for a slot. Unavailable prices
// marshal as the "N/A" sentinel the calendar frontend expects.
type Price struct {
	Amount    float64
	Available bool
}

// NotAvailable is the sentinel returned when no rule covers a date.
var NotAvailable = Price{}

// PriceOf wraps an amount in an available Price.
func PriceOf(amount float64) Price {
	return Price{Amount: amount, Available: true}
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Available {
		return json.Marshal("N/A")
	}
	return json.Marshal(p.Amount)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var amount float64
	if err := json.Unmarshal(data, &amount); err == nil {
		*p = PriceOf(amount)
		return nil
	}
	*p = NotAvailable
	return nil
}

// Interval prices a date range with one price per weekday (Mon=0 .. Sun=6).
// A Prices list of any length other than 7 never matches; resolution falls
// through to the next interval.
type Interval struct {
	Start  time.Time
	End    time.Time
	Prices []float64
}

// Override pins a single date to a scalar price or a 7-element weekday table.
type Override struct {
	Date    time.Time
	Scalar  *float64
	Weekday []float64
}

// RuleSet is the parsed, per-hall per-slot pricing configuration.
// Interval declaration order is significant: the first matching
// well-formed interval wins.
type RuleSet struct {
	intervals []Interval
	overrides map[string]Override
}

// rawRuleSet mirrors the stored JSON document. Slot-specific key variants
// ("morning_prices", "evening_price", ...) coexist with the generic ones.
type rawRuleSet struct {
	Intervals []rawInterval `json:"intervals"`
	Overrides []rawOverride `json:"overrides"`
}

type rawInterval struct {
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Prices        []float64 `json:"prices"`
	MorningPrices []float64 `json:"morning_prices"`
	EveningPrices []float64 `json:"evening_prices"`
}

type rawOverride struct {
	Date         string    `json:"date"`
	Price        *float64  `json:"price"`
	Prices       []float64 `json:"prices"`
	MorningPrice *float64  `json:"morning_price"`
	EveningPrice *float64  `json:"evening_price"`
}

// ParseRuleSet parses a stored pricing document for the given slot
// ("morning" or "evening"). Malformed entries are dropped; only a document
// that is not valid JSON at all yields an error. An empty or nil document
// parses to a ruleset that resolves everything to NotAvailable.
func ParseRuleSet(raw []byte, slot string) (RuleSet, error) {
	rs := RuleSet{overrides: make(map[string]Override)}

	if len(raw) == 0 {
		return rs, nil
	}

	var doc rawRuleSet
	if err := json.Unmarshal(raw, &doc); err != nil {
		return rs, fmt.Errorf("invalid pricing document: %w", err)
	}

	for _, ri := range doc.Intervals {
		start, err := time.Parse(dateLayout, ri.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse(dateLayout, ri.EndDate)
		if err != nil {
			continue
		}

		prices := ri.Prices
		if prices == nil {
			switch slot {
			case "morning":
				prices = ri.MorningPrices
			case "evening":
				prices = ri.EveningPrices
			}
		}

		rs.intervals = append(rs.intervals, Interval{Start: start, End: end, Prices: prices})
	}

	for _, ro := range doc.Overrides {
		date, err := time.Parse(dateLayout, ro.Date)
		if err != nil {
			continue
		}

		o := Override{Date: date}
		switch {
		case ro.Price != nil:
			o.Scalar = ro.Price
		case len(ro.Prices) == 7:
			o.Weekday = ro.Prices
		case slot == "morning" && ro.MorningPrice != nil:
			o.Scalar = ro.MorningPrice
		case slot == "evening" && ro.EveningPrice != nil:
			o.Scalar = ro.EveningPrice
		default:
			// No usable price for this slot; drop the entry.
			continue
		}

		// Later declarations of the same date replace earlier ones.
		rs.overrides[date.Format(dateLayout)] = o
	}

	return rs, nil
}

// Resolve returns the price for date. Overrides win over intervals; within
// intervals the first one containing the date whose weekday table has exactly
// 7 entries wins. Resolve never fails: uncovered dates yield NotAvailable.
func (rs RuleSet) Resolve(date time.Time) Price {
	if o, ok := rs.overrides[date.Format(dateLayout)]; ok {
		if o.Scalar != nil {
			return PriceOf(*o.Scalar)
		}
		return PriceOf(o.Weekday[mondayIndexed(date)])
	}

	for _, interval := range rs.intervals {
		if date.Before(interval.Start) || date.After(interval.End) {
			continue
		}
		if len(interval.Prices) != 7 {
			// Malformed table: skip, the next interval may still cover the date.
			continue
		}
		return PriceOf(interval.Prices[mondayIndexed(date)])
	}

	return NotAvailable
}

// mondayIndexed maps time.Weekday (Sun=0) to the Mon=0 .. Sun=6 convention
// used by the stored weekday price tables.
func mondayIndexed(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
