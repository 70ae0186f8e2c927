package pricing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestParseRuleSetInvalidJSON(t *testing.T) {
	_, err := ParseRuleSet([]byte("{not json"), "morning")
	assert.Error(t, err)
}

func TestParseRuleSetEmptyDocument(t *testing.T) {
	for _, raw := range [][]byte{nil, {}} {
		rs, err := ParseRuleSet(raw, "morning")
		require.NoError(t, err)
		assert.Equal(t, NotAvailable, rs.Resolve(mustDate(t, "2026-09-01")))
	}
}

func TestResolveIntervalWeekdayPricing(t *testing.T) {
	doc := `{
		"intervals": [
			{"start_date": "2026-09-01", "end_date": "2026-09-30",
			 "prices": [100, 110, 120, 130, 140, 200, 210]}
		]
	}`

	rs, err := ParseRuleSet([]byte(doc), "morning")
	require.NoError(t, err)

	tests := []struct {
		date string
		want Price
	}{
		{"2026-09-07", PriceOf(100)}, // Monday
		{"2026-09-11", PriceOf(140)}, // Friday
		{"2026-09-12", PriceOf(200)}, // Saturday
		{"2026-09-13", PriceOf(210)}, // Sunday
		{"2026-09-30", PriceOf(120)}, // last day, inclusive
		{"2026-10-01", NotAvailable}, // outside the interval
		{"2026-08-31", NotAvailable},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, rs.Resolve(mustDate(t, tc.date)), "date %s", tc.date)
	}
}

func TestResolveFirstMatchingIntervalWins(t *testing.T) {
	doc := `{
		"intervals": [
			{"start_date": "2026-09-01", "end_date": "2026-09-30",
			 "prices": [1, 1, 1, 1, 1, 1, 1]},
			{"start_date": "2026-09-01", "end_date": "2026-12-31",
			 "prices": [2, 2, 2, 2, 2, 2, 2]}
		]
	}`

	rs, err := ParseRuleSet([]byte(doc), "morning")
	require.NoError(t, err)

	assert.Equal(t, PriceOf(1), rs.Resolve(mustDate(t, "2026-09-15")))
	assert.Equal(t, PriceOf(2), rs.Resolve(mustDate(t, "2026-10-15")))
}

func TestResolveMalformedIntervalFallsThrough(t *testing.T) {
	// The first interval's table is short, so dates it covers fall through
	// to the next interval instead of failing.
	doc := `{
		"intervals": [
			{"start_date": "2026-09-01", "end_date": "2026-09-30",
			 "prices": [1, 2, 3]},
			{"start_date": "2026-09-01", "end_date": "2026-09-30",
			 "prices": [9, 9, 9, 9, 9, 9, 9]}
		]
	}`

	rs, err := ParseRuleSet([]byte(doc), "morning")
	require.NoError(t, err)

	assert.Equal(t, PriceOf(9), rs.Resolve(mustDate(t, "2026-09-10")))
}

func TestResolveOverrides(t *testing.T) {
	doc := `{
		"intervals": [
			{"start_date": "2026-09-01", "end_date": "2026-09-30",
			 "prices": [100, 100, 100, 100, 100, 100, 100]}
		],
		"overrides": [
			{"date": "2026-09-10", "price": 500},
			{"date": "2026-09-11", "prices": [10, 20, 30, 40, 50, 60, 70]},
			{"date": "2026-09-12", "morning_price": 333, "evening_price": 444}
		]
	}`

	morning, err := ParseRuleSet([]byte(doc), "morning")
	require.NoError(t, err)
	evening, err := ParseRuleSet([]byte(doc), "evening")
	require.NoError(t, err)

	// Scalar override beats the interval.
	assert.Equal(t, PriceOf(500), morning.Resolve(mustDate(t, "2026-09-10")))

	// Weekday-table override is indexed Mon=0; 2026-09-11 is a Friday.
	assert.Equal(t, PriceOf(50), morning.Resolve(mustDate(t, "2026-09-11")))

	// Slot-specific scalar picks the matching key.
	assert.Equal(t, PriceOf(333), morning.Resolve(mustDate(t, "2026-09-12")))
	assert.Equal(t, PriceOf(444), evening.Resolve(mustDate(t, "2026-09-12")))

	// Untouched dates still resolve through the interval.
	assert.Equal(t, PriceOf(100), morning.Resolve(mustDate(t, "2026-09-13")))
}

func TestParseRuleSetDropsMalformedEntries(t *testing.T) {
	doc := `{
		"intervals": [
			{"start_date": "not-a-date", "end_date": "2026-09-30",
			 "prices": [1, 1, 1, 1, 1, 1, 1]}
		],
		"overrides": [
			{"date": "bogus", "price": 5},
			{"date": "2026-09-10"}
		]
	}`

	rs, err := ParseRuleSet([]byte(doc), "morning")
	require.NoError(t, err)

	assert.Equal(t, NotAvailable, rs.Resolve(mustDate(t, "2026-09-10")))
	assert.Equal(t, NotAvailable, rs.Resolve(mustDate(t, "2026-09-15")))
}

func TestParseRuleSetLastOverrideDeclarationWins(t *testing.T) {
	doc := `{
		"overrides": [
			{"date": "2026-09-10", "price": 1},
			{"date": "2026-09-10", "price": 2}
		]
	}`

	rs, err := ParseRuleSet([]byte(doc), "morning")
	require.NoError(t, err)

	assert.Equal(t, PriceOf(2), rs.Resolve(mustDate(t, "2026-09-10")))
}

func TestParseRuleSetSlotSpecificIntervalPrices(t *testing.T) {
	doc := `{
		"intervals": [
			{"start_date": "2026-09-01", "end_date": "2026-09-30",
			 "morning_prices": [1, 1, 1, 1, 1, 1, 1],
			 "evening_prices": [2, 2, 2, 2, 2, 2, 2]}
		]
	}`

	morning, err := ParseRuleSet([]byte(doc), "morning")
	require.NoError(t, err)
	evening, err := ParseRuleSet([]byte(doc), "evening")
	require.NoError(t, err)

	assert.Equal(t, PriceOf(1), morning.Resolve(mustDate(t, "2026-09-10")))
	assert.Equal(t, PriceOf(2), evening.Resolve(mustDate(t, "2026-09-10")))
}

func TestPriceJSONSentinel(t *testing.T) {
	data, err := json.Marshal(NotAvailable)
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(data))

	data, err = json.Marshal(PriceOf(1500))
	require.NoError(t, err)
	assert.Equal(t, `1500`, string(data))

	var p Price
	require.NoError(t, json.Unmarshal([]byte(`"N/A"`), &p))
	assert.Equal(t, NotAvailable, p)
	require.NoError(t, json.Unmarshal([]byte(`42`), &p))
	assert.Equal(t, PriceOf(42), p)
}
