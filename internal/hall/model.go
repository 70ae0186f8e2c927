package hall

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "hall not found")
	ErrSlugTaken       = apperror.New(http.StatusConflict, "a hall with this slug already exists")
	ErrTooManyPictures = apperror.New(http.StatusBadRequest, "a hall can have at most 6 pictures")
	ErrInvalidPricing  = apperror.New(http.StatusBadRequest, "pricing rules are not valid JSON")
	ErrNotHallStaff    = apperror.New(http.StatusForbidden, "permission denied")
)

// MaxPictures caps the hall gallery size.
const MaxPictures = 6

// Slot identifies one of the two bookable parts of a day.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotEvening Slot = "evening"
)

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	return s == SlotMorning || s == SlotEvening
}

// Slots lists the bookable slots in display order.
func Slots() []Slot {
	return []Slot{SlotMorning, SlotEvening}
}

// SlotContent is the per-slot marketing content shown on the hall page.
type SlotContent struct {
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
	Discount    string   `json:"discount"`
}

// Hall is a bookable venue. The slug is globally unique and immutable once
// public booking URLs reference it.
type Hall struct {
	ID         string
	Name       string
	Slug       string
	AdminName  string
	AdminPhone string

	Morning SlotContent
	Evening SlotContent

	// Pricing rulesets are stored as structured JSON and parsed by the
	// pricing package at the boundary.
	MorningPricing json.RawMessage
	EveningPricing json.RawMessage

	Instructions string
	Phone        string
	Email        string
	Latitude     float64
	Longitude    float64

	Pictures []string // ordered stored filenames, max MaxPictures

	AdminID   string // owner account, set during provisioning
	CreatedAt time.Time
}

// PricingFor returns the stored pricing document for slot.
func (h *Hall) PricingFor(slot Slot) json.RawMessage {
	if slot == SlotEvening {
		return h.EveningPricing
	}
	return h.MorningPricing
}

// ContentFor returns the marketing content for slot.
func (h *Hall) ContentFor(slot Slot) SlotContent {
	if slot == SlotEvening {
		return h.Evening
	}
	return h.Morning
}
