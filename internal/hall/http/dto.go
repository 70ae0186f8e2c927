package http

import (
	"github.com/nekogravitycat/hall-booking-backend/internal/calendar"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// HallForm is the multipart payload shared by hall creation and editing.
// Pricing documents arrive as raw JSON strings; pictures arrive as files.
type HallForm struct {
	Name       string `form:"name" binding:"required,min=1,max=200"`
	AdminName  string `form:"admin_name"`
	AdminPhone string `form:"admin_phone"`

	MorningDescription string   `form:"morning_description"`
	MorningHighlights  []string `form:"morning_highlights"`
	MorningDiscount    string   `form:"morning_discount"`

	EveningDescription string   `form:"evening_description"`
	EveningHighlights  []string `form:"evening_highlights"`
	EveningDiscount    string   `form:"evening_discount"`

	MorningPricing string `form:"morning_pricing"`
	EveningPricing string `form:"evening_pricing"`

	Instructions string  `form:"instructions"`
	Phone        string  `form:"phone"`
	Email        string  `form:"email" binding:"omitempty,email"`
	Latitude     float64 `form:"latitude"`
	Longitude    float64 `form:"longitude"`
}

// CreateHallForm additionally requires the immutable slug.
type CreateHallForm struct {
	HallForm
	Slug string `form:"slug" binding:"required,min=2,max=100,lowercase"`
}

// UpdateHallForm additionally accepts picture removals.
type UpdateHallForm struct {
	HallForm
	RemovePictures []string `form:"remove_pictures"`
}

func (f *HallForm) morning() hall.SlotContent {
	return hall.SlotContent{
		Description: f.MorningDescription,
		Highlights:  f.MorningHighlights,
		Discount:    f.MorningDiscount,
	}
}

func (f *HallForm) evening() hall.SlotContent {
	return hall.SlotContent{
		Description: f.EveningDescription,
		Highlights:  f.EveningHighlights,
		Discount:    f.EveningDiscount,
	}
}

// HallResponse is the list-view shape.
type HallResponse struct {
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Pictures  []string `json:"pictures"`
}

func NewHallResponse(h *hall.Hall) HallResponse {
	pictures := h.Pictures
	if pictures == nil {
		pictures = []string{}
	}
	return HallResponse{
		Slug:      h.Slug,
		Name:      h.Name,
		Phone:     h.Phone,
		Email:     h.Email,
		Latitude:  h.Latitude,
		Longitude: h.Longitude,
		Pictures:  pictures,
	}
}

// SlotView is one slot's content plus its rendered booking calendar.
type SlotView struct {
	Description string           `json:"description"`
	Highlights  []string         `json:"highlights"`
	Discount    string           `json:"discount"`
	Calendar    []calendar.Month `json:"calendar"`
}

// HallDetailResponse is the public hall page: hall info plus a 12-month
// availability calendar for each slot.
type HallDetailResponse struct {
	HallResponse
	AdminName    string              `json:"admin_name"`
	AdminPhone   string              `json:"admin_phone"`
	Instructions string              `json:"instructions"`
	Slots        map[string]SlotView `json:"slots"`
}

// StaffCredential surfaces a freshly provisioned staff account.
type StaffCredential struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// CreateHallResponse returns the new hall along with the generated staff
// usernames so the operator can hand them out.
type CreateHallResponse struct {
	Hall  HallResponse      `json:"hall"`
	Staff []StaffCredential `json:"staff"`
}

func NewCreateHallResponse(h *hall.Hall, staff []*user.User) CreateHallResponse {
	creds := make([]StaffCredential, len(staff))
	for i, u := range staff {
		creds[i] = StaffCredential{Username: u.Username, Role: string(u.Role)}
	}
	return CreateHallResponse{
		Hall:  NewHallResponse(h),
		Staff: creds,
	}
}
