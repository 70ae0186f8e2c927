package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/calendar"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hall-booking-backend/internal/pricing"
)

// calendarMonths is the public availability horizon.
const calendarMonths = 12

type Handler struct {
	service      hall.Service
	availability booking.AvailabilityService
	logger       observability.Logger
}

func NewHandler(service hall.Service, availability booking.AvailabilityService, logger observability.Logger) *Handler {
	return &Handler{
		service:      service,
		availability: availability,
		logger:       logger,
	}
}

// List handles GET /v1/halls.
func (h *Handler) List(c *gin.Context) {
	halls, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]HallResponse, len(halls))
	for i, hl := range halls {
		items[i] = NewHallResponse(hl)
	}
	c.JSON(http.StatusOK, gin.H{"halls": items})
}

// Get handles GET /v1/halls/:slug and renders the 12-month availability
// calendar for both slots.
func (h *Handler) Get(c *gin.Context) {
	var uri request.BySlugRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.BadRequest("invalid hall slug"))
		return
	}

	ctx := c.Request.Context()
	hl, err := h.service.GetBySlug(ctx, uri.Slug)
	if err != nil {
		response.Error(c, err)
		return
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, calendarMonths, 0)

	statusMaps, err := h.availability.StatusMaps(ctx, hl.ID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := HallDetailResponse{
		HallResponse: NewHallResponse(hl),
		AdminName:    hl.AdminName,
		AdminPhone:   hl.AdminPhone,
		Instructions: hl.Instructions,
		Slots:        make(map[string]SlotView, 2),
	}

	for _, slot := range hall.Slots() {
		priceFor := h.priceFunc(hl, slot)

		months := make([]calendar.Month, 0, calendarMonths)
		cursor := start
		for i := 0; i < calendarMonths; i++ {
			months = append(months, calendar.BuildMonth(cursor.Year(), cursor.Month(), statusMaps[slot], priceFor))
			cursor = cursor.AddDate(0, 1, 0)
		}

		content := hl.ContentFor(slot)
		highlights := content.Highlights
		if highlights == nil {
			highlights = []string{}
		}
		resp.Slots[string(slot)] = SlotView{
			Description: content.Description,
			Highlights:  highlights,
			Discount:    content.Discount,
			Calendar:    months,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// priceFunc parses the hall's stored pricing for slot. A document that no
// longer parses renders every day as not available instead of failing the
// whole page.
func (h *Handler) priceFunc(hl *hall.Hall, slot hall.Slot) calendar.PriceFunc {
	doc := hl.PricingFor(slot)
	if len(doc) == 0 {
		return nil
	}

	rs, err := pricing.ParseRuleSet(doc, string(slot))
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"hall": hl.Slug,
			"slot": string(slot),
		}).Warn("stored pricing document does not parse: ", err)
		return nil
	}
	return rs.Resolve
}

// GetPrice handles GET /v1/halls/:slug/price?slot=morning&date=2026-09-01.
func (h *Handler) GetPrice(c *gin.Context) {
	var uri request.BySlugRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.BadRequest("invalid hall slug"))
		return
	}

	slot := hall.Slot(c.Query("slot"))
	if !slot.Valid() {
		response.Error(c, apperror.BadRequest("slot must be morning or evening"))
		return
	}

	price, err := h.service.ResolvePrice(c.Request.Context(), uri.Slug, slot, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"price": price})
}

// Create handles POST /v1/admin/halls. Site admin only.
func (h *Handler) Create(c *gin.Context) {
	var form CreateHallForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, apperror.BadRequest("invalid hall form"))
		return
	}

	req := hall.CreateRequest{
		Name:           form.Name,
		Slug:           form.Slug,
		AdminName:      form.AdminName,
		AdminPhone:     form.AdminPhone,
		Morning:        form.morning(),
		Evening:        form.evening(),
		MorningPricing: form.MorningPricing,
		EveningPricing: form.EveningPricing,
		Instructions:   form.Instructions,
		Phone:          form.Phone,
		Email:          form.Email,
		Latitude:       form.Latitude,
		Longitude:      form.Longitude,
	}

	if mf, err := c.MultipartForm(); err == nil && mf != nil {
		req.Pictures = mf.File["pictures"]
	}

	created, staff, err := h.service.Create(c.Request.Context(), req, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCreateHallResponse(created, staff))
}

// Update handles PATCH /v1/dashboard/hall. Hall owners edit their own hall;
// site admins may target any hall with ?slug=.
func (h *Handler) Update(c *gin.Context) {
	actor := auth.GetActor(c)

	slug := c.Query("slug")
	if slug == "" {
		if actor.HallID == "" {
			response.Error(c, hall.ErrNotHallStaff)
			return
		}
		hl, err := h.service.GetByID(c.Request.Context(), actor.HallID)
		if err != nil {
			response.Error(c, err)
			return
		}
		slug = hl.Slug
	} else if !actor.IsSiteAdmin {
		response.Error(c, hall.ErrNotHallStaff)
		return
	}

	var form UpdateHallForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, apperror.BadRequest("invalid hall form"))
		return
	}

	req := hall.UpdateRequest{
		Name:           form.Name,
		AdminName:      form.AdminName,
		AdminPhone:     form.AdminPhone,
		Morning:        form.morning(),
		Evening:        form.evening(),
		MorningPricing: form.MorningPricing,
		EveningPricing: form.EveningPricing,
		Instructions:   form.Instructions,
		Phone:          form.Phone,
		Email:          form.Email,
		Latitude:       form.Latitude,
		Longitude:      form.Longitude,
		RemovePictures: form.RemovePictures,
	}

	if mf, err := c.MultipartForm(); err == nil && mf != nil {
		req.NewPictures = mf.File["pictures"]
	}

	updated, err := h.service.Update(c.Request.Context(), slug, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewHallResponse(updated))
}
