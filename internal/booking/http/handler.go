package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /v1/halls/:slug/bookings. Public, no authentication.
func (h *Handler) Create(c *gin.Context) {
	var uri request.BySlugRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.BadRequest("invalid hall slug"))
		return
	}

	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.BadRequest("invalid request body"))
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		HallSlug: uri.Slug,
		Date:     body.Date,
		Slot:     body.Slot,
		Submitter: booking.Submitter{
			Name:     body.Name,
			Phone:    body.Phone,
			IDNumber: body.IDNumber,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewPublicBookingResponse(b))
}

// GetByCode handles GET /v1/bookings/code/:code. Public lookup for the
// visitor who holds the booking code.
func (h *Handler) GetByCode(c *gin.Context) {
	code := c.Param("code")

	b, err := h.service.GetByCode(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPublicBookingResponse(b))
}

// List handles GET /v1/dashboard/bookings for hall staff and site admins.
func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.BadRequest("invalid query parameters"))
		return
	}

	actor := auth.GetActor(c)
	filter := booking.Filter{
		HallID:   req.HallID,
		Status:   booking.Status(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Map(bookings, req.Page, req.PageSize, total, NewBookingResponse))
}

// Get handles GET /v1/bookings/:id for staff.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.BadRequest("invalid booking id"))
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Update handles PATCH /v1/bookings/:id.
func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.BadRequest("invalid booking id"))
		return
	}

	var body UpdateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.BadRequest("invalid request body"))
		return
	}

	b, err := h.service.Update(c.Request.Context(), uri.ID, booking.UpdateRequest{
		Date: body.Date,
		Slot: body.Slot,
		Submitter: booking.Submitter{
			Name:     body.Name,
			Phone:    body.Phone,
			IDNumber: body.IDNumber,
		},
	}, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Approve handles POST /v1/bookings/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.BadRequest("invalid booking id"))
		return
	}

	b, err := h.service.Approve(c.Request.Context(), uri.ID, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.BadRequest("invalid booking id"))
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), uri.ID, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}
