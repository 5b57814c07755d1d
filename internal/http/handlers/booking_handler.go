package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
)

// BookingHandler exposes the booking lifecycle endpoints.
type BookingHandler struct {
	bookings *service.BookingService
	payments *service.PaymentService
}

func NewBookingHandler(bookings *service.BookingService, payments *service.PaymentService) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments}
}

// Create POST /bookings
func (h *BookingHandler) Create(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var input service.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.Abort(c, apperror.Validation(err.Error(), nil))
		return
	}

	result, err := h.bookings.Create(c.Request.Context(), principal, input)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// List GET /bookings
func (h *BookingHandler) List(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	start, stop := pageRange(c)
	bookings, err := h.bookings.List(c.Request.Context(), principal, c.Query("status"), start, stop)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// Get GET /bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), principal, id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Accept POST /bookings/:id/accept
func (h *BookingHandler) Accept(c *gin.Context) {
	h.transition(c, h.bookings.Accept)
}

// Complete POST /bookings/:id/complete
func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, h.bookings.CleanerComplete)
}

// Acknowledge POST /bookings/:id/acknowledge
func (h *BookingHandler) Acknowledge(c *gin.Context) {
	h.transition(c, h.bookings.CustomerAcknowledge)
}

// Payment GET /bookings/:id/payment
func (h *BookingHandler) Payment(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	// Visibility follows the booking itself.
	if _, err := h.bookings.Get(c.Request.Context(), principal, id); err != nil {
		middleware.Abort(c, err)
		return
	}

	tx, err := h.payments.GetByBookingID(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *BookingHandler) transition(c *gin.Context, op func(context.Context, *models.Account, uuid.UUID) (*models.Booking, error)) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	booking, err := op(c.Request.Context(), principal, id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
