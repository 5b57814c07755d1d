package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
)

// ReviewHandler exposes customer reviews of cleaners.
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create POST /bookings/:id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	bookingID, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var input service.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.Abort(c, apperror.Validation(err.Error(), nil))
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), principal, bookingID, input)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListForBooking GET /bookings/:id/reviews
func (h *ReviewHandler) ListForBooking(c *gin.Context) {
	bookingID, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	reviews, err := h.reviews.ListForBooking(c.Request.Context(), bookingID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// ListForCleaner GET /cleaners/:id/reviews
func (h *ReviewHandler) ListForCleaner(c *gin.Context) {
	cleanerID, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	start, stop := pageRange(c)
	reviews, err := h.reviews.ListForCleaner(c.Request.Context(), cleanerID, start, stop)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// RatingSummary GET /cleaners/:id/rating
func (h *ReviewHandler) RatingSummary(c *gin.Context) {
	cleanerID, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	summary, err := h.reviews.RatingSummary(c.Request.Context(), cleanerID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Get GET /reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	review, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// Update PATCH /reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
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

	var input service.UpdateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.Abort(c, apperror.Validation(err.Error(), nil))
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// Delete DELETE /reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
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

	if err := h.reviews.Delete(c.Request.Context(), principal, id); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
