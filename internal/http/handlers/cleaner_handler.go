package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
)

// CleanerHandler exposes the cleaner profile and the onboarding flow,
// including the admin review side.
type CleanerHandler struct {
	cleaners *service.CleanerService
}

func NewCleanerHandler(cleaners *service.CleanerService) *CleanerHandler {
	return &CleanerHandler{cleaners: cleaners}
}

// Me GET /cleaners/me
func (h *CleanerHandler) Me(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, principal)
}

// SubmitOnboarding PUT /cleaners/onboarding
func (h *CleanerHandler) SubmitOnboarding(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var submission service.OnboardingSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		middleware.Abort(c, apperror.Validation(err.Error(), nil))
		return
	}

	account, err := h.cleaners.SubmitOnboarding(c.Request.Context(), principal.ID, submission)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ListPendingReviews GET /admin/onboarding/pending
func (h *CleanerHandler) ListPendingReviews(c *gin.Context) {
	start, stop := pageRange(c)
	accounts, err := h.cleaners.ListPendingReviews(c.Request.Context(), stop-start, start)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleaners": accounts})
}

// Review PUT /admin/onboarding/:id/review
func (h *CleanerHandler) Review(c *gin.Context) {
	cleanerID, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	var review service.OnboardingReview
	if err := c.ShouldBindJSON(&review); err != nil {
		middleware.Abort(c, apperror.Validation(err.Error(), nil))
		return
	}

	account, err := h.cleaners.Review(c.Request.Context(), cleanerID, review)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
