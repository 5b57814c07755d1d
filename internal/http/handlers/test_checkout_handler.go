package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// TestIntentStore is the sandbox intent surface the checkout page needs.
type TestIntentStore interface {
	FindTestIntent(ctx context.Context, reference string) (*models.TestPaymentIntent, error)
	SetTestIntentStatus(ctx context.Context, reference, status string) error
}

// TestCheckoutHandler serves the sandbox provider's checkout page, where
// a developer picks the payment outcome instead of entering a card.
type TestCheckoutHandler struct {
	intents TestIntentStore
}

func NewTestCheckoutHandler(intents TestIntentStore) *TestCheckoutHandler {
	return &TestCheckoutHandler{intents: intents}
}

// Show GET /web/payments/link/:reference
func (h *TestCheckoutHandler) Show(c *gin.Context) {
	reference := c.Param("reference")
	intent, err := h.intents.FindTestIntent(c.Request.Context(), reference)
	if err != nil {
		middleware.Abort(c, apperror.Internal("failed to load payment link", err))
		return
	}
	if intent == nil {
		middleware.Abort(c, apperror.ResourceNotFound("payment link", reference))
		return
	}

	page := fmt.Sprintf(`<!doctype html>
<html>
<head><title>Sandbox checkout</title></head>
<body>
  <h1>Sandbox checkout</h1>
  <p>Reference: %s</p>
  <p>Amount: %d.%02d %s</p>
  <form method="post">
    <button name="outcome" value="success">Pay</button>
    <button name="outcome" value="failed">Decline</button>
  </form>
</body>
</html>`, intent.Reference, intent.AmountMinor/100, intent.AmountMinor%100, intent.Currency)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// Submit POST /web/payments/link/:reference
func (h *TestCheckoutHandler) Submit(c *gin.Context) {
	reference := c.Param("reference")
	outcome := c.PostForm("outcome")
	if outcome != "success" && outcome != "failed" {
		middleware.Abort(c, apperror.Validation("outcome must be success or failed", nil))
		return
	}

	intent, err := h.intents.FindTestIntent(c.Request.Context(), reference)
	if err != nil {
		middleware.Abort(c, apperror.Internal("failed to load payment link", err))
		return
	}
	if intent == nil {
		middleware.Abort(c, apperror.ResourceNotFound("payment link", reference))
		return
	}

	if err := h.intents.SetTestIntentStatus(c.Request.Context(), reference, outcome); err != nil {
		middleware.Abort(c, apperror.Internal("failed to record payment outcome", err))
		return
	}

	if redirect, ok := intent.Metadata["redirect_url"].(string); ok && redirect != "" {
		c.Redirect(http.StatusSeeOther, redirect)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": reference, "status": outcome})
}
