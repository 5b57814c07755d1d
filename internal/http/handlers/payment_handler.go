package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
)

// PaymentHandler exposes webhook intake and the admin-side payment
// operations.
type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Webhook POST /webhooks/payments/:provider
//
// The raw body and headers go to the provider untouched; signature
// verification needs the exact bytes that were signed.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		middleware.Abort(c, apperror.WebhookInvalid("failed to read webhook body", nil))
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.GetHeader(name)
	}

	tx, err := h.payments.ProcessWebhook(c.Request.Context(), c.Param("provider"), body, headers)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": true, "reference": tx.Reference, "status": tx.Status})
}

// Sync POST /payments/:reference/sync
func (h *PaymentHandler) Sync(c *gin.Context) {
	tx, err := h.payments.SyncFromProvider(c.Request.Context(), c.Param("reference"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Refund POST /payments/:reference/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req struct {
		AmountMinor int64 `json:"amount_minor"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Abort(c, apperror.Validation(err.Error(), nil))
			return
		}
	}

	tx, err := h.payments.Refund(c.Request.Context(), c.Param("reference"), req.AmountMinor)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
