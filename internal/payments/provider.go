package payments

import (
	"context"
)

// Provider is the uniform capability interface over external payment
// gateways. Implementations wrap every gateway failure into a
// PAYMENT_PROVIDER_ERROR; no provider-specific error type escapes.
type Provider interface {
	Name() string

	// CreateIntent is idempotent on the request reference.
	CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error)

	// VerifyWebhook authenticates a delivery against the provider's
	// signature scheme and returns the parsed event.
	VerifyWebhook(ctx context.Context, body []byte, headers map[string]string) (*WebhookEvent, error)

	// FetchTransaction re-reads the authoritative payment state.
	FetchTransaction(ctx context.Context, reference string) (*Transaction, error)

	// Refund reverses a payment, optionally partially. amountMinor <= 0
	// means a full refund.
	Refund(ctx context.Context, reference string, amountMinor int64) (*Transaction, error)
}

// headerValue does a case-tolerant lookup over the raw header map the
// HTTP layer hands us.
func headerValue(headers map[string]string, names ...string) string {
	for _, name := range names {
		if v, ok := headers[name]; ok && v != "" {
			return v
		}
	}
	return ""
}
