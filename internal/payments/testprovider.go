package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// IntentStore persists the test provider's intents locally. Implemented
// by the payment repository; the test provider never touches the network.
type IntentStore interface {
	FindTestIntent(ctx context.Context, reference string) (*models.TestPaymentIntent, error)
	SaveTestIntent(ctx context.Context, intent *models.TestPaymentIntent) error
	TouchTestIntent(ctx context.Context, reference string, metadata models.JSONMap) error
	RefundTestIntent(ctx context.Context, reference string, requestedMinor *int64) (*models.TestPaymentIntent, error)
}

// TestProvider is a self-contained gateway stand-in for development and
// staging. Intents live in local storage; a checkout page handler flips
// their status instead of a real payment flow.
type TestProvider struct {
	store             IntentStore
	baseURL           string
	webhookSecretHash string
}

func NewTestProvider(store IntentStore, baseURL, webhookSecretHash string) *TestProvider {
	return &TestProvider{
		store:             store,
		baseURL:           strings.TrimRight(baseURL, "/"),
		webhookSecretHash: webhookSecretHash,
	}
}

func (p *TestProvider) Name() string { return string(models.ProviderTest) }

func (p *TestProvider) checkoutURL(reference string) string {
	return fmt.Sprintf("%s/web/payments/link/%s", p.baseURL, reference)
}

func (p *TestProvider) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	existing, err := p.store.FindTestIntent(ctx, req.Reference)
	if err != nil {
		return nil, apperror.ProviderError("test provider intent lookup failed", nil, err)
	}

	if existing == nil {
		now := time.Now().UTC()
		intent := &models.TestPaymentIntent{
			Reference:   req.Reference,
			AmountMinor: req.AmountMinor,
			Currency:    strings.ToUpper(req.Currency),
			Metadata:    req.Metadata,
			Status:      models.PaymentStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if req.CustomerEmail != "" {
			email := req.CustomerEmail
			intent.CustomerEmail = &email
		}
		if err := p.store.SaveTestIntent(ctx, intent); err != nil {
			return nil, apperror.ProviderError("test provider intent creation failed", map[string]interface{}{
				"reference": req.Reference,
			}, err)
		}
	} else if err := p.store.TouchTestIntent(ctx, req.Reference, req.Metadata); err != nil {
		return nil, apperror.ProviderError("test provider intent update failed", map[string]interface{}{
			"reference": req.Reference,
		}, err)
	}

	checkoutURL := p.checkoutURL(req.Reference)
	payload := map[string]interface{}{
		"reference":    req.Reference,
		"currency":     strings.ToUpper(req.Currency),
		"amount_minor": req.AmountMinor,
		"checkout_url": checkoutURL,
		"status":       models.PaymentStatusPending,
		"provider":     p.Name(),
		"metadata":     req.Metadata,
	}
	return &IntentResponse{
		Provider:        p.Name(),
		Reference:       req.Reference,
		Status:          models.PaymentStatusPending,
		CheckoutURL:     checkoutURL,
		ProviderPayload: payload,
	}, nil
}

func (p *TestProvider) VerifyWebhook(_ context.Context, body []byte, headers map[string]string) (*WebhookEvent, error) {
	provided := headerValue(headers, "verif-hash", "Verif-Hash")
	if p.webhookSecretHash != "" && provided != p.webhookSecretHash {
		return nil, apperror.WebhookUnauthorized("invalid test provider webhook signature")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.WebhookInvalid("invalid webhook payload", map[string]interface{}{"error": err.Error()})
	}

	reference := firstString(
		payload["reference"],
		payload["tx_ref"],
		nested(payload, "data", "reference"),
		nested(payload, "data", "tx_ref"),
	)
	eventID := firstString(payload["id"], payload["event_id"], reference)
	if eventID == "" {
		eventID = "unknown"
	}
	eventType := firstString(payload["event"], payload["type"], payload["status"])
	if eventType == "" {
		eventType = "unknown"
	}

	return &WebhookEvent{
		Provider:  p.Name(),
		EventID:   eventID,
		EventType: eventType,
		Payload:   payload,
	}, nil
}

func (p *TestProvider) FetchTransaction(ctx context.Context, reference string) (*Transaction, error) {
	intent, err := p.store.FindTestIntent(ctx, reference)
	if err != nil {
		return nil, apperror.ProviderError("test provider lookup failed", nil, err)
	}
	if intent == nil {
		return nil, apperror.ResourceNotFound("TestPaymentIntent", reference)
	}

	status := normalizeTestStatus(intent.Status)
	raw := map[string]interface{}{
		"reference":    intent.Reference,
		"status":       status,
		"amount_minor": intent.AmountMinor,
		"currency":     intent.Currency,
		"metadata":     intent.Metadata,
		"provider":     p.Name(),
	}
	return &Transaction{
		Provider:  p.Name(),
		Reference: reference,
		Status:    status,
		Raw:       raw,
	}, nil
}

func (p *TestProvider) Refund(ctx context.Context, reference string, amountMinor int64) (*Transaction, error) {
	var requested *int64
	if amountMinor > 0 {
		requested = &amountMinor
	}

	intent, err := p.store.RefundTestIntent(ctx, reference, requested)
	if err != nil {
		return nil, apperror.ProviderError("test provider refund failed", nil, err)
	}
	if intent == nil {
		return nil, apperror.ResourceNotFound("TestPaymentIntent", reference)
	}

	raw := map[string]interface{}{
		"reference":    reference,
		"status":       models.PaymentStatusRefunded,
		"amount_minor": intent.AmountMinor,
		"currency":     intent.Currency,
		"provider":     p.Name(),
	}
	if intent.RefundedMinor != nil {
		raw["refunded_minor"] = *intent.RefundedMinor
	}
	return &Transaction{
		Provider:  p.Name(),
		Reference: reference,
		Status:    models.PaymentStatusRefunded,
		Raw:       raw,
	}, nil
}

// normalizeTestStatus folds the looser statuses the checkout handler may
// write into the canonical set.
func normalizeTestStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "successful", "succeeded":
		return models.PaymentStatusSucceeded
	case "failed":
		return models.PaymentStatusFailed
	case "refunded":
		return models.PaymentStatusRefunded
	default:
		return models.PaymentStatusPending
	}
}
