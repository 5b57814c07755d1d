package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

const stripeBaseURL = "https://api.stripe.com/v1"

// How stale a signed webhook may be before it is rejected.
const stripeSignatureTolerance = 5 * time.Minute

// StripeProvider talks to the Stripe REST API. Intents are tagged with
// the reference in metadata so they can be found again by reference.
type StripeProvider struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
	now           func() time.Time
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	return &StripeProvider{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       stripeBaseURL,
		client:        &http.Client{Timeout: 15 * time.Second},
		now:           time.Now,
	}
}

func (p *StripeProvider) Name() string { return string(models.ProviderStripe) }

func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("metadata[reference]", req.Reference)
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.CustomerEmail != "" {
		form.Set("receipt_email", req.CustomerEmail)
	}
	for key, value := range req.Metadata {
		if key == "reference" {
			continue
		}
		form.Set(fmt.Sprintf("metadata[%s]", key), firstString(value))
	}

	data, err := p.postForm(ctx, "/payment_intents", form)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"id":            data["id"],
		"client_secret": data["client_secret"],
	}
	return &IntentResponse{
		Provider:        p.Name(),
		Reference:       req.Reference,
		Status:          models.PaymentStatusPending,
		ProviderPayload: payload,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header: HMAC-SHA256 over
// "{timestamp}.{body}" with the endpoint secret, within the tolerance
// window.
func (p *StripeProvider) VerifyWebhook(_ context.Context, body []byte, headers map[string]string) (*WebhookEvent, error) {
	signature := headerValue(headers, "stripe-signature", "Stripe-Signature")
	if signature == "" || p.webhookSecret == "" {
		return nil, apperror.WebhookUnauthorized("missing Stripe webhook signature")
	}

	timestamp, candidates := parseStripeSignature(signature)
	if timestamp == 0 || len(candidates) == 0 {
		return nil, apperror.WebhookUnauthorized("invalid Stripe webhook signature")
	}
	if p.now().Sub(time.Unix(timestamp, 0)) > stripeSignatureTolerance {
		return nil, apperror.WebhookUnauthorized("stale Stripe webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	verified := false
	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, apperror.WebhookUnauthorized("invalid Stripe webhook signature")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.WebhookInvalid("invalid webhook payload", map[string]interface{}{"error": err.Error()})
	}

	return &WebhookEvent{
		Provider:  p.Name(),
		EventID:   firstString(payload["id"]),
		EventType: firstString(payload["type"]),
		Payload:   payload,
	}, nil
}

func (p *StripeProvider) FetchTransaction(ctx context.Context, reference string) (*Transaction, error) {
	query := url.Values{
		"query": {fmt.Sprintf("metadata['reference']:'%s'", reference)},
		"limit": {"1"},
	}
	data, err := p.get(ctx, "/payment_intents/search?"+query.Encode())
	if err != nil {
		return nil, err
	}

	items, _ := data["data"].([]interface{})
	if len(items) == 0 {
		return nil, apperror.ResourceNotFound("PaymentTransaction", reference)
	}
	intent, _ := items[0].(map[string]interface{})

	status := models.PaymentStatusPending
	if firstString(intent["status"]) == "succeeded" {
		status = models.PaymentStatusSucceeded
	}

	return &Transaction{
		Provider:  p.Name(),
		Reference: reference,
		Status:    status,
		Raw:       intent,
	}, nil
}

func (p *StripeProvider) Refund(ctx context.Context, reference string, amountMinor int64) (*Transaction, error) {
	tx, err := p.FetchTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	intentID := firstString(tx.Raw["id"])
	if intentID == "" {
		return nil, apperror.ProviderError("Stripe payment intent not found for refund", tx.Raw, nil)
	}

	form := url.Values{}
	form.Set("payment_intent", intentID)
	if amountMinor > 0 {
		form.Set("amount", strconv.FormatInt(amountMinor, 10))
	}

	data, err := p.postForm(ctx, "/refunds", form)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		Provider:  p.Name(),
		Reference: reference,
		Status:    models.PaymentStatusRefunded,
		Raw:       data,
	}, nil
}

func (p *StripeProvider) postForm(ctx context.Context, path string, form url.Values) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperror.ProviderError("Stripe request failed", nil, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return p.do(req)
}

func (p *StripeProvider) get(ctx context.Context, path string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, apperror.ProviderError("Stripe request failed", nil, err)
	}
	return p.do(req)
}

func (p *StripeProvider) do(req *http.Request) (map[string]interface{}, error) {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.ProviderError("Stripe request failed", nil, err)
	}
	defer resp.Body.Close()

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperror.ProviderError("Stripe returned malformed response", nil, err)
	}

	if resp.StatusCode >= 400 {
		return nil, apperror.ProviderError("Stripe request rejected", data, nil)
	}
	return data, nil
}

// parseStripeSignature extracts the timestamp and v1 signature candidates
// from a "t=...,v1=...,v1=..." header.
func parseStripeSignature(header string) (int64, []string) {
	var timestamp int64
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			timestamp, _ = strconv.ParseInt(pair[1], 10, 64)
		case "v1":
			candidates = append(candidates, pair[1])
		}
	}
	return timestamp, candidates
}
