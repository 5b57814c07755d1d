package payments

import (
	"bytes"
	"context"
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

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveProvider talks to the Flutterwave v3 REST API.
type FlutterwaveProvider struct {
	secretKey         string
	webhookSecretHash string
	baseURL           string
	client            *http.Client
}

func NewFlutterwaveProvider(secretKey, webhookSecretHash string) *FlutterwaveProvider {
	return &FlutterwaveProvider{
		secretKey:         secretKey,
		webhookSecretHash: webhookSecretHash,
		baseURL:           flutterwaveBaseURL,
		client:            &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *FlutterwaveProvider) Name() string { return string(models.ProviderFlutterwave) }

func (p *FlutterwaveProvider) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	body := map[string]interface{}{
		"tx_ref":   req.Reference,
		"amount":   float64(req.AmountMinor) / 100,
		"currency": req.Currency,
		"meta":     req.Metadata,
	}
	if req.CustomerEmail != "" {
		body["customer"] = map[string]interface{}{"email": req.CustomerEmail}
	}
	if req.Metadata != nil {
		if redirect, ok := req.Metadata["redirect_url"].(string); ok {
			body["redirect_url"] = redirect
		}
	}

	data, err := p.post(ctx, "/payments", body)
	if err != nil {
		return nil, err
	}

	checkoutURL, _ := nested(data, "data", "link").(string)
	return &IntentResponse{
		Provider:        p.Name(),
		Reference:       req.Reference,
		Status:          models.PaymentStatusPending,
		CheckoutURL:     checkoutURL,
		ProviderPayload: data,
	}, nil
}

func (p *FlutterwaveProvider) VerifyWebhook(_ context.Context, body []byte, headers map[string]string) (*WebhookEvent, error) {
	provided := headerValue(headers, "verif-hash", "Verif-Hash")
	if p.webhookSecretHash != "" && provided != p.webhookSecretHash {
		return nil, apperror.WebhookUnauthorized("invalid Flutterwave webhook signature")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.WebhookInvalid("invalid webhook payload", map[string]interface{}{"error": err.Error()})
	}

	eventID := firstString(payload["id"], payload["tx_ref"])
	if eventID == "" {
		eventID = "unknown"
	}
	eventType := firstString(payload["event"], payload["status"])
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

func (p *FlutterwaveProvider) FetchTransaction(ctx context.Context, reference string) (*Transaction, error) {
	query := url.Values{"tx_ref": {reference}}
	data, err := p.get(ctx, "/transactions/verify_by_reference?"+query.Encode())
	if err != nil {
		return nil, err
	}

	rawStatus, _ := nested(data, "data", "status").(string)
	status := models.PaymentStatusPending
	if strings.EqualFold(rawStatus, "successful") {
		status = models.PaymentStatusSucceeded
	}

	return &Transaction{
		Provider:  p.Name(),
		Reference: reference,
		Status:    status,
		Raw:       data,
	}, nil
}

func (p *FlutterwaveProvider) Refund(ctx context.Context, reference string, amountMinor int64) (*Transaction, error) {
	tx, err := p.FetchTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	transactionID := firstString(nested(tx.Raw, "data", "id"))
	if transactionID == "" {
		return nil, apperror.ProviderError("Flutterwave transaction not found for refund", tx.Raw, nil)
	}

	body := map[string]interface{}{}
	if amountMinor > 0 {
		body["amount"] = float64(amountMinor) / 100
	}

	data, err := p.post(ctx, fmt.Sprintf("/transactions/%s/refund", transactionID), body)
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

func (p *FlutterwaveProvider) post(ctx context.Context, path string, body map[string]interface{}) (map[string]interface{}, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.ProviderError("Flutterwave request encoding failed", nil, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, apperror.ProviderError("Flutterwave request failed", nil, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req)
}

func (p *FlutterwaveProvider) get(ctx context.Context, path string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, apperror.ProviderError("Flutterwave request failed", nil, err)
	}
	return p.do(req)
}

// do executes the request and applies Flutterwave's success convention:
// any HTTP error or a top-level status other than "success" is a
// provider error carrying the raw payload.
func (p *FlutterwaveProvider) do(req *http.Request) (map[string]interface{}, error) {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.ProviderError("Flutterwave request failed", nil, err)
	}
	defer resp.Body.Close()

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperror.ProviderError("Flutterwave returned malformed response", nil, err)
	}

	if resp.StatusCode >= 400 || firstString(data["status"]) != "success" {
		return nil, apperror.ProviderError("Flutterwave request rejected", data, nil)
	}
	return data, nil
}

// nested walks a path of string keys through nested JSON objects.
func nested(data map[string]interface{}, keys ...string) interface{} {
	var current interface{} = data
	for _, key := range keys {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

// firstString returns the first non-empty value rendered as a string.
func firstString(values ...interface{}) string {
	for _, value := range values {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}
