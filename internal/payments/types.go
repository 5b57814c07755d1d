package payments

// IntentRequest asks a provider to create a payment intent. The reference
// is the caller's idempotency handle: providers that can look up by
// reference must not create duplicates for it.
type IntentRequest struct {
	AmountMinor   int64
	Currency      string
	Reference     string
	CustomerEmail string
	Metadata      map[string]interface{}
}

// IntentResponse is the provider's answer to intent creation. Status is
// already mapped into the canonical payment status set.
type IntentResponse struct {
	Provider        string
	Reference       string
	Status          string
	CheckoutURL     string
	ProviderPayload map[string]interface{}
}

// WebhookEvent is a verified webhook delivery.
type WebhookEvent struct {
	Provider  string
	EventID   string
	EventType string
	Payload   map[string]interface{}
}

// Transaction is the provider's authoritative view of a payment, fetched
// fresh rather than trusted from webhook payloads.
type Transaction struct {
	Provider  string
	Reference string
	Status    string
	Raw       map[string]interface{}
}
