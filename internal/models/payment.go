package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the canonical payment state. Provider-specific
// statuses are mapped into this set at the provider boundary.
type PaymentStatus string

// Untyped so the values also fit plain string fields at the provider
// boundary.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Provider names a payment gateway integration.
type Provider string

const (
	ProviderStripe      = "stripe"
	ProviderFlutterwave = "flutterwave"
	ProviderTest        = "test"
)

// PaymentTransaction is one provider-side payment intent/record. The
// reference is globally unique per provider; together they form the
// idempotency key. At most one transaction points at a given booking.
type PaymentTransaction struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	OwnerID         uuid.UUID     `db:"owner_id" json:"owner_id"`
	BookingID       *uuid.UUID    `db:"booking_id" json:"booking_id,omitempty"`
	Provider        Provider      `db:"provider" json:"provider"`
	Reference       string        `db:"reference" json:"reference"`
	Status          PaymentStatus `db:"status" json:"status"`
	AmountMinor     int64         `db:"amount_minor" json:"amount_minor"`
	Currency        string        `db:"currency" json:"currency"`
	ResponsePayload JSONMap       `db:"response_payload" json:"response_payload"`
	IdempotencyKey  string        `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// IdempotencyKeyFor builds the "{provider}:{reference}" duplicate guard.
func IdempotencyKeyFor(provider, reference string) string {
	return fmt.Sprintf("%s:%s", provider, reference)
}

// WebhookEventRecord marks a (provider, event_id) webhook delivery as
// processed. Uniqueness of the pair is the replay guard.
type WebhookEventRecord struct {
	Provider  Provider  `db:"provider" json:"provider"`
	EventID   string    `db:"event_id" json:"event_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TestPaymentIntent backs the self-contained test provider: a local
// stand-in for a real gateway's intent record.
type TestPaymentIntent struct {
	Reference         string    `db:"reference" json:"reference"`
	AmountMinor       int64     `db:"amount_minor" json:"amount_minor"`
	Currency          string    `db:"currency" json:"currency"`
	CustomerEmail     *string   `db:"customer_email" json:"customer_email,omitempty"`
	Metadata          JSONMap   `db:"metadata" json:"metadata"`
	Status            string    `db:"status" json:"status"`
	RefundedMinor     *int64    `db:"refunded_minor" json:"refunded_minor,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
