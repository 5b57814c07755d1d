package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/logger"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/payments"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
)

// PaymentRepositoryInterface is the payment persistence surface.
type PaymentRepositoryInterface interface {
	Create(ctx context.Context, tx *models.PaymentTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	GetByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, reference string, status models.PaymentStatus, payload models.JSONMap) (*models.PaymentTransaction, error)
	IsWebhookProcessed(ctx context.Context, provider models.Provider, eventID string) (bool, error)
	UpdateStatusAndMarkWebhook(ctx context.Context, reference string, status models.PaymentStatus, payload models.JSONMap, provider models.Provider, eventID string) (*models.PaymentTransaction, error)
}

// ProviderRegistry resolves provider names to gateway clients.
type ProviderRegistry interface {
	Get(name string) (payments.Provider, error)
}

// PaymentService owns the payment transaction lifecycle: intent
// creation, webhook settlement and refunds.
type PaymentService struct {
	repo      PaymentRepositoryInterface
	providers ProviderRegistry
}

func NewPaymentService(repo PaymentRepositoryInterface, providers ProviderRegistry) *PaymentService {
	return &PaymentService{repo: repo, providers: providers}
}

// IntentResult pairs the stored transaction with the checkout URL the
// customer is redirected to.
type IntentResult struct {
	Transaction *models.PaymentTransaction `json:"transaction"`
	CheckoutURL string                     `json:"checkout_url,omitempty"`
}

// bookingReference derives the provider reference from the booking
// identity, so retries for the same booking reuse one reference.
func bookingReference(bookingID uuid.UUID) string {
	return "booking-" + bookingID.String()
}

// CreateIntentForBooking creates (or resumes) the payment intent backing
// a booking. Calling it again for the same booking returns the stored
// transaction rather than charging twice.
func (s *PaymentService) CreateIntentForBooking(
	ctx context.Context,
	booking *models.Booking,
	amountMinor int64,
	currency string,
	customerEmail string,
	providerName string,
) (*IntentResult, error) {
	existing, err := s.repo.GetByBookingID(ctx, booking.ID)
	if err == nil {
		return &IntentResult{Transaction: existing}, nil
	}
	if !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, apperror.Internal("failed to look up payment", err)
	}

	provider, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	reference := bookingReference(booking.ID)
	intent, err := provider.CreateIntent(ctx, payments.IntentRequest{
		AmountMinor:   amountMinor,
		Currency:      currency,
		Reference:     reference,
		CustomerEmail: customerEmail,
		Metadata: map[string]interface{}{
			"booking_id": booking.ID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	tx := &models.PaymentTransaction{
		OwnerID:         booking.CustomerID,
		BookingID:       &booking.ID,
		Provider:        models.Provider(provider.Name()),
		Reference:       reference,
		Status:          models.PaymentStatusPending,
		AmountMinor:     amountMinor,
		Currency:        currency,
		ResponsePayload: intent.ProviderPayload,
		IdempotencyKey:  models.IdempotencyKeyFor(provider.Name(), reference),
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			existing, lookupErr := s.repo.GetByReference(ctx, reference)
			if lookupErr != nil {
				return nil, apperror.Internal("failed to load existing payment", lookupErr)
			}
			return &IntentResult{Transaction: existing, CheckoutURL: intent.CheckoutURL}, nil
		}
		return nil, apperror.Internal("failed to store payment", err)
	}

	return &IntentResult{Transaction: tx, CheckoutURL: intent.CheckoutURL}, nil
}

// GetByBookingID returns the transaction backing a booking.
func (s *PaymentService) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.PaymentTransaction, error) {
	tx, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ResourceNotFound("payment", bookingID.String())
		}
		return nil, apperror.Internal("failed to load payment", err)
	}
	return tx, nil
}

// ProcessWebhook handles a provider delivery end to end: verify the
// signature, drop replays, re-fetch the authoritative transaction state
// from the provider, then persist the new status and the replay mark in
// one database transaction. The webhook payload itself is never trusted
// for status.
func (s *PaymentService) ProcessWebhook(ctx context.Context, providerName string, body []byte, headers map[string]string) (*models.PaymentTransaction, error) {
	provider, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	event, err := provider.VerifyWebhook(ctx, body, headers)
	if err != nil {
		return nil, err
	}

	processed, err := s.repo.IsWebhookProcessed(ctx, models.Provider(provider.Name()), event.EventID)
	if err != nil {
		return nil, apperror.Internal("failed to check webhook replay", err)
	}
	if processed {
		return nil, apperror.Conflict(apperror.ErrCodeWebhookInvalid, "webhook event already processed", map[string]interface{}{
			"event_id": event.EventID,
		})
	}

	reference := referenceFromWebhook(event.Payload)
	if reference == "" {
		return nil, apperror.WebhookInvalid("webhook payload carries no payment reference", map[string]interface{}{
			"event_id": event.EventID,
		})
	}

	authoritative, err := provider.FetchTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	status, err := canonicalStatus(authoritative.Status)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.UpdateStatusAndMarkWebhook(
		ctx, reference, status, authoritative.Raw,
		models.Provider(provider.Name()), event.EventID,
	)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			return nil, apperror.ResourceNotFound("payment", reference)
		case errors.Is(err, repository.ErrWebhookAlreadyHandled):
			return nil, apperror.Conflict(apperror.ErrCodeWebhookInvalid, "webhook event already processed", map[string]interface{}{
				"event_id": event.EventID,
			})
		}
		return nil, apperror.Internal("failed to settle webhook", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"provider":  provider.Name(),
		"event_id":  event.EventID,
		"reference": reference,
		"status":    tx.Status,
	}).Info("payment webhook settled")
	return tx, nil
}

// SyncFromProvider re-fetches provider state for a reference outside the
// webhook path, for manual reconciliation.
func (s *PaymentService) SyncFromProvider(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	stored, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ResourceNotFound("payment", reference)
		}
		return nil, apperror.Internal("failed to load payment", err)
	}

	provider, err := s.providers.Get(string(stored.Provider))
	if err != nil {
		return nil, err
	}
	authoritative, err := provider.FetchTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	status, err := canonicalStatus(authoritative.Status)
	if err != nil {
		return nil, err
	}
	if status == stored.Status {
		return stored, nil
	}
	tx, err := s.repo.UpdateStatus(ctx, reference, status, authoritative.Raw)
	if err != nil {
		return nil, apperror.Internal("failed to update payment status", err)
	}
	return tx, nil
}

// Refund reverses a settled payment. amountMinor <= 0 requests a full
// refund.
func (s *PaymentService) Refund(ctx context.Context, reference string, amountMinor int64) (*models.PaymentTransaction, error) {
	stored, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ResourceNotFound("payment", reference)
		}
		return nil, apperror.Internal("failed to load payment", err)
	}
	if stored.Status != models.PaymentStatusSucceeded {
		return nil, apperror.Conflict(apperror.ErrCodeValidationFailed, "only succeeded payments can be refunded", map[string]interface{}{
			"current_status": string(stored.Status),
		})
	}

	provider, err := s.providers.Get(string(stored.Provider))
	if err != nil {
		return nil, err
	}
	result, err := provider.Refund(ctx, reference, amountMinor)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.UpdateStatus(ctx, reference, models.PaymentStatusRefunded, result.Raw)
	if err != nil {
		return nil, apperror.Internal("failed to record refund", err)
	}
	return tx, nil
}

// canonicalStatus maps a provider-normalized status string onto the
// stored status set.
func canonicalStatus(status string) (models.PaymentStatus, error) {
	switch models.PaymentStatus(status) {
	case models.PaymentStatusPending, models.PaymentStatusSucceeded,
		models.PaymentStatusFailed, models.PaymentStatusRefunded:
		return models.PaymentStatus(status), nil
	}
	return "", apperror.Internal(fmt.Sprintf("unknown provider payment status %q", status), nil)
}

// referenceFromWebhook extracts the payment reference from a verified
// payload, checking data.tx_ref, then data.reference, then the top-level
// reference field.
func referenceFromWebhook(payload map[string]interface{}) string {
	if data, ok := payload["data"].(map[string]interface{}); ok {
		if ref, ok := data["tx_ref"].(string); ok && ref != "" {
			return ref
		}
		if ref, ok := data["reference"].(string); ok && ref != "" {
			return ref
		}
	}
	if ref, ok := payload["reference"].(string); ok && ref != "" {
		return ref
	}
	return ""
}
