package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
)

// The payment repository is the production IntentStore; the provider
// depends on its refund call returning the updated intent row.
var _ IntentStore = (*repository.PaymentRepository)(nil)

type fakeIntentStore struct {
	intents        map[string]*models.TestPaymentIntent
	refundedWith   *int64
	refundedCalled bool
}

func newFakeIntentStore() *fakeIntentStore {
	return &fakeIntentStore{intents: make(map[string]*models.TestPaymentIntent)}
}

func (s *fakeIntentStore) FindTestIntent(_ context.Context, reference string) (*models.TestPaymentIntent, error) {
	return s.intents[reference], nil
}

func (s *fakeIntentStore) SaveTestIntent(_ context.Context, intent *models.TestPaymentIntent) error {
	s.intents[intent.Reference] = intent
	return nil
}

func (s *fakeIntentStore) TouchTestIntent(_ context.Context, reference string, metadata models.JSONMap) error {
	if intent, ok := s.intents[reference]; ok {
		intent.Metadata = metadata
	}
	return nil
}

func (s *fakeIntentStore) RefundTestIntent(_ context.Context, reference string, requestedMinor *int64) (*models.TestPaymentIntent, error) {
	s.refundedCalled = true
	s.refundedWith = requestedMinor
	intent, ok := s.intents[reference]
	if !ok {
		return nil, nil
	}
	refunded := intent.AmountMinor
	if requestedMinor != nil {
		refunded = *requestedMinor
	}
	intent.Status = models.PaymentStatusRefunded
	intent.RefundedMinor = &refunded
	return intent, nil
}

func TestTestProviderRefundFullAmount(t *testing.T) {
	store := newFakeIntentStore()
	store.intents["booking-ref-1"] = &models.TestPaymentIntent{
		Reference:   "booking-ref-1",
		AmountMinor: 11500,
		Currency:    "EUR",
		Status:      models.PaymentStatusSucceeded,
	}
	provider := NewTestProvider(store, "http://localhost:8080", "")

	tx, err := provider.Refund(context.Background(), "booking-ref-1", 0)

	assert.NoError(t, err)
	assert.Nil(t, store.refundedWith)
	assert.Equal(t, models.PaymentStatusRefunded, tx.Status)
	assert.Equal(t, "booking-ref-1", tx.Reference)
	assert.Equal(t, int64(11500), tx.Raw["amount_minor"])
	assert.Equal(t, "EUR", tx.Raw["currency"])
	assert.Equal(t, int64(11500), tx.Raw["refunded_minor"])
}

func TestTestProviderRefundPartialAmount(t *testing.T) {
	store := newFakeIntentStore()
	store.intents["booking-ref-2"] = &models.TestPaymentIntent{
		Reference:   "booking-ref-2",
		AmountMinor: 9000,
		Currency:    "EUR",
		Status:      models.PaymentStatusSucceeded,
	}
	provider := NewTestProvider(store, "http://localhost:8080", "")

	tx, err := provider.Refund(context.Background(), "booking-ref-2", 4500)

	assert.NoError(t, err)
	if assert.NotNil(t, store.refundedWith) {
		assert.Equal(t, int64(4500), *store.refundedWith)
	}
	assert.Equal(t, int64(4500), tx.Raw["refunded_minor"])
}

func TestTestProviderRefundUnknownReference(t *testing.T) {
	store := newFakeIntentStore()
	provider := NewTestProvider(store, "http://localhost:8080", "")

	tx, err := provider.Refund(context.Background(), "booking-missing", 0)

	assert.Nil(t, tx)
	assert.True(t, store.refundedCalled)
	appErr, ok := apperror.As(err)
	if assert.True(t, ok) {
		assert.Equal(t, apperror.ErrCodeResourceNotFound, appErr.Code)
	}
}

func TestTestProviderCreateIntentReusesExisting(t *testing.T) {
	store := newFakeIntentStore()
	provider := NewTestProvider(store, "http://localhost:8080", "")

	first, err := provider.CreateIntent(context.Background(), IntentRequest{
		Reference:   "booking-ref-3",
		AmountMinor: 7000,
		Currency:    "eur",
		Metadata:    models.JSONMap{"attempt": "1"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/web/payments/link/booking-ref-3", first.CheckoutURL)

	second, err := provider.CreateIntent(context.Background(), IntentRequest{
		Reference:   "booking-ref-3",
		AmountMinor: 7000,
		Currency:    "eur",
		Metadata:    models.JSONMap{"attempt": "2"},
	})
	assert.NoError(t, err)
	assert.Equal(t, first.CheckoutURL, second.CheckoutURL)
	assert.Len(t, store.intents, 1)
	assert.Equal(t, models.JSONMap{"attempt": "2"}, store.intents["booking-ref-3"].Metadata)
}
