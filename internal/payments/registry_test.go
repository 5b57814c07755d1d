package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

func testRegistry() *Registry {
	return NewRegistry(map[string]Provider{
		"flutterwave": NewFlutterwaveProvider("sk", "hash"),
		"stripe":      NewStripeProvider("sk", "whsec"),
	}, "flutterwave")
}

func TestRegistryGetDefault(t *testing.T) {
	provider, err := testRegistry().Get("")
	assert.NoError(t, err)
	assert.Equal(t, "flutterwave", provider.Name())
}

func TestRegistryGetIsCaseInsensitive(t *testing.T) {
	provider, err := testRegistry().Get("Stripe")
	assert.NoError(t, err)
	assert.Equal(t, "stripe", provider.Name())
}

func TestRegistryUnknownProviderListsSupported(t *testing.T) {
	_, err := testRegistry().Get("paystack")

	assert.True(t, apperror.IsValidation(err))
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, "paystack", appErr.Details["provider"])
	assert.Equal(t, []string{"flutterwave", "stripe"}, appErr.Details["supported"])
}

func TestRegistryNamesAreSorted(t *testing.T) {
	assert.Equal(t, []string{"flutterwave", "stripe"}, testRegistry().Names())
}

func TestRegistryWithoutProviders(t *testing.T) {
	registry := NewRegistry(map[string]Provider{}, "flutterwave")
	_, err := registry.Get("")
	assert.ErrorIs(t, err, apperror.ErrProvidersNotReady)
}
