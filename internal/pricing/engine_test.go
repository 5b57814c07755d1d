package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

type staticResolver struct {
	country string
	err     error
}

func (r staticResolver) CountryCodeForPlace(_ context.Context, _ string) (string, error) {
	return r.country, r.err
}

func baseBooking(service string) *models.Booking {
	return &models.Booking{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		CleanerID:  uuid.New(),
		PlaceID:    "place-lagos",
		Service:    service,
	}
}

func TestQuoteForBooking_StandardWithAddOn(t *testing.T) {
	engine := NewEngine(staticResolver{country: "NG"})

	booking := baseBooking(models.ServiceStandard)
	booking.DurationHours = 2
	booking.Extras = models.Extras{AddOns: []string{models.AddOnLaundry}}

	quote, err := engine.QuoteForBooking(context.Background(), booking)
	assert.NoError(t, err)
	assert.Equal(t, int64(11500), quote.AmountMinor)
	assert.Equal(t, "NGN", quote.Currency)
	assert.Equal(t, int64(9000), quote.Breakdown["base_service_amount"])
	assert.Equal(t, int64(2500), quote.Breakdown["addons_amount"])
	assert.Equal(t, int64(0), quote.Breakdown["custom_modifiers_amount"])
	assert.Equal(t, "NG", quote.Breakdown["place_country_code"])
}

func TestQuoteForBooking_CustomService(t *testing.T) {
	engine := NewEngine(staticResolver{country: "NG"})

	booking := baseBooking(models.ServiceCustom)
	booking.DurationHours = 1
	booking.DurationMinutes = 30
	booking.Extras = models.Extras{AddOns: []string{models.AddOnWindows}}
	booking.CustomDetails = &models.CustomServiceDetails{
		PropertyType:  models.PropertyApartment,
		SquareMeters:  100,
		Bedrooms:      2,
		Bathrooms:     1,
		CleaningScope: []string{models.ScopeKitchen, models.ScopeBathroom},
	}

	quote, err := engine.QuoteForBooking(context.Background(), booking)
	assert.NoError(t, err)

	// base: ceil(5000 * 1.5) = 7500, add-on WINDOWS = 3000,
	// custom: ceil(100*55) + 2*1400 + 1*1800 + 1500 + 1700 = 13300 at 1.0x
	assert.Equal(t, int64(7500), quote.Breakdown["base_service_amount"])
	assert.Equal(t, int64(3000), quote.Breakdown["addons_amount"])
	assert.Equal(t, int64(13300), quote.Breakdown["custom_modifiers_amount"])
	assert.Equal(t, int64(23800), quote.AmountMinor)
}

func TestQuoteForBooking_PropertyMultiplierRounds(t *testing.T) {
	engine := NewEngine(staticResolver{country: "NG"})

	booking := baseBooking(models.ServiceCustom)
	booking.DurationHours = 1
	booking.CustomDetails = &models.CustomServiceDetails{
		PropertyType:  models.PropertyHouse,
		SquareMeters:  100,
		Bedrooms:      2,
		Bathrooms:     1,
		CleaningScope: []string{models.ScopeKitchen, models.ScopeBathroom},
	}

	quote, err := engine.QuoteForBooking(context.Background(), booking)
	assert.NoError(t, err)
	// round(13300 * 1.15) = 15295
	assert.Equal(t, int64(15295), quote.Breakdown["custom_modifiers_amount"])
}

func TestQuoteForBooking_MinimumOneHour(t *testing.T) {
	engine := NewEngine(staticResolver{country: "NG"})

	booking := baseBooking(models.ServiceStandard)
	booking.DurationMinutes = 30

	quote, err := engine.QuoteForBooking(context.Background(), booking)
	assert.NoError(t, err)
	assert.Equal(t, int64(4500), quote.Breakdown["base_service_amount"])
}

func TestQuoteForBooking_UnsupportedCountry(t *testing.T) {
	engine := NewEngine(staticResolver{country: "US"})

	_, err := engine.QuoteForBooking(context.Background(), baseBooking(models.ServiceStandard))
	assert.Error(t, err)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.ErrCodeValidationFailed, appErr.Code)
	assert.Equal(t, "US", appErr.Details["country_code"])
}

func TestQuoteForBooking_UnknownAddOn(t *testing.T) {
	engine := NewEngine(staticResolver{country: "NG"})

	booking := baseBooking(models.ServiceStandard)
	booking.Extras = models.Extras{AddOns: []string{"IRONING"}}

	_, err := engine.QuoteForBooking(context.Background(), booking)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
