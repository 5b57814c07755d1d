package pricing

import (
	"context"
	"math"
	"strings"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// PlaceResolver resolves a booking's place to an ISO 3166-1 alpha-2
// country code. Implemented by the place service; lookups may hit a
// cache or the geocoding provider.
type PlaceResolver interface {
	CountryCodeForPlace(ctx context.Context, placeID string) (string, error)
}

// Quote is the computed price for a booking at a point in time. Once
// attached to the booking it is immutable.
type Quote struct {
	BookingID   string         `json:"booking_id"`
	CustomerID  string         `json:"customer_id"`
	CleanerID   string         `json:"cleaner_id"`
	PlaceID     string         `json:"place_id"`
	Currency    string         `json:"currency"`
	AmountMinor int64          `json:"amount_minor"`
	Breakdown   models.JSONMap `json:"breakdown"`
}

// Engine computes deterministic quotes from booking attributes and the
// static rate tables.
type Engine struct {
	places PlaceResolver
}

func NewEngine(places PlaceResolver) *Engine {
	return &Engine{places: places}
}

// QuoteForBooking prices a booking. All arithmetic is on integer minor
// units; the only float steps (duration scaling, property multiplier) are
// rounded immediately.
func (e *Engine) QuoteForBooking(ctx context.Context, booking *models.Booking) (*Quote, error) {
	countryCode, err := e.places.CountryCodeForPlace(ctx, booking.PlaceID)
	if err != nil {
		return nil, err
	}
	if countryCode == "" {
		return nil, apperror.Validation("unable to infer place country for pricing", map[string]interface{}{
			"place_id": booking.PlaceID,
		})
	}

	currency, err := currencyForCountry(countryCode)
	if err != nil {
		return nil, err
	}

	durationHours := math.Max(1.0, booking.Duration().ToHours())
	baseHourly, ok := BaseServiceHourlyMinor[booking.Service]
	if !ok {
		return nil, apperror.Validation("unknown service for pricing", map[string]interface{}{
			"service": booking.Service,
		})
	}
	baseServiceAmount := int64(math.Ceil(float64(baseHourly) * durationHours))

	var addOnsAmount int64
	addOns := make([]string, 0, len(booking.Extras.AddOns))
	for _, addOn := range booking.Extras.AddOns {
		price, ok := AddOnPriceMinor[addOn]
		if !ok {
			return nil, apperror.Validation("unknown add-on", map[string]interface{}{"add_on": addOn})
		}
		addOnsAmount += price
		addOns = append(addOns, addOn)
	}

	customAmount, err := customModifiersAmount(booking)
	if err != nil {
		return nil, err
	}

	subtotal := baseServiceAmount + addOnsAmount + customAmount
	total := subtotal

	breakdown := models.JSONMap{
		"base_service_amount":     baseServiceAmount,
		"addons_amount":           addOnsAmount,
		"custom_modifiers_amount": customAmount,
		"subtotal_amount":         subtotal,
		"total_amount":            total,
		"currency":                currency,
		"duration_hours":          durationHours,
		"service":                 booking.Service,
		"addons":                  addOns,
		"place_country_code":      countryCode,
	}

	return &Quote{
		BookingID:   booking.ID.String(),
		CustomerID:  booking.CustomerID.String(),
		CleanerID:   booking.CleanerID.String(),
		PlaceID:     booking.PlaceID,
		Currency:    currency,
		AmountMinor: total,
		Breakdown:   breakdown,
	}, nil
}

func currencyForCountry(countryCode string) (string, error) {
	currency, ok := CountryCurrency[strings.ToUpper(countryCode)]
	if !ok {
		supported := make([]string, 0, len(CountryCurrency))
		for code := range CountryCurrency {
			supported = append(supported, code)
		}
		return "", apperror.Validation("unsupported country for pricing", map[string]interface{}{
			"country_code": countryCode,
			"supported":    supported,
		})
	}
	return currency, nil
}

// customModifiersAmount is zero for non-custom services. The nil check is
// unreachable given the booking invariant but kept as a guard.
func customModifiersAmount(booking *models.Booking) (int64, error) {
	if booking.Service != models.ServiceCustom {
		return 0, nil
	}
	custom := booking.CustomDetails
	if custom == nil {
		return 0, apperror.Validation("custom_details is required for custom service pricing", nil)
	}

	raw := int64(math.Ceil(custom.SquareMeters * float64(CustomSquareMeterRateMinor)))
	raw += int64(custom.Bedrooms) * CustomBedroomRateMinor
	raw += int64(custom.Bathrooms) * CustomBathroomRateMinor
	for _, item := range custom.CleaningScope {
		price, ok := CustomScopePriceMinor[item]
		if !ok {
			return 0, apperror.Validation("unknown cleaning scope item", map[string]interface{}{"item": item})
		}
		raw += price
	}

	multiplier, ok := CustomPropertyMultiplier[custom.PropertyType]
	if !ok {
		return 0, apperror.Validation("unknown property type", map[string]interface{}{
			"property_type": custom.PropertyType,
		})
	}
	return int64(math.Round(float64(raw) * multiplier)), nil
}
