package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Booking statuses. REQUESTED -> ACCEPTED -> CLEANER_COMPLETED ->
// CUSTOMER_ACKNOWLEDGED is the only modeled path; CANCELLED is a terminal
// value settable outside the state machine.
const (
	BookingStatusRequested            = "REQUESTED"
	BookingStatusAccepted             = "ACCEPTED"
	BookingStatusCleanerCompleted     = "CLEANER_COMPLETED"
	BookingStatusCustomerAcknowledged = "CUSTOMER_ACKNOWLEDGED"
	BookingStatusCancelled            = "CANCELLED"
)

// ValidBookingStatuses is the closed set accepted in list filters.
var ValidBookingStatuses = map[string]struct{}{
	BookingStatusRequested:            {},
	BookingStatusAccepted:             {},
	BookingStatusCleanerCompleted:     {},
	BookingStatusCustomerAcknowledged: {},
	BookingStatusCancelled:            {},
}

// Cleaning service types.
const (
	ServiceStandard  = "STANDARD"
	ServiceOffice    = "OFFICE"
	ServiceDeepClean = "DEEP_CLEAN"
	ServiceCustom    = "CUSTOM"
)

var ValidServices = map[string]struct{}{
	ServiceStandard:  {},
	ServiceOffice:    {},
	ServiceDeepClean: {},
	ServiceCustom:    {},
}

// Add-on services billable on top of any cleaning service.
const (
	AddOnLaundry      = "LAUNDRY"
	AddOnInsideFridge = "INSIDE_FRIDGE"
	AddOnWindows      = "WINDOWS"
	AddOnCabinets     = "CABINETS"
)

// Property types for CUSTOM service pricing.
const (
	PropertyApartment  = "APARTMENT"
	PropertyHouse      = "HOUSE"
	PropertyOffice     = "OFFICE"
	PropertyCommercial = "COMMERCIAL"
)

// Cleaning scope items for CUSTOM service pricing.
const (
	ScopeKitchen    = "KITCHEN"
	ScopeBathroom   = "BATHROOM"
	ScopeBedroom    = "BEDROOM"
	ScopeLivingArea = "LIVING_AREA"
	ScopeWindows    = "WINDOWS"
	ScopeAppliances = "APPLIANCES"
	ScopeFloors     = "FLOORS"
	ScopeUpholstery = "UPHOLSTERY"
)

// How long the assigned cleaner has to accept a new booking.
const CleanerAcceptanceWindow = 3 * time.Hour

// Extras holds the add-on selection for a booking. Stored as JSONB.
type Extras struct {
	AddOns []string `json:"add_ons"`
}

func (e Extras) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *Extras) Scan(src interface{}) error {
	if src == nil {
		*e = Extras{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("models: cannot scan %T into Extras", src)
	}
}

// CustomServiceDetails describes the property for a CUSTOM service
// booking. Present if and only if the service is CUSTOM.
type CustomServiceDetails struct {
	PropertyType  string   `json:"property_type"`
	SquareMeters  float64  `json:"square_meters"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	CleaningScope []string `json:"cleaning_scope"`
}

func (d CustomServiceDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *CustomServiceDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("models: cannot scan %T into CustomServiceDetails", src)
	}
}

// Duration is the requested cleaning duration.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// ToHours converts the duration to fractional hours.
func (d Duration) ToHours() float64 {
	return float64(d.Hours) + float64(d.Minutes)/60
}

// Booking is one cleaning engagement between a customer and a cleaner.
// Parties are immutable after creation; status moves only through
// guarded transitions.
type Booking struct {
	ID              uuid.UUID             `db:"id" json:"id"`
	CustomerID      uuid.UUID             `db:"customer_id" json:"customer_id"`
	CleanerID       uuid.UUID             `db:"cleaner_id" json:"cleaner_id"`
	PlaceID         string                `db:"place_id" json:"place_id"`
	Service         string                `db:"service" json:"service"`
	DurationHours   int                   `db:"duration_hours" json:"-"`
	DurationMinutes int                   `db:"duration_minutes" json:"-"`
	Extras          Extras                `db:"extras" json:"extras"`
	CustomDetails   *CustomServiceDetails `db:"custom_details" json:"custom_details,omitempty"`
	Status          string                `db:"status" json:"status"`

	PaymentID        *uuid.UUID `db:"payment_id" json:"payment_id,omitempty"`
	PriceAmountMinor *int64     `db:"price_amount_minor" json:"price_amount_minor,omitempty"`
	PriceCurrency    *string    `db:"price_currency" json:"price_currency,omitempty"`
	PriceBreakdown   JSONMap    `db:"price_breakdown" json:"price_breakdown,omitempty"`

	CleanerAcceptanceDeadline time.Time  `db:"cleaner_acceptance_deadline" json:"cleaner_acceptance_deadline"`
	CleanerAcceptedAt         *time.Time `db:"cleaner_accepted_at" json:"cleaner_accepted_at,omitempty"`
	CleanerCompletedAt        *time.Time `db:"cleaner_completed_at" json:"cleaner_completed_at,omitempty"`
	CustomerAcknowledgedAt    *time.Time `db:"customer_acknowledged_at" json:"customer_acknowledged_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Duration returns the requested duration as a value type.
func (b *Booking) Duration() Duration {
	return Duration{Hours: b.DurationHours, Minutes: b.DurationMinutes}
}

// MarshalJSON renders duration as the nested {hours, minutes} object the
// API contract uses.
func (b *Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		*alias
		Duration Duration `json:"duration"`
	}{
		alias:    (*alias)(b),
		Duration: b.Duration(),
	})
}

// ValidateSpec checks the service specification invariants, in particular
// that custom_details is present exactly when the service is CUSTOM.
func (b *Booking) ValidateSpec() error {
	if _, ok := ValidServices[b.Service]; !ok {
		return fmt.Errorf("unknown service %q", b.Service)
	}
	if b.Service == ServiceCustom && b.CustomDetails == nil {
		return fmt.Errorf("custom_details is required when service is CUSTOM")
	}
	if b.Service != ServiceCustom && b.CustomDetails != nil {
		return fmt.Errorf("custom_details is only allowed when service is CUSTOM")
	}
	if b.DurationHours < 0 || b.DurationMinutes < 0 || b.DurationMinutes > 59 {
		return fmt.Errorf("invalid duration")
	}
	if b.CustomDetails != nil {
		if b.CustomDetails.SquareMeters <= 0 {
			return fmt.Errorf("square_meters must be positive")
		}
		if b.CustomDetails.Bedrooms < 0 || b.CustomDetails.Bathrooms < 0 {
			return fmt.Errorf("room counts cannot be negative")
		}
		if len(b.CustomDetails.CleaningScope) == 0 {
			return fmt.Errorf("cleaning_scope must not be empty")
		}
	}
	return nil
}
