package pricing

import (
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
)

// Rate tables are static product configuration, all in minor currency
// units. Never computed at runtime.

var BaseServiceHourlyMinor = map[string]int64{
	models.ServiceStandard:  4500,
	models.ServiceOffice:    6500,
	models.ServiceDeepClean: 9000,
	models.ServiceCustom:    5000,
}

var AddOnPriceMinor = map[string]int64{
	models.AddOnLaundry:      2500,
	models.AddOnInsideFridge: 1800,
	models.AddOnWindows:      3000,
	models.AddOnCabinets:     2200,
}

const (
	CustomSquareMeterRateMinor int64 = 55
	CustomBedroomRateMinor     int64 = 1400
	CustomBathroomRateMinor    int64 = 1800
)

var CustomPropertyMultiplier = map[string]float64{
	models.PropertyApartment:  1.0,
	models.PropertyHouse:      1.15,
	models.PropertyOffice:     1.25,
	models.PropertyCommercial: 1.4,
}

var CustomScopePriceMinor = map[string]int64{
	models.ScopeKitchen:    1500,
	models.ScopeBathroom:   1700,
	models.ScopeBedroom:    1300,
	models.ScopeLivingArea: 1200,
	models.ScopeWindows:    1800,
	models.ScopeAppliances: 1600,
	models.ScopeFloors:     1100,
	models.ScopeUpholstery: 1900,
}

// Product geography. Explicit and easy to extend as markets open.
var AllowedCountries = []string{"NG"}

var CountryCurrency = map[string]string{
	"NG": "NGN",
}
