package catalog

import pricing "haulstream/internal/pricing/domain"

// RentalOneStep is flat-rate rental billed in whole 28-day periods.
type RentalOneStep struct {
	Rate float64
}

// RentalTwoStep is the legacy included/additional-day rental structure.
type RentalTwoStep struct {
	IncludedDays     int
	PerDayIncluded   float64
	PerDayAdditional float64
}

// RentalMultiStep carries one rate per billing tier.
type RentalMultiStep struct {
	Hour     float64
	Day      float64
	Week     float64
	TwoWeeks float64
	Month    float64
}

// RateFor returns the configured rate for a tier unit.
func (r RentalMultiStep) RateFor(unit string) (float64, bool) {
	switch unit {
	case pricing.UnitHour:
		return r.Hour, r.Hour != 0
	case pricing.UnitDay:
		return r.Day, r.Day != 0
	case pricing.UnitWeek:
		return r.Week, r.Week != 0
	case pricing.UnitTwoWeeks:
		return r.TwoWeeks, r.TwoWeeks != 0
	case pricing.UnitMonth:
		return r.Month, r.Month != 0
	default:
		return 0, false
	}
}

// Material is per-ton material pricing with an included allowance.
type Material struct {
	PricePerTon     float64
	TonnageIncluded int
}

// Service is flat or mileage-based service pricing. Miles zero means
// flat-rate, quantity one.
type Service struct {
	Rate  float64
	Miles float64
}

// ServiceTimesPerWeek prices recurring service by weekly frequency.
type ServiceTimesPerWeek struct {
	OneTimePerWeek    float64
	TwoTimesPerWeek   float64
	ThreeTimesPerWeek float64
	FourTimesPerWeek  float64
	FiveTimesPerWeek  float64
}

// RateFor returns the rate and description for a weekly frequency of 1-5.
func (s ServiceTimesPerWeek) RateFor(timesPerWeek int) (float64, string, error) {
	switch timesPerWeek {
	case 1:
		return s.OneTimePerWeek, "One Time Per Week", nil
	case 2:
		return s.TwoTimesPerWeek, "Two Times Per Week", nil
	case 3:
		return s.ThreeTimesPerWeek, "Three Times Per Week", nil
	case 4:
		return s.FourTimesPerWeek, "Four Times Per Week", nil
	case 5:
		return s.FiveTimesPerWeek, "Five Times Per Week", nil
	default:
		return 0, "", ErrInvalidFrequency
	}
}

// OfferingConfig is the pricing configuration the catalog resolves for an
// order group: which mode of each family is active, the fuel and
// environmental markup, and whether the underlying product auto-renews.
// At most one rental variant and one service variant may be set.
type OfferingConfig struct {
	OfferingID string
	AutoRenew  bool

	FuelEnvMarkupPercent float64

	RentalOneStep   *RentalOneStep
	RentalTwoStep   *RentalTwoStep
	RentalMultiStep *RentalMultiStep

	Material *Material

	Service             *Service
	ServiceTimesPerWeek *ServiceTimesPerWeek
}

// Validate enforces the one-variant-per-family invariant.
func (c *OfferingConfig) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	rentals := 0
	if c.RentalOneStep != nil {
		rentals++
	}
	if c.RentalTwoStep != nil {
		rentals++
	}
	if c.RentalMultiStep != nil {
		rentals++
	}
	if rentals > 1 {
		return ErrConflictingRental
	}
	if c.Service != nil && c.ServiceTimesPerWeek != nil {
		return ErrConflictingService
	}
	return nil
}

// HasEquipmentRental reports whether the offering rents equipment on the
// multi-step tier structure.
func (c *OfferingConfig) HasEquipmentRental() bool {
	return c != nil && c.RentalMultiStep != nil
}
