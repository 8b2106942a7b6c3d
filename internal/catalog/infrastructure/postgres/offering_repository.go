package postgres

import (
	"context"
	"database/sql"
	"errors"

	catalog "haulstream/internal/catalog/domain"
	order "haulstream/internal/order/domain"
)

// Rental and service mode discriminators stored with a configuration.
const (
	rentalModeOneStep   = "one_step"
	rentalModeTwoStep   = "two_step"
	rentalModeMultiStep = "multi_step"

	serviceModeFlat         = "flat"
	serviceModeTimesPerWeek = "times_per_week"
)

// OfferingRepository loads offering pricing configurations.
type OfferingRepository struct {
	db *sql.DB
}

// NewOfferingRepository constructs a repository.
func NewOfferingRepository(db *sql.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// ConfigForGroup resolves the pricing configuration of the group's
// offering.
func (r *OfferingRepository) ConfigForGroup(ctx context.Context, group *order.OrderGroup) (*catalog.OfferingConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("offering repo: nil db")
	}
	if group == nil {
		return nil, order.ErrNilGroup
	}
	return r.GetConfig(ctx, group.OfferingID)
}

// GetConfig fetches an offering configuration by offering id.
func (r *OfferingRepository) GetConfig(ctx context.Context, offeringID string) (*catalog.OfferingConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("offering repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT offering_id, auto_renew, fuel_env_markup_percent,
	rental_mode, rental_rate,
	rental_included_days, rental_per_day_included, rental_per_day_additional,
	rental_hour_rate, rental_day_rate, rental_week_rate,
	rental_two_weeks_rate, rental_month_rate,
	material_price_per_ton, material_tonnage_included,
	service_mode, service_rate, service_miles,
	service_one_time_per_week, service_two_times_per_week,
	service_three_times_per_week, service_four_times_per_week,
	service_five_times_per_week
FROM offering_configs
WHERE offering_id = $1
LIMIT 1`, offeringID)
	cfg, err := scanConfig(row)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, catalog.ErrConfigNotFound
	}
	return cfg, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*catalog.OfferingConfig, error) {
	var cfg catalog.OfferingConfig
	var rentalMode sql.NullString
	var rentalRate sql.NullFloat64
	var includedDays sql.NullInt64
	var perDayIncluded, perDayAdditional sql.NullFloat64
	var hourRate, dayRate, weekRate, twoWeeksRate, monthRate sql.NullFloat64
	var pricePerTon sql.NullFloat64
	var tonnageIncluded sql.NullInt64
	var serviceMode sql.NullString
	var serviceRate, serviceMiles sql.NullFloat64
	var onePW, twoPW, threePW, fourPW, fivePW sql.NullFloat64

	err := row.Scan(
		&cfg.OfferingID,
		&cfg.AutoRenew,
		&cfg.FuelEnvMarkupPercent,
		&rentalMode,
		&rentalRate,
		&includedDays, &perDayIncluded, &perDayAdditional,
		&hourRate, &dayRate, &weekRate, &twoWeeksRate, &monthRate,
		&pricePerTon, &tonnageIncluded,
		&serviceMode,
		&serviceRate, &serviceMiles,
		&onePW, &twoPW, &threePW, &fourPW, &fivePW,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	switch rentalMode.String {
	case rentalModeOneStep:
		cfg.RentalOneStep = &catalog.RentalOneStep{Rate: rentalRate.Float64}
	case rentalModeTwoStep:
		cfg.RentalTwoStep = &catalog.RentalTwoStep{
			IncludedDays:     int(includedDays.Int64),
			PerDayIncluded:   perDayIncluded.Float64,
			PerDayAdditional: perDayAdditional.Float64,
		}
	case rentalModeMultiStep:
		cfg.RentalMultiStep = &catalog.RentalMultiStep{
			Hour:     hourRate.Float64,
			Day:      dayRate.Float64,
			Week:     weekRate.Float64,
			TwoWeeks: twoWeeksRate.Float64,
			Month:    monthRate.Float64,
		}
	}

	if pricePerTon.Valid {
		cfg.Material = &catalog.Material{
			PricePerTon:     pricePerTon.Float64,
			TonnageIncluded: int(tonnageIncluded.Int64),
		}
	}

	switch serviceMode.String {
	case serviceModeFlat:
		cfg.Service = &catalog.Service{
			Rate:  serviceRate.Float64,
			Miles: serviceMiles.Float64,
		}
	case serviceModeTimesPerWeek:
		cfg.ServiceTimesPerWeek = &catalog.ServiceTimesPerWeek{
			OneTimePerWeek:    onePW.Float64,
			TwoTimesPerWeek:   twoPW.Float64,
			ThreeTimesPerWeek: threePW.Float64,
			FourTimesPerWeek:  fourPW.Float64,
			FiveTimesPerWeek:  fivePW.Float64,
		}
	}
	return &cfg, nil
}
