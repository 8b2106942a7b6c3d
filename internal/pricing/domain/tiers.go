package pricing

// Tier is one billing unit in a rate table, sized in days.
type Tier struct {
	Unit string
	Size float64
}

// TierCount is the number of whole units of a tier covering part of a duration.
type TierCount struct {
	Unit  string
	Count int
}

// Standard rental tier sizes in days.
const (
	DaysPerMonth    = 28
	DaysPerTwoWeeks = 14
	DaysPerWeek     = 7
	DaysPerDay      = 1
	DaysPerHour     = 1.0 / 24
)

// Tier unit names.
const (
	UnitMonth    = "month"
	UnitTwoWeeks = "two_weeks"
	UnitWeek     = "week"
	UnitDay      = "day"
	UnitHour     = "hour"
)

// RentalTiers returns the standard multi-step rental tier table,
// largest unit first.
func RentalTiers() []Tier {
	return []Tier{
		{Unit: UnitMonth, Size: DaysPerMonth},
		{Unit: UnitTwoWeeks, Size: DaysPerTwoWeeks},
		{Unit: UnitWeek, Size: DaysPerWeek},
		{Unit: UnitDay, Size: DaysPerDay},
		{Unit: UnitHour, Size: DaysPerHour},
	}
}

// Decompose expresses a duration in days as whole counts of the given
// tiers, greedily from the first (largest) tier down. Tiers must be
// supplied largest to smallest. The result covers at most the duration;
// any remainder smaller than the smallest tier is dropped, never billed
// fractionally. Greedy coverage is deterministic and does not backtrack,
// so it is not guaranteed to be the minimum-cost decomposition.
func Decompose(duration float64, tiers []Tier) []TierCount {
	if duration <= 0 {
		return nil
	}

	var result []TierCount
	remaining := duration
	for _, tier := range tiers {
		if tier.Size <= 0 {
			continue
		}
		count := int(remaining / tier.Size)
		if count <= 0 {
			continue
		}
		result = append(result, TierCount{Unit: tier.Unit, Count: count})
		remaining -= float64(count) * tier.Size
		if remaining <= 0 {
			break
		}
	}
	return result
}
