package pricing

import (
	"reflect"
	"testing"
)

func TestDecomposeGreedyLargestFirst(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		want     []TierCount
	}{
		{
			name:     "eight days",
			duration: 8,
			want:     []TierCount{{Unit: UnitWeek, Count: 1}, {Unit: UnitDay, Count: 1}},
		},
		{
			name:     "exactly one month",
			duration: 28,
			want:     []TierCount{{Unit: UnitMonth, Count: 1}},
		},
		{
			name:     "month plus two weeks plus day",
			duration: 43,
			want: []TierCount{
				{Unit: UnitMonth, Count: 1},
				{Unit: UnitTwoWeeks, Count: 1},
				{Unit: UnitDay, Count: 1},
			},
		},
		{
			name:     "two months",
			duration: 56,
			want:     []TierCount{{Unit: UnitMonth, Count: 2}},
		},
		{
			name:     "zero duration",
			duration: 0,
			want:     nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decompose(tc.duration, RentalTiers())
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Decompose(%v) = %v, want %v", tc.duration, got, tc.want)
			}
		})
	}
}

func TestDecomposeCoverage(t *testing.T) {
	tiers := []Tier{
		{Unit: UnitMonth, Size: DaysPerMonth},
		{Unit: UnitWeek, Size: DaysPerWeek},
		{Unit: UnitDay, Size: DaysPerDay},
	}
	sizes := map[string]float64{UnitMonth: DaysPerMonth, UnitWeek: DaysPerWeek, UnitDay: DaysPerDay}
	smallest := float64(DaysPerDay)

	for duration := float64(0); duration <= 120; duration++ {
		covered := 0.0
		for _, tc := range Decompose(duration, tiers) {
			if tc.Count <= 0 {
				t.Fatalf("duration %v: non-positive count %v", duration, tc)
			}
			covered += float64(tc.Count) * sizes[tc.Unit]
		}
		if covered > duration {
			t.Fatalf("duration %v: covered %v exceeds duration", duration, covered)
		}
		if duration-covered >= smallest {
			t.Fatalf("duration %v: remainder %v not below smallest unit", duration, duration-covered)
		}
	}
}

func TestDecomposeDeterministic(t *testing.T) {
	first := Decompose(71, RentalTiers())
	for i := 0; i < 10; i++ {
		if got := Decompose(71, RentalTiers()); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v differs from %v", i, got, first)
		}
	}
}

func TestDecomposeSubUnitRemainderDropped(t *testing.T) {
	tiers := []Tier{{Unit: UnitWeek, Size: DaysPerWeek}}
	got := Decompose(10, tiers)
	want := []TierCount{{Unit: UnitWeek, Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose(10, weeks) = %v, want %v", got, want)
	}
}
