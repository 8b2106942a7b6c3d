package application

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	catalog "haulstream/internal/catalog/domain"
	"haulstream/internal/order/infrastructure/memory"

	order "haulstream/internal/order/domain"
)

type stubCatalog struct {
	cfg *catalog.OfferingConfig
	err error
}

func (s stubCatalog) ConfigForGroup(ctx context.Context, group *order.OrderGroup) (*catalog.OfferingConfig, error) {
	return s.cfg, s.err
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func date(dayOfMonth int) time.Time {
	return time.Date(2026, time.March, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func newPricingFixture(t *testing.T, cfg *catalog.OfferingConfig) (*PricingService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc, err := NewPricingService(store, store, stubCatalog{cfg: cfg}, fixedClock{at: date(20)}, log.New(testWriter{t}, "", 0))
	if err != nil {
		t.Fatalf("NewPricingService() error: %v", err)
	}
	return svc, store
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestGenerateTwoStepRental(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID: "off-1",
		RentalTwoStep: &catalog.RentalTwoStep{
			IncludedDays:     5,
			PerDayIncluded:   10,
			PerDayAdditional: 15,
		},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), EndDate: date(28), TakeRate: 30})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(2), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(10), EndDate: date(18), CreatedAt: date(9)})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("line items = %d, want 2", len(items))
	}
	assertLine(t, items[0], order.LineItemRental, 10, 5, "Included Days")
	assertLine(t, items[1], order.LineItemRental, 15, 3, "Additional Days")

	price, err := svc.CustomerPrice(context.Background(), "o2")
	if err != nil {
		t.Fatalf("CustomerPrice() error: %v", err)
	}
	if price != 123.50 {
		t.Fatalf("customer price = %v, want 123.50", price)
	}
	seller, err := svc.SellerPrice(context.Background(), "o2")
	if err != nil {
		t.Fatalf("SellerPrice() error: %v", err)
	}
	if seller != 95 {
		t.Fatalf("seller price = %v, want 95", seller)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID:    "off-1",
		RentalOneStep: &catalog.RentalOneStep{Rate: 200},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), TakeRate: 20})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(29), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(10), EndDate: date(18), CreatedAt: date(9)})

	first, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	second, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("second GenerateLineItems() error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("regeneration changed line count: %d vs %d", len(first), len(second))
	}
	count, err := store.CountByOrder(context.Background(), "o2")
	if err != nil {
		t.Fatalf("CountByOrder() error: %v", err)
	}
	if count != len(first) {
		t.Fatalf("stored items = %d, want %d", count, len(first))
	}
}

func TestGenerateFirstOrderFees(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{OfferingID: "off-1"})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), DeliveryFee: 100, RemovalFee: 80, TakeRate: 25})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), CreatedAt: date(1)})

	items, err := svc.GenerateLineItems(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("line items = %d, want 2", len(items))
	}
	assertLine(t, items[0], order.LineItemDelivery, 100, 1, "Delivery Fee")
	assertLine(t, items[1], order.LineItemRemoval, 80, 1, "Removal Fee")
	for _, li := range items {
		if !li.IsFlatRate {
			t.Fatalf("%s line should be flat rate", li.Type)
		}
		if li.PlatformFeePercent != 25 {
			t.Fatalf("platform fee = %v, want 25", li.PlatformFeePercent)
		}
	}
}

func TestGenerateMultiStepRental(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID: "off-1",
		RentalMultiStep: &catalog.RentalMultiStep{
			Month:    300,
			TwoWeeks: 180,
			Week:     70,
			Day:      12,
			Hour:     2,
		},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1)})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{
		ID: "o2", OrderGroupID: "g1",
		StartDate: date(2),
		EndDate:   date(2).AddDate(0, 0, 43),
		CreatedAt: date(2),
	})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	// 43 days = 1 month + 1 two-week block + 1 day.
	if len(items) != 3 {
		t.Fatalf("line items = %d, want 3", len(items))
	}
	assertLine(t, items[0], order.LineItemRental, 300, 1, "Rental (month)")
	assertLine(t, items[1], order.LineItemRental, 180, 1, "Rental (two_weeks)")
	assertLine(t, items[2], order.LineItemRental, 12, 1, "Rental (day)")
}

func TestGenerateMultiStepSkipsFirstOrder(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID:      "off-1",
		RentalMultiStep: &catalog.RentalMultiStep{Month: 300, Day: 12},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), DeliveryFee: 50, RemovalFee: 40})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(8), CreatedAt: date(1)})

	items, err := svc.GenerateLineItems(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	for _, li := range items {
		if li.Type == order.LineItemRental {
			t.Fatalf("first order should carry no tiered rental line, got %+v", li)
		}
	}
}

func TestGenerateMaterial(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID: "off-1",
		Material:   &catalog.Material{PricePerTon: 55, TonnageIncluded: 2},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), TonnageQuantity: 5})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(5), EndDate: date(12), CreatedAt: date(4)})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("line items = %d, want 2", len(items))
	}
	assertLine(t, items[0], order.LineItemMaterial, 55, 2, "Included Tons")
	assertLine(t, items[1], order.LineItemMaterial, 55, 3, "Additional Tons")
}

func TestGenerateRemovalOrderSuppressesRecurringLines(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID: "off-1",
		RentalTwoStep: &catalog.RentalTwoStep{
			IncludedDays:     5,
			PerDayIncluded:   10,
			PerDayAdditional: 15,
		},
		Material: &catalog.Material{PricePerTon: 55, TonnageIncluded: 2},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), EndDate: date(28), TonnageQuantity: 5})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(25), EndDate: date(28), CreatedAt: date(24)})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	// A zero removal placeholder and no included-day or material lines.
	if len(items) != 1 {
		t.Fatalf("line items = %d, want 1: %+v", len(items), items)
	}
	assertLine(t, items[0], order.LineItemRemoval, 0, 1, "Removal Fee")
	for _, li := range items {
		if li.Type == order.LineItemMaterial || li.Description == "Included Days" {
			t.Fatalf("removal order should suppress %s", li.Description)
		}
	}
}

func TestGenerateTimesPerWeekService(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID: "off-1",
		ServiceTimesPerWeek: &catalog.ServiceTimesPerWeek{
			OneTimePerWeek:   80,
			TwoTimesPerWeek:  150,
			FiveTimesPerWeek: 340,
		},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), TimesPerWeek: 2})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(2), EndDate: date(9), CreatedAt: date(2)})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("line items = %d, want 1", len(items))
	}
	assertLine(t, items[0], order.LineItemService, 150, 1, "Two Times Per Week")
}

func TestGenerateTimesPerWeekRejectsBadFrequency(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID:          "off-1",
		ServiceTimesPerWeek: &catalog.ServiceTimesPerWeek{OneTimePerWeek: 80},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1), TimesPerWeek: 6})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(2), EndDate: date(9), CreatedAt: date(2)})

	_, err := svc.GenerateLineItems(context.Background(), "o1")
	var genErr *order.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want GenerationError", err)
	}
	if !errors.Is(err, catalog.ErrInvalidFrequency) {
		t.Fatalf("error = %v, want wrapped ErrInvalidFrequency", err)
	}
	count, _ := store.CountByOrder(context.Background(), "o1")
	if count != 0 {
		t.Fatalf("failed generation persisted %d items", count)
	}
}

func TestGenerateMileageService(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID: "off-1",
		Service:    &catalog.Service{Rate: 3.5, Miles: 12},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1)})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(2), EndDate: date(9), CreatedAt: date(2)})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("line items = %d, want 1", len(items))
	}
	li := items[0]
	if li.Rate != 3.5 || li.Quantity != 12 || li.IsFlatRate {
		t.Fatalf("mileage service line = %+v", li)
	}
}

func TestGenerateFuelAndEnvironmentalRunsLast(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID:           "off-1",
		FuelEnvMarkupPercent: 10,
		RentalTwoStep: &catalog.RentalTwoStep{
			IncludedDays:     5,
			PerDayIncluded:   10,
			PerDayAdditional: 15,
		},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1)})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(10), EndDate: date(18), CreatedAt: date(9)})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("line items = %d, want 3", len(items))
	}
	last := items[len(items)-1]
	if last.Type != order.LineItemFuelAndEnv {
		t.Fatalf("last line type = %s, want %s", last.Type, order.LineItemFuelAndEnv)
	}
	// 10% of the 95.00 subtotal.
	if last.Rate != 9.5 || last.Quantity != 1 || !last.IsFlatRate {
		t.Fatalf("fuel and environmental line = %+v", last)
	}
}

func TestGenerateZeroMarkupOmitsFuelLine(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{
		OfferingID:    "off-1",
		RentalOneStep: &catalog.RentalOneStep{Rate: 200},
	})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1)})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(2), EndDate: date(9), CreatedAt: date(2)})

	items, err := svc.GenerateLineItems(context.Background(), "o2")
	if err != nil {
		t.Fatalf("GenerateLineItems() error: %v", err)
	}
	for _, li := range items {
		if li.Type == order.LineItemFuelAndEnv {
			t.Fatalf("unexpected fuel and environmental line: %+v", li)
		}
	}
}

func TestClassifyOperation(t *testing.T) {
	svc, store := newPricingFixture(t, &catalog.OfferingConfig{OfferingID: "off-1", AutoRenew: true})
	store.PutGroup(order.OrderGroup{ID: "g1", OfferingID: "off-1", StartDate: date(1)})
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: date(1), EndDate: date(1), SubmittedOn: date(1), CreatedAt: date(1)})
	store.PutOrder(order.Order{ID: "o2", OrderGroupID: "g1", StartDate: date(2), EndDate: date(29), CreatedAt: date(2)})

	got, err := svc.Classify(context.Background(), "o2")
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if got != order.TypeAutoRenewal {
		t.Fatalf("Classify() = %s, want %s", got, order.TypeAutoRenewal)
	}
}

func TestGenerateUnknownOrder(t *testing.T) {
	svc, _ := newPricingFixture(t, &catalog.OfferingConfig{OfferingID: "off-1"})
	_, err := svc.GenerateLineItems(context.Background(), "missing")
	if !errors.Is(err, order.ErrOrderNotFound) {
		t.Fatalf("error = %v, want ErrOrderNotFound", err)
	}
}

func assertLine(t *testing.T, li order.LineItem, lineType order.LineItemType, rate, quantity float64, description string) {
	t.Helper()
	if li.Type != lineType {
		t.Fatalf("type = %s, want %s", li.Type, lineType)
	}
	if li.Rate != rate {
		t.Fatalf("%s rate = %v, want %v", description, li.Rate, rate)
	}
	if li.Quantity != quantity {
		t.Fatalf("%s quantity = %v, want %v", description, li.Quantity, quantity)
	}
	if li.Description != description {
		t.Fatalf("description = %q, want %q", li.Description, description)
	}
}
