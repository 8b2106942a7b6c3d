package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	catalog "haulstream/internal/catalog/domain"
	"haulstream/internal/ids"
	"haulstream/internal/observability/metrics"
	order "haulstream/internal/order/domain"
	pricing "haulstream/internal/pricing/domain"
)

// PricingService classifies orders and generates their priced line items.
type PricingService struct {
	orders    OrderStore
	lineItems LineItemStore
	catalog   Catalog
	clock     Clock
	logger    *log.Logger
}

// NewPricingService constructs the service.
func NewPricingService(orders OrderStore, lineItems LineItemStore, cat Catalog, clock Clock, logger *log.Logger) (*PricingService, error) {
	if orders == nil {
		return nil, errors.New("pricing service: nil order store")
	}
	if lineItems == nil {
		return nil, errors.New("pricing service: nil line item store")
	}
	if cat == nil {
		return nil, errors.New("pricing service: nil catalog")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PricingService{
		orders:    orders,
		lineItems: lineItems,
		catalog:   cat,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Classify determines the order's type within its group sequence.
func (s *PricingService) Classify(ctx context.Context, orderID string) (order.Type, error) {
	o, g, siblings, cfg, err := s.load(ctx, orderID)
	if err != nil {
		return order.TypeUnclassified, err
	}
	seq := order.NewSequenceContext(o, siblings)
	return order.Classify(o, g, seq, cfg.AutoRenew), nil
}

// GenerateLineItems builds and persists the order's line items. The
// operation is idempotent: an order that already has line items keeps
// them unchanged and they are returned as-is. Generation is
// all-or-nothing; on failure no partial set is committed.
func (s *PricingService) GenerateLineItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveLineItemGenerate(result, time.Since(start))
	}()

	existing, err := s.lineItems.ListByOrder(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	o, g, siblings, cfg, err := s.load(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return nil, &order.GenerationError{OrderID: orderID, Err: err}
	}

	items, err := s.buildLineItems(o, g, siblings, cfg)
	if err != nil {
		result = metrics.ResultError
		s.logger.Printf("line item generation abandoned for order %s: %v", orderID, err)
		return nil, &order.GenerationError{OrderID: orderID, Err: err}
	}
	if err := s.lineItems.CreateAll(ctx, items); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return items, nil
}

// CustomerPrice recomputes the customer-side total from the order's line
// items. No cross-request caching; callers needing memoization hold the
// returned value themselves.
func (s *PricingService) CustomerPrice(ctx context.Context, orderID string) (float64, error) {
	items, err := s.lineItems.ListByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return order.CustomerPrice(items), nil
}

// SellerPrice recomputes the seller-side total from the order's line items.
func (s *PricingService) SellerPrice(ctx context.Context, orderID string) (float64, error) {
	items, err := s.lineItems.ListByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return order.SellerPrice(items), nil
}

// TakeRate returns the platform margin percentage of the order's group.
func (s *PricingService) TakeRate(ctx context.Context, orderID string) (float64, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if o == nil {
		return 0, order.ErrOrderNotFound
	}
	g, err := s.orders.GetGroup(ctx, o.OrderGroupID)
	if err != nil {
		return 0, err
	}
	if g == nil {
		return 0, order.ErrGroupNotFound
	}
	return g.TakeRate, nil
}

func (s *PricingService) load(ctx context.Context, orderID string) (*order.Order, *order.OrderGroup, []order.Order, *catalog.OfferingConfig, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if o == nil {
		return nil, nil, nil, nil, order.ErrOrderNotFound
	}
	g, err := s.orders.GetGroup(ctx, o.OrderGroupID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if g == nil {
		return nil, nil, nil, nil, order.ErrGroupNotFound
	}
	siblings, err := s.orders.ListByGroup(ctx, g.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cfg, err := s.catalog.ConfigForGroup(ctx, g)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}
	return o, g, siblings, cfg, nil
}

// generationContext carries the per-order flags the generators share.
type generationContext struct {
	isFirst     bool
	isLast      bool
	isEquipment bool
}

// buildLineItems runs the generators in their fixed sequence. Order
// matters: the fuel and environmental line depends on every line emitted
// before it.
func (s *PricingService) buildLineItems(o *order.Order, g *order.OrderGroup, siblings []order.Order, cfg *catalog.OfferingConfig) ([]order.LineItem, error) {
	seq := order.NewSequenceContext(o, siblings)
	genCtx := generationContext{
		isFirst:     seq.First,
		isLast:      g.HasEndDate() && o.EndDate.Equal(g.EndDate) && seq.Count > 1,
		isEquipment: cfg.HasEquipmentRental(),
	}
	now := s.clock.Now()

	var items []order.LineItem
	add := func(li order.LineItem) {
		li.ID = ids.New()
		li.OrderID = o.ID
		li.PlatformFeePercent = g.TakeRate
		li.CreatedAt = now
		items = append(items, li)
	}

	s.generateDeliveryRemoval(o, g, genCtx, add)

	if err := s.generateRental(o, g, genCtx, cfg, add); err != nil {
		return nil, err
	}
	s.generateMaterial(g, genCtx, cfg, add)
	if err := s.generateService(g, genCtx, cfg, add); err != nil {
		return nil, err
	}
	s.generateFuelAndEnvironmental(cfg, items, add)

	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// generateDeliveryRemoval emits the delivery fee line on the first order
// and the removal fee lines. The last order gets a zero-amount removal
// placeholder so the removal charge always has a visible line, even when
// already billed on the first order.
func (s *PricingService) generateDeliveryRemoval(o *order.Order, g *order.OrderGroup, genCtx generationContext, add func(order.LineItem)) {
	if genCtx.isFirst {
		add(order.LineItem{
			Type:        order.LineItemDelivery,
			Rate:        g.DeliveryFee,
			Quantity:    1,
			Description: "Delivery Fee",
			IsFlatRate:  true,
		})
		add(order.LineItem{
			Type:        order.LineItemRemoval,
			Rate:        g.RemovalFee,
			Quantity:    1,
			Description: "Removal Fee",
			IsFlatRate:  true,
		})
		return
	}
	if genCtx.isLast && !genCtx.isEquipment {
		add(order.LineItem{
			Type:        order.LineItemRemoval,
			Rate:        0,
			Quantity:    1,
			Description: "Removal Fee",
			IsFlatRate:  true,
		})
	}
}

func (s *PricingService) generateRental(o *order.Order, g *order.OrderGroup, genCtx generationContext, cfg *catalog.OfferingConfig, add func(order.LineItem)) error {
	days := o.DurationDays()

	switch {
	case cfg.RentalOneStep != nil:
		periods := int(math.Ceil(float64(days) / pricing.DaysPerMonth))
		if periods > 0 {
			add(order.LineItem{
				Type:        order.LineItemRental,
				Rate:        cfg.RentalOneStep.Rate,
				Quantity:    float64(periods),
				Description: "Rental (28 day periods)",
				IsFlatRate:  true,
			})
		}

	case cfg.RentalTwoStep != nil:
		ts := cfg.RentalTwoStep
		if !(genCtx.isLast && !genCtx.isEquipment) {
			add(order.LineItem{
				Type:        order.LineItemRental,
				Rate:        ts.PerDayIncluded,
				Quantity:    float64(ts.IncludedDays),
				Description: "Included Days",
			})
		}
		if over := days - ts.IncludedDays; over > 0 {
			add(order.LineItem{
				Type:        order.LineItemRental,
				Rate:        ts.PerDayAdditional,
				Quantity:    float64(over),
				Description: "Additional Days",
			})
		}

	case cfg.RentalMultiStep != nil:
		// The first order's rental is covered by the delivery-period
		// setup; every subsequent order, last included, is tiered.
		if genCtx.isFirst {
			return nil
		}
		for _, tc := range pricing.Decompose(float64(days), pricing.RentalTiers()) {
			rate, ok := cfg.RentalMultiStep.RateFor(tc.Unit)
			if !ok {
				return fmt.Errorf("no %s rate configured for offering %s", tc.Unit, cfg.OfferingID)
			}
			add(order.LineItem{
				Type:        order.LineItemRental,
				Rate:        rate,
				Quantity:    float64(tc.Count),
				Description: "Rental (" + tc.Unit + ")",
			})
		}
	}
	return nil
}

// generateMaterial emits the included and additional tonnage lines.
// Suppressed for a standard removal order: the material was billed with
// the preceding service period.
func (s *PricingService) generateMaterial(g *order.OrderGroup, genCtx generationContext, cfg *catalog.OfferingConfig, add func(order.LineItem)) {
	if cfg.Material == nil {
		return
	}
	if genCtx.isLast && !genCtx.isEquipment {
		return
	}
	mat := cfg.Material
	add(order.LineItem{
		Type:        order.LineItemMaterial,
		Rate:        mat.PricePerTon,
		Quantity:    float64(mat.TonnageIncluded),
		Description: "Included Tons",
	})
	if over := g.TonnageQuantity - mat.TonnageIncluded; over > 0 {
		add(order.LineItem{
			Type:        order.LineItemMaterial,
			Rate:        mat.PricePerTon,
			Quantity:    float64(over),
			Description: "Additional Tons",
		})
	}
}

func (s *PricingService) generateService(g *order.OrderGroup, genCtx generationContext, cfg *catalog.OfferingConfig, add func(order.LineItem)) error {
	switch {
	case cfg.Service != nil:
		if genCtx.isLast {
			return nil
		}
		svc := cfg.Service
		quantity := 1.0
		flat := true
		description := "Service"
		if svc.Miles > 0 {
			quantity = svc.Miles
			flat = false
			description = "Service (per mile)"
		}
		add(order.LineItem{
			Type:        order.LineItemService,
			Rate:        svc.Rate,
			Quantity:    quantity,
			Description: description,
			IsFlatRate:  flat,
		})

	case cfg.ServiceTimesPerWeek != nil:
		rate, description, err := cfg.ServiceTimesPerWeek.RateFor(g.TimesPerWeek)
		if err != nil {
			return err
		}
		add(order.LineItem{
			Type:        order.LineItemService,
			Rate:        rate,
			Quantity:    1,
			Description: description,
			IsFlatRate:  true,
		})
	}
	return nil
}

// generateFuelAndEnvironmental runs last: the surcharge is a percentage
// of every other line emitted for this order.
func (s *PricingService) generateFuelAndEnvironmental(cfg *catalog.OfferingConfig, emitted []order.LineItem, add func(order.LineItem)) {
	if cfg.FuelEnvMarkupPercent == 0 {
		return
	}
	subtotal := 0.0
	for i := range emitted {
		subtotal += emitted[i].SellerPrice()
	}
	fee := order.Round2(cfg.FuelEnvMarkupPercent / 100 * subtotal)
	if fee == 0 {
		return
	}
	add(order.LineItem{
		Type:        order.LineItemFuelAndEnv,
		Rate:        fee,
		Quantity:    1,
		Description: "Fuel and Environmental",
		IsFlatRate:  true,
	})
}
