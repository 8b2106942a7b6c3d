package order

import (
	"math"
	"time"
)

// LineItemType is the charge category of a line item.
type LineItemType string

const (
	LineItemDelivery   LineItemType = "DELIVERY"
	LineItemRemoval    LineItemType = "REMOVAL"
	LineItemRental     LineItemType = "RENTAL"
	LineItemMaterial   LineItemType = "MATERIAL"
	LineItemService    LineItemType = "SERVICE"
	LineItemFuelAndEnv LineItemType = "FUEL_AND_ENV"
)

// LineItem is one priced charge row attached to an order. Rate, quantity
// and fee are immutable once created except by explicit re-pricing, which
// clears any cached tax.
type LineItem struct {
	ID      string
	OrderID string
	Type    LineItemType
	Rate    float64
	Quantity float64
	// PlatformFeePercent is the platform margin applied to this line,
	// in [0,100].
	PlatformFeePercent float64
	Tax                float64
	TaxApplied         bool
	Description        string
	IsFlatRate         bool
	CreatedAt          time.Time
}

// Validate checks line item invariants.
func (li *LineItem) Validate() error {
	if li == nil {
		return ErrNilLineItem
	}
	if li.PlatformFeePercent < 0 || li.PlatformFeePercent > 100 {
		return ErrPlatformFeeRange
	}
	return nil
}

// SellerPrice is the seller-side amount of this line, rounded to cents.
func (li *LineItem) SellerPrice() float64 {
	return Round2(li.Rate * li.Quantity)
}

// CustomerPrice is the customer-side amount of this line after the
// platform fee, rounded to cents.
func (li *LineItem) CustomerPrice() float64 {
	return Round2(li.Rate * li.Quantity * (1 + li.PlatformFeePercent/100))
}

// Reprice replaces rate and quantity and invalidates any cached tax.
func (li *LineItem) Reprice(rate, quantity float64) {
	li.Rate = rate
	li.Quantity = quantity
	li.Tax = 0
	li.TaxApplied = false
}

// CustomerPrice sums per-line customer prices, each rounded to cents
// before summation.
func CustomerPrice(items []LineItem) float64 {
	total := 0.0
	for i := range items {
		total += items[i].CustomerPrice()
	}
	return Round2(total)
}

// SellerPrice sums per-line seller prices, each rounded to cents before
// summation.
func SellerPrice(items []LineItem) float64 {
	total := 0.0
	for i := range items {
		total += items[i].SellerPrice()
	}
	return Round2(total)
}

// Round2 rounds an amount to two decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
