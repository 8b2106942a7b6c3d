package order

import (
	"errors"
	"testing"
)

func TestLineItemPrices(t *testing.T) {
	li := LineItem{Rate: 10, Quantity: 5, PlatformFeePercent: 30}
	if got := li.SellerPrice(); got != 50 {
		t.Fatalf("SellerPrice() = %v, want 50", got)
	}
	if got := li.CustomerPrice(); got != 65 {
		t.Fatalf("CustomerPrice() = %v, want 65", got)
	}
}

func TestLineItemPriceRounding(t *testing.T) {
	// 3 * 3.333 = 9.999 rounds to 10.00 per line before summation.
	li := LineItem{Rate: 3.333, Quantity: 3}
	if got := li.SellerPrice(); got != 10.00 {
		t.Fatalf("SellerPrice() = %v, want 10.00", got)
	}
}

func TestOrderTotalsSumRoundedLines(t *testing.T) {
	items := []LineItem{
		{Rate: 10, Quantity: 5, PlatformFeePercent: 30},
		{Rate: 15, Quantity: 3, PlatformFeePercent: 30},
	}
	if got := SellerPrice(items); got != 95 {
		t.Fatalf("SellerPrice() = %v, want 95", got)
	}
	if got := CustomerPrice(items); got != 123.50 {
		t.Fatalf("CustomerPrice() = %v, want 123.50", got)
	}
}

func TestZeroPlatformFeeMatchesSellerPrice(t *testing.T) {
	items := []LineItem{
		{Rate: 20, Quantity: 2},
		{Rate: 7.5, Quantity: 4},
	}
	if CustomerPrice(items) != SellerPrice(items) {
		t.Fatalf("customer %v != seller %v with zero fee", CustomerPrice(items), SellerPrice(items))
	}
}

func TestLineItemValidate(t *testing.T) {
	li := LineItem{PlatformFeePercent: 130}
	if err := li.Validate(); !errors.Is(err, ErrPlatformFeeRange) {
		t.Fatalf("error = %v, want ErrPlatformFeeRange", err)
	}
	li.PlatformFeePercent = 100
	if err := li.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	var nilItem *LineItem
	if err := nilItem.Validate(); !errors.Is(err, ErrNilLineItem) {
		t.Fatalf("error = %v, want ErrNilLineItem", err)
	}
}

func TestRepriceClearsTax(t *testing.T) {
	li := LineItem{Rate: 10, Quantity: 2, Tax: 1.6, TaxApplied: true}
	li.Reprice(12, 3)
	if li.Rate != 12 || li.Quantity != 3 {
		t.Fatalf("reprice not applied: %+v", li)
	}
	if li.Tax != 0 || li.TaxApplied {
		t.Fatalf("tax not cleared: %+v", li)
	}
}
