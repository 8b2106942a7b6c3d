package application

import (
	"context"
	"time"

	catalog "haulstream/internal/catalog/domain"
	order "haulstream/internal/order/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// OrderStore loads and mutates orders and order groups.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetGroup(ctx context.Context, id string) (*order.OrderGroup, error)
	// ListByGroup returns the group's orders ordered by creation.
	ListByGroup(ctx context.Context, groupID string) ([]order.Order, error)
	CreateOrder(ctx context.Context, o *order.Order) error
	// UpdateStatus writes the status immediately, outside any enclosing
	// transaction, so concurrent readers observe it.
	UpdateStatus(ctx context.Context, id string, status order.Status) error
	StampSubmitted(ctx context.Context, id string, at time.Time) error
	ClearSubmitted(ctx context.Context, id string) error
	StampCompleted(ctx context.Context, id string, at time.Time) error
}

// LineItemStore persists order line items.
type LineItemStore interface {
	ListByOrder(ctx context.Context, orderID string) ([]order.LineItem, error)
	CountByOrder(ctx context.Context, orderID string) (int, error)
	// CreateAll persists the full set atomically; partial writes are
	// never committed.
	CreateAll(ctx context.Context, items []order.LineItem) error
}

// Catalog resolves the pricing configuration for an order group.
type Catalog interface {
	ConfigForGroup(ctx context.Context, group *order.OrderGroup) (*catalog.OfferingConfig, error)
}

// PaymentPort reports whether a company can be billed.
type PaymentPort interface {
	HasPaymentMethod(ctx context.Context, companyID string) (bool, error)
}

// Notifier emits order lifecycle notifications.
type Notifier interface {
	OrderSubmitted(ctx context.Context, o *order.Order, customerPrice float64)
	ApprovalResolved(ctx context.Context, orderID string, accepted bool)
}
