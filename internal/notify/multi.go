package notify

import (
	"context"

	orderapp "haulstream/internal/order/application"
	order "haulstream/internal/order/domain"
)

// MultiNotifier fans lifecycle events out to several notifiers.
type MultiNotifier struct {
	notifiers []orderapp.Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...orderapp.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// OrderSubmitted forwards the event to all notifiers.
func (m *MultiNotifier) OrderSubmitted(ctx context.Context, o *order.Order, customerPrice float64) {
	if m == nil {
		return
	}
	for _, n := range m.notifiers {
		if n != nil {
			n.OrderSubmitted(ctx, o, customerPrice)
		}
	}
}

// ApprovalResolved forwards the event to all notifiers.
func (m *MultiNotifier) ApprovalResolved(ctx context.Context, orderID string, accepted bool) {
	if m == nil {
		return
	}
	for _, n := range m.notifiers {
		if n != nil {
			n.ApprovalResolved(ctx, orderID, accepted)
		}
	}
}
