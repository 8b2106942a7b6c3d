package notify

import (
	"context"
	"log"

	order "haulstream/internal/order/domain"
)

// LogNotifier writes lifecycle events to the application log. It is the
// default sink when no webhook is configured.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier constructs a notifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// OrderSubmitted logs a submission event.
func (n *LogNotifier) OrderSubmitted(ctx context.Context, o *order.Order, customerPrice float64) {
	_ = ctx
	if n == nil || o == nil {
		return
	}
	n.logger.Printf("order %s submitted, customer price %.2f", o.ID, customerPrice)
}

// ApprovalResolved logs an approval decision event.
func (n *LogNotifier) ApprovalResolved(ctx context.Context, orderID string, accepted bool) {
	_ = ctx
	if n == nil {
		return
	}
	n.logger.Printf("approval for order %s resolved, accepted=%t", orderID, accepted)
}
