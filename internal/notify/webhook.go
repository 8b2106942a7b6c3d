package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"haulstream/internal/observability/metrics"
	order "haulstream/internal/order/domain"
)

const (
	kindOrderSubmitted   = "order_submitted"
	kindApprovalResolved = "approval_resolved"
)

// WebhookNotifier posts order lifecycle events to a webhook endpoint.
// Delivery is best-effort: failures are logged and counted, never
// surfaced to the calling transition.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *log.Logger
}

type webhookEvent struct {
	Kind          string  `json:"kind"`
	OrderID       string  `json:"order_id"`
	OrderGroupID  string  `json:"order_group_id,omitempty"`
	Status        string  `json:"status,omitempty"`
	CustomerPrice float64 `json:"customer_price,omitempty"`
	Accepted      *bool   `json:"accepted,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string, logger *log.Logger) *WebhookNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// OrderSubmitted posts a submission event.
func (n *WebhookNotifier) OrderSubmitted(ctx context.Context, o *order.Order, customerPrice float64) {
	if o == nil {
		return
	}
	n.post(ctx, webhookEvent{
		Kind:          kindOrderSubmitted,
		OrderID:       o.ID,
		OrderGroupID:  o.OrderGroupID,
		Status:        string(o.Status),
		CustomerPrice: customerPrice,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

// ApprovalResolved posts an approval decision event.
func (n *WebhookNotifier) ApprovalResolved(ctx context.Context, orderID string, accepted bool) {
	n.post(ctx, webhookEvent{
		Kind:       kindApprovalResolved,
		OrderID:    orderID,
		Accepted:   &accepted,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *WebhookNotifier) post(ctx context.Context, event webhookEvent) {
	if n == nil || n.url == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Printf("notify: marshal %s event failed: %v", event.Kind, err)
		metrics.IncNotifyDelivery(event.Kind, metrics.ResultError)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Printf("notify: build %s request failed: %v", event.Kind, err)
		metrics.IncNotifyDelivery(event.Kind, metrics.ResultError)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Printf("notify: deliver %s for order %s failed: %v", event.Kind, event.OrderID, err)
		metrics.IncNotifyDelivery(event.Kind, metrics.ResultError)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Printf("notify: deliver %s for order %s got status %d", event.Kind, event.OrderID, resp.StatusCode)
		metrics.IncNotifyDelivery(event.Kind, metrics.ResultError)
		return
	}
	metrics.IncNotifyDelivery(event.Kind, metrics.ResultSuccess)
}
