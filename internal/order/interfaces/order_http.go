package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"haulstream/internal/audit"
	"haulstream/internal/auth"
	catalog "haulstream/internal/catalog/domain"
	"haulstream/internal/observability/metrics"
	orderapp "haulstream/internal/order/application"
	order "haulstream/internal/order/domain"
)

const dateLayout = "2006-01-02"

// OrderHandler serves the order lifecycle and pricing endpoints under
// /api/v1/orders.
type OrderHandler struct {
	lifecycle *orderapp.LifecycleService
	pricing   *orderapp.PricingService
	orders    orderapp.OrderStore
	lineItems orderapp.LineItemStore
	auditor   audit.Recorder
	logger    *log.Logger
}

// NewOrderHandler constructs an OrderHandler. A nil auditor falls back to
// logging audit entries.
func NewOrderHandler(lifecycle *orderapp.LifecycleService, pricing *orderapp.PricingService, orders orderapp.OrderStore, lineItems orderapp.LineItemStore, auditor audit.Recorder, logger *log.Logger) *OrderHandler {
	if logger == nil {
		logger = log.Default()
	}
	if auditor == nil {
		auditor = audit.NewLogRecorder(logger)
	}
	return &OrderHandler{
		lifecycle: lifecycle,
		pricing:   pricing,
		orders:    orders,
		lineItems: lineItems,
		auditor:   auditor,
		logger:    logger,
	}
}

type createOrderRequest struct {
	OrderGroupID string `json:"order_group_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

type submitOrderRequest struct {
	OverrideApproval bool `json:"override_approval"`
}

type creditDecisionRequest struct {
	Approved bool `json:"approved"`
}

type orderResponse struct {
	ID            string             `json:"id"`
	OrderGroupID  string             `json:"order_group_id"`
	GroupStatus   string             `json:"order_group_status,omitempty"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	Status        string             `json:"status"`
	Type          string             `json:"type,omitempty"`
	SubmittedOn   *time.Time         `json:"submitted_on,omitempty"`
	AcceptedOn    *time.Time         `json:"accepted_on,omitempty"`
	CompletedOn   *time.Time         `json:"completed_on,omitempty"`
	CustomerPrice float64            `json:"customer_price"`
	SellerPrice   float64            `json:"seller_price"`
	LineItems     []lineItemResponse `json:"line_items"`
}

type lineItemResponse struct {
	ID                 string  `json:"id"`
	Type               string  `json:"type"`
	Rate               float64 `json:"rate"`
	Quantity           float64 `json:"quantity"`
	PlatformFeePercent float64 `json:"platform_fee_percent"`
	Description        string  `json:"description"`
	IsFlatRate         bool    `json:"is_flat_rate"`
	CustomerPrice      float64 `json:"customer_price"`
	SellerPrice        float64 `json:"seller_price"`
}

// ServeHTTP routes /api/v1/orders requests.
func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.lifecycle == nil || h.pricing == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/orders")
	rest = strings.Trim(rest, "/")

	if rest == "" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	orderID := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, orderID)
	case action == "submit" && r.Method == http.MethodPost:
		h.handleSubmit(w, r, orderID)
	case action == "line-items" && r.Method == http.MethodPost:
		h.handleGenerate(w, r, orderID)
	case action == "accept" && r.Method == http.MethodPost:
		h.handleTransition(w, r, orderID, "order.accept", h.lifecycle.Accept)
	case action == "complete" && r.Method == http.MethodPost:
		h.handleTransition(w, r, orderID, "order.complete", h.lifecycle.Complete)
	case action == "cancel" && r.Method == http.MethodPost:
		h.handleTransition(w, r, orderID, "order.cancel", h.lifecycle.Cancel)
	case action == "credit-decision" && r.Method == http.MethodPost:
		h.handleCreditDecision(w, r, orderID)
	case action == "export" && r.Method == http.MethodGet:
		h.handleExport(w, r, orderID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.OrderGroupID == "" {
		http.Error(w, "order_group_id is required", http.StatusBadRequest)
		return
	}
	startDate, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endDate, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.lifecycle.CreateOrder(r.Context(), &order.Order{
		OrderGroupID: req.OrderGroupID,
		StartDate:    startDate,
		EndDate:      endDate,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.recordAudit(r, "order.create", o.ID)
	h.writeOrderStatus(w, r, o, http.StatusCreated)
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request, orderID string) {
	o, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if o == nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	h.writeOrder(w, r, o)
}

func (h *OrderHandler) handleSubmit(w http.ResponseWriter, r *http.Request, orderID string) {
	var req submitOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
	}
	role := string(auth.RoleFromContext(r.Context()))
	if req.OverrideApproval && role != string(auth.RoleAdmin) {
		http.Error(w, "override requires admin role", http.StatusForbidden)
		return
	}
	o, err := h.lifecycle.SubmitOrder(r.Context(), orderID, role, req.OverrideApproval)
	if err != nil {
		var blocked *order.BlockedSubmissionError
		if errors.As(err, &blocked) && o != nil {
			// The hold is a resolvable state, not a failure; report the
			// order as it now stands.
			h.recordAudit(r, "order.submit", orderID)
			h.writeOrderStatus(w, r, o, http.StatusConflict)
			return
		}
		h.writeError(w, err)
		return
	}
	h.recordAudit(r, "order.submit", orderID)
	h.writeOrder(w, r, o)
}

func (h *OrderHandler) handleGenerate(w http.ResponseWriter, r *http.Request, orderID string) {
	items, err := h.pricing.GenerateLineItems(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(buildLineItemResponses(items))
}

func (h *OrderHandler) handleTransition(w http.ResponseWriter, r *http.Request, orderID, action string, transition func(ctx context.Context, id string) (*order.Order, error)) {
	o, err := transition(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.recordAudit(r, action, orderID)
	h.writeOrder(w, r, o)
}

func (h *OrderHandler) handleCreditDecision(w http.ResponseWriter, r *http.Request, orderID string) {
	var req creditDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	o, err := h.lifecycle.ResolveCreditApplication(r.Context(), orderID, req.Approved)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.recordAudit(r, "order.credit_decision", orderID)
	h.writeOrder(w, r, o)
}

func (h *OrderHandler) handleExport(w http.ResponseWriter, r *http.Request, orderID string) {
	start := time.Now()
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	o, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		metrics.ObserveReceiptExport(format, metrics.ResultError, time.Since(start))
		h.writeError(w, err)
		return
	}
	if o == nil {
		metrics.ObserveReceiptExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	g, err := h.orders.GetGroup(r.Context(), o.OrderGroupID)
	if err != nil {
		metrics.ObserveReceiptExport(format, metrics.ResultError, time.Since(start))
		h.writeError(w, err)
		return
	}
	items, err := h.lineItems.ListByOrder(r.Context(), orderID)
	if err != nil {
		metrics.ObserveReceiptExport(format, metrics.ResultError, time.Since(start))
		h.writeError(w, err)
		return
	}

	var payload []byte
	var contentType, filename string
	switch format {
	case "pdf":
		payload, err = BuildReceiptPDF(o, g, items)
		contentType = "application/pdf"
		filename = "receipt-" + orderID + ".pdf"
	case "xlsx":
		payload, err = BuildReceiptXLSX(o, g, items)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "receipt-" + orderID + ".xlsx"
	default:
		metrics.ObserveReceiptExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "format must be pdf or xlsx", http.StatusBadRequest)
		return
	}
	if err != nil {
		metrics.ObserveReceiptExport(format, metrics.ResultError, time.Since(start))
		h.writeError(w, err)
		return
	}

	metrics.ObserveReceiptExport(format, metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(payload)
}

func (h *OrderHandler) writeOrder(w http.ResponseWriter, r *http.Request, o *order.Order) {
	h.writeOrderStatus(w, r, o, http.StatusOK)
}

func (h *OrderHandler) writeOrderStatus(w http.ResponseWriter, r *http.Request, o *order.Order, status int) {
	items, err := h.lineItems.ListByOrder(r.Context(), o.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	orderType, err := h.pricing.Classify(r.Context(), o.ID)
	if err != nil {
		h.logger.Printf("classify order %s failed: %v", o.ID, err)
		orderType = order.TypeUnclassified
	}
	groupStatus := order.GroupPending
	if siblings, err := h.orders.ListByGroup(r.Context(), o.OrderGroupID); err == nil {
		groupStatus = order.DeriveGroupStatus(siblings)
	}

	resp := orderResponse{
		ID:            o.ID,
		OrderGroupID:  o.OrderGroupID,
		GroupStatus:   string(groupStatus),
		StartDate:     o.StartDate.Format(dateLayout),
		EndDate:       o.EndDate.Format(dateLayout),
		Status:        string(o.Status),
		Type:          string(orderType),
		SubmittedOn:   optionalTime(o.SubmittedOn),
		AcceptedOn:    optionalTime(o.AcceptedOn),
		CompletedOn:   optionalTime(o.CompletedOn),
		CustomerPrice: order.CustomerPrice(items),
		SellerPrice:   order.SellerPrice(items),
		LineItems:     buildLineItemResponses(items),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *OrderHandler) writeError(w http.ResponseWriter, err error) {
	var vErr *order.ValidationError
	var blocked *order.BlockedSubmissionError
	var genErr *order.GenerationError
	switch {
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, order.ErrGroupNotFound),
		errors.Is(err, catalog.ErrConfigNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &vErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &blocked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &genErr):
		h.logger.Printf("order request failed: %v", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Printf("order request failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *OrderHandler) recordAudit(r *http.Request, action, orderID string) {
	entry := audit.Entry{
		CompanyID:    auth.CompanyIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "order",
		ResourceID:   orderID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Record(r.Context(), entry); err != nil {
		h.logger.Printf("audit record %s failed: %v", action, err)
	}
}

func buildLineItemResponses(items []order.LineItem) []lineItemResponse {
	result := make([]lineItemResponse, 0, len(items))
	for i := range items {
		li := &items[i]
		result = append(result, lineItemResponse{
			ID:                 li.ID,
			Type:               string(li.Type),
			Rate:               li.Rate,
			Quantity:           li.Quantity,
			PlatformFeePercent: li.PlatformFeePercent,
			Description:        li.Description,
			IsFlatRate:         li.IsFlatRate,
			CustomerPrice:      li.CustomerPrice(),
			SellerPrice:        li.SellerPrice(),
		})
	}
	return result
}

func parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New(field + " is required")
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.New(field + " must be YYYY-MM-DD")
	}
	return parsed.UTC(), nil
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	t := value.UTC()
	return &t
}
