package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	approvals "haulstream/internal/approvals/domain"
	approvalmem "haulstream/internal/approvals/infrastructure/memory"
	"haulstream/internal/auth"
	catalog "haulstream/internal/catalog/domain"
	"haulstream/internal/order/infrastructure/memory"

	orderapp "haulstream/internal/order/application"
	order "haulstream/internal/order/domain"
)

type passGate struct{}

func (passGate) Evaluate(ctx context.Context, o *order.Order, companyID, role string, customerPrice float64) (*approvals.ApprovalRequest, error) {
	return nil, nil
}

type paymentsAlways struct{}

func (paymentsAlways) HasPaymentMethod(ctx context.Context, companyID string) (bool, error) {
	return true, nil
}

type noopNotifier struct{}

func (noopNotifier) OrderSubmitted(ctx context.Context, o *order.Order, customerPrice float64) {}
func (noopNotifier) ApprovalResolved(ctx context.Context, orderID string, accepted bool)       {}

type handlerCatalog struct {
	cfg *catalog.OfferingConfig
}

func (c handlerCatalog) ConfigForGroup(ctx context.Context, group *order.OrderGroup) (*catalog.OfferingConfig, error) {
	return c.cfg, nil
}

type handlerClock struct{}

func (handlerClock) Now() time.Time {
	return time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)
}

func testDay(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func newHandler(t *testing.T) (*OrderHandler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := log.New(httpTestWriter{t}, "", 0)
	cfg := &catalog.OfferingConfig{OfferingID: "off-1", RentalOneStep: &catalog.RentalOneStep{Rate: 200}}
	pricing, err := orderapp.NewPricingService(store, store, handlerCatalog{cfg: cfg}, handlerClock{}, logger)
	if err != nil {
		t.Fatalf("NewPricingService() error: %v", err)
	}
	lifecycle, err := orderapp.NewLifecycleService(store, pricing, passGate{}, approvalmem.NewStore(), paymentsAlways{}, noopNotifier{}, handlerClock{}, logger)
	if err != nil {
		t.Fatalf("NewLifecycleService() error: %v", err)
	}
	return NewOrderHandler(lifecycle, pricing, store, store, nil, logger), store
}

type httpTestWriter struct {
	t *testing.T
}

func (w httpTestWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func seedGroup(store *memory.Store) {
	store.PutGroup(order.OrderGroup{ID: "g1", CompanyID: "acme", OfferingID: "off-1", StartDate: testDay(1), TakeRate: 20})
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) orderResponse {
	t.Helper()
	var resp orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestCreateOrderEndpoint(t *testing.T) {
	handler, store := newHandler(t)
	seedGroup(store)

	body := `{"order_group_id":"g1","start_date":"2026-03-10","end_date":"2026-03-18"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	resp := decodeOrder(t, rec)
	if resp.ID == "" {
		t.Fatal("response id empty")
	}
	if resp.Status != string(order.StatusPending) {
		t.Fatalf("status = %s, want PENDING", resp.Status)
	}
	if resp.GroupStatus != string(order.GroupPending) {
		t.Fatalf("group status = %s, want PENDING", resp.GroupStatus)
	}
	if resp.StartDate != "2026-03-10" || resp.EndDate != "2026-03-18" {
		t.Fatalf("dates = %s..%s", resp.StartDate, resp.EndDate)
	}
}

func TestCreateOrderEndpointRejectsBadDates(t *testing.T) {
	handler, store := newHandler(t)
	seedGroup(store)

	body := `{"order_group_id":"g1","start_date":"10/03/2026","end_date":"2026-03-18"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	handler, store := newHandler(t)
	seedGroup(store)
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: testDay(1), EndDate: testDay(1), Status: order.StatusPending, CreatedAt: testDay(1)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/o1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeOrder(t, rec)
	if resp.Type != string(order.TypeDelivery) {
		t.Fatalf("type = %s, want DELIVERY", resp.Type)
	}
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	handler, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSubmitOrderEndpoint(t *testing.T) {
	handler, store := newHandler(t)
	seedGroup(store)
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: testDay(10), EndDate: testDay(18), Status: order.StatusPending, CreatedAt: testDay(9)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/o1/submit", bytes.NewBufferString(`{}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), "acme", auth.RoleMember, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeOrder(t, rec)
	if resp.SubmittedOn == nil {
		t.Fatal("submitted_on missing")
	}
	if resp.GroupStatus != string(order.GroupInProgress) {
		t.Fatalf("group status = %s, want IN_PROGRESS", resp.GroupStatus)
	}
	if len(resp.LineItems) == 0 {
		t.Fatal("submission produced no line items")
	}
	// One 28-day period at 200 with a 20% take rate.
	if resp.CustomerPrice != 240 || resp.SellerPrice != 200 {
		t.Fatalf("prices = %v / %v, want 240 / 200", resp.CustomerPrice, resp.SellerPrice)
	}
}

func TestSubmitOverrideRequiresAdmin(t *testing.T) {
	handler, store := newHandler(t)
	seedGroup(store)
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: testDay(10), EndDate: testDay(18), Status: order.StatusAdminApprovalPending, CreatedAt: testDay(9)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/o1/submit", bytes.NewBufferString(`{"override_approval":true}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), "acme", auth.RoleMember, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGenerateLineItemsEndpoint(t *testing.T) {
	handler, store := newHandler(t)
	seedGroup(store)
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: testDay(10), EndDate: testDay(18), Status: order.StatusPending, CreatedAt: testDay(9)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/o1/line-items", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var items []lineItemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("no line items returned")
	}
}

func TestExportEndpoint(t *testing.T) {
	handler, store := newHandler(t)
	seedGroup(store)
	store.PutOrder(order.Order{ID: "o1", OrderGroupID: "g1", StartDate: testDay(10), EndDate: testDay(18), Status: order.StatusPending, CreatedAt: testDay(9)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/o1/export?format=pdf", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty pdf payload")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/o1/export?format=csv", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d for unknown format", rec.Code, http.StatusBadRequest)
	}
}

func TestOrdersMethodNotAllowed(t *testing.T) {
	handler, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/o1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
