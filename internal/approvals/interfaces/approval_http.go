package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	approvalapp "haulstream/internal/approvals/application"
	approvals "haulstream/internal/approvals/domain"
	"haulstream/internal/audit"
	"haulstream/internal/auth"
	order "haulstream/internal/order/domain"
)

// ApprovalResolver applies an administrator decision on a held order.
type ApprovalResolver interface {
	ResolveApproval(ctx context.Context, orderID string, accepted bool) (*order.Order, error)
}

// PendingLister lists approval requests awaiting a decision.
type PendingLister interface {
	ListPending(ctx context.Context) ([]approvals.ApprovalRequest, error)
}

// ApprovalHandler serves /api/v1/approvals.
type ApprovalHandler struct {
	resolver ApprovalResolver
	pending  PendingLister
	auditor  audit.Recorder
	logger   *log.Logger
}

// NewApprovalHandler constructs an ApprovalHandler. A nil auditor falls
// back to logging audit entries.
func NewApprovalHandler(resolver ApprovalResolver, pending PendingLister, auditor audit.Recorder, logger *log.Logger) *ApprovalHandler {
	if logger == nil {
		logger = log.Default()
	}
	if auditor == nil {
		auditor = audit.NewLogRecorder(logger)
	}
	return &ApprovalHandler{resolver: resolver, pending: pending, auditor: auditor, logger: logger}
}

type resolveRequest struct {
	Accepted bool `json:"accepted"`
}

type approvalResponse struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	Status     string     `json:"status"`
	Trigger    string     `json:"trigger"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// ServeHTTP routes /api/v1/approvals requests.
func (h *ApprovalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.resolver == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/approvals")
	rest = strings.Trim(rest, "/")

	if rest == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	orderID := parts[0]
	if len(parts) == 2 && parts[1] == "resolve" && r.Method == http.MethodPost {
		h.handleResolve(w, r, orderID)
		return
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func (h *ApprovalHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if h.pending == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	requests, err := h.pending.ListPending(r.Context())
	if err != nil {
		h.logger.Printf("list pending approvals failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	result := make([]approvalResponse, 0, len(requests))
	for i := range requests {
		result = append(result, buildApprovalResponse(&requests[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *ApprovalHandler) handleResolve(w http.ResponseWriter, r *http.Request, orderID string) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	o, err := h.resolver.ResolveApproval(r.Context(), orderID, req.Accepted)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, approvals.ErrRequestNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, approvals.ErrInvalidDecision):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Printf("resolve approval for order %s failed: %v", orderID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	action := "approval.decline"
	if req.Accepted {
		action = "approval.accept"
	}
	recordAudit(r, h.auditor, h.logger, action, "approval_request", orderID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"order_id": o.ID,
		"status":   string(o.Status),
	})
}

func recordAudit(r *http.Request, auditor audit.Recorder, logger *log.Logger, action, resourceType, resourceID string) {
	entry := audit.Entry{
		CompanyID:    auth.CompanyIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := auditor.Record(r.Context(), entry); err != nil {
		logger.Printf("audit record %s failed: %v", action, err)
	}
}

func buildApprovalResponse(req *approvals.ApprovalRequest) approvalResponse {
	resp := approvalResponse{
		ID:        req.ID,
		OrderID:   req.OrderID,
		Status:    string(req.Status),
		Trigger:   string(req.Trigger),
		CreatedAt: req.CreatedAt,
	}
	if !req.ResolvedAt.IsZero() {
		t := req.ResolvedAt.UTC()
		resp.ResolvedAt = &t
	}
	return resp
}

// PolicyHandler serves /api/v1/policies for reading and writing company
// spending policies.
type PolicyHandler struct {
	policies *approvalapp.PolicyService
	auditor  audit.Recorder
	logger   *log.Logger
}

// NewPolicyHandler constructs a PolicyHandler. A nil auditor falls back
// to logging audit entries.
func NewPolicyHandler(policies *approvalapp.PolicyService, auditor audit.Recorder, logger *log.Logger) *PolicyHandler {
	if logger == nil {
		logger = log.Default()
	}
	if auditor == nil {
		auditor = audit.NewLogRecorder(logger)
	}
	return &PolicyHandler{policies: policies, auditor: auditor, logger: logger}
}

type policiesResponse struct {
	MonthlyLimit      *monthlyLimitBody      `json:"monthly_limit,omitempty"`
	PurchaseApprovals []purchaseApprovalBody `json:"purchase_approvals"`
}

type monthlyLimitBody struct {
	CompanyID string  `json:"company_id"`
	Amount    float64 `json:"amount"`
}

type purchaseApprovalBody struct {
	CompanyID string  `json:"company_id"`
	Role      string  `json:"role"`
	Amount    float64 `json:"amount"`
}

type putPoliciesRequest struct {
	MonthlyLimit      *monthlyLimitBody      `json:"monthly_limit"`
	PurchaseApprovals []purchaseApprovalBody `json:"purchase_approvals"`
}

// ServeHTTP routes /api/v1/policies requests.
func (h *PolicyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.policies == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		http.Error(w, "company_id is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, companyID)
	case http.MethodPut:
		h.handlePut(w, r, companyID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *PolicyHandler) handleGet(w http.ResponseWriter, r *http.Request, companyID string) {
	limit, policies, err := h.policies.PoliciesFor(r.Context(), companyID)
	if err != nil {
		h.logger.Printf("load policies for company %s failed: %v", companyID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	resp := policiesResponse{PurchaseApprovals: make([]purchaseApprovalBody, 0, len(policies))}
	if limit != nil {
		resp.MonthlyLimit = &monthlyLimitBody{CompanyID: limit.CompanyID, Amount: limit.Amount}
	}
	for _, p := range policies {
		resp.PurchaseApprovals = append(resp.PurchaseApprovals, purchaseApprovalBody{
			CompanyID: p.CompanyID,
			Role:      p.Role,
			Amount:    p.Amount,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *PolicyHandler) handlePut(w http.ResponseWriter, r *http.Request, companyID string) {
	var req putPoliciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.MonthlyLimit != nil {
		err := h.policies.SetMonthlyLimit(r.Context(), &approvals.MonthlyLimit{
			CompanyID: companyID,
			Amount:    req.MonthlyLimit.Amount,
		})
		if err != nil {
			h.writePolicyError(w, companyID, err)
			return
		}
	}
	for _, p := range req.PurchaseApprovals {
		err := h.policies.SetPurchaseApproval(r.Context(), &approvals.PurchaseApproval{
			CompanyID: companyID,
			Role:      p.Role,
			Amount:    p.Amount,
		})
		if err != nil {
			h.writePolicyError(w, companyID, err)
			return
		}
	}
	recordAudit(r, h.auditor, h.logger, "policy.update", "company_policies", companyID)
	h.handleGet(w, r, companyID)
}

func (h *PolicyHandler) writePolicyError(w http.ResponseWriter, companyID string, err error) {
	if errors.Is(err, approvalapp.ErrAdminNotGated) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Printf("save policies for company %s failed: %v", companyID, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
