package memory

import (
	"context"
	"sync"

	approvals "haulstream/internal/approvals/domain"
)

// Store is an in-memory approvals store for demo/testing. It implements
// the policy gate's policy and approval ports.
type Store struct {
	mu             sync.RWMutex
	requests       map[string]approvals.ApprovalRequest
	monthlyLimits  map[string]approvals.MonthlyLimit
	purchasePolicy map[string]approvals.PurchaseApproval
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		requests:       make(map[string]approvals.ApprovalRequest),
		monthlyLimits:  make(map[string]approvals.MonthlyLimit),
		purchasePolicy: make(map[string]approvals.PurchaseApproval),
	}
}

// SetMonthlyLimit seeds a company's limit.
func (s *Store) SetMonthlyLimit(limit approvals.MonthlyLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthlyLimits[limit.CompanyID] = limit
}

// SetPurchaseApproval seeds a company and role policy.
func (s *Store) SetPurchaseApproval(policy approvals.PurchaseApproval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchasePolicy[policy.CompanyID+"/"+policy.Role] = policy
}

// MonthlyLimitFor returns the company's limit, nil when unset.
func (s *Store) MonthlyLimitFor(ctx context.Context, companyID string) (*approvals.MonthlyLimit, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit, ok := s.monthlyLimits[companyID]
	if !ok {
		return nil, nil
	}
	return &limit, nil
}

// PurchaseApprovalFor returns the policy for company and role, nil when
// unset.
func (s *Store) PurchaseApprovalFor(ctx context.Context, companyID, role string) (*approvals.PurchaseApproval, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.purchasePolicy[companyID+"/"+role]
	if !ok {
		return nil, nil
	}
	return &policy, nil
}

// GetByOrder returns the order's request, preferring a pending one.
func (s *Store) GetByOrder(ctx context.Context, orderID string) (*approvals.ApprovalRequest, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *approvals.ApprovalRequest
	for id := range s.requests {
		req := s.requests[id]
		if req.OrderID != orderID {
			continue
		}
		if req.Status == approvals.ApprovalPending {
			return &req, nil
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			r := req
			latest = &r
		}
	}
	if latest == nil {
		return nil, approvals.ErrRequestNotFound
	}
	return latest, nil
}

// CreateIfAbsent inserts unless the order already has a pending request.
func (s *Store) CreateIfAbsent(ctx context.Context, req *approvals.ApprovalRequest) (bool, error) {
	_ = ctx
	if req == nil {
		return false, approvals.ErrNilRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.OrderID == req.OrderID && existing.Status == approvals.ApprovalPending {
			return false, nil
		}
	}
	s.requests[req.ID] = *req
	return true, nil
}

// Update writes a request back.
func (s *Store) Update(ctx context.Context, req *approvals.ApprovalRequest) error {
	_ = ctx
	if req == nil {
		return approvals.ErrNilRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return approvals.ErrRequestNotFound
	}
	s.requests[req.ID] = *req
	return nil
}
