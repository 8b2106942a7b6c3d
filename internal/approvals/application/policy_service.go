package application

import (
	"context"
	"errors"
	"log"

	approvals "haulstream/internal/approvals/domain"
	"haulstream/internal/auth"
)

// ErrAdminNotGated rejects purchase approval policies aimed at
// administrators, who are never gated.
var ErrAdminNotGated = errors.New("approvals: purchase approval cannot target the admin role")

// PolicyAdminStore reads and writes company spending policies.
type PolicyAdminStore interface {
	MonthlyLimitFor(ctx context.Context, companyID string) (*approvals.MonthlyLimit, error)
	ListPurchaseApprovals(ctx context.Context, companyID string) ([]approvals.PurchaseApproval, error)
	UpsertMonthlyLimit(ctx context.Context, limit *approvals.MonthlyLimit) error
	UpsertPurchaseApproval(ctx context.Context, policy *approvals.PurchaseApproval) error
}

// PolicyService manages company spending policy configuration.
type PolicyService struct {
	store  PolicyAdminStore
	logger *log.Logger
}

// NewPolicyService constructs the service.
func NewPolicyService(store PolicyAdminStore, logger *log.Logger) (*PolicyService, error) {
	if store == nil {
		return nil, errors.New("policy service: nil store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PolicyService{store: store, logger: logger}, nil
}

// PoliciesFor returns the company's monthly limit and purchase approval
// policies.
func (s *PolicyService) PoliciesFor(ctx context.Context, companyID string) (*approvals.MonthlyLimit, []approvals.PurchaseApproval, error) {
	limit, err := s.store.MonthlyLimitFor(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	policies, err := s.store.ListPurchaseApprovals(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	return limit, policies, nil
}

// SetMonthlyLimit writes a company's limit, one per company.
func (s *PolicyService) SetMonthlyLimit(ctx context.Context, limit *approvals.MonthlyLimit) error {
	if limit == nil {
		return errors.New("policy service: nil monthly limit")
	}
	if limit.Amount < 0 {
		return errors.New("policy service: limit amount must not be negative")
	}
	return s.store.UpsertMonthlyLimit(ctx, limit)
}

// SetPurchaseApproval writes a policy, one per company and role.
func (s *PolicyService) SetPurchaseApproval(ctx context.Context, policy *approvals.PurchaseApproval) error {
	if policy == nil {
		return errors.New("policy service: nil purchase approval")
	}
	if policy.Amount < 0 {
		return errors.New("policy service: policy amount must not be negative")
	}
	if normalized, ok := auth.NormalizeRole(policy.Role); !ok {
		return errors.New("policy service: unknown role " + policy.Role)
	} else if normalized == auth.RoleAdmin {
		return ErrAdminNotGated
	}
	return s.store.UpsertPurchaseApproval(ctx, policy)
}
