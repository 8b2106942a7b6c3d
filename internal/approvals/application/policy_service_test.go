package application

import (
	"context"
	"errors"
	"log"
	"testing"

	approvals "haulstream/internal/approvals/domain"
)

type policyAdminStub struct {
	limits   map[string]*approvals.MonthlyLimit
	policies map[string][]approvals.PurchaseApproval
}

func newPolicyAdminStub() *policyAdminStub {
	return &policyAdminStub{
		limits:   make(map[string]*approvals.MonthlyLimit),
		policies: make(map[string][]approvals.PurchaseApproval),
	}
}

func (s *policyAdminStub) MonthlyLimitFor(ctx context.Context, companyID string) (*approvals.MonthlyLimit, error) {
	return s.limits[companyID], nil
}

func (s *policyAdminStub) ListPurchaseApprovals(ctx context.Context, companyID string) ([]approvals.PurchaseApproval, error) {
	return s.policies[companyID], nil
}

func (s *policyAdminStub) UpsertMonthlyLimit(ctx context.Context, limit *approvals.MonthlyLimit) error {
	s.limits[limit.CompanyID] = limit
	return nil
}

func (s *policyAdminStub) UpsertPurchaseApproval(ctx context.Context, policy *approvals.PurchaseApproval) error {
	for i, existing := range s.policies[policy.CompanyID] {
		if existing.Role == policy.Role {
			s.policies[policy.CompanyID][i] = *policy
			return nil
		}
	}
	s.policies[policy.CompanyID] = append(s.policies[policy.CompanyID], *policy)
	return nil
}

func newPolicyService(t *testing.T) (*PolicyService, *policyAdminStub) {
	t.Helper()
	store := newPolicyAdminStub()
	svc, err := NewPolicyService(store, log.New(discard{}, "", 0))
	if err != nil {
		t.Fatalf("NewPolicyService() error: %v", err)
	}
	return svc, store
}

func TestSetMonthlyLimit(t *testing.T) {
	svc, store := newPolicyService(t)
	err := svc.SetMonthlyLimit(context.Background(), &approvals.MonthlyLimit{CompanyID: "acme", Amount: 5000})
	if err != nil {
		t.Fatalf("SetMonthlyLimit() error: %v", err)
	}
	if store.limits["acme"] == nil || store.limits["acme"].Amount != 5000 {
		t.Fatalf("limit = %+v", store.limits["acme"])
	}

	if err := svc.SetMonthlyLimit(context.Background(), &approvals.MonthlyLimit{CompanyID: "acme", Amount: -1}); err == nil {
		t.Fatal("negative limit accepted")
	}
}

func TestSetPurchaseApproval(t *testing.T) {
	svc, store := newPolicyService(t)
	err := svc.SetPurchaseApproval(context.Background(), &approvals.PurchaseApproval{CompanyID: "acme", Role: "member", Amount: 250})
	if err != nil {
		t.Fatalf("SetPurchaseApproval() error: %v", err)
	}
	if got := store.policies["acme"]; len(got) != 1 || got[0].Amount != 250 {
		t.Fatalf("policies = %+v", got)
	}

	if err := svc.SetPurchaseApproval(context.Background(), &approvals.PurchaseApproval{CompanyID: "acme", Role: "admin", Amount: 10}); !errors.Is(err, ErrAdminNotGated) {
		t.Fatalf("error = %v, want ErrAdminNotGated", err)
	}
	if err := svc.SetPurchaseApproval(context.Background(), &approvals.PurchaseApproval{CompanyID: "acme", Role: "intern", Amount: 10}); err == nil {
		t.Fatal("unknown role accepted")
	}
}

func TestPoliciesFor(t *testing.T) {
	svc, store := newPolicyService(t)
	store.limits["acme"] = &approvals.MonthlyLimit{CompanyID: "acme", Amount: 5000}
	store.policies["acme"] = []approvals.PurchaseApproval{{CompanyID: "acme", Role: "member", Amount: 250}}

	limit, policies, err := svc.PoliciesFor(context.Background(), "acme")
	if err != nil {
		t.Fatalf("PoliciesFor() error: %v", err)
	}
	if limit == nil || limit.Amount != 5000 {
		t.Fatalf("limit = %+v", limit)
	}
	if len(policies) != 1 || policies[0].Role != "member" {
		t.Fatalf("policies = %+v", policies)
	}
}
