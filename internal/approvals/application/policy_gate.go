package application

import (
	"context"
	"errors"
	"log"
	"time"

	approvals "haulstream/internal/approvals/domain"
	"haulstream/internal/auth"
	"haulstream/internal/ids"
	"haulstream/internal/observability/metrics"
	order "haulstream/internal/order/domain"
)

// PolicyStore loads the spending policies configured for a company.
type PolicyStore interface {
	MonthlyLimitFor(ctx context.Context, companyID string) (*approvals.MonthlyLimit, error)
	PurchaseApprovalFor(ctx context.Context, companyID, role string) (*approvals.PurchaseApproval, error)
}

// ApprovalStore persists approval requests.
type ApprovalStore interface {
	GetByOrder(ctx context.Context, orderID string) (*approvals.ApprovalRequest, error)
	// CreateIfAbsent inserts the request unless the order already has a
	// pending one; it reports whether a row was written.
	CreateIfAbsent(ctx context.Context, req *approvals.ApprovalRequest) (bool, error)
	Update(ctx context.Context, req *approvals.ApprovalRequest) error
}

// SpendStore aggregates a company's submitted spend for limit checks.
type SpendStore interface {
	// MonthlySpend sums the customer price of the company's orders
	// submitted in [from, to).
	MonthlySpend(ctx context.Context, companyID string, from, to time.Time) (float64, error)
}

// StatusWriter moves an order's status outside the gate's own state.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, orderID string, status order.Status) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Gate evaluates company spending policies at order submission. A
// triggered policy holds the order for administrator approval; policy
// lookups that fail are logged and treated as passed, never blocking a
// submission on infrastructure trouble.
type Gate struct {
	policies PolicyStore
	requests ApprovalStore
	spend    SpendStore
	statuses StatusWriter
	clock    Clock
	logger   *log.Logger
}

// NewGate constructs the policy gate.
func NewGate(policies PolicyStore, requests ApprovalStore, spend SpendStore, statuses StatusWriter, clock Clock, logger *log.Logger) (*Gate, error) {
	if policies == nil {
		return nil, errors.New("policy gate: nil policy store")
	}
	if requests == nil {
		return nil, errors.New("policy gate: nil approval store")
	}
	if spend == nil {
		return nil, errors.New("policy gate: nil spend store")
	}
	if statuses == nil {
		return nil, errors.New("policy gate: nil status writer")
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Gate{
		policies: policies,
		requests: requests,
		spend:    spend,
		statuses: statuses,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Evaluate checks the submitting company's policies against the order's
// customer price. When a policy trips, the order is moved to
// ADMIN_APPROVAL_PENDING immediately and a single pending approval
// request is recorded; the returned request is non-nil exactly when the
// order was held. Administrators are never gated. The monthly limit is
// checked before purchase approval, so when both would trip the request
// records the monthly limit as its trigger.
func (g *Gate) Evaluate(ctx context.Context, o *order.Order, companyID, role string, customerPrice float64) (*approvals.ApprovalRequest, error) {
	if o == nil {
		return nil, order.ErrNilOrder
	}
	if normalized, ok := auth.NormalizeRole(role); ok && normalized == auth.RoleAdmin {
		metrics.IncPolicyGate(metrics.GateOutcomePassed)
		return nil, nil
	}

	trigger, ok := g.triggeredPolicy(ctx, companyID, role, customerPrice)
	if !ok {
		metrics.IncPolicyGate(metrics.GateOutcomePassed)
		return nil, nil
	}

	// Status first: readers polling the order must see the hold even if
	// recording the request fails afterwards.
	if err := g.statuses.UpdateStatus(ctx, o.ID, order.StatusAdminApprovalPending); err != nil {
		metrics.IncPolicyGate(metrics.ResultError)
		return nil, err
	}
	o.Status = order.StatusAdminApprovalPending

	req := &approvals.ApprovalRequest{
		ID:        ids.New(),
		OrderID:   o.ID,
		Status:    approvals.ApprovalPending,
		Trigger:   trigger,
		CreatedAt: g.clock.Now(),
	}
	created, err := g.requests.CreateIfAbsent(ctx, req)
	if err != nil {
		metrics.IncPolicyGate(metrics.ResultError)
		return nil, err
	}
	if !created {
		existing, err := g.requests.GetByOrder(ctx, o.ID)
		if err != nil {
			metrics.IncPolicyGate(metrics.ResultError)
			return nil, err
		}
		req = existing
	}
	metrics.IncPolicyGate(metrics.GateOutcomeHeld)
	return req, nil
}

// triggeredPolicy reports which policy, if any, holds the order.
func (g *Gate) triggeredPolicy(ctx context.Context, companyID, role string, customerPrice float64) (approvals.TriggerPolicy, bool) {
	limit, err := g.policies.MonthlyLimitFor(ctx, companyID)
	if err != nil {
		g.logger.Printf("policy gate: monthly limit lookup failed for company %s, passing order: %v", companyID, err)
		metrics.IncPolicyGate(metrics.GateOutcomeFailOpen)
		return "", false
	}
	if limit != nil {
		from, to := monthWindow(g.clock.Now())
		spent, err := g.spend.MonthlySpend(ctx, companyID, from, to)
		if err != nil {
			g.logger.Printf("policy gate: monthly spend lookup failed for company %s, passing order: %v", companyID, err)
			metrics.IncPolicyGate(metrics.GateOutcomeFailOpen)
			return "", false
		}
		if spent+customerPrice > limit.Amount {
			return approvals.TriggerMonthlyLimit, true
		}
	}

	lookupRole := role
	if normalized, ok := auth.NormalizeRole(role); ok {
		lookupRole = string(normalized)
	}
	purchase, err := g.policies.PurchaseApprovalFor(ctx, companyID, lookupRole)
	if err != nil {
		g.logger.Printf("policy gate: purchase approval lookup failed for company %s, passing order: %v", companyID, err)
		metrics.IncPolicyGate(metrics.GateOutcomeFailOpen)
		return "", false
	}
	if purchase != nil && customerPrice > purchase.Amount {
		return approvals.TriggerPurchaseApproval, true
	}
	return "", false
}

// monthWindow returns the UTC calendar month containing t as [from, to).
func monthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
