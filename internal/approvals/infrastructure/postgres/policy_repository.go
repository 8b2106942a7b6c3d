package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	approvals "haulstream/internal/approvals/domain"
)

// PolicyRepository loads company spending policies.
type PolicyRepository struct {
	db *sql.DB
}

// NewPolicyRepository constructs a repository.
func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// MonthlyLimitFor returns the company's monthly limit, nil when none is
// configured.
func (r *PolicyRepository) MonthlyLimitFor(ctx context.Context, companyID string) (*approvals.MonthlyLimit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("policy repo: nil db")
	}
	var limit approvals.MonthlyLimit
	err := r.db.QueryRowContext(ctx, `
SELECT company_id, amount
FROM monthly_limit_policies
WHERE company_id = $1
LIMIT 1`, companyID).Scan(&limit.CompanyID, &limit.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &limit, nil
}

// PurchaseApprovalFor returns the policy for the company and role, nil
// when none is configured.
func (r *PolicyRepository) PurchaseApprovalFor(ctx context.Context, companyID, role string) (*approvals.PurchaseApproval, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("policy repo: nil db")
	}
	var policy approvals.PurchaseApproval
	err := r.db.QueryRowContext(ctx, `
SELECT company_id, role, amount
FROM purchase_approval_policies
WHERE company_id = $1 AND role = $2
LIMIT 1`, companyID, role).Scan(&policy.CompanyID, &policy.Role, &policy.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &policy, nil
}

// ListPurchaseApprovals returns all role policies for the company.
func (r *PolicyRepository) ListPurchaseApprovals(ctx context.Context, companyID string) ([]approvals.PurchaseApproval, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("policy repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT company_id, role, amount
FROM purchase_approval_policies
WHERE company_id = $1
ORDER BY role ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []approvals.PurchaseApproval
	for rows.Next() {
		var policy approvals.PurchaseApproval
		if err := rows.Scan(&policy.CompanyID, &policy.Role, &policy.Amount); err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertMonthlyLimit writes the company's limit, one per company.
func (r *PolicyRepository) UpsertMonthlyLimit(ctx context.Context, limit *approvals.MonthlyLimit) error {
	if r == nil || r.db == nil {
		return errors.New("policy repo: nil db")
	}
	if limit == nil {
		return errors.New("policy repo: nil monthly limit")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO monthly_limit_policies (company_id, amount, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (company_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at`,
		limit.CompanyID, limit.Amount, time.Now().UTC())
	return err
}

// UpsertPurchaseApproval writes the policy, one per company and role.
func (r *PolicyRepository) UpsertPurchaseApproval(ctx context.Context, policy *approvals.PurchaseApproval) error {
	if r == nil || r.db == nil {
		return errors.New("policy repo: nil db")
	}
	if policy == nil {
		return errors.New("policy repo: nil purchase approval")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO purchase_approval_policies (company_id, role, amount, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (company_id, role) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at`,
		policy.CompanyID, policy.Role, policy.Amount, time.Now().UTC())
	return err
}
