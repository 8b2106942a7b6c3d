package approvals

import "time"

// ApprovalStatus is the state of an approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalAccepted ApprovalStatus = "ACCEPTED"
	ApprovalDeclined ApprovalStatus = "DECLINED"
)

// TriggerPolicy names the spending policy that created a request.
type TriggerPolicy string

const (
	TriggerMonthlyLimit     TriggerPolicy = "MONTHLY_LIMIT"
	TriggerPurchaseApproval TriggerPolicy = "PURCHASE_APPROVAL"
)

// ApprovalRequest gates an order that exceeded a spending policy. At most
// one request per order may be pending; mutation is permitted only while
// pending.
type ApprovalRequest struct {
	ID         string
	OrderID    string
	Status     ApprovalStatus
	Trigger    TriggerPolicy
	CreatedAt  time.Time
	ResolvedAt time.Time
}

// Resolve applies an administrator decision. Requests already resolved
// are left untouched: resolving twice has no additional effect.
func (a *ApprovalRequest) Resolve(status ApprovalStatus, now time.Time) (changed bool, err error) {
	if a == nil {
		return false, ErrNilRequest
	}
	if status != ApprovalAccepted && status != ApprovalDeclined {
		return false, ErrInvalidDecision
	}
	if a.Status != ApprovalPending {
		return false, nil
	}
	a.Status = status
	a.ResolvedAt = now
	return true, nil
}

// MonthlyLimit caps a company's total submitted-order spend within the
// current calendar month. One per company.
type MonthlyLimit struct {
	CompanyID string
	Amount    float64
}

// PurchaseApproval caps a single order's price for users of a role
// within a company. One per (company, role).
type PurchaseApproval struct {
	CompanyID string
	Role      string
	Amount    float64
}
