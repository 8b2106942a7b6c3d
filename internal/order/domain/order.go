package order

import "time"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending                 Status = "PENDING"
	StatusAdminApprovalPending    Status = "ADMIN_APPROVAL_PENDING"
	StatusAdminApprovalDeclined   Status = "ADMIN_APPROVAL_DECLINED"
	StatusCreditApprovalPending   Status = "CREDIT_APPLICATION_APPROVAL_PENDING"
	StatusCreditApprovalDeclined  Status = "CREDIT_APPLICATION_DECLINED"
	StatusNoPaymentMethod         Status = "NO_PAYMENT_METHOD"
	StatusScheduled               Status = "SCHEDULED"
	StatusComplete                Status = "COMPLETE"
	StatusCancelled               Status = "CANCELLED"
)

// IsTerminal reports whether no further transition may leave the status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusCancelled, StatusAdminApprovalDeclined, StatusCreditApprovalDeclined:
		return true
	default:
		return false
	}
}

// Type classifies an order by its position in the group's sequence.
type Type string

const (
	TypeDelivery     Type = "DELIVERY"
	TypeOneTime      Type = "ONE_TIME"
	TypeRemoval      Type = "REMOVAL"
	TypeSwap         Type = "SWAP"
	TypeAutoRenewal  Type = "AUTO_RENEWAL"
	TypeUnclassified Type = "UNCLASSIFIED"
)

// Order is one billable occurrence within an order group's sequence.
// Dates are date-granular and stored at UTC midnight.
type Order struct {
	ID           string
	OrderGroupID string
	StartDate    time.Time
	EndDate      time.Time
	Status       Status
	SubmittedOn  time.Time
	AcceptedOn   time.Time
	CompletedOn  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSubmitted reports whether the order has left the cart.
func (o *Order) IsSubmitted() bool {
	return o != nil && !o.SubmittedOn.IsZero()
}

// DurationDays is the order's span in whole days.
func (o *Order) DurationDays() int {
	if o == nil || o.EndDate.Before(o.StartDate) {
		return 0
	}
	return int(o.EndDate.Sub(o.StartDate).Hours() / 24)
}

// OrderGroup is a standing service arrangement between a customer company
// and a seller offering. EndDate zero means the arrangement is open-ended.
type OrderGroup struct {
	ID         string
	CompanyID  string
	OfferingID string
	WasteType  string
	// TimesPerWeek is the recurring weekly service frequency, zero when
	// the group is not frequency-priced.
	TimesPerWeek int
	StartDate    time.Time
	EndDate      time.Time
	// TakeRate is the platform margin percentage applied on top of the
	// seller price.
	TakeRate float64
	// TonnageQuantity is the tonnage booked for material pricing.
	TonnageQuantity int
	DeliveryFee     float64
	RemovalFee      float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasEndDate reports whether the arrangement has a fixed end.
func (g *OrderGroup) HasEndDate() bool {
	return g != nil && !g.EndDate.IsZero()
}

// GroupStatus is the status an order group derives from its orders.
type GroupStatus string

const (
	GroupPending    GroupStatus = "PENDING"
	GroupInProgress GroupStatus = "IN_PROGRESS"
)

// DeriveGroupStatus reports the group's status from its orders: a group
// is IN_PROGRESS once any order has been submitted and not cancelled or
// declined, PENDING otherwise.
func DeriveGroupStatus(orders []Order) GroupStatus {
	for i := range orders {
		o := &orders[i]
		if !o.IsSubmitted() {
			continue
		}
		switch o.Status {
		case StatusCancelled, StatusAdminApprovalDeclined, StatusCreditApprovalDeclined:
			continue
		}
		return GroupInProgress
	}
	return GroupPending
}
