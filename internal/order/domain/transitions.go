package order

import "time"

// Command is a side effect a transition asks the caller to apply
// transactionally alongside the status change.
type Command interface {
	command()
}

// StampSubmittedOn records the submission timestamp on the order.
type StampSubmittedOn struct {
	At time.Time
}

// ClearSubmittedOn returns the order to its cart-like unsubmitted state.
type ClearSubmittedOn struct{}

// ResolvePendingApproval asks the caller to resolve the order's pending
// approval request as accepted, which itself completes submission.
type ResolvePendingApproval struct{}

// ReevaluatePolicies asks the caller to run the policy gate again.
type ReevaluatePolicies struct{}

// NotifySubmitted asks the caller to emit a submission notification.
type NotifySubmitted struct{}

func (StampSubmittedOn) command()       {}
func (ClearSubmittedOn) command()       {}
func (ResolvePendingApproval) command() {}
func (ReevaluatePolicies) command()     {}
func (NotifySubmitted) command()        {}

// Transition is the outcome of a lifecycle transition function: the next
// status and the side effects to apply.
type Transition struct {
	Status   Status
	Commands []Command
}

// Submit computes the submission transition for an order.
//
// An already submitted order is a no-op. An order pending admin approval
// is blocked unless overrideApproval is set, in which case the pending
// approval request is resolved as accepted (or, when the request is
// missing, the order is submitted directly). Any other blocking or
// terminal status fails with a BlockedSubmissionError naming it.
func (o *Order) Submit(overrideApproval bool, now time.Time) (Transition, error) {
	if o == nil {
		return Transition{}, ErrNilOrder
	}
	if o.IsSubmitted() {
		return Transition{Status: o.Status}, nil
	}

	switch o.Status {
	case StatusPending:
		return Transition{
			Status:   StatusPending,
			Commands: []Command{StampSubmittedOn{At: now}, NotifySubmitted{}},
		}, nil
	case StatusAdminApprovalPending:
		if !overrideApproval {
			return Transition{}, &BlockedSubmissionError{OrderID: o.ID, Status: o.Status}
		}
		return Transition{
			Status:   StatusAdminApprovalPending,
			Commands: []Command{ResolvePendingApproval{}},
		}, nil
	default:
		return Transition{}, &BlockedSubmissionError{OrderID: o.ID, Status: o.Status}
	}
}

// ResolveCreditApplication computes the transition for an external
// credit-application decision. Approval re-runs the policy gate; decline
// clears the submission stamp and returns the order to the cart.
func (o *Order) ResolveCreditApplication(approved bool) (Transition, error) {
	if o == nil {
		return Transition{}, ErrNilOrder
	}
	if o.Status != StatusCreditApprovalPending {
		return Transition{Status: o.Status}, nil
	}
	if approved {
		return Transition{
			Status:   StatusPending,
			Commands: []Command{ReevaluatePolicies{}},
		}, nil
	}
	return Transition{
		Status:   StatusPending,
		Commands: []Command{ClearSubmittedOn{}},
	}, nil
}

// Complete marks a scheduled or pending order complete.
func (o *Order) Complete(now time.Time) (Transition, error) {
	if o == nil {
		return Transition{}, ErrNilOrder
	}
	if o.Status == StatusComplete {
		return Transition{Status: o.Status}, nil
	}
	if o.Status.IsTerminal() {
		return Transition{}, &BlockedSubmissionError{OrderID: o.ID, Status: o.Status}
	}
	return Transition{Status: StatusComplete}, nil
}

// Cancel cancels an order. Cancellation is a status, not a deletion.
func (o *Order) Cancel() (Transition, error) {
	if o == nil {
		return Transition{}, ErrNilOrder
	}
	if o.Status == StatusCancelled {
		return Transition{Status: o.Status}, nil
	}
	if o.Status.IsTerminal() {
		return Transition{}, &BlockedSubmissionError{OrderID: o.ID, Status: o.Status}
	}
	return Transition{Status: StatusCancelled}, nil
}

// Accept schedules a pending submitted order.
func (o *Order) Accept(now time.Time) (Transition, error) {
	if o == nil {
		return Transition{}, ErrNilOrder
	}
	if o.Status == StatusScheduled {
		return Transition{Status: o.Status}, nil
	}
	if o.Status != StatusPending || !o.IsSubmitted() {
		return Transition{}, &BlockedSubmissionError{OrderID: o.ID, Status: o.Status}
	}
	return Transition{Status: StatusScheduled}, nil
}
