package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	approvals "haulstream/internal/approvals/domain"
	"haulstream/internal/ids"
	"haulstream/internal/observability/metrics"
	order "haulstream/internal/order/domain"
)

// ApprovalGate runs the company spending policies against a submission.
type ApprovalGate interface {
	Evaluate(ctx context.Context, o *order.Order, companyID, role string, customerPrice float64) (*approvals.ApprovalRequest, error)
}

// ApprovalRequests is the slice of the approval store the lifecycle
// needs when resolving decisions.
type ApprovalRequests interface {
	GetByOrder(ctx context.Context, orderID string) (*approvals.ApprovalRequest, error)
	Update(ctx context.Context, req *approvals.ApprovalRequest) error
}

// LifecycleService drives order status transitions: submission through
// the payment and policy checks, administrator approval decisions,
// credit application outcomes, acceptance, completion and cancellation.
type LifecycleService struct {
	orders   OrderStore
	pricing  *PricingService
	gate     ApprovalGate
	requests ApprovalRequests
	payments PaymentPort
	notifier Notifier
	clock    Clock
	logger   *log.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(orders OrderStore, pricing *PricingService, gate ApprovalGate, requests ApprovalRequests, payments PaymentPort, notifier Notifier, clock Clock, logger *log.Logger) (*LifecycleService, error) {
	if orders == nil {
		return nil, errors.New("lifecycle service: nil order store")
	}
	if pricing == nil {
		return nil, errors.New("lifecycle service: nil pricing service")
	}
	if gate == nil {
		return nil, errors.New("lifecycle service: nil approval gate")
	}
	if requests == nil {
		return nil, errors.New("lifecycle service: nil approval requests")
	}
	if payments == nil {
		return nil, errors.New("lifecycle service: nil payment port")
	}
	if notifier == nil {
		return nil, errors.New("lifecycle service: nil notifier")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LifecycleService{
		orders:   orders,
		pricing:  pricing,
		gate:     gate,
		requests: requests,
		payments: payments,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}, nil
}

// SubmitOrder takes an order out of the cart. Line items are generated
// first so the policy gate sees a priced order; a generation failure is
// logged and the gate still runs against whatever price is computable.
// A company without a payment method is parked in NO_PAYMENT_METHOD
// until a retry finds one; a tripped policy parks the order behind an
// approval request. overrideApproval lets an administrator push a held
// order through, which resolves its pending request as accepted.
func (s *LifecycleService) SubmitOrder(ctx context.Context, orderID, role string, overrideApproval bool) (*order.Order, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveOrderSubmit(result, time.Since(start))
	}()

	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if o == nil {
		result = metrics.ResultError
		return nil, order.ErrOrderNotFound
	}
	g, err := s.orders.GetGroup(ctx, o.OrderGroupID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if g == nil {
		result = metrics.ResultError
		return nil, order.ErrGroupNotFound
	}

	if o.IsSubmitted() {
		return o, nil
	}

	if _, err := s.pricing.GenerateLineItems(ctx, o.ID); err != nil {
		var genErr *order.GenerationError
		if !errors.As(err, &genErr) {
			result = metrics.ResultError
			return nil, err
		}
		s.logger.Printf("line item generation failed for order %s, evaluating policies unpriced: %v", o.ID, err)
	}
	price, err := s.pricing.CustomerPrice(ctx, o.ID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	hasPayment, err := s.payments.HasPaymentMethod(ctx, g.CompanyID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if !hasPayment {
		if err := s.orders.UpdateStatus(ctx, o.ID, order.StatusNoPaymentMethod); err != nil {
			result = metrics.ResultError
			return nil, err
		}
		o.Status = order.StatusNoPaymentMethod
		result = metrics.ResultBlocked
		return o, &order.BlockedSubmissionError{OrderID: o.ID, Status: o.Status}
	}
	if o.Status == order.StatusNoPaymentMethod {
		// The missing payment method has been supplied; the retry
		// resumes from PENDING.
		if err := s.orders.UpdateStatus(ctx, o.ID, order.StatusPending); err != nil {
			result = metrics.ResultError
			return nil, err
		}
		o.Status = order.StatusPending
	}

	if o.Status == order.StatusPending && !overrideApproval {
		req, err := s.gate.Evaluate(ctx, o, g.CompanyID, role, price)
		if err != nil {
			result = metrics.ResultError
			return nil, err
		}
		if req != nil {
			result = metrics.ResultBlocked
			return o, &order.BlockedSubmissionError{OrderID: o.ID, Status: o.Status}
		}
	}

	tr, err := o.Submit(overrideApproval, s.clock.Now())
	if err != nil {
		result = metrics.ResultBlocked
		return o, err
	}
	if err := s.apply(ctx, o, g, tr); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return o, nil
}

// CreateOrder validates a new order against its group and persists it.
// Validation violations surface immediately as *order.ValidationError
// and nothing is written.
func (s *LifecycleService) CreateOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	if o == nil {
		return nil, order.ErrNilOrder
	}
	g, err := s.orders.GetGroup(ctx, o.OrderGroupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, order.ErrGroupNotFound
	}
	siblings, err := s.orders.ListByGroup(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	if err := order.ValidateForSave(o, g, siblings); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if o.ID == "" {
		o.ID = ids.New()
	}
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	if err := s.orders.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ResolveApproval applies an administrator's decision on a held order.
// Accepting completes the deferred submission; declining parks the order
// in ADMIN_APPROVAL_DECLINED. Resolving an already-resolved request is a
// no-op.
func (s *LifecycleService) ResolveApproval(ctx context.Context, orderID string, accepted bool) (*order.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrOrderNotFound
	}

	decision := approvals.ApprovalDeclined
	if accepted {
		decision = approvals.ApprovalAccepted
	}
	metrics.IncApprovalResolve(string(decision))

	req, err := s.requests.GetByOrder(ctx, orderID)
	if err != nil && !errors.Is(err, approvals.ErrRequestNotFound) {
		return nil, err
	}
	if req != nil {
		changed, err := req.Resolve(decision, s.clock.Now())
		if err != nil {
			return nil, err
		}
		if !changed {
			return o, nil
		}
		if err := s.requests.Update(ctx, req); err != nil {
			return nil, err
		}
	}

	if accepted {
		if err := s.completeSubmission(ctx, o, order.StatusPending); err != nil {
			return nil, err
		}
	} else {
		if err := s.orders.UpdateStatus(ctx, o.ID, order.StatusAdminApprovalDeclined); err != nil {
			return nil, err
		}
		o.Status = order.StatusAdminApprovalDeclined
	}
	s.notifier.ApprovalResolved(ctx, o.ID, accepted)
	return o, nil
}

// ResolveCreditApplication applies the external credit decision.
func (s *LifecycleService) ResolveCreditApplication(ctx context.Context, orderID string, approved bool) (*order.Order, error) {
	o, g, err := s.loadPair(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tr, err := o.ResolveCreditApplication(approved)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, o, g, tr); err != nil {
		return nil, err
	}
	return o, nil
}

// Accept schedules a submitted order on the seller's behalf.
func (s *LifecycleService) Accept(ctx context.Context, orderID string) (*order.Order, error) {
	o, g, err := s.loadPair(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	tr, err := o.Accept(now)
	if err != nil {
		return nil, err
	}
	if tr.Status == order.StatusScheduled && o.AcceptedOn.IsZero() {
		o.AcceptedOn = now
	}
	if err := s.apply(ctx, o, g, tr); err != nil {
		return nil, err
	}
	return o, nil
}

// Complete finishes an order and stamps its completion time.
func (s *LifecycleService) Complete(ctx context.Context, orderID string) (*order.Order, error) {
	o, g, err := s.loadPair(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	tr, err := o.Complete(now)
	if err != nil {
		return nil, err
	}
	if tr.Status == order.StatusComplete && o.CompletedOn.IsZero() {
		if err := s.orders.StampCompleted(ctx, o.ID, now); err != nil {
			return nil, err
		}
		o.CompletedOn = now
	}
	if err := s.apply(ctx, o, g, tr); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel cancels an order. The order and its line items are retained.
func (s *LifecycleService) Cancel(ctx context.Context, orderID string) (*order.Order, error) {
	o, g, err := s.loadPair(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tr, err := o.Cancel()
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, o, g, tr); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *LifecycleService) loadPair(ctx context.Context, orderID string) (*order.Order, *order.OrderGroup, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o == nil {
		return nil, nil, order.ErrOrderNotFound
	}
	g, err := s.orders.GetGroup(ctx, o.OrderGroupID)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, order.ErrGroupNotFound
	}
	return o, g, nil
}

// apply persists a transition: the commands first, then the status when
// it changed.
func (s *LifecycleService) apply(ctx context.Context, o *order.Order, g *order.OrderGroup, tr order.Transition) error {
	for _, cmd := range tr.Commands {
		switch c := cmd.(type) {
		case order.StampSubmittedOn:
			if err := s.orders.StampSubmitted(ctx, o.ID, c.At); err != nil {
				return err
			}
			o.SubmittedOn = c.At
		case order.ClearSubmittedOn:
			if err := s.orders.ClearSubmitted(ctx, o.ID); err != nil {
				return err
			}
			o.SubmittedOn = time.Time{}
		case order.ResolvePendingApproval:
			if _, err := s.ResolveApproval(ctx, o.ID, true); err != nil {
				return err
			}
			// ResolveApproval stamped and persisted everything already.
			return nil
		case order.ReevaluatePolicies:
			if err := s.reevaluate(ctx, o, g); err != nil {
				return err
			}
		case order.NotifySubmitted:
			price, err := s.pricing.CustomerPrice(ctx, o.ID)
			if err != nil {
				s.logger.Printf("submission notification for order %s dropped: %v", o.ID, err)
				continue
			}
			s.notifier.OrderSubmitted(ctx, o, price)
		default:
			return fmt.Errorf("lifecycle: unknown transition command %T", cmd)
		}
	}
	if tr.Status != "" && tr.Status != o.Status {
		if err := s.orders.UpdateStatus(ctx, o.ID, tr.Status); err != nil {
			return err
		}
		o.Status = tr.Status
	}
	return nil
}

// completeSubmission finishes a submission that a hold deferred: stamp
// the submission time if missing, then land on the given status.
func (s *LifecycleService) completeSubmission(ctx context.Context, o *order.Order, status order.Status) error {
	if !o.IsSubmitted() {
		now := s.clock.Now()
		if err := s.orders.StampSubmitted(ctx, o.ID, now); err != nil {
			return err
		}
		o.SubmittedOn = now
	}
	if o.Status != status {
		if err := s.orders.UpdateStatus(ctx, o.ID, status); err != nil {
			return err
		}
		o.Status = status
	}
	price, err := s.pricing.CustomerPrice(ctx, o.ID)
	if err != nil {
		s.logger.Printf("submission notification for order %s dropped: %v", o.ID, err)
		return nil
	}
	s.notifier.OrderSubmitted(ctx, o, price)
	return nil
}

// reevaluate runs the policy gate again after a credit approval, with
// the most representative non-admin role.
func (s *LifecycleService) reevaluate(ctx context.Context, o *order.Order, g *order.OrderGroup) error {
	price, err := s.pricing.CustomerPrice(ctx, o.ID)
	if err != nil {
		return err
	}
	req, err := s.gate.Evaluate(ctx, o, g.CompanyID, "", price)
	if err != nil {
		return err
	}
	if req == nil {
		return s.completeSubmission(ctx, o, order.StatusPending)
	}
	return nil
}
