package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	order "haulstream/internal/order/domain"
)

// Store is an in-memory order and line item store for demo/testing. It
// implements the order application's OrderStore and LineItemStore ports
// and the policy gate's spend lookup.
type Store struct {
	mu        sync.RWMutex
	orders    map[string]order.Order
	groups    map[string]order.OrderGroup
	lineItems map[string][]order.LineItem
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		orders:    make(map[string]order.Order),
		groups:    make(map[string]order.OrderGroup),
		lineItems: make(map[string][]order.LineItem),
	}
}

// PutGroup seeds an order group.
func (s *Store) PutGroup(g order.OrderGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
}

// PutOrder seeds an order.
func (s *Store) PutOrder(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

// GetOrder returns a copy of the order, nil when absent.
func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// GetGroup returns a copy of the group, nil when absent.
func (s *Store) GetGroup(ctx context.Context, id string) (*order.OrderGroup, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

// ListByGroup returns the group's orders in creation order.
func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]order.Order, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []order.Order
	for _, o := range s.orders {
		if o.OrderGroupID == groupID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// CreateOrder inserts an order.
func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	_ = ctx
	if o == nil {
		return order.ErrNilOrder
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = *o
	return nil
}

// UpdateStatus writes the order's status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

// StampSubmitted records the submission timestamp.
func (s *Store) StampSubmitted(ctx context.Context, id string, at time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.SubmittedOn = at
	s.orders[id] = o
	return nil
}

// ClearSubmitted returns the order to its unsubmitted state.
func (s *Store) ClearSubmitted(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.SubmittedOn = time.Time{}
	s.orders[id] = o
	return nil
}

// StampCompleted records the completion timestamp.
func (s *Store) StampCompleted(ctx context.Context, id string, at time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.CompletedOn = at
	s.orders[id] = o
	return nil
}

// ListByOrder returns the order's line items.
func (s *Store) ListByOrder(ctx context.Context, orderID string) ([]order.LineItem, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.lineItems[orderID]
	result := make([]order.LineItem, len(items))
	copy(result, items)
	return result, nil
}

// CountByOrder returns the number of line items on the order.
func (s *Store) CountByOrder(ctx context.Context, orderID string) (int, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lineItems[orderID]), nil
}

// CreateAll appends the full set at once.
func (s *Store) CreateAll(ctx context.Context, items []order.LineItem) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, li := range items {
		s.lineItems[li.OrderID] = append(s.lineItems[li.OrderID], li)
	}
	return nil
}

// MonthlySpend sums the customer price of submitted company orders in
// [from, to).
func (s *Store) MonthlySpend(ctx context.Context, companyID string, from, to time.Time) (float64, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0.0
	for _, o := range s.orders {
		g, ok := s.groups[o.OrderGroupID]
		if !ok || g.CompanyID != companyID {
			continue
		}
		if !o.IsSubmitted() || o.SubmittedOn.Before(from) || !o.SubmittedOn.Before(to) {
			continue
		}
		if o.Status == order.StatusCancelled || o.Status == order.StatusAdminApprovalDeclined {
			continue
		}
		total += order.CustomerPrice(s.lineItems[o.ID])
	}
	return order.Round2(total), nil
}
