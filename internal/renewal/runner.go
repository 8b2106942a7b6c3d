package renewal

import (
	"context"
	"errors"
	"log"
	"time"

	"haulstream/internal/observability/metrics"
	order "haulstream/internal/order/domain"
)

// GroupStore lists the auto-renewing groups whose coverage is running
// out and their most recent order.
type GroupStore interface {
	// ListAutoRenewDue returns open-ended auto-renew groups whose latest
	// order ends on or before the horizon.
	ListAutoRenewDue(ctx context.Context, horizon time.Time) ([]order.OrderGroup, error)
	LatestOrder(ctx context.Context, groupID string) (*order.Order, error)
}

// OrderCreator validates and persists a new order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, o *order.Order) (*order.Order, error)
}

// Runner creates the next order for auto-renewing groups. Each run is
// independent; a group that fails validation is skipped and retried on
// the next run.
type Runner struct {
	groups  GroupStore
	creator OrderCreator
	cfg     Config
	logger  *log.Logger
}

// NewRunner constructs a runner.
func NewRunner(groups GroupStore, creator OrderCreator, cfg Config, logger *log.Logger) (*Runner, error) {
	if groups == nil {
		return nil, errors.New("renewal: nil group store")
	}
	if creator == nil {
		return nil, errors.New("renewal: nil order creator")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{groups: groups, creator: creator, cfg: cfg, logger: logger}, nil
}

// Run creates renewal orders for every due group. It returns how many
// orders were created.
func (r *Runner) Run(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveRenewalRun(result, time.Since(start))
	}()

	horizon := now.AddDate(0, 0, r.cfg.LeadDays)
	groups, err := r.groups.ListAutoRenewDue(ctx, horizon)
	if err != nil {
		result = metrics.ResultError
		return 0, err
	}

	created := 0
	for i := range groups {
		g := &groups[i]
		latest, err := r.groups.LatestOrder(ctx, g.ID)
		if err != nil {
			r.logger.Printf("renewal: latest order lookup failed for group %s: %v", g.ID, err)
			result = metrics.ResultError
			continue
		}
		if latest == nil || latest.EndDate.IsZero() {
			continue
		}
		next := &order.Order{
			OrderGroupID: g.ID,
			StartDate:    latest.EndDate,
			EndDate:      latest.EndDate.AddDate(0, 0, r.cfg.PeriodDays),
			Status:       order.StatusPending,
		}
		if _, err := r.creator.CreateOrder(ctx, next); err != nil {
			var vErr *order.ValidationError
			if errors.As(err, &vErr) {
				// Usually an open cart order on the group; the run after
				// it submits will pick the group back up.
				r.logger.Printf("renewal: group %s skipped: %v", g.ID, err)
				continue
			}
			r.logger.Printf("renewal: create failed for group %s: %v", g.ID, err)
			result = metrics.ResultError
			continue
		}
		created++
	}
	return created, nil
}
