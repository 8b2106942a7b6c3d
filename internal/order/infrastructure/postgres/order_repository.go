package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	order "haulstream/internal/order/domain"
)

// OrderRepository persists orders and order groups.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository constructs a repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetOrder fetches an order, nil when absent.
func (r *OrderRepository) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, order_group_id, start_date, end_date, status,
	submitted_on, accepted_on, completed_on, created_at, updated_at
FROM orders
WHERE id = $1
LIMIT 1`, id)
	return scanOrder(row)
}

// GetGroup fetches an order group, nil when absent.
func (r *OrderRepository) GetGroup(ctx context.Context, id string) (*order.OrderGroup, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, company_id, offering_id, waste_type, times_per_week,
	start_date, end_date, take_rate, tonnage_quantity,
	delivery_fee, removal_fee, created_at, updated_at
FROM order_groups
WHERE id = $1
LIMIT 1`, id)
	return scanGroup(row)
}

// ListByGroup returns the group's orders in creation order.
func (r *OrderRepository) ListByGroup(ctx context.Context, groupID string) ([]order.Order, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, order_group_id, start_date, end_date, status,
	submitted_on, accepted_on, completed_on, created_at, updated_at
FROM orders
WHERE order_group_id = $1
ORDER BY created_at ASC, id ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		if o != nil {
			result = append(result, *o)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateOrder inserts an order. The partial unique index on unsubmitted
// orders enforces the one-cart-order-per-group invariant at the storage
// boundary as well.
func (r *OrderRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	if o == nil {
		return order.ErrNilOrder
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO orders (
	id, order_group_id, start_date, end_date, status,
	submitted_on, accepted_on, completed_on, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.OrderGroupID, o.StartDate, o.EndDate, o.Status,
		nullTime(o.SubmittedOn), nullTime(o.AcceptedOn), nullTime(o.CompletedOn),
		o.CreatedAt, o.UpdatedAt,
	)
	return err
}

// UpdateStatus writes the status immediately so concurrent readers see it.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status = $1, updated_at = NOW()
WHERE id = $2`, status, id)
	return err
}

// StampSubmitted records the submission timestamp.
func (r *OrderRepository) StampSubmitted(ctx context.Context, id string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE orders
SET submitted_on = $1, updated_at = $1
WHERE id = $2`, at, id)
	return err
}

// ClearSubmitted returns the order to its unsubmitted cart state.
func (r *OrderRepository) ClearSubmitted(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE orders
SET submitted_on = NULL, updated_at = NOW()
WHERE id = $1`, id)
	return err
}

// StampCompleted records the completion timestamp.
func (r *OrderRepository) StampCompleted(ctx context.Context, id string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE orders
SET completed_on = $1, updated_at = $1
WHERE id = $2`, at, id)
	return err
}

// StampAccepted records the seller acceptance timestamp.
func (r *OrderRepository) StampAccepted(ctx context.Context, id string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE orders
SET accepted_on = $1, updated_at = $1
WHERE id = $2`, at, id)
	return err
}

// MonthlySpend sums the customer price of the company's orders submitted
// in [from, to), per line item rounded to cents before summation.
func (r *OrderRepository) MonthlySpend(ctx context.Context, companyID string, from, to time.Time) (float64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("order repo: nil db")
	}
	var total sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
SELECT SUM(ROUND((li.rate * li.quantity * (1 + li.platform_fee_percent / 100))::numeric, 2))
FROM order_line_items li
JOIN orders o ON o.id = li.order_id
JOIN order_groups g ON g.id = o.order_group_id
WHERE g.company_id = $1
	AND o.submitted_on IS NOT NULL
	AND o.submitted_on >= $2 AND o.submitted_on < $3
	AND o.status NOT IN ($4, $5)`, companyID, from, to,
		order.StatusCancelled, order.StatusAdminApprovalDeclined).Scan(&total)
	if err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return total.Float64, nil
}

// ListAutoRenewDue returns open-ended auto-renew groups whose latest
// order ends on or before the horizon.
func (r *OrderRepository) ListAutoRenewDue(ctx context.Context, horizon time.Time) ([]order.OrderGroup, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT g.id, g.company_id, g.offering_id, g.waste_type, g.times_per_week,
	g.start_date, g.end_date, g.take_rate, g.tonnage_quantity,
	g.delivery_fee, g.removal_fee, g.created_at, g.updated_at
FROM order_groups g
JOIN offering_configs c ON c.offering_id = g.offering_id
WHERE c.auto_renew
	AND g.end_date IS NULL
	AND NOT EXISTS (
		SELECT 1 FROM orders o
		WHERE o.order_group_id = g.id AND o.end_date > $1
	)
ORDER BY g.created_at ASC`, horizon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []order.OrderGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		if g != nil {
			result = append(result, *g)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestOrder returns the group's order with the latest end date, nil
// when the group has none.
func (r *OrderRepository) LatestOrder(ctx context.Context, groupID string) (*order.Order, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, order_group_id, start_date, end_date, status,
	submitted_on, accepted_on, completed_on, created_at, updated_at
FROM orders
WHERE order_group_id = $1
ORDER BY end_date DESC
LIMIT 1`, groupID)
	return scanOrder(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var submittedOn sql.NullTime
	var acceptedOn sql.NullTime
	var completedOn sql.NullTime
	err := row.Scan(
		&o.ID,
		&o.OrderGroupID,
		&o.StartDate,
		&o.EndDate,
		&o.Status,
		&submittedOn,
		&acceptedOn,
		&completedOn,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if submittedOn.Valid {
		o.SubmittedOn = submittedOn.Time.UTC()
	}
	if acceptedOn.Valid {
		o.AcceptedOn = acceptedOn.Time.UTC()
	}
	if completedOn.Valid {
		o.CompletedOn = completedOn.Time.UTC()
	}
	o.StartDate = o.StartDate.UTC()
	o.EndDate = o.EndDate.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}

func scanGroup(row rowScanner) (*order.OrderGroup, error) {
	var g order.OrderGroup
	var endDate sql.NullTime
	err := row.Scan(
		&g.ID,
		&g.CompanyID,
		&g.OfferingID,
		&g.WasteType,
		&g.TimesPerWeek,
		&g.StartDate,
		&endDate,
		&g.TakeRate,
		&g.TonnageQuantity,
		&g.DeliveryFee,
		&g.RemovalFee,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if endDate.Valid {
		g.EndDate = endDate.Time.UTC()
	}
	g.StartDate = g.StartDate.UTC()
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return &g, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
