package postgres

import (
	"context"
	"database/sql"
	"errors"

	order "haulstream/internal/order/domain"
)

// LineItemRepository persists order line items.
type LineItemRepository struct {
	db *sql.DB
}

// NewLineItemRepository constructs a repository.
func NewLineItemRepository(db *sql.DB) *LineItemRepository {
	return &LineItemRepository{db: db}
}

// ListByOrder returns the order's line items in creation order.
func (r *LineItemRepository) ListByOrder(ctx context.Context, orderID string) ([]order.LineItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("line item repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, order_id, type, rate, quantity, platform_fee_percent,
	tax, tax_applied, description, is_flat_rate, created_at
FROM order_line_items
WHERE order_id = $1
ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []order.LineItem
	for rows.Next() {
		var li order.LineItem
		var tax sql.NullFloat64
		if err := rows.Scan(
			&li.ID,
			&li.OrderID,
			&li.Type,
			&li.Rate,
			&li.Quantity,
			&li.PlatformFeePercent,
			&tax,
			&li.TaxApplied,
			&li.Description,
			&li.IsFlatRate,
			&li.CreatedAt,
		); err != nil {
			return nil, err
		}
		if tax.Valid {
			li.Tax = tax.Float64
		}
		li.CreatedAt = li.CreatedAt.UTC()
		result = append(result, li)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByOrder returns the number of line items on the order.
func (r *LineItemRepository) CountByOrder(ctx context.Context, orderID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("line item repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM order_line_items WHERE order_id = $1`, orderID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateAll inserts the full set in one transaction; a failed insert
// rolls back every row.
func (r *LineItemRepository) CreateAll(ctx context.Context, items []order.LineItem) error {
	if r == nil || r.db == nil {
		return errors.New("line item repo: nil db")
	}
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range items {
		li := &items[i]
		var tax sql.NullFloat64
		if li.TaxApplied {
			tax = sql.NullFloat64{Float64: li.Tax, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO order_line_items (
	id, order_id, type, rate, quantity, platform_fee_percent,
	tax, tax_applied, description, is_flat_rate, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			li.ID, li.OrderID, li.Type, li.Rate, li.Quantity, li.PlatformFeePercent,
			tax, li.TaxApplied, li.Description, li.IsFlatRate, li.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
