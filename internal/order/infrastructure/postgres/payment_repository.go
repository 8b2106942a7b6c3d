package postgres

import (
	"context"
	"database/sql"
	"errors"
)

// PaymentRepository answers billing readiness from the stored payment
// methods.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository constructs a repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// HasPaymentMethod reports whether the company has an active payment
// method on file.
func (r *PaymentRepository) HasPaymentMethod(ctx context.Context, companyID string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("payment repo: nil db")
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM company_payment_methods
	WHERE company_id = $1 AND active
)`, companyID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
