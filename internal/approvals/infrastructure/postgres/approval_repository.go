package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	approvals "haulstream/internal/approvals/domain"
)

// ApprovalRepository persists approval requests.
type ApprovalRepository struct {
	db *sql.DB
}

// NewApprovalRepository constructs a repository.
func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// GetByOrder returns the order's most recent request, preferring a
// pending one. ErrRequestNotFound when the order has none.
func (r *ApprovalRepository) GetByOrder(ctx context.Context, orderID string) (*approvals.ApprovalRequest, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("approval repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, order_id, status, trigger_policy, created_at, resolved_at
FROM approval_requests
WHERE order_id = $1
ORDER BY (status = 'PENDING') DESC, created_at DESC
LIMIT 1`, orderID)
	req, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, approvals.ErrRequestNotFound
	}
	return req, nil
}

// CreateIfAbsent inserts the request unless the order already has a
// pending one. The partial unique index on pending requests makes the
// check race-free; a conflicting insert reports created=false.
func (r *ApprovalRepository) CreateIfAbsent(ctx context.Context, req *approvals.ApprovalRequest) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("approval repo: nil db")
	}
	if req == nil {
		return false, approvals.ErrNilRequest
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO approval_requests (id, order_id, status, trigger_policy, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (order_id) WHERE status = 'PENDING' DO NOTHING`,
		req.ID, req.OrderID, req.Status, req.Trigger, req.CreatedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Update writes a resolved request back.
func (r *ApprovalRepository) Update(ctx context.Context, req *approvals.ApprovalRequest) error {
	if r == nil || r.db == nil {
		return errors.New("approval repo: nil db")
	}
	if req == nil {
		return approvals.ErrNilRequest
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE approval_requests
SET status = $1, resolved_at = $2
WHERE id = $3`, req.Status, nullTime(req.ResolvedAt), req.ID)
	return err
}

// ListPending returns all requests awaiting a decision, oldest first.
func (r *ApprovalRepository) ListPending(ctx context.Context) ([]approvals.ApprovalRequest, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("approval repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, order_id, status, trigger_policy, created_at, resolved_at
FROM approval_requests
WHERE status = 'PENDING'
ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []approvals.ApprovalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		if req != nil {
			result = append(result, *req)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*approvals.ApprovalRequest, error) {
	var req approvals.ApprovalRequest
	var resolvedAt sql.NullTime
	err := row.Scan(
		&req.ID,
		&req.OrderID,
		&req.Status,
		&req.Trigger,
		&req.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if resolvedAt.Valid {
		req.ResolvedAt = resolvedAt.Time.UTC()
	}
	req.CreatedAt = req.CreatedAt.UTC()
	return &req, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
