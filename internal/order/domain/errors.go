package order

import (
	"errors"
	"fmt"
)

var (
	// ErrNilOrder is returned when an operation receives a nil order.
	ErrNilOrder = errors.New("order: nil order")
	// ErrNilGroup is returned when an operation receives a nil order group.
	ErrNilGroup = errors.New("order: nil order group")
	// ErrNilLineItem is returned when validating a nil line item.
	ErrNilLineItem = errors.New("order: nil line item")
	// ErrPlatformFeeRange is returned when a platform fee is outside [0,100].
	ErrPlatformFeeRange = errors.New("order: platform fee percent must be within [0,100]")
	// ErrOrderNotFound is returned when an order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrGroupNotFound is returned when an order group does not exist.
	ErrGroupNotFound = errors.New("order: group not found")
)

// ValidationError reports an order save-time invariant violation. It is
// raised synchronously and never persisted.
type ValidationError struct {
	OrderID string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order %s: %s", e.OrderID, e.Reason)
}

// BlockedSubmissionError reports a submission attempt against a blocking
// status. It is recoverable by resolving the underlying cause and retrying.
type BlockedSubmissionError struct {
	OrderID string
	Status  Status
}

func (e *BlockedSubmissionError) Error() string {
	return fmt.Sprintf("order %s: submission blocked by status %s", e.OrderID, e.Status)
}

// GenerationError reports a failed line-item generation for an order.
// Generation is all-or-nothing: no partial line items are kept.
type GenerationError struct {
	OrderID string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("order %s: line item generation failed: %v", e.OrderID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
