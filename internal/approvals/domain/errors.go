package approvals

import "errors"

var (
	// ErrNilRequest is returned when resolving a nil approval request.
	ErrNilRequest = errors.New("approvals: nil approval request")
	// ErrInvalidDecision is returned for a decision other than accepted or declined.
	ErrInvalidDecision = errors.New("approvals: decision must be ACCEPTED or DECLINED")
	// ErrRequestNotFound is returned when an approval request does not exist.
	ErrRequestNotFound = errors.New("approvals: request not found")
)
