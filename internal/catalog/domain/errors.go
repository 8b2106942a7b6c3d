package catalog

import "errors"

var (
	// ErrNilConfig is returned when validating a nil offering config.
	ErrNilConfig = errors.New("catalog: nil offering config")
	// ErrConflictingRental is returned when more than one rental variant is set.
	ErrConflictingRental = errors.New("catalog: more than one rental variant configured")
	// ErrConflictingService is returned when more than one service variant is set.
	ErrConflictingService = errors.New("catalog: more than one service variant configured")
	// ErrInvalidFrequency is returned for a weekly frequency outside 1-5.
	ErrInvalidFrequency = errors.New("catalog: times per week must be between 1 and 5")
	// ErrConfigNotFound is returned when no pricing config exists for a group.
	ErrConfigNotFound = errors.New("catalog: offering config not found")
)
