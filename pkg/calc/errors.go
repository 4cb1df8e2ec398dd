package calc

import "errors"

var (
	// ErrAlreadySettled is returned when a settled loan is recalculated or settled again.
	// A settled loan's amount is frozen.
	ErrAlreadySettled = errors.New("transaction already settled")

	// ErrInvalidAmount is returned for a settlement amount out of range.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRange is returned when an end date falls before its start date.
	ErrInvalidRange = errors.New("invalid range: end before start")
)
