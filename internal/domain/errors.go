package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError is the InvalidRequest kind: malformed input, never retried.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// TripNotBookableError is returned for inactive, cancelled or departed trips.
type TripNotBookableError struct {
	TripID int64
	Reason string
}

func (e TripNotBookableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("trip %d is not bookable", e.TripID)
	}
	return fmt.Sprintf("trip %d is not bookable: %s", e.TripID, e.Reason)
}

// SeatConflictError reports seats already held by another buyer.
// The caller is expected to re-select and retry.
type SeatConflictError struct {
	TripID int64
	Seats  []int
}

func (e SeatConflictError) Error() string {
	return fmt.Sprintf("seats already taken on trip %d: %s", e.TripID, joinSeats(e.Seats))
}

// InvalidSeatError reports seat numbers outside the bus layout.
type InvalidSeatError struct {
	TripID     int64
	Seats      []int
	TotalSeats int
}

func (e InvalidSeatError) Error() string {
	return fmt.Sprintf("seats outside layout of trip %d (1..%d): %s", e.TripID, e.TotalSeats, joinSeats(e.Seats))
}

// ConfigurationError flags data that needs manual reconciliation
// (missing pricing config, reservation without a recorded price).
type ConfigurationError struct {
	Msg string
	Err error
}

func (e ConfigurationError) Error() string {
	if e.Msg == "" {
		return "configuration error"
	}
	return e.Msg
}

func (e ConfigurationError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsTripNotBookable(err error) bool {
	var target TripNotBookableError
	return errors.As(err, &target)
}

func IsSeatConflict(err error) bool {
	var target SeatConflictError
	return errors.As(err, &target)
}

func IsInvalidSeat(err error) bool {
	var target InvalidSeatError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target ConfigurationError
	return errors.As(err, &target)
}

// ConflictSeats extracts the conflicting seat numbers, if any.
func ConflictSeats(err error) []int {
	var target SeatConflictError
	if errors.As(err, &target) {
		return target.Seats
	}
	return nil
}

func joinSeats(seats []int) string {
	sorted := append([]int(nil), seats...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for _, s := range sorted {
		parts = append(parts, strconv.Itoa(s))
	}
	return strings.Join(parts, ",")
}
