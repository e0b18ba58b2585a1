package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every error the manager can return to a caller.
type Kind string

const (
	KindUnknownModel         Kind = "UnknownModel"
	KindInvalidRequest       Kind = "InvalidRequest"
	KindExceedsTierCeiling   Kind = "ExceedsTierCeiling"
	KindInsufficientCapacity Kind = "InsufficientCapacity"
	KindNoSuitableModel      Kind = "NoSuitableModel"
	KindBusy                 Kind = "Busy"
)

// Error is the structured error shared by catalog, selector, manager and facade.
// None of these are fatal to the process.
type Error struct {
	Kind   Kind
	Model  string
	Tier   Tier
	Reason string
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Model != "" {
		msg += ": " + e.Model
	}
	if e.Tier != "" {
		msg += " (" + string(e.Tier) + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Retryable reports whether the same request may succeed later without changing it.
// InsufficientCapacity needs space freed first; Busy only needs the in-flight op to finish.
func (e *Error) Retryable() bool {
	return e.Kind == KindBusy || e.Kind == KindInsufficientCapacity
}

// StatusCode lets the HTTP layer map the error without knowing the taxonomy.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindUnknownModel:
		return http.StatusNotFound
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindExceedsTierCeiling, KindNoSuitableModel:
		return http.StatusUnprocessableEntity
	case KindInsufficientCapacity:
		return http.StatusInsufficientStorage
	case KindBusy:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrUnknownModel returns an error for an id that is not in the catalog.
func ErrUnknownModel(id string) error {
	return &Error{Kind: KindUnknownModel, Model: id, Reason: "not registered in catalog"}
}

// ErrInvalidRequest formats a malformed-request error.
func ErrInvalidRequest(format string, args ...any) error {
	return &Error{Kind: KindInvalidRequest, Reason: fmt.Sprintf(format, args...)}
}

func ErrExceedsTierCeiling(id string, tier Tier, reason string) error {
	return &Error{Kind: KindExceedsTierCeiling, Model: id, Tier: tier, Reason: reason}
}

func ErrInsufficientCapacity(id string, tier Tier, reason string) error {
	return &Error{Kind: KindInsufficientCapacity, Model: id, Tier: tier, Reason: reason}
}

func ErrNoSuitableModel(reason string) error {
	return &Error{Kind: KindNoSuitableModel, Reason: reason}
}

func ErrBusy(id string) error {
	return &Error{Kind: KindBusy, Model: id, Reason: "another operation is in flight for this model"}
}

// KindOf extracts the Kind from err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) is a *Error of the given kind.
func IsKind(err error, k Kind) bool { return err != nil && KindOf(err) == k }

func IsUnknownModel(err error) bool         { return IsKind(err, KindUnknownModel) }
func IsInvalidRequest(err error) bool       { return IsKind(err, KindInvalidRequest) }
func IsExceedsTierCeiling(err error) bool   { return IsKind(err, KindExceedsTierCeiling) }
func IsInsufficientCapacity(err error) bool { return IsKind(err, KindInsufficientCapacity) }
func IsNoSuitableModel(err error) bool      { return IsKind(err, KindNoSuitableModel) }
func IsBusy(err error) bool                 { return IsKind(err, KindBusy) }

// IsRejection reports whether err is an admission rejection of either flavour.
func IsRejection(err error) bool {
	return IsExceedsTierCeiling(err) || IsInsufficientCapacity(err)
}
