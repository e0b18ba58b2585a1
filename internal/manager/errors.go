package manager

import (
	"errors"

	"tierd/internal/domain"
)

// Error is the manager's error type; it lives in domain so the selector and catalog
// can share it.
type Error = domain.Error

// IsTooBusy reports whether err indicates a per-model conflict (return 429).
func IsTooBusy(err error) bool { return domain.IsBusy(err) }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool { return domain.IsUnknownModel(err) }

// IsRejected reports whether admission refused the placement.
func IsRejected(err error) bool { return domain.IsRejection(err) }

// withModel stamps the model id on errors the tracker produced without one.
func withModel(err error, id string) error {
	var e *domain.Error
	if errors.As(err, &e) && e.Model == "" {
		cp := *e
		cp.Model = id
		return &cp
	}
	return err
}
