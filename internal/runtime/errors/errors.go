package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrInvalidState      = sterrors.New("flowtape: store is in an invalid state for this operation")
	ErrNotFound          = sterrors.New("flowtape: no registered channel matches the record key")
	ErrConfigRequired    = sterrors.New("flowtape: configuration is required")
	ErrLoggerRequired    = sterrors.New("flowtape: logger is required")
	ErrMiddlewareNeeded  = sterrors.New("flowtape: middleware is required")
	ErrConnectionNeeded  = sterrors.New("flowtape: connection is required")
	ErrPublisherRequired = sterrors.New("flowtape: publisher is required")
	ErrTopicRequired     = sterrors.New("flowtape: topic is required")
)

// ConfigValidationError wraps configuration validation failures so callers can
// distinguish them from runtime errors.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("flowtape: invalid configuration: %v", e.Err)
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err in a ConfigValidationError. A nil err
// returns nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
