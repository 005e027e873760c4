package domain

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable indicates an external collaborator is not configured
// or cannot be reached at all.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")

// MissingFieldError reports a required field absent or unusable in an
// upstream weather response.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("weather data missing required field: %s", e.Field)
}
