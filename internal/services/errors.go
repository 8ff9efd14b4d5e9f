package services

import (
	"errors"
	"fmt"
)

// Export service errors
var (
	// ErrSubmissionInFlight rejects a submission while another one runs.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrInvalidInput wraps every validation problem of a submission.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownCenter is the cause when the center is outside the
	// configured set. It wraps ErrInvalidInput.
	ErrUnknownCenter = fmt.Errorf("%w: unknown call center", ErrInvalidInput)
)
