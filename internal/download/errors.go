package download

import "errors"

var (
	// ErrTaskNotFound is returned when an operation targets a task that is no longer in the collection
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidPlacement is returned when placement options fail validation
	ErrInvalidPlacement = errors.New("invalid placement")

	// ErrServiceClosed is returned when enqueueing after Shutdown
	ErrServiceClosed = errors.New("service is shut down")
)
