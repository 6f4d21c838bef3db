package model

// SourceError is a failure raised by the media source itself (resolving a
// query or fetching a stream). Message is short and safe to show to users.
type SourceError struct {
	Message string
	Err     error
}

// NewSourceError wraps err with a user-facing message
func NewSourceError(message string, err error) *SourceError {
	return &SourceError{Message: message, Err: err}
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
