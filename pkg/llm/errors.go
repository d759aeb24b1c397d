package llm

import "errors"

// Sentinel errors returned by Client implementations.
var (
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrRefusal       = errors.New("the model refused to respond")
	ErrEmptyResponse = errors.New("the model returned an empty response")
	ErrInvalidModel  = errors.New("invalid model specified")
)

// RateLimitError carries an optional provider message alongside the rate
// limit condition.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return ErrRateLimit.Error()
	}
	return e.Message
}

// Is lets errors.Is match any RateLimitError regardless of message.
func (e *RateLimitError) Is(target error) bool {
	if target == ErrRateLimit {
		return true
	}
	_, ok := target.(*RateLimitError)
	return ok
}

// NewRateLimitError builds a RateLimitError, optionally with a provider
// message.
func NewRateLimitError(message ...string) *RateLimitError {
	err := &RateLimitError{}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}

// RefusalError reports that the model declined to answer.
type RefusalError struct {
	Message string
}

func (e *RefusalError) Error() string { return e.Message }

// Is lets errors.Is match any RefusalError.
func (e *RefusalError) Is(target error) bool {
	if target == ErrRefusal {
		return true
	}
	_, ok := target.(*RefusalError)
	return ok
}

// NewRefusalError builds a RefusalError.
func NewRefusalError(message string) *RefusalError {
	return &RefusalError{Message: message}
}

// EmptyResponseError reports a response with no usable content.
type EmptyResponseError struct {
	Message string
}

func (e *EmptyResponseError) Error() string { return e.Message }

// Is lets errors.Is match any EmptyResponseError.
func (e *EmptyResponseError) Is(target error) bool {
	if target == ErrEmptyResponse {
		return true
	}
	_, ok := target.(*EmptyResponseError)
	return ok
}

// NewEmptyResponseError builds an EmptyResponseError.
func NewEmptyResponseError(message string) *EmptyResponseError {
	return &EmptyResponseError{Message: message}
}
