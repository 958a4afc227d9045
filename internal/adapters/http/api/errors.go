package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrValidation  = errors.New("validation failed")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrUnavailable = errors.New("service unavailable")
)

// Error codes rendered in the "code" field of error responses.
const (
	codeBadRequest    = "BAD_REQUEST"
	codeValidation    = "VALIDATION_ERROR"
	codeBatchTooLarge = "BATCH_TOO_LARGE"
	codeOverloaded    = "OVERLOADED"
	codeRateLimited   = "RATE_LIMITED"
	codeUnavailable   = "SERVICE_UNAVAILABLE"
	codeTimeout       = "TIMEOUT"
	codeInternal      = "INTERNAL_ERROR"
)
