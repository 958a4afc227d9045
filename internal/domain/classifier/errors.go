package classifier

import "errors"

// Sentinel errors returned by classifiers.
var (
	ErrModelUnavailable = errors.New("classifier model unavailable")
	ErrMissingFeature   = errors.New("missing feature")
	ErrInvalidModel     = errors.New("invalid classifier model")
)
