package repository

import "errors"

// Sentinel kinds for model artifact errors.
var (
	ErrNotFound        = errors.New("model artifact not found")
	ErrInvalidArtifact = errors.New("invalid model artifact")
	ErrUnknownModel    = errors.New("unknown model")
)
