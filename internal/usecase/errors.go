package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrMalformedEntity       = errors.New("malformed upstream entity")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
