package service

import "errors"

// Validation errors returned before any repository call is made
var (
	ErrMissingIdentifier = errors.New("transaction id is required")
	ErrInvalidIdentifier = errors.New("invalid transaction id")
	ErrInvalidField      = errors.New("invalid field")
)
