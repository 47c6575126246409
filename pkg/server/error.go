package server

import "errors"

var (
	// ErrInternalServerError is returned when an unexpected error happens
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound is returned when a requested item does not exist
	ErrNotFound = errors.New("your requested item is not found")
	// ErrBadParamInput is returned when the given request parameter is not valid
	ErrBadParamInput = errors.New("given param is not valid")
)
