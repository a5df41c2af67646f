package service

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the services. Handlers match with errors.Is and map
// them to HTTP statuses; the concrete messages carry the per-record detail.
//
// NotFound deliberately covers both "no such id" and "belongs to another
// user": callers cannot distinguish a foreign resource from a missing one.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrAccessDenied = errors.New("access denied")
)

func notFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidState)...)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func accessDeniedf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrAccessDenied)...)
}
