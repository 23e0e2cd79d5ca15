package errors

import (
	goerrors "errors"
)

// Is, As, Unwrap and Join forward to the standard library so that callers
// importing this package do not need a second errors import.

func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

func As(err error, target any) bool {
	return goerrors.As(err, target)
}

func Unwrap(err error) error {
	return goerrors.Unwrap(err)
}

func Join(errs ...error) error {
	return goerrors.Join(errs...)
}
