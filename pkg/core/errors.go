package core

import "errors"

var (
	// ErrNotFound indicates a lookup matched no item. Wrapped with the
	// queried GUID or device id by the caller (see pkg/registry).
	ErrNotFound = errors.New("not found")

	// ErrNotUnique indicates an abbreviated device id prefix-matched more
	// than one distinct item.
	ErrNotUnique = errors.New("not unique")

	// ErrInvalidDevice indicates a nil Device was passed to Add or Remove
	// (a blank ID is reported as validation.ErrEmptyDeviceID instead).
	// Entry points treat either as a no-op plus a diagnostic log line
	// rather than a panic.
	ErrInvalidDevice = errors.New("invalid device")
)
