package domain

import "errors"

var (
	// ErrInvalidParameter is returned when a query parameter is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownSubLine is returned when a batches sub-line filter is not recognised.
	ErrUnknownSubLine = errors.New("unknown sub-line: must be CLEAN, MAINPROCESS, MACHINEDOWN, BREAKTIME or SHIFTCHANGE")

	// ErrUnsupportedDriver is returned when no row source dialect matches the configured driver.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
