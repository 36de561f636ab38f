package uartdma

import "errors"

// Predefined error types for robust error handling
var (
	// ErrInvalidParam is returned for nil or zero-length arguments. It is
	// detected synchronously, before any hardware state is modified.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrTimeout is returned when a receive wait bound expires before enough
	// bytes arrive. Driver state is left consistent for a subsequent call.
	ErrTimeout = errors.New("receive timed out")

	// ErrHardware is returned when the DMA engine reported a transfer error.
	// The failed channel is left disabled and is re-armed by the next call.
	ErrHardware = errors.New("hardware transfer error")

	// Configuration errors, reported by Init before hardware is touched
	ErrInvalidConfig   = errors.New("invalid driver configuration")
	ErrInvalidBaudRate = errors.New("invalid baud rate")

	// Lifecycle errors
	ErrNotInitialized = errors.New("driver not initialized")
)
