package smarthome

import (
	"context"
	"errors"

	"github.com/nerrad567/gray-assist/internal/entity"
)

// Bridge errors. Use errors.Is() to check for these in calling code.
var (
	// ErrInvalidRequest is returned for structurally invalid envelopes
	// (missing requestId, no inputs). The transport layer maps it to 400.
	ErrInvalidRequest = errors.New("smarthome: invalid request")

	// ErrNotSupported is returned when a command is not covered by the
	// device's trait set.
	ErrNotSupported = errors.New("smarthome: command not supported")

	// ErrValueOutOfRange is returned when a command parameter is missing,
	// mistyped, or outside the command's declared domain.
	ErrValueOutOfRange = errors.New("smarthome: parameter out of range")

	// ErrNotExposed is returned when a device is hidden from the assistant.
	// Not-exposed devices are reported exactly like unknown ones.
	ErrNotExposed = errors.New("smarthome: entity not exposed")
)

// errorCode maps a per-device failure to its wire error code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotSupported), errors.Is(err, entity.ErrUnsupported):
		return CodeNotSupported
	case errors.Is(err, ErrValueOutOfRange):
		return CodeValueOutOfRange
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, ErrNotExposed):
		return CodeDeviceNotFound
	case errors.Is(err, entity.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CodeDeviceOffline
	default:
		return CodeProtocolError
	}
}
