package common

import (
	"errors"
	"fmt"
)

// Resource loading failures. Every error produced while building scene resources wraps exactly one of
// these so callers can classify it with errors.Is.
var (
	// ErrResourceNotFound reports a missing file or named artifact.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrMalformedGeometry reports a geometry file that violates the expected format.
	ErrMalformedGeometry = errors.New("malformed geometry")

	// ErrIndexOutOfRange reports a face index that does not reference a parsed position, uv or normal.
	ErrIndexOutOfRange = errors.New("geometry index out of range")

	// ErrDeviceCreateFailure reports a failure creating a GPU object.
	ErrDeviceCreateFailure = errors.New("device object creation failed")

	// ErrIOFailure reports a read or decode failure for shader or texture data.
	ErrIOFailure = errors.New("i/o failure")
)

// DeviceError wraps err as an ErrDeviceCreateFailure for the named GPU object.
// A nil err yields nil.
//
// Parameters:
//   - object: a short description of the GPU object being created, e.g. "vertex buffer"
//   - err: the backend error
//
// Returns:
//   - error: the wrapped error
func DeviceError(object string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrDeviceCreateFailure, object, err)
}
