package pmx

import (
	"errors"
	"fmt"
)

// Sentinel errors mirroring the transport-level result codes, plus bus
// lifecycle errors.
var (
	ErrTimeout    = errors.New("timeout waiting for servo response")
	ErrChecksum   = errors.New("checksum mismatch")
	ErrFormat     = errors.New("malformed request")
	ErrSend       = errors.New("send failed")
	ErrReceive    = errors.New("malformed response")
	ErrConversion = errors.New("receive data conversion failed")

	ErrBusBusy     = errors.New("bus transaction in progress")
	ErrBusClosed   = errors.New("bus is closed")
	ErrInvalidID   = errors.New("invalid servo ID")
	ErrInvalidSize = errors.New("invalid data size")
)

// CommError wraps a communication failure with context about the operation.
type CommError struct {
	Op  string
	ID  byte
	Err error
}

func (e *CommError) Error() string {
	if e.ID == BroadcastID {
		return fmt.Sprintf("pmx %s (broadcast): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pmx %s (servo %d): %v", e.Op, e.ID, e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

// ServoError wraps a status error reported by a servo.
type ServoError struct {
	ID     byte
	Status StatusError
}

func (e *ServoError) Error() string {
	return fmt.Sprintf("servo %d: %v", e.ID, e.Status)
}

func (e *ServoError) Unwrap() error {
	return e.Status
}

// IsTimeout reports whether err is a response timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsChecksum reports whether err is a checksum failure.
func IsChecksum(err error) bool {
	return errors.Is(err, ErrChecksum)
}

// IsBusy reports whether err means another transaction held the bus.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusBusy)
}

// GetServoError extracts a ServoError from an error chain, if present.
func GetServoError(err error) (*ServoError, bool) {
	var se *ServoError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
