package abi

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFunction   = errors.New("unknown function")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrTypeMismatch      = errors.New("value does not match declared type")
	ErrArgumentCount     = errors.New("argument count mismatch")
	ErrNoBytecode        = errors.New("contract bytecode not loaded")
	ErrMalformedHex      = errors.New("malformed hex input")
	ErrSignatureMismatch = errors.New("event signature mismatch")
	ErrTopicCount        = errors.New("topic count mismatch")
)

// Error is a failure to load, encode or decode contract data.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("abi %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func codecErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// RevertError carries the reason string of a reverted call.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}
