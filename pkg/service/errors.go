package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAddress = errors.New("invalid contract address")
	ErrCryptoMismatch = errors.New("contract crypto type does not match the account")
)

// TimeoutError is returned by Deploy when no receipt shows up in time. The
// transaction was submitted and may still be included.
type TimeoutError struct {
	TxHash  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("contract deployed, but no receipt within %s; transaction hash is %s", e.Timeout, e.TxHash)
}
