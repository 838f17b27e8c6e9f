package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
)

// Kind is the transport-specific classification of a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindConfig means certificate or key material could not be loaded.
	KindConfig
	// KindConnect means the TCP dial or TLS handshake failed.
	KindConnect
	// KindClosed means the peer ended the session cleanly (zero return).
	KindClosed
	// KindSyscall means the OS reported an I/O error (reset, broken pipe).
	KindSyscall
	// KindProtocol means the TLS layer rejected a record or raised an alert.
	KindProtocol
	// KindTimeout means a deadline elapsed.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnect:
		return "connect"
	case KindClosed:
		return "closed"
	case KindSyscall:
		return "syscall"
	case KindProtocol:
		return "protocol"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a failed transport operation.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout and Temporary let callers treat the error like a net.Error.
func (e *Error) Timeout() bool { return e.Kind == KindTimeout }

func (e *Error) Temporary() bool { return e.Kind == KindTimeout }

var _ net.Error = (*Error)(nil)

func newError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Op: op, Kind: KindOf(err), Err: err}
}

// KindOf inspects err and reports its Kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return KindClosed
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	var errno syscall.Errno
	var sysErr *os.SyscallError
	if errors.As(err, &errno) || errors.As(err, &sysErr) {
		return KindSyscall
	}

	if strings.HasPrefix(err.Error(), "tls: ") || strings.Contains(err.Error(), ": tls: ") {
		return KindProtocol
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindSyscall
	}
	return KindUnknown
}

// Class tells a long-lived reader how to recover from a failure.
type Class uint8

const (
	// Fatal failures are reported and count against the retry budget.
	Fatal Class = iota
	// Reconnectable failures are recovered by reopening the session.
	Reconnectable
	// NeedsResend failures are recovered by sending the request again on
	// the current session.
	NeedsResend
)

func (c Class) String() string {
	switch c {
	case Reconnectable:
		return "reconnectable"
	case NeedsResend:
		return "needs_resend"
	default:
		return "fatal"
	}
}

// Classify maps err onto a recovery class.
func Classify(err error) Class {
	switch KindOf(err) {
	case KindClosed, KindSyscall:
		return Reconnectable
	case KindProtocol:
		return NeedsResend
	default:
		return Fatal
	}
}
