// Package transport opens TLS sessions to a node's channel port, in either
// standard (secp256k1) or national (SM2/SM3/SM4) cipher mode.
package transport

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"
)

// Conn is an open session.
type Conn interface {
	io.ReadWriteCloser
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// Config describes the node endpoint and the certificate material.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration

	// National enables the SM cipher suites; EncCert and EncKey are then
	// used as the encryption certificate pair.
	National bool
	CACert   string
	SignCert string
	SignKey  string
	EncCert  string
	EncKey   string
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TLSDialer dials Config's endpoint. Standard mode speaks TLS 1.2 with
// secp256k1 certificates, national mode speaks GM TLS with SM2 certificate
// pairs.
type TLSDialer struct {
	conf      Config
	handshake func(dialer *net.Dialer, addr string) (net.Conn, error)
}

var _ Dialer = (*TLSDialer)(nil)

// NewTLSDialer loads the certificate material once.
func NewTLSDialer(conf Config) (*TLSDialer, error) {
	var (
		handshake func(*net.Dialer, string) (net.Conn, error)
		err       error
	)
	if conf.National {
		handshake, err = nationalHandshake(conf)
	} else {
		handshake, err = standardHandshake(conf)
	}
	if err != nil {
		return nil, &Error{Op: "load", Kind: KindConfig, Err: err}
	}
	return &TLSDialer{conf: conf, handshake: handshake}, nil
}

// Dial connects and completes the handshake within the configured timeout
// or the context deadline, whichever is earlier.
func (d *TLSDialer) Dial(ctx context.Context) (Conn, error) {
	dialer := &net.Dialer{Timeout: d.conf.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := d.handshake(dialer, d.conf.addr())
	if err != nil {
		kind := KindOf(err)
		if kind != KindTimeout {
			kind = KindConnect
		}
		return nil, &Error{Op: "dial", Kind: kind, Err: err}
	}
	return &tlsConn{conn: conn}, nil
}

type tlsConn struct {
	conn net.Conn
}

func (c *tlsConn) Read(p []byte) (int, error) {
	n, err := c.conn.Read(p)
	if err == io.EOF {
		return n, err
	}
	return n, newError("read", err)
}

func (c *tlsConn) Write(p []byte) (int, error) {
	n, err := c.conn.Write(p)
	return n, newError("write", err)
}

func (c *tlsConn) Close() error {
	return newError("close", c.conn.Close())
}

// SetDeadline bounds the next reads and writes.
func (c *tlsConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}
