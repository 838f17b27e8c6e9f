package event

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chainkit-labs/bcos-sdk/pkg/channel"
	"github.com/chainkit-labs/bcos-sdk/pkg/transport"
)

// session is the connection currently owned by a loop. Closing it from
// another goroutine unblocks a pending read.
type session struct {
	mu     sync.Mutex
	conn   transport.Conn
	closed bool
}

func (s *session) set(conn transport.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		conn.Close()
		return false
	}
	s.conn = conn
	return true
}

// drop closes the current connection but keeps the session usable.
func (s *session) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *session) current() transport.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// classify maps a read failure onto a recovery class. A frame whose header
// is inconsistent is recovered like a protocol error.
func classify(err error) transport.Class {
	if errors.Is(err, channel.ErrMalformedFrame) {
		return transport.NeedsResend
	}
	return transport.Classify(err)
}

// loop is the state of one running subscription.
type loop struct {
	l        *Listener
	key      string
	kind     string
	frame    []byte
	sleep    time.Duration
	maxRetry int

	sess            session
	remaining       int
	justReconnected bool
}

func (l *Listener) run(ctx context.Context, key, kind string, frame []byte, sleep time.Duration, maxRetry int) error {
	lp := &loop{
		l:         l,
		key:       key,
		kind:      kind,
		frame:     frame,
		sleep:     sleep,
		maxRetry:  maxRetry,
		remaining: maxRetry,
	}
	lg := l.lg.WithKV("key", key)

	if !l.tryStart(key, lp) {
		return errors.Wrap(ErrAlreadyRunning, key)
	}
	if err := lp.open(ctx); err != nil {
		l.release(key, lp)
		l.dispatch(key, nil, err)
		return err
	}
	l.metrics.LoopStarted()
	lg.Info("event loop started", "maxRetry", maxRetry)

	stopWatch := context.AfterFunc(ctx, lp.sess.close)
	defer func() {
		stopWatch()
		lp.sess.close()
		l.release(key, lp)
		l.metrics.LoopStopped()
		lg.Info("event loop stopped")
	}()

	for l.owns(key, lp) {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn := lp.sess.current()
		if conn == nil {
			if err := lp.open(ctx); err != nil {
				if terminal := lp.fail(ctx, err); terminal != nil {
					return terminal
				}
				continue
			}
			lp.justReconnected = true
			l.metrics.ObserveReconnect(kind)
			lg.Debug("session reopened")
			continue
		}

		msg, err := channel.ReadMessage(conn)
		if err == nil {
			// Stopped while blocked in the read.
			if !l.owns(key, lp) {
				return nil
			}
			lp.remaining = maxRetry
			lp.justReconnected = false
			lp.deliver(msg)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		class := classify(err)
		l.metrics.ObserveReadFailure(kind, class.String())
		lg.Debug("read failed", "class", class, "err", err)

		if !l.owns(key, lp) {
			l.dispatch(key, nil, errors.Wrap(ErrLoopStopped, err.Error()))
			return nil
		}

		switch {
		case class == transport.Reconnectable:
			l.dispatch(key, nil, err)
			lp.sess.drop()
			continue
		case class == transport.NeedsResend && lp.justReconnected:
			lp.justReconnected = false
			l.dispatch(key, nil, err)
			werr := lp.subscribe(conn)
			if werr == nil {
				continue
			}
			err = werr
		}

		if terminal := lp.fail(ctx, err); terminal != nil {
			return terminal
		}
	}
	return nil
}

// open dials a new session and sends the subscribe frame on it.
func (lp *loop) open(ctx context.Context) error {
	conn, err := lp.l.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	if err := lp.subscribe(conn); err != nil {
		conn.Close()
		return err
	}
	if !lp.sess.set(conn) {
		return context.Canceled
	}
	return nil
}

func (lp *loop) subscribe(conn transport.Conn) error {
	_, err := conn.Write(lp.frame)
	return err
}

// fail reports a counted failure. It returns the terminal error once the
// budget is exhausted, otherwise it sleeps and returns nil.
func (lp *loop) fail(ctx context.Context, err error) error {
	if lp.maxRetry != UnlimitedRetries && lp.remaining <= 0 {
		terminal := errors.Wrapf(ErrRetryExhausted, "read had failed over %d times, stopping the loop", lp.maxRetry)
		lp.l.dispatch(lp.key, nil, terminal)
		lp.l.lg.Warn("event loop gave up", "key", lp.key, "err", err)
		return terminal
	}

	lp.l.dispatch(lp.key, nil, err)
	lp.remaining--

	select {
	case <-ctx.Done():
	case <-time.After(lp.sleep):
	}
	return nil
}

func (lp *loop) deliver(msg *channel.Message) {
	content, err := channel.DecodeContent(msg)
	if err != nil {
		lp.l.dispatch(lp.key, nil, err)
		return
	}
	lp.l.metrics.ObserveDispatch(lp.kind)
	lp.l.dispatch(lp.key, &Notification{Key: lp.key, Type: msg.Type, Content: content}, nil)
}
