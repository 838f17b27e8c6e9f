// Package event subscribes to block notifications and contract event logs
// pushed by a node over the channel transport.
//
// Each subscription runs its own loop on a dedicated session. A loop reads
// one frame at a time and hands it to the handlers registered under the
// subscription's key. Read failures are classified: dropped sessions are
// reopened and resubscribed without touching the retry budget, a protocol
// error right after a reconnect triggers one more subscribe, and anything
// else counts against the budget. The loop stops when the budget runs out,
// when Stop is called for its key or when its context is canceled.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chainkit-labs/bcos-sdk/pkg/channel"
	"github.com/chainkit-labs/bcos-sdk/pkg/config"
	"github.com/chainkit-labs/bcos-sdk/pkg/log"
	"github.com/chainkit-labs/bcos-sdk/pkg/metrics"
	"github.com/chainkit-labs/bcos-sdk/pkg/transport"
)

// UnlimitedRetries disables the retry budget.
const UnlimitedRetries = -1

var (
	ErrRetryExhausted = errors.New("retry budget exhausted")
	ErrLoopStopped    = errors.New("read failed after the loop had been stopped")
	ErrAlreadyRunning = errors.New("loop already running")
)

const (
	kindBlockNotify = "block_notify"
	kindEventLog    = "event_log"
)

// Notification is one decoded frame delivered to handlers.
type Notification struct {
	Key  string
	Type channel.MessageType
	channel.Content
}

// Handler receives notifications and loop errors for a key. Exactly one of
// n and err is non-nil.
type Handler func(n *Notification, err error)

// BlockNotifyKey is the subscription key and AMOP topic of group's block
// notifications.
func BlockNotifyKey(group uint32) string {
	return fmt.Sprintf("_block_notify_%d", group)
}

// EventLogKey is the subscription key of an event-log filter.
func EventLogKey(param *EventLogParam) string {
	return "_event_log_" + param.FilterID()
}

// Listener owns the handler registry and runs subscription loops.
type Listener struct {
	dialer  transport.Dialer
	groupID uint32
	lg      log.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	handlers map[string][]Handler
	// running maps a key to the loop that owns it. A stopped loop whose
	// entry was replaced must not touch the new owner's entry.
	running map[string]*loop
}

type Option func(*Listener)

func WithLogger(lg log.Logger) Option {
	return func(l *Listener) { l.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Listener) { l.metrics = m }
}

// NewListener returns a Listener that opens sessions with dialer. groupID
// is sent with event-log filters.
func NewListener(dialer transport.Dialer, groupID uint32, opts ...Option) *Listener {
	l := &Listener{
		dialer:   dialer,
		groupID:  groupID,
		lg:       log.NewNoopLogger(),
		handlers: make(map[string][]Handler),
		running:  make(map[string]*loop),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lg = l.lg.WithName("event")
	return l
}

// NewListenerFromConfig dials the node of conf over TLS.
func NewListenerFromConfig(conf *config.Config, opts ...Option) (*Listener, error) {
	dialer, err := transport.NewTLSDialer(conf.TransportConfig())
	if err != nil {
		return nil, err
	}
	return NewListener(dialer, conf.GroupID, opts...), nil
}

func (l *Listener) RegisterBlockNotifyListener(group uint32, h Handler) {
	l.register(BlockNotifyKey(group), h)
}

// RemoveBlockNotifyListener drops every handler of group.
func (l *Listener) RemoveBlockNotifyListener(group uint32) {
	l.remove(BlockNotifyKey(group))
}

// RunBlockNotifyLoop subscribes to group's block notifications and blocks
// until the loop ends. sleep is the pause after a counted failure and
// maxRetry the number of counted failures tolerated in a row, or
// UnlimitedRetries.
func (l *Listener) RunBlockNotifyLoop(ctx context.Context, group uint32, sleep time.Duration, maxRetry int) error {
	key := BlockNotifyKey(group)
	body, err := json.Marshal([]string{key})
	if err != nil {
		return err
	}
	frame := channel.Encode(channel.TypeAMOPClientTopics, body)
	return l.run(ctx, key, kindBlockNotify, frame, sleep, maxRetry)
}

// StopBlockNotifyLoop asks the loop of group to stop. The loop notices once
// its pending read returns and drops whatever that read delivered. A new loop
// for group may start right away.
func (l *Listener) StopBlockNotifyLoop(group uint32) {
	l.stop(BlockNotifyKey(group))
}

func (l *Listener) RegisterEventLogListener(param *EventLogParam, h Handler) {
	l.register(EventLogKey(param), h)
}

func (l *Listener) RemoveEventLogListener(param *EventLogParam) {
	l.remove(EventLogKey(param))
}

// RunEventLogLoop registers param as a log filter and blocks until the loop
// ends. See RunBlockNotifyLoop for sleep and maxRetry.
func (l *Listener) RunEventLogLoop(ctx context.Context, param *EventLogParam, sleep time.Duration, maxRetry int) error {
	body, err := param.registerJSON(l.groupID)
	if err != nil {
		return err
	}
	payload, err := channel.PackAMOP("", body)
	if err != nil {
		return err
	}
	frame := channel.Encode(channel.TypeClientRegisterEventLog, payload)
	return l.run(ctx, EventLogKey(param), kindEventLog, frame, sleep, maxRetry)
}

func (l *Listener) StopEventLogLoop(param *EventLogParam) {
	l.stop(EventLogKey(param))
}

// IsRunning reports whether the loop of key is running.
func (l *Listener) IsRunning(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running[key] != nil
}

func (l *Listener) register(key string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[key] = append(l.handlers[key], h)
}

func (l *Listener) remove(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.handlers, key)
}

func (l *Listener) stop(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.running, key)
}

// tryStart makes lp the owner of key unless a loop already owns it.
func (l *Listener) tryStart(key string, lp *loop) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running[key] != nil {
		return false
	}
	l.running[key] = lp
	return true
}

func (l *Listener) owns(key string, lp *loop) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running[key] == lp
}

// release clears key if lp still owns it.
func (l *Listener) release(key string, lp *loop) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running[key] == lp {
		delete(l.running, key)
	}
}

func (l *Listener) dispatch(key string, n *Notification, err error) {
	l.mu.RLock()
	handlers := append([]Handler(nil), l.handlers[key]...)
	l.mu.RUnlock()

	for _, h := range handlers {
		h(n, err)
	}
}
