package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chainkit-labs/bcos-sdk/pkg/log"
	"github.com/chainkit-labs/bcos-sdk/pkg/metrics"
)

// Fetcher submits one request and returns its result. Errors are
// *ResponseError when the node answered with an error member, and
// transport or decoding errors otherwise.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (json.RawMessage, error)
	// Transport names the fetcher for logs and metrics.
	Transport() string
	Close() error
}

// Option tunes a fetcher.
type Option func(*options)

type options struct {
	lg      log.Logger
	metrics *metrics.Metrics
}

func WithLogger(lg log.Logger) Option {
	return func(o *options) { o.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func applyOptions(opts []Option) options {
	o := options{lg: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Call fetches req and unmarshals the result into out.
func Call(ctx context.Context, f Fetcher, req *Request, out any) error {
	raw, err := f.Fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s result: %w", ErrMalformedResponse, req.Method, err)
	}
	return nil
}

func observe(o options, transport string, req *Request, started time.Time, err error) {
	o.metrics.ObserveFetch(transport, req.Method, started, err)
	if err != nil {
		o.lg.Debug("request failed", "transport", transport, "method", req.Method, "err", err)
		return
	}
	o.lg.Debug("request done", "transport", transport, "method", req.Method, "took", time.Since(started))
}
