package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher posts each request to the node's HTTP endpoint.
type HTTPFetcher struct {
	client *gethrpc.Client
	opts   options
}

// NewHTTPFetcher prepares a client for url. No connection is made until
// the first Fetch.
func NewHTTPFetcher(ctx context.Context, url string, timeout time.Duration, opts ...Option) (*HTTPFetcher, error) {
	client, err := gethrpc.DialOptions(ctx, url, gethrpc.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client for %s: %w", url, err)
	}
	return &HTTPFetcher{client: client, opts: applyOptions(opts)}, nil
}

func (f *HTTPFetcher) Transport() string { return "rpc" }

// Fetch issues one POST. Requests whose params are nil omit the params
// member.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *Request) (result json.RawMessage, err error) {
	defer func(started time.Time) { observe(f.opts, f.Transport(), req, started, err) }(time.Now())

	if err := f.client.CallContext(ctx, &result, req.Method, req.Params...); err != nil {
		return nil, convertError(err)
	}
	if len(result) == 0 {
		result = jsonNull
	}
	return result, nil
}

func (f *HTTPFetcher) Close() error {
	f.client.Close()
	return nil
}

func convertError(err error) error {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		return &ResponseError{Code: int64(rpcErr.ErrorCode()), Message: rpcErr.Error()}
	}
	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Errorf("node answered HTTP %d: %w", httpErr.StatusCode, err)
	}
	if errors.Is(err, gethrpc.ErrNoResult) {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return err
}
