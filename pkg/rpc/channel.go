package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chainkit-labs/bcos-sdk/pkg/channel"
	"github.com/chainkit-labs/bcos-sdk/pkg/transport"
)

var _ Fetcher = (*ChannelFetcher)(nil)

// maxSkippedFrames bounds how many unrelated frames a Fetch tolerates
// before its response arrives.
const maxSkippedFrames = 16

// ChannelFetcher sends each request as an RpcRequest frame on a fresh TLS
// session and closes the session after the response.
type ChannelFetcher struct {
	dialer transport.Dialer
	opts   options
}

func NewChannelFetcher(dialer transport.Dialer, opts ...Option) *ChannelFetcher {
	return &ChannelFetcher{dialer: dialer, opts: applyOptions(opts)}
}

func (f *ChannelFetcher) Transport() string { return "channel" }

func (f *ChannelFetcher) Fetch(ctx context.Context, req *Request) (result json.RawMessage, err error) {
	defer func(started time.Time) { observe(f.opts, f.Transport(), req, started, err) }(time.Now())

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", req.Method, err)
	}

	conn, err := f.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		if d, ok := conn.(interface{ SetDeadline(time.Time) error }); ok {
			_ = d.SetDeadline(dl)
		}
	}

	msg := channel.NewMessage(channel.TypeRPCRequest, body)
	if err := channel.WriteMessage(conn, msg); err != nil {
		return nil, err
	}

	for range maxSkippedFrames {
		resp, err := channel.ReadMessage(conn)
		if err != nil {
			return nil, err
		}
		if resp.Type != channel.TypeRPCRequest || resp.ID != msg.ID {
			f.opts.lg.Debug("skipping unrelated frame", "type", resp.Type.String(), "id", resp.ID)
			continue
		}

		content, err := channel.DecodeContent(resp)
		if err != nil {
			return nil, err
		}
		return ParseResponse(content.JSON)
	}
	return nil, fmt.Errorf("%w: no response to %s after %d frames", channel.ErrMalformedFrame, req.Method, maxSkippedFrames)
}

// Close is a no-op; sessions live for a single Fetch.
func (f *ChannelFetcher) Close() error { return nil }
