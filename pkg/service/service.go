// Package service exposes the node's JSON-RPC methods together with
// contract calls, transactions and deployment over either transport.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chainkit-labs/bcos-sdk/pkg/config"
	"github.com/chainkit-labs/bcos-sdk/pkg/log"
	"github.com/chainkit-labs/bcos-sdk/pkg/metrics"
	"github.com/chainkit-labs/bcos-sdk/pkg/rpc"
	"github.com/chainkit-labs/bcos-sdk/pkg/sign"
	"github.com/chainkit-labs/bcos-sdk/pkg/transport"
)

const (
	tracerName = "github.com/chainkit-labs/bcos-sdk/pkg/service"

	// DefaultPollInterval is the pause between receipt polls while deploying.
	DefaultPollInterval = 200 * time.Millisecond
)

// Service is the client of one group on one node.
type Service struct {
	fetcher rpc.Fetcher
	signer  sign.Signer
	groupID uint32
	chainID uint32
	timeout time.Duration

	pollInterval time.Duration
	lg           log.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(lg log.Logger) Option {
	return func(s *Service) { s.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithPollInterval changes the receipt polling interval of Deploy.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// New builds a Service on an existing fetcher. timeout bounds the receipt
// wait of Deploy.
func New(fetcher rpc.Fetcher, signer sign.Signer, groupID, chainID uint32, timeout time.Duration, opts ...Option) *Service {
	s := &Service{
		fetcher:      fetcher,
		signer:       signer,
		groupID:      groupID,
		chainID:      chainID,
		timeout:      timeout,
		pollInterval: DefaultPollInterval,
		lg:           log.NewNoopLogger(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lg = s.lg.WithName("service")
	return s
}

// NewFromConfig loads the account key and selects the fetcher named by the
// config's service type.
func NewFromConfig(ctx context.Context, conf *config.Config, opts ...Option) (*Service, error) {
	signer, err := sign.LoadSigner(conf.Account, conf.CryptoType())
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", conf.Account, err)
	}

	s := New(nil, signer, conf.GroupID, conf.ChainID, conf.Timeout(), opts...)
	fetcherOpts := []rpc.Option{rpc.WithLogger(s.lg), rpc.WithMetrics(s.metrics)}

	if conf.IsRPC() {
		s.fetcher, err = rpc.NewHTTPFetcher(ctx, conf.RPCURL(), conf.Timeout(), fetcherOpts...)
		if err != nil {
			return nil, err
		}
	} else {
		dialer, err := transport.NewTLSDialer(conf.TransportConfig())
		if err != nil {
			return nil, err
		}
		s.fetcher = rpc.NewChannelFetcher(dialer, fetcherOpts...)
	}

	s.lg.Info("service ready",
		"transport", s.fetcher.Transport(),
		"group", conf.GroupID,
		"crypto", conf.CryptoType(),
		"address", signer.Address())
	return s, nil
}

func (s *Service) Close() error { return s.fetcher.Close() }

// Address is the account address used as sender.
func (s *Service) Address() common.Address { return s.signer.Address() }

func (s *Service) CryptoType() sign.CryptoType { return s.signer.CryptoType() }

func (s *Service) GroupID() uint32 { return s.groupID }

// fetch prepends the group id to params.
func (s *Service) fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return s.fetcher.Fetch(ctx, rpc.NewRequest(method, append([]any{s.groupID}, params...)))
}

func fetchAs[T any](ctx context.Context, s *Service, method string, params ...any) (T, error) {
	var out T
	err := rpc.Call(ctx, s.fetcher, rpc.NewRequest(method, append([]any{s.groupID}, params...)), &out)
	return out, err
}

// startSpan opens a span for an orchestrated operation and binds a logger
// to it.
func (s *Service) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	return log.SetContextLogger(ctx, s.lg.WithKV("op", op)), span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
