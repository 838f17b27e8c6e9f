package log_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"

	"github.com/chainkit-labs/bcos-sdk/pkg/log"
)

type recorder struct {
	events []string
	errs   int
	last   []any
}

func (r *recorder) TraceID() string { return "trace-1" }
func (r *recorder) SpanID() string  { return "span-1" }

func (r *recorder) RecordEvent(name string, kv ...any) {
	r.events = append(r.events, name)
	r.last = kv
}

func (r *recorder) RecordError(name string, kv ...any) {
	r.errs++
	r.RecordEvent(name, kv...)
}

func TestZapLoggerFormats(t *testing.T) {
	tcs := []struct {
		format string
		expect string
	}{
		{format: "json", expect: `"group":1`},
		{format: "logfmt", expect: "group=1"},
		{format: "console", expect: `{"group": 1}`},
	}

	for _, tc := range tcs {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			lg := log.NewZapLogger(log.Config{Format: tc.format, Level: log.LevelDebug, Output: "stdout"}, zapcore.AddSync(&buf))
			lg.Debug("block notified", "group", 1)
			assert.Contains(t, buf.String(), "block notified")
			assert.Contains(t, buf.String(), tc.expect)
		})
	}
}

func TestZapLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	lg := log.NewZapLogger(log.Config{Format: "json", Level: log.LevelWarn, Output: "stdout"}, zapcore.AddSync(&buf))

	lg.Info("hidden")
	lg.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestZapLoggerChildren(t *testing.T) {
	lg := log.NewZapLogger(log.Config{Output: "stdout"})

	child := lg.WithName("event").WithKV("key", "_block_notify_1")
	assert.Equal(t, "event", child.Name())
	assert.Equal(t, []any{"key", "_block_notify_1"}, child.GetAllKV())
	assert.Empty(t, lg.GetAllKV())
}

func TestSpanLogger(t *testing.T) {
	ser := &recorder{}
	lg := log.NewSpanLogger(log.NewNoopLogger(), ser).WithKV("group", 1)

	lg.Info("subscribed", "topic", "_block_notify_1")
	require.Equal(t, []string{"subscribed"}, ser.events)
	assert.Equal(t, []any{"level", "info", "component", "noop", "topic", "_block_notify_1"}, ser.last)
	assert.Zero(t, ser.errs)

	lg.Error("read failed")
	assert.Equal(t, 1, ser.errs)
}

func TestContextLogger(t *testing.T) {
	ctx := context.Background()
	_, isNoop := log.FromContext(ctx).(log.NoopLogger)
	assert.True(t, isNoop)

	zl := log.NewZapLogger(log.Config{Output: "stdout"})
	ctx = log.SetContextLogger(ctx, zl)
	_, isZap := log.FromContext(ctx).(*log.ZapLogger)
	assert.True(t, isZap)

	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: [16]byte{1},
		SpanID:  [8]byte{1},
	}))
	ctx = log.SetContextLogger(ctx, zl)
	_, isSpan := log.FromContext(ctx).(log.SpanLogger)
	assert.True(t, isSpan)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BCOS_LOG_FORMAT", "logfmt")

	conf, err := log.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "logfmt", conf.Format)
	assert.Equal(t, log.LevelInfo, conf.Level)
	assert.Equal(t, "stderr", conf.Output)
}
