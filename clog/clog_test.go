package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/leaseflake/xerrors"
)

func newJSONLogger(t *testing.T, level string, opts ...Option) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(&Config{Level: level, Format: "json"}, append(opts, withWriter(&buf))...)
	require.NoError(t, err)
	return logger, &buf
}

// decodeLines 将 JSON 行输出解析为 map 列表
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config", config: nil},
		{name: "defaults", config: &Config{}},
		{name: "json debug", config: &Config{Level: "debug", Format: "json", Output: "stderr"}},
		{name: "invalid level", config: &Config{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: &Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newJSONLogger(t, "warn")

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "ERROR", lines[1]["level"])
}

func TestSetLevel(t *testing.T) {
	logger, buf := newJSONLogger(t, "info")
	child := logger.WithNamespace("lease")

	child.Debug("hidden")
	require.NoError(t, logger.SetLevel(DebugLevel))
	child.Debug("visible")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["msg"])
}

func TestWithAndNamespace(t *testing.T) {
	logger, buf := newJSONLogger(t, "info", WithNamespace("leaseflake"))

	logger.WithNamespace("lease").
		With(String("namespace_key", "order")).
		Info("leased", Int64("worker", 12), Error(errors.New("boom")), Error(nil))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "leaseflake.lease", line[NamespaceKey])
	assert.Equal(t, "order", line["namespace_key"])
	assert.EqualValues(t, 12, line["worker"])
	assert.Equal(t, "boom", line["err_msg"])

	// 父 Logger 不受子 Logger 影响
	buf.Reset()
	logger.Info("parent")
	lines = decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "leaseflake", lines[0][NamespaceKey])
	assert.NotContains(t, lines[0], "namespace_key")
}

type requestIDKey struct{}

func TestContextFields(t *testing.T) {
	logger, buf := newJSONLogger(t, "info",
		WithContextField(requestIDKey{}, "request_id"),
		WithTraceContext(),
	)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	ctx = context.WithValue(ctx, requestIDKey{}, "req-1")

	logger.InfoContext(ctx, "handled")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", lines[0]["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", lines[0]["span_id"])
}

func TestErrorWithCode(t *testing.T) {
	logger, buf := newJSONLogger(t, "info")

	err := xerrors.WithCode(xerrors.ErrUnavailable, "store_down")
	logger.Error("failed", ErrorWithCode(err, ""))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	group, ok := lines[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "store_down", group["code"])
	assert.Contains(t, group["msg"], "unavailable")
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "Warn", "warning", "error", "fatal"} {
		_, err := ParseLevel(s)
		assert.NoError(t, err, s)
	}
	lvl, err := ParseLevel("nope")
	assert.Error(t, err)
	assert.Equal(t, InfoLevel, lvl)
	assert.Equal(t, "warn", WarnLevel.String())
	assert.Equal(t, "fatal", FatalLevel.String())
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.With(String("k", "v")).WithNamespace("x").Info("nothing")
	assert.NoError(t, logger.SetLevel(DebugLevel))
	logger.Flush()
}
