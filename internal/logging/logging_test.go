package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelInfo, cfg.Level)
	assert.False(t, cfg.JSON)
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig()
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.True(t, cfg.AddSource)
}

func TestInit(t *testing.T) {
	t.Run("text_handler", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: slog.LevelInfo, Output: &buf})

		Info("hello", "key", "value")
		out := buf.String()
		assert.Contains(t, out, "hello")
		assert.Contains(t, out, "key=value")
		assert.NotContains(t, out, "\x1b[", "buffers are not terminals, so no ANSI colors")
		assert.False(t, Debug)
	})

	t.Run("json_handler", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: slog.LevelDebug, JSON: true, Output: &buf})
		assert.True(t, Debug)

		DebugLog("debug message", KeyCount, 3)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "debug message", entry["msg"])
		assert.Equal(t, float64(3), entry[KeyCount])
	})

	t.Run("nil_output_uses_stderr", func(t *testing.T) {
		Init(Config{Level: slog.LevelInfo})
		assert.NotNil(t, Logger())
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelWarn, JSON: true, Output: &buf})

	Info("dropped")
	assert.Empty(t, buf.String())

	Warn("kept")
	assert.Contains(t, buf.String(), "kept")

	Error("also kept")
	assert.Contains(t, buf.String(), "also kept")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelInfo, JSON: true, Output: &buf})

	With(KeyBackend, "local").Info("opened")
	assert.Contains(t, buf.String(), `"backend":"local"`)
}

// =============================================================================
// Context Tests
// =============================================================================

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	assert.Len(t, id1, 16)
	assert.NotEqual(t, id1, id2)
}

func TestRequestIDFromContext(t *testing.T) {
	t.Run("nil_context", func(t *testing.T) {
		//nolint:staticcheck // nil context is handled explicitly
		assert.Empty(t, RequestIDFromContext(nil))
	})

	t.Run("no_request_id", func(t *testing.T) {
		assert.Empty(t, RequestIDFromContext(context.Background()))
	})

	t.Run("with_request_id", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "abc123")
		assert.Equal(t, "abc123", RequestIDFromContext(ctx))
	})

	t.Run("new_request_context", func(t *testing.T) {
		ctx := NewRequestContext(context.Background())
		assert.Len(t, RequestIDFromContext(ctx), 16)
	})
}

func TestContextLoggingAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelDebug, JSON: true, Output: &buf})

	ctx := WithRequestID(context.Background(), "req-42")

	for name, logFn := range map[string]func(context.Context, string, ...any){
		"info":  InfoContext,
		"debug": DebugContext,
		"warn":  WarnContext,
		"error": ErrorContext,
	} {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			logFn(ctx, name+" message")
			assert.Contains(t, buf.String(), name+" message")
			assert.Contains(t, buf.String(), `"request_id":"req-42"`)
		})
	}
}

// =============================================================================
// Mask Tests
// =============================================================================

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "https://short.io", MaskURL("https://short.io"))
	assert.Equal(t, "https://ajith-messages.p.rapid***",
		MaskURL("https://ajith-messages.p.rapidapi.com/getMsgs?category=birthday"))
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "", MaskValue(""))
	assert.Equal(t, "***", MaskValue("abc"))
	assert.Equal(t, "********", MaskValue("a-very-long-api-key"))
}

func TestMaskPartial(t *testing.T) {
	assert.Equal(t, "***", MaskPartial("abc", 4))
	assert.Equal(t, "8a8d***", MaskPartial("8a8d6c543f", 4))
}

func TestIsSensitiveField(t *testing.T) {
	assert.True(t, IsSensitiveField("api_key"))
	assert.True(t, IsSensitiveField("X-RapidAPI-Key"))
	assert.True(t, IsSensitiveField("auth_secret"))
	assert.False(t, IsSensitiveField("name"))
}

func TestMaskString(t *testing.T) {
	msg := "posting to https://discord.com/api/webhooks/123/secret-token-here"
	masked := MaskString(msg)
	assert.Contains(t, masked, "posting to https://discord.com/api/webhoo***")
	assert.NotContains(t, masked, "secret-token-here")

	local := "listening on http://localhost:9469/metrics"
	assert.Equal(t, local, MaskString(local))
}

func TestMaskArgs(t *testing.T) {
	args := []any{"token", "abc.def.ghi", "count", 2, "secret", 1234}
	masked := MaskArgs(args)

	assert.Equal(t, "********", masked[1])
	assert.Equal(t, 2, masked[3])
	assert.Equal(t, "********", masked[5])
	assert.Equal(t, "abc.def.ghi", args[1], "input is not modified")
}
