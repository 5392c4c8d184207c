package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("registering webhook",
		slog.String("bot_token", "123456789:ABCdef"),
		slog.String("file", "echo.php"),
	)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "***", record["bot_token"])
	assert.Equal(t, "echo.php", record["file"])
	assert.NotContains(t, buf.String(), "ABCdef")
}

func TestMaskingHandler_MasksWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.With(slog.String("api_key", "super-secret")).Info("started")

	assert.NotContains(t, buf.String(), "super-secret")
	assert.Contains(t, buf.String(), "***")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "INFO", expected: slog.LevelInfo},
		{input: "warn", expected: slog.LevelWarn},
		{input: "warning", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "", expected: slog.LevelInfo},
		{input: "nonsense", expected: slog.LevelInfo},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ParseLevel(tc.input), "level %q", tc.input)
	}
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))

	id := NewCorrelationID()
	ctx = WithCorrelationID(ctx, id)
	assert.Equal(t, id, CorrelationIDFromContext(ctx))
}
