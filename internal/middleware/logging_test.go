package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/SscSPs/invoice_reconciler/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestGetLoggerFromCtx_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), middleware.GetLoggerFromCtx(context.Background()))
}

func TestStartCommand(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := middleware.WithLogger(context.Background(), base)

	cmdCtx, finish := middleware.StartCommand(ctx, "RecordPayment", slog.String("invoice_id", "inv-1"))
	middleware.GetLoggerFromCtx(cmdCtx).Info("inside")
	finish(nil)

	_, failed := middleware.StartCommand(ctx, "DeletePayment")
	failed(errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "inside", lines[0]["msg"])
	assert.Equal(t, "RecordPayment", lines[0]["command"])
	assert.Equal(t, "inv-1", lines[0]["invoice_id"])
	assert.NotEmpty(t, lines[0]["request_id"])
	assert.Equal(t, lines[0]["request_id"], lines[1]["request_id"])
	assert.Equal(t, "Command completed", lines[1]["msg"])

	assert.Equal(t, "Command failed", lines[2]["msg"])
	assert.Equal(t, "boom", lines[2]["error"])
	assert.Equal(t, "WARN", lines[2]["level"])
	assert.NotEqual(t, lines[0]["request_id"], lines[2]["request_id"])
}
