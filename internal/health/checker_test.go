package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheck struct {
	err error
}

func (f fakeCheck) HealthCheck(ctx context.Context) error {
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_AllHealthy(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("storage", fakeCheck{})
	checker.AddCheck("redis", fakeCheck{})

	results := checker.Check(context.Background())
	assert.Equal(t, map[string]string{"storage": "OK", "redis": "OK"}, results)
}

func TestChecker_HandlerReportsFailure(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("storage", fakeCheck{})
	checker.AddCheck("redis", fakeCheck{err: errors.New("connection refused")})

	recorder := httptest.NewRecorder()
	checker.Handler()(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["storage"])
	assert.Equal(t, "connection refused", body["redis"])
}

func TestChecker_IgnoresEmptyRegistrations(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("", fakeCheck{})
	checker.AddCheck("nil", nil)

	assert.Empty(t, checker.Check(context.Background()))
}
