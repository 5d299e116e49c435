package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/pipeline"
)

type staticProgress struct {
	snap pipeline.Snapshot
}

func (s staticProgress) Snapshot() pipeline.Snapshot { return s.snap }

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(staticProgress{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProgress(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	srv := NewServer(staticProgress{snap: pipeline.Snapshot{
		RunID:     "run-1",
		StartedAt: started,
		Total:     2500,
		Done:      120,
		Succeeded: 100,
		Failed:    5,
		Skipped:   15,
	}}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got pipeline.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2500, got.Total)
	assert.Equal(t, 100, got.Succeeded)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(staticProgress{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
