package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickjmorris/therunclub-sub001/internal/infrastructure/queueworker"
	"github.com/patrickjmorris/therunclub-sub001/internal/usecase"
)

type stubRunner struct {
	got    usecase.BatchRequest
	result usecase.BatchResult
	err    error
}

func (s *stubRunner) ProcessBatch(_ context.Context, req usecase.BatchRequest) (usecase.BatchResult, error) {
	s.got = req
	return s.result, s.err
}

func TestHandleBatchDefaults(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: usecase.BatchResult{
		Processed:   2,
		SuccessRate: "100.0",
	}}
	server := New(runner, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/detection/batch", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "podcast", string(runner.got.ContentType))
	assert.Equal(t, defaultMaxAgeHours, runner.got.MaxAgeHours)
	assert.Equal(t, defaultBatchSize, runner.got.Limit)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Processed)
	assert.Equal(t, "100.0", resp.SuccessRate)
}

func TestHandleBatchExplicitParams(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: usecase.BatchResult{
		Processed:   3,
		Errors:      1,
		SuccessRate: "66.7",
		Failures:    []usecase.ItemFailure{{ID: "v2", Err: "content item not found"}},
	}}
	server := New(runner, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost,
		"/api/detection/batch?contentType=video&maxAgeHours=48&batchSize=5", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video", string(runner.got.ContentType))
	assert.Equal(t, 48, runner.got.MaxAgeHours)
	assert.Equal(t, 5, runner.got.Limit)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "v2", resp.Failures[0].ID)
}

func TestHandleBatchRejectsBadParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
	}{
		{"unknown content type", "/api/detection/batch?contentType=newsletter"},
		{"non-numeric batch size", "/api/detection/batch?batchSize=ten"},
		{"negative max age", "/api/detection/batch?maxAgeHours=-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := New(&stubRunner{}, nil, nil, nil)
			req := httptest.NewRequest(http.MethodPost, tt.url, nil)
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleBatchRunnerError(t *testing.T) {
	t.Parallel()

	server := New(&stubRunner{err: errors.New("store unreachable")}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/detection/batch", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type stubEnqueuer struct {
	jobs []queueworker.Job
	err  error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, job queueworker.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func TestHandleEnqueueItem(t *testing.T) {
	t.Parallel()

	enqueuer := &stubEnqueuer{}
	server := New(&stubRunner{}, enqueuer, nil, nil)

	body := strings.NewReader(`{"contentId": "ep1", "contentType": "podcast"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/detection/item", body)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enqueuer.jobs, 1)
	assert.Equal(t, "ep1", enqueuer.jobs[0].ContentID)
	assert.Equal(t, "podcast", string(enqueuer.jobs[0].ContentType))
}

func TestHandleEnqueueItemRejectsBadPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing content id", `{"contentType": "podcast"}`},
		{"unknown content type", `{"contentId": "ep1", "contentType": "newsletter"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := New(&stubRunner{}, &stubEnqueuer{}, nil, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/detection/item", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleEnqueueItemQueueUnavailable(t *testing.T) {
	t.Parallel()

	server := New(&stubRunner{}, &stubEnqueuer{err: context.Canceled}, nil, nil)

	body := strings.NewReader(`{"contentId": "ep1", "contentType": "video"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/detection/item", body)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	server := New(&stubRunner{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
