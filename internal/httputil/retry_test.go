// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

// modelAPI answers each call with the next scripted status and repeats
// the last one once the script runs out. It records request bodies.
type modelAPI struct {
	mu       sync.Mutex
	statuses []int
	bodies   []string
}

func (m *modelAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	m.mu.Lock()
	defer m.mu.Unlock()
	i := min(len(m.bodies), len(m.statuses)-1)
	m.bodies = append(m.bodies, string(b))
	w.WriteHeader(m.statuses[i])
}

func (m *modelAPI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bodies)
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int
	}{
		{"first call succeeds", []int{200}, 5, 200, 1},
		{"rate limited then ok", []int{429, 429, 200}, 5, 200, 3},
		{"unavailable then ok", []int{503, 200}, 5, 200, 2},
		{"gateway errors then ok", []int{502, 504, 200}, 5, 200, 3},
		{"retries exhausted returns last response", []int{429}, 2, 429, 3},
		{"zero means default retries", []int{429}, 0, 429, defaultMaxRetries + 1},
		{"server error is not retried", []int{500}, 5, 500, 1},
		{"bad request is not retried", []int{400}, 5, 400, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &modelAPI{statuses: tt.statuses}
			ts := httptest.NewServer(api)
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, api.calls())
		})
	}
}

func TestDoWithRetry_ReplaysCompletionBody(t *testing.T) {
	api := &modelAPI{statuses: []int{429, 503, 200}}
	ts := httptest.NewServer(api)
	defer ts.Close()

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"plan"}]}`
	req, err := http.NewRequest(http.MethodPost, ts.URL, bytes.NewBufferString(body))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{body, body, body}, api.bodies)
}

func TestDoWithRetry_CancelDuringBackoff(t *testing.T) {
	api := &modelAPI{statuses: []int{429}}
	ts := httptest.NewServer(api)
	defer ts.Close()

	old := RetryBaseDelay
	RetryBaseDelay = time.Second
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, api.calls())
}

func TestRetryDoer(t *testing.T) {
	api := &modelAPI{statuses: []int{502, 200}}
	ts := httptest.NewServer(api)
	defer ts.Close()

	d := &RetryDoer{Client: ts.Client(), MaxRetries: 1}
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := d.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, api.calls())
}

func TestRetryDoer_DefaultClient(t *testing.T) {
	api := &modelAPI{statuses: []int{200}}
	ts := httptest.NewServer(api)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := (&RetryDoer{}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
