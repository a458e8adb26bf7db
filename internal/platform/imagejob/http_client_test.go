package imagejob

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(HTTPClientConfig{BaseURL: server.URL}, testLogger())
}

func TestHTTPClient_CreateJob(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var body struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a sunset", body.Prompt)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"task_id": "ext-7",
			"payment": {
				"account_id": "acct-1",
				"resource_url": "https://image.mcp/create",
				"network": "base",
				"currency": "USDC",
				"amount": "0.05",
				"issuer": "atxp"
			}
		}`))
	})

	res, err := client.CreateJob(context.Background(), "token", "a sunset")
	require.NoError(t, err)
	assert.Equal(t, "ext-7", res.ExternalTaskID)
	require.NotNil(t, res.Charge)
	assert.Equal(t, "USDC", res.Charge.Currency)
	assert.Equal(t, "0.05", res.Charge.Amount)
}

func TestHTTPClient_CreateJobMissingTaskID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.CreateJob(context.Background(), "token", "a sunset")
	assert.Error(t, err)
}

func TestHTTPClient_GetJobStatus(t *testing.T) {
	t.Parallel()

	t.Run("completed with url", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/jobs/ext-7", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"completed","url":"https://tmp/img.png"}`))
		})

		status, err := client.GetJobStatus(context.Background(), "token", "ext-7")
		require.NoError(t, err)
		assert.Equal(t, JobStateCompleted, status.State)
		assert.Equal(t, "https://tmp/img.png", status.URL)
	})

	t.Run("unknown state maps to pending", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"warming-up"}`))
		})

		status, err := client.GetJobStatus(context.Background(), "token", "ext-7")
		require.NoError(t, err)
		assert.Equal(t, JobStatePending, status.State)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		_, err := client.GetJobStatus(context.Background(), "token", "ext-7")
		assert.Error(t, err)
	})
}

func TestHTTPClient_StoreResult(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/files", r.URL.Path)
		_, _ = w.Write([]byte(`{"locator":"https://files/img.png","name":"img.png"}`))
	})

	stored, err := client.StoreResult(context.Background(), "token", "https://tmp/img.png")
	require.NoError(t, err)
	assert.Equal(t, "https://files/img.png", stored.Locator)
	assert.Equal(t, "img.png", stored.Name)
	assert.Nil(t, stored.Charge)
}
