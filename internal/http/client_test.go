package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/pricehist/internal/http/ratelimit"
)

func fastRetryConfig() ratelimit.Config {
	return ratelimit.Config{RequestsPerSecond: 1000, MaxRetries: 2, InitialBackoffMs: 1, MaxBackoffMs: 5}
}

func TestClient_GetBytes_ReturnsBodyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient(fastRetryConfig())
	body, err := c.GetBytes(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestClient_Do_RetriesOnRetryableStatusThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(fastRetryConfig())
	resp, err := c.Do(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, attempts)
}

func TestClient_Do_FailsImmediatelyOnNonRetryableStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(fastRetryConfig())
	_, err := c.Do(http.MethodGet, srv.URL, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "a 404 must not be retried")

	var retryErr *ratelimit.FetchRetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, http.StatusNotFound, retryErr.LastStatus)
}

func TestClient_Do_ExhaustsRetriesOnPersistentFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := fastRetryConfig()
	c := NewClient(cfg)
	_, err := c.Do(http.MethodGet, srv.URL, nil)
	assert.Error(t, err)
	assert.Equal(t, cfg.MaxRetries+1, attempts)
}

func TestClient_SetConfigAndGetConfigRoundTrip(t *testing.T) {
	c := NewClientDefault()
	c.SetConfig(ratelimit.Config{RequestsPerSecond: 7, MaxRetries: 1})
	assert.Equal(t, 7, c.GetConfig().RequestsPerSecond)
}

func TestComputeSha256_IsDeterministic(t *testing.T) {
	a := ComputeSha256([]byte("hello"))
	b := ComputeSha256([]byte("hello"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ComputeSha256([]byte("world")))
}
