package httpx_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
)

func TestClientGet(t *testing.T) {
	t.Run("returns the body and sends headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "token abc", r.Header.Get("Authorization"))
			assert.Equal(t, httpx.DefaultUserAgent, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		body, err := httpx.New().Get(context.Background(), server.URL, map[string]string{"Authorization": "token abc"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		c := httpx.New(httpx.WithMaxTries(3), httpx.WithInitialBackoff(time.Millisecond))
		body, err := c.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := httpx.New(httpx.WithMaxTries(5), httpx.WithInitialBackoff(time.Millisecond))
		_, err := c.Get(context.Background(), server.URL, nil)
		require.Error(t, err)
		assert.True(t, httpx.IsStatus(err, http.StatusUnauthorized))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := httpx.New(httpx.WithMaxTries(2), httpx.WithInitialBackoff(time.Millisecond))
		_, err := c.Get(context.Background(), server.URL, nil)
		require.Error(t, err)
		assert.True(t, httpx.IsStatus(err, http.StatusTooManyRequests))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("honours cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err := httpx.New().Get(ctx, server.URL, nil)
		require.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestClientPost(t *testing.T) {
	t.Run("replays the body on retry", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			got, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"q":"go"}`, string(got))
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"organic":[]}`))
		}))
		defer server.Close()

		c := httpx.New(httpx.WithMaxTries(2), httpx.WithInitialBackoff(time.Millisecond))
		body, err := c.Post(context.Background(), server.URL, map[string]string{"Content-Type": "application/json"}, []byte(`{"q":"go"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"organic":[]}`, string(body))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("names the method in status errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := httpx.New().Post(context.Background(), server.URL, nil, []byte(`{}`))
		require.Error(t, err)
		assert.True(t, httpx.IsStatus(err, http.StatusForbidden))
		assert.Contains(t, err.Error(), "POST ")
	})
}
