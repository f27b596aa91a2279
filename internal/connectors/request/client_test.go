package request

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

// sleepRecorder records backoff waits instead of sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func newTestClient(rec *sleepRecorder, maxAttempts int) *Client {
	return New(Config{
		Name:        "test",
		MaxAttempts: maxAttempts,
		Sleep:       rec.Sleep,
	})
}

func TestClient_Do_Success(t *testing.T) {
	var gotAccept, gotKey, gotExtra string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotKey = r.Header.Get("AccessKey")
		gotExtra = r.Header.Get("X-Extra")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(Config{Headers: map[string]string{"AccessKey": "secret"}})
	defer client.Close()

	body, err := client.Do(context.Background(), http.MethodGet, server.URL, nil, map[string]string{"X-Extra": "1"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "1", gotExtra)
}

func TestClient_Do_SendsJSONPayload(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"f1"}`))
	}))
	defer server.Close()

	client := New(Config{})
	body, err := client.Do(context.Background(), http.MethodPost, server.URL,
		map[string]string{"name": "A"}, nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"f1"}`, string(body))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "A", gotBody["name"])
}

func TestClient_Do_RetryAfterThenSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(rec, 5)

	body, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, rec.Waits(), 1)
	assert.GreaterOrEqual(t, rec.Waits()[0], 2*time.Second)
}

func TestClient_Do_RetryAfterScalesWithAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(rec, 5)

	_, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.Waits())
}

func TestClient_Do_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(rec, 3)

	_, err := client.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.True(t, errors.Is(err, domain.ErrRateLimited))

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 3, reqErr.Attempts)
	assert.Equal(t, server.URL, reqErr.URL)
	assert.Equal(t, int32(3), calls.Load())
	// Default base wait without Retry-After, multiplied by the attempt index.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.Waits())
}

func TestClient_Do_ServerErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(rec, 5)

	_, err := client.Get(context.Background(), server.URL)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
	assert.Equal(t, "boom", reqErr.Message)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.Waits())
}

func TestClient_Do_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := newTestClient(&sleepRecorder{}, 3)

	_, err := client.Get(context.Background(), server.URL)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsRateLimited(err))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_Do_ConnectionResetRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("hijacking not supported")
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(rec, 3)

	body, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.Waits())
}

func TestClient_Do_OnRetryHook(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	var retries []Retry
	client := New(Config{
		MaxAttempts: 3,
		Sleep:       func(context.Context, time.Duration) error { return nil },
		OnRetry:     func(r Retry) { retries = append(retries, r) },
	})

	_, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	require.Len(t, retries, 1)
	assert.Equal(t, 1, retries[0].Attempt)
	assert.Equal(t, time.Second, retries[0].Wait)
	assert.Equal(t, http.StatusTooManyRequests, retries[0].Status)
}

func TestClient_Do_CancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := New(Config{
		MaxAttempts: 5,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})

	_, err := client.Get(ctx, server.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"x"}`))
	}))
	defer server.Close()

	client := New(Config{})
	var out struct {
		Name string `json:"name"`
	}

	require.NoError(t, client.GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "x", out.Name)
}

func TestClient_GetJSON_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := New(Config{})
	var out map[string]any

	err := client.GetJSON(context.Background(), server.URL, &out)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Contains(t, reqErr.Message, "decode response")
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"absent", "", 0, false},
		{"seconds", "2", 2 * time.Second, true},
		{"zero", "0", 0, true},
		{"fractional", "1.5", 1500 * time.Millisecond, true},
		{"garbage", "soon", 0, false},
		{"negative", "-3", 0, false},
		{"huge", "1e20", MaxRetryWait, true},
		{"infinite", "+Inf", MaxRetryWait, true},
		{"just over cap", "3601", MaxRetryWait, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set(HeaderRetryAfter, tt.value)
			}
			got, ok := parseRetryAfter(h)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(RateLimitConfig{}))
	assert.NoError(t, (*RateLimiter)(nil).Wait(context.Background()))

	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100})
	require.NotNil(t, limiter)
	assert.NoError(t, limiter.Wait(context.Background()))
}

func TestParseRetryAfter_PastDateIsZero(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderRetryAfter, time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))

	got, ok := parseRetryAfter(h)

	assert.True(t, ok)
	assert.Zero(t, got)
}

func TestScaleBackoff(t *testing.T) {
	assert.Equal(t, 6*time.Second, scaleBackoff(2*time.Second, 3))
	assert.Zero(t, scaleBackoff(0, 3))
	assert.Equal(t, MaxRetryWait, scaleBackoff(MaxRetryWait, 2))
	assert.Equal(t, MaxRetryWait, scaleBackoff(time.Duration(math.MaxInt64/2), 4))
}

func TestClient_Do_HugeRetryAfterIsCapped(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1e20")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(rec, 3)

	_, err := client.Get(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{MaxRetryWait, MaxRetryWait}, rec.Waits())
}

func TestClient_Do_ConnectionRefusedNotRetried(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(rec, 3)

	_, err := client.Get(context.Background(), url)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 1, reqErr.Attempts)
	assert.Empty(t, rec.Waits())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"eof", io.EOF, true},
		{"connection reset", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, true},
		{"broken pipe", &net.OpError{Op: "write", Net: "tcp", Err: syscall.EPIPE}, true},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", Name: "api.test", IsTimeout: true}, true},
		{"no such host", &net.DNSError{Err: "no such host", Name: "nonexistent.invalid", IsNotFound: true}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, false},
		{"plain error", errors.New("bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}
