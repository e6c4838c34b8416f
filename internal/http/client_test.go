package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// mockTokenManager is a scripted auth.TokenManager.
type mockTokenManager struct {
	mu           sync.Mutex
	token        string
	getErr       error
	refreshErr   error
	getCalls     int
	refreshCalls int
}

func newMockTokenManager() *mockTokenManager {
	return &mockTokenManager{token: "token-1"}
}

func (m *mockTokenManager) GetToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++

	return m.token, m.getErr
}

func (m *mockTokenManager) RefreshToken(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshCalls++
	if m.refreshErr != nil {
		return m.refreshErr
	}

	m.token = fmt.Sprintf("token-%d", m.refreshCalls+1)

	return nil
}

func (m *mockTokenManager) SetToken(token string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
}

func (m *mockTokenManager) refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refreshCalls
}

// fastRetry keeps retry sleeps negligible in tests.
func fastRetry() Option {
	return WithRetryConfig(3, time.Millisecond, 5*time.Millisecond)
}

func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("sends bearer token and default headers", func(t *testing.T) {
		t.Parallel()

		var gotAuth, gotAccept, gotLang string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			gotLang = r.Header.Get("Accept-Language")

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, newMockTokenManager(), WithRateLimit(1000, 100))

		resp, err := client.Get(context.Background(), "/v1/illust/detail", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Bearer token-1", gotAuth)
		assert.Equal(t, "application/json", gotAccept)
		assert.NotEmpty(t, gotLang)
	})

	t.Run("query parameters are encoded", func(t *testing.T) {
		t.Parallel()

		var gotQuery url.Values

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

		query := url.Values{}
		query.Set("illust_id", "99")
		query.Set("filter", "for_ios")

		_, err := client.Get(context.Background(), "/v1/illust/detail", query)
		require.NoError(t, err)
		assert.Equal(t, "99", gotQuery.Get("illust_id"))
		assert.Equal(t, "for_ios", gotQuery.Get("filter"))
	})

	t.Run("form body is url encoded", func(t *testing.T) {
		t.Parallel()

		var gotContentType string
		var gotForm url.Values

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, r.ParseForm())
			gotForm = r.PostForm

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

		form := url.Values{}
		form.Set("illust_id", "99")
		form.Set("restrict", "public")

		_, err := client.Post(context.Background(), "/v2/illust/bookmark/add", form)
		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
		assert.Equal(t, "99", gotForm.Get("illust_id"))
		assert.Equal(t, "public", gotForm.Get("restrict"))
	})

	t.Run("struct body is json encoded", func(t *testing.T) {
		t.Parallel()

		var gotContentType string
		var gotBody map[string]interface{}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

		_, err := client.Post(context.Background(), "/v1/thing", map[string]string{"key": "value"})
		require.NoError(t, err)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "value", gotBody["key"])
	})

	t.Run("no auth skips authorization", func(t *testing.T) {
		t.Parallel()

		var gotAuth string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		manager := newMockTokenManager()
		client := NewClient(server.URL, manager, WithRateLimit(1000, 100))

		_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/web/land", NoAuth: true})
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("token manager failure surfaces without a request", func(t *testing.T) {
		t.Parallel()

		manager := newMockTokenManager()
		manager.getErr = &pixiv.AuthError{Message: "credentials rejected", Err: pixiv.ErrAuthFailed}

		client := NewClient("http://127.0.0.1:1", manager, WithRateLimit(1000, 100))

		_, err := client.Get(context.Background(), "/v1/illust/detail", nil)
		assert.ErrorIs(t, err, pixiv.ErrAuthFailed)
	})
}

func TestClient_ErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("4xx is not retried", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"message": "Work not found", "user_message": "", "reason": ""}}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), fastRetry())

		_, err := client.Get(context.Background(), "/v1/illust/detail", nil)
		require.Error(t, err)

		apiErr := &pixiv.APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "Work not found", apiErr.Message)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("5xx is retried and can recover", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) <= 2 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), fastRetry())

		resp, err := client.Get(context.Background(), "/v1/illust/recommended", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("5xx exhausting the budget yields api error", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), WithRetryConfig(2, time.Millisecond, 5*time.Millisecond))

		_, err := client.Get(context.Background(), "/v1/illust/recommended", nil)
		require.Error(t, err)

		apiErr := &pixiv.APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("network failure yields transport error with attempt count", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := NewClient(serverURL, nil, WithRateLimit(1000, 100), WithRetryConfig(2, time.Millisecond, 5*time.Millisecond))

		_, err := client.Get(context.Background(), "/v1/illust/detail", nil)
		require.Error(t, err)

		transportErr := &pixiv.TransportError{}
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, 3, transportErr.Attempts)
	})

	t.Run("429 honors retry-after", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)

				return
			}

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), fastRetry())

		start := time.Now()
		resp, err := client.Get(context.Background(), "/v1/illust/ranking", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	})

	t.Run("429 exhausting the budget yields rate limit error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), WithRetryConfig(1, time.Millisecond, 5*time.Millisecond))

		_, err := client.Get(context.Background(), "/v1/illust/ranking", nil)
		require.Error(t, err)
		assert.True(t, pixiv.IsRateLimited(err))
	})
}

func TestClient_TokenRefresh(t *testing.T) {
	t.Parallel()

	t.Run("401 triggers one refresh and a retry", func(t *testing.T) {
		t.Parallel()

		manager := newMockTokenManager()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer token-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		sink := pixiv.NewChannelSink(8)
		client := NewClient(server.URL, manager, WithRateLimit(1000, 100), fastRetry(), WithEventSink(sink))

		resp, err := client.Get(context.Background(), "/v1/user/detail", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, manager.refreshes())

		sink.Close()

		var sawRefresh bool
		for event := range sink.Events() {
			if event.Kind == pixiv.EventTokenRefreshed {
				sawRefresh = true
			}
		}

		assert.True(t, sawRefresh)
	})

	t.Run("second consecutive 401 is fatal", func(t *testing.T) {
		t.Parallel()

		manager := newMockTokenManager()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, manager, WithRateLimit(1000, 100), fastRetry())

		_, err := client.Get(context.Background(), "/v1/user/detail", nil)
		require.Error(t, err)

		authErr := &pixiv.AuthError{}
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, 1, manager.refreshes())
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})

	t.Run("refresh failure surfaces directly", func(t *testing.T) {
		t.Parallel()

		manager := newMockTokenManager()
		manager.refreshErr = &pixiv.AuthError{Message: "invalid_grant", Err: pixiv.ErrAuthFailed}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, manager, WithRateLimit(1000, 100), fastRetry())

		_, err := client.Get(context.Background(), "/v1/user/detail", nil)
		assert.ErrorIs(t, err, pixiv.ErrAuthFailed)
	})
}

func TestClient_CursorReplay(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

	// Absolute URLs pass through untouched, the way next_url cursors are
	// replayed.
	cursor := server.URL + "/v1/illust/recommended?offset=30&min_bookmark_id=99"

	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: cursor})
	require.NoError(t, err)
	assert.Equal(t, "/v1/illust/recommended", gotPath)
	assert.Equal(t, "30", gotQuery.Get("offset"))
	assert.Equal(t, "99", gotQuery.Get("min_bookmark_id"))
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	t.Run("request interceptor mutates headers", func(t *testing.T) {
		t.Parallel()

		var gotHeader string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotHeader = r.Header.Get("X-Request-Id")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		chain := pixiv.NewInterceptorChain()
		chain.AddRequestInterceptor(pixiv.HeaderInterceptor("X-Request-Id", "abc123"))

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/v1/illust/detail", nil)
		require.NoError(t, err)
		assert.Equal(t, "abc123", gotHeader)
	})

	t.Run("request interceptor error aborts dispatch", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
		}))
		defer server.Close()

		chain := pixiv.NewInterceptorChain()
		rejectErr := errors.New("rejected")
		chain.AddRequestInterceptor(func(_ context.Context, _ *pixiv.Request) error {
			return rejectErr
		})

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/v1/illust/detail", nil)
		assert.ErrorIs(t, err, rejectErr)
		assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	})

	t.Run("response interceptor observes status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		chain := pixiv.NewInterceptorChain()

		var gotStatus int
		chain.AddResponseInterceptor(func(_ context.Context, _ *pixiv.Request, resp *pixiv.Response) error {
			gotStatus = resp.StatusCode
			return nil
		})

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/v1/illust/detail", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, gotStatus)
	})
}

func TestDoDecoded(t *testing.T) {
	t.Parallel()

	t.Run("decodes typed model", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id": 5, "name": "artist", "account": "artist"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

		user, err := DoDecoded[pixiv.User](context.Background(), client, &Request{Method: http.MethodGet, Path: "/v1/user/detail"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), user.ID)
	})

	t.Run("shape mismatch is a decode error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name": "no id"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

		_, err := DoDecoded[pixiv.User](context.Background(), client, &Request{Method: http.MethodGet, Path: "/v1/user/detail"})
		require.Error(t, err)

		decodeErr := &pixiv.DecodeError{}
		assert.True(t, errors.As(err, &decodeErr))
	})

	t.Run("api error is never a decode error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

		_, err := DoDecoded[pixiv.User](context.Background(), client, &Request{Method: http.MethodGet, Path: "/v1/user/detail"})
		require.Error(t, err)

		decodeErr := &pixiv.DecodeError{}
		assert.False(t, errors.As(err, &decodeErr))
		assert.True(t, pixiv.IsNotFound(err))
	})
}

func TestClient_Download(t *testing.T) {
	t.Parallel()

	t.Run("sends referer without bearer", func(t *testing.T) {
		t.Parallel()

		var gotReferer, gotAuth string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReferer = r.Header.Get("Referer")
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte("image-bytes"))
		}))
		defer server.Close()

		client := NewClient(server.URL, newMockTokenManager(), WithRateLimit(1000, 100))

		data, err := client.Download(context.Background(), server.URL+"/img-original/a.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes"), data)
		assert.Equal(t, "https://app-api.pixiv.net/", gotReferer)
		assert.Empty(t, gotAuth)
	})

	t.Run("404 is not retried", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), fastRetry())

		_, err := client.Download(context.Background(), server.URL+"/img-original/a.png")
		require.Error(t, err)
		assert.True(t, pixiv.IsNotFound(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("publishes progress events", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("image-bytes"))
		}))
		defer server.Close()

		sink := pixiv.NewChannelSink(8)
		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), WithEventSink(sink))

		_, err := client.Download(context.Background(), server.URL+"/img-original/a.png")
		require.NoError(t, err)

		sink.Close()

		var sawProgress bool
		for event := range sink.Events() {
			if event.Kind == pixiv.EventDownloadProgress {
				sawProgress = true
				assert.Equal(t, int64(len("image-bytes")), event.Bytes)
			}
		}

		assert.True(t, sawProgress)
	})
}

func TestClient_Cancellation(t *testing.T) {
	t.Parallel()

	t.Run("cancelled context aborts in-flight request", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100))

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			<-started
			cancel()
		}()

		_, err := client.Get(ctx, "/v1/illust/detail", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("cancellation during backoff", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(server.URL, nil, WithRateLimit(1000, 100), fastRetry())

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := client.Get(ctx, "/v1/illust/ranking", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestEncodeBody(t *testing.T) {
	t.Parallel()

	t.Run("nil body", func(t *testing.T) {
		t.Parallel()

		data, contentType, err := encodeBody(nil)
		require.NoError(t, err)
		assert.Nil(t, data)
		assert.Empty(t, contentType)
	})

	t.Run("raw bytes pass through", func(t *testing.T) {
		t.Parallel()

		data, contentType, err := encodeBody([]byte(`{"a":1}`))
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), data)
		assert.Equal(t, "application/json", contentType)
	})
}

func TestClient_LimiterAdmitsEveryAttempt(t *testing.T) {
	t.Parallel()

	// Admissions are counted through the token bucket itself: the limiter
	// starts with exactly as many tokens as the sequence has attempts and
	// refills too slowly to matter, so a skipped admission leaves a spare
	// token and a doubled one stalls the request.

	t.Run("every retry attempt is admitted once", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) <= 2 {
				w.WriteHeader(http.StatusBadGateway)

				return
			}

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, newMockTokenManager(), fastRetry(), WithRateLimit(0.01, 3))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp, err := client.Get(ctx, "/v1/illust/detail", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, int32(3), atomic.LoadInt32(&hits))

		// The three attempts spent all three tokens; a fourth admission
		// cannot be granted before the deadline.
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer drainCancel()

		_, err = client.Get(drainCtx, "/v1/illust/detail", nil)
		require.Error(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("the retry after a token refresh is admitted once", func(t *testing.T) {
		t.Parallel()

		var hits int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": {"message": "invalid token"}}`))

				return
			}

			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		manager := newMockTokenManager()
		client := NewClient(server.URL, manager, fastRetry(), WithRateLimit(0.01, 2))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp, err := client.Get(ctx, "/v1/user/detail", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, int32(2), atomic.LoadInt32(&hits))
		assert.Equal(t, 1, manager.refreshes())

		// Both tokens are spent, one per attempt.
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer drainCancel()

		_, err = client.Get(drainCtx, "/v1/user/detail", nil)
		require.Error(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})
}
