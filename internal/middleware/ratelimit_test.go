// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testLimiter(t *testing.T) (*CategoryLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCategoryLimiter(client, true), mr
}

func limitedRequest(
	limiter *CategoryLimiter,
	category Category,
	addr string,
) *httptest.ResponseRecorder {
	handler := limiter.Limit(category)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = addr

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginSixthAttemptDenied(t *testing.T) {
	limiter, _ := testLimiter(t)

	for i := 0; i < 5; i++ {
		rec := limitedRequest(limiter, CategoryLogin, "198.51.100.7:4411")
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)
	}

	rec := limitedRequest(limiter, CategoryLogin, "198.51.100.7:4411")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "RATE_LIMITED", body["detail"])
	require.GreaterOrEqual(t, body["retry_after"].(float64), float64(1))
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCategoriesAreIndependentWindows(t *testing.T) {
	limiter, _ := testLimiter(t)

	for i := 0; i < 5; i++ {
		limitedRequest(limiter, CategoryLogin, "198.51.100.7:4411")
	}

	rec := limitedRequest(limiter, CategoryLogin, "198.51.100.7:4411")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = limitedRequest(limiter, CategoryDefault, "198.51.100.7:4411")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestClientsHaveSeparateWindows(t *testing.T) {
	limiter, _ := testLimiter(t)

	for i := 0; i < 6; i++ {
		limitedRequest(limiter, CategoryLogin, "198.51.100.7:4411")
	}

	rec := limitedRequest(limiter, CategoryLogin, "203.0.113.5:2211")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLimiterFailsOverToLocalFallback(t *testing.T) {
	limiter, mr := testLimiter(t)
	mr.Close()

	for i := 0; i < 3; i++ {
		rec := limitedRequest(limiter, CategoryPasswordReset, "198.51.100.7:4411")
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)
	}

	rec := limitedRequest(limiter, CategoryPasswordReset, "198.51.100.7:4411")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLimiterDisabled(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewCategoryLimiter(client, false)

	for i := 0; i < 20; i++ {
		rec := limitedRequest(limiter, CategoryLogin, "198.51.100.7:4411")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
