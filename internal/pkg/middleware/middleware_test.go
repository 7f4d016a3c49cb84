package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estaleiro/internal/domain"
	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
	"estaleiro/internal/pkg/token"
)

func testLogger() logger.Logger {
	return logger.NewLoggerWithWriter("debug", &bytes.Buffer{})
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetUserClaimsFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(claims.UserID))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var resp domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	svc := token.NewService("segredo", time.Hour)
	valid, err := svc.GenerateToken("u1", string(domain.RoleLogistics))
	require.NoError(t, err)

	h := NewAuthMiddleware(svc)(okHandler)

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"sem token", "", "", http.StatusUnauthorized},
		{"esquema errado", "Basic abc", "", http.StatusUnauthorized},
		{"token inválido", "Bearer xyz", "", http.StatusUnauthorized},
		{"bearer válido", "Bearer " + valid, "", http.StatusOK},
		{"query para SSE", "", "?token=" + valid, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/picking"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", rec.Body.String())
			} else {
				assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Category)
			}
		})
	}
}

func TestPermissionMiddleware(t *testing.T) {
	h := PermissionMiddleware(domain.RoleLogistics, domain.RoleAdmin)(okHandler)

	withRole := func(role domain.UserRole) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/v1/picking/r1/start", nil)
		ctx := context.WithValue(req.Context(), UserClaimsKey, UserClaims{UserID: "u1", Role: role})
		return req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	h(rec, withRole(domain.RoleLogistics))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, withRole(domain.RoleProduction))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Category)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/v1/picking/r1/start", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// memCache é um cache.Client em memória para os testes do rate limit.
type memCache struct {
	mu     sync.Mutex
	data   map[string]string
	failed bool
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return "", errors.New("redis down")
	}
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case int:
		c.data[key] = strconv.Itoa(v)
	case string:
		c.data[key] = v
	}
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.Atoi(c.data[key])
	n++
	c.data[key] = strconv.Itoa(n)
	return int64(n), nil
}

func (c *memCache) GetInt(ctx context.Context, key string) (int, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (c *memCache) Publish(context.Context, string, string) error { return nil }

func (c *memCache) Subscribe(context.Context, string) cache.Subscription { return nil }

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	reg := metrics.NewRegistry()
	h := RateLimiter(newMemCache(), 2, time.Minute, testLogger(), reg)(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/kitting/forecast", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Outro IP tem a própria janela.
	req := httptest.NewRequest(http.MethodGet, "/v1/kitting/forecast", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_FailsOpenWhenCacheIsDown(t *testing.T) {
	c := newMemCache()
	c.failed = true
	h := RateLimiter(c, 1, time.Minute, testLogger(), nil)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLoggerWithWriter("info", &buf)
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	var entry logger.LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Requisição HTTP", entry.Message)
	assert.EqualValues(t, http.StatusTeapot, entry.Fields["status"])
	assert.Equal(t, "/ping", entry.Fields["path"])
}
