package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shiftgov/config"
	"shiftgov/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		Issuer:         "shiftgov-test",
		AccessTokenTTL: 15 * time.Minute,
	})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth / RoleAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("user-1", "manager", "company-1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", JWTAuth(mgr), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetString(CtxUserID),
			"role":       c.GetString(CtxRole),
			"company_id": c.GetString(CtxCompanyID),
		})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"缺少认证头", "", http.StatusUnauthorized},
		{"非 Bearer", "Basic abc", http.StatusUnauthorized},
		{"无效 token", "Bearer not-a-token", http.StatusUnauthorized},
		{"有效 token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"company_id":"company-1"`)
				assert.Contains(t, w.Body.String(), `"role":"manager"`)
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	build := func(role string) *gin.Engine {
		r := gin.New()
		r.POST("/lock", func(c *gin.Context) {
			if role != "" {
				c.Set(CtxRole, role)
			}
			c.Next()
		}, RoleAuth("owner", "admin", "manager"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	assert.Equal(t, http.StatusNoContent, serve(build("manager"), httptest.NewRequest(http.MethodPost, "/lock", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(build("employee"), httptest.NewRequest(http.MethodPost, "/lock", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(build(""), httptest.NewRequest(http.MethodPost, "/lock", nil)).Code)
}

// ── RateLimit ──

type fakeRateStore struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeRateStore) CheckRateLimit(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

func rateLimitedEngine(cfg config.RateLimitConfig, store RateLimitStore) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(cfg, store, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_LocalBucket(t *testing.T) {
	r := rateLimitedEngine(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2}, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_StoreDecides(t *testing.T) {
	store := &fakeRateStore{allowed: false}
	r := rateLimitedEngine(config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}, store)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, store.calls)
}

func TestRateLimit_StoreErrorFallsBack(t *testing.T) {
	store := &fakeRateStore{err: errors.New("redis down")}
	r := rateLimitedEngine(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, store)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := rateLimitedEngine(config.RateLimitConfig{}, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
}

// ── RequestID / BodyLimit ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 100))
	w = serve(r, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36, "超长的外部 ID 应被替换为 UUID")
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			if IsBodyTooLarge(err) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	small := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`))
	assert.Equal(t, http.StatusOK, serve(r, small).Code)

	large := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, large).Code)
}
