package middleware

import (
	"AgentVendor/internal/pkg/ratelimit"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubLimiter struct {
	result *ratelimit.Result
	err    error
	keys   []string
}

func (s *stubLimiter) Limit(_ context.Context, clientKey string) (*ratelimit.Result, error) {
	s.keys = append(s.keys, clientKey)
	return s.result, s.err
}

func performChat(limiter ratelimit.Limiter, headers map[string]string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/chat", RateLimitMiddleware(limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitAllowsAndSetsHeaders(t *testing.T) {
	limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true, Limit: 20, Remaining: 15, ResetAt: 1700000000000}}

	w := performChat(limiter, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "20" {
		t.Fatalf("expected limit header 20, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "15" {
		t.Fatalf("expected remaining header 15, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Reset"); got != "1700000000000" {
		t.Fatalf("expected reset header, got %q", got)
	}
}

func TestRateLimitRejectsWith429(t *testing.T) {
	limiter := &stubLimiter{result: &ratelimit.Result{Allowed: false, Limit: 20, Remaining: 0, ResetAt: 1700000000000}}

	w := performChat(limiter, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("rejected request must still carry headers, got %q", got)
	}
}

func TestRateLimitKeyPrefersForwardedFor(t *testing.T) {
	limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true, Limit: 20, Remaining: 19}}

	performChat(limiter, map[string]string{"X-Forwarded-For": "10.1.2.3, 172.16.0.1"})
	if len(limiter.keys) != 1 || limiter.keys[0] != "ip:10.1.2.3" {
		t.Fatalf("expected first forwarded address as key, got %v", limiter.keys)
	}
}

// 限流在鉴权之前执行，即使上下文里混进了用户身份也只按 IP 计数
func TestRateLimitKeyIgnoresContextIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	c.Request.RemoteAddr = "192.0.2.7:1234"
	c.Set("user_id", uint64(42))

	if key := clientKey(c); key != "ip:192.0.2.7" {
		t.Fatalf("expected ip-scoped key, got %q", key)
	}
}
