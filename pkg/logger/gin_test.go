package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "rid-123" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
	if !strings.Contains(buf.String(), `"request_id":"rid-123"`) {
		t.Fatalf("expected request id in log line, got %s", buf.String())
	}
}

func TestMiddleware_GeneratesRequestIDWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestMiddleware_LogsAuthenticatedIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/me", func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Set("role", "admin")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	out := buf.String()
	if !strings.Contains(out, `"user_id":"u1"`) || !strings.Contains(out, `"role":"admin"`) {
		t.Fatalf("expected identity fields in log line, got %s", out)
	}
}
