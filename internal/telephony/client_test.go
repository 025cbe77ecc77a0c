package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"call-analytics/internal/calls"
	"call-analytics/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.SourceConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c, srv
}

func TestFetchCalls_DecodesPayload(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/call" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"c1","type":"webCall","startedAt":"2023-01-01T00:00:00Z","endedAt":"2023-01-01T00:10:00Z","cost":0.5,"endedReason":"customer-ended-call","updatedAt":"2023-01-01T00:11:00Z"},
			{"id":"c2","type":"inboundPhoneCall","updatedAt":"2023-01-02T00:00:00Z"}
		]`))
	})

	out, err := c.FetchCalls(context.Background(), "tok-123", 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if len(out) != 2 || out[0].ID != "c1" {
		t.Fatalf("unexpected payload: %+v", out)
	}
	if out[0].Cost == nil || *out[0].Cost != 0.5 {
		t.Fatalf("expected cost 0.5, got %+v", out[0].Cost)
	}
	if out[1].StartedAt != nil {
		t.Fatalf("expected nil startedAt for in-flight call")
	}
}

func TestFetchCalls_LimitParam(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("expected limit=50, got %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	if _, err := c.FetchCalls(context.Background(), "tok", 50); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestFetchCalls_AuthFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.FetchCalls(context.Background(), "bad-token", 0)
	if !errors.Is(err, calls.ErrUpstreamAuth) {
		t.Fatalf("expected ErrUpstreamAuth, got %v", err)
	}
}

func TestFetchCalls_ServerErrorIsUpstreamUnavailable(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchCalls(context.Background(), "tok", 0)
	if !errors.Is(err, calls.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchCalls_RateLimitIsUpstreamUnavailable(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.FetchCalls(context.Background(), "tok", 0)
	if !errors.Is(err, calls.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchCalls_MissingTokenIsNoCredential(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request should not be made without a token")
	})
	_, err := c.FetchCalls(context.Background(), "", 0)
	if !errors.Is(err, calls.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}
