package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("POST", "/orders", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	if got := ClientKey(req); got != "10.0.0.7" {
		t.Errorf("ip key: got %q", got)
	}

	req.Header.Set("X-Session-ID", "abc")
	if got := ClientKey(req); got != "10.0.0.7|abc" {
		t.Errorf("session key: got %q", got)
	}

	// the same session id from another address is a different form
	other := httptest.NewRequest("POST", "/orders", nil)
	other.RemoteAddr = "10.0.0.8:4000"
	other.Header.Set("X-Session-ID", "abc")
	if ClientKey(other) == ClientKey(req) {
		t.Error("session key must be scoped by remote IP")
	}
}

func TestClientIP_IgnoresSessionHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/orders", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	req.Header.Set("X-Session-ID", "abc")
	if got := ClientIP(req); got != "10.0.0.7" {
		t.Errorf("got %q, want %q", got, "10.0.0.7")
	}
}

func TestRateLimiter_BudgetPerClient(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("a") {
		t.Fatal("fourth request within the minute should be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own budget")
	}

	clock = clock.Add(21 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("a token should refill after ~20s at 3/min")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5)
	rl.now = func() time.Time { return clock }

	rl.Allow("old")
	clock = clock.Add(time.Hour)
	rl.Allow("new")
	rl.Cleanup(10 * time.Minute)

	if _, ok := rl.visitors["old"]; ok {
		t.Error("idle visitor should be removed")
	}
	if _, ok := rl.visitors["new"]; !ok {
		t.Error("recent visitor should be kept")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest("POST", "/orders", nil)
	req.RemoteAddr = "192.0.2.1:1000"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("first: got %d, want %d", rr.Code, http.StatusAccepted)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second: got %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiter_MiddlewareIgnoresRotatingSession(t *testing.T) {
	rl := NewRateLimiter(2)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("POST", "/orders", nil)
		req.RemoteAddr = "192.0.2.9:1000"
		req.Header.Set("X-Session-ID", fmt.Sprintf("session-%d", i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	want := []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes: got %v, want %v", codes, want)
		}
	}
	if len(rl.visitors) != 1 {
		t.Errorf("visitors: got %d, want 1", len(rl.visitors))
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/menu/42", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["method"] != "GET" || entry["path"] != "/menu/42" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status: got %v, want 404", entry["status"])
	}
	if entry["level"] != "warning" {
		t.Errorf("level: got %v, want warning", entry["level"])
	}
}
