package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIPHeaderPrecedence(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/health", nil)
	r.RemoteAddr = "192.0.2.10:4444"
	if ip := ClientIP(r); ip != "192.0.2.10" {
		t.Errorf("remote addr fallback = %q", ip)
	}

	r.Header.Set("X-Real-IP", "198.51.100.7")
	if ip := ClientIP(r); ip != "198.51.100.7" {
		t.Errorf("X-Real-IP = %q", ip)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	if ip := ClientIP(r); ip != "203.0.113.9" {
		t.Errorf("X-Forwarded-For first hop = %q", ip)
	}
}

func TestIPRateLimiterBurst(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             3,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("203.0.113.1") {
			t.Fatalf("request %d rejected inside the burst", i+1)
		}
	}
	if rl.Allow("203.0.113.1") {
		t.Error("request allowed past the burst")
	}
	// Buckets are per IP.
	if !rl.Allow("203.0.113.2") {
		t.Error("fresh IP rejected")
	}
}

func TestConnQuotaAcquireRelease(t *testing.T) {
	q := newIPConnQuota(2)
	if !q.Acquire("a") || !q.Acquire("a") {
		t.Fatal("quota rejected connections under the cap")
	}
	if q.Acquire("a") {
		t.Error("quota exceeded the cap")
	}
	q.Release("a")
	if !q.Acquire("a") {
		t.Error("released slot not reusable")
	}
	if !q.Acquire("b") {
		t.Error("other IP affected by a full quota")
	}
}
