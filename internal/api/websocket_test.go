package api

import (
	"testing"
	"time"
)

func TestHubStopTerminatesRun(t *testing.T) {
	hub := NewWebSocketHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	hub.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub Run did not return after Stop")
	}

	// Stop is idempotent.
	hub.Stop()
}

func TestRegistryRemoveStopsHub(t *testing.T) {
	r := NewRegistry(2)
	hub := NewWebSocketHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	r.matches["m1"] = &MatchEntry{Cancel: func() {}, Hub: hub}
	if !r.Remove("m1") {
		t.Fatal("Remove returned false for a registered match")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("removing the match did not stop its hub")
	}
	if _, ok := r.Get("m1"); ok {
		t.Error("entry still present after Remove")
	}
}

func TestOriginPolicy(t *testing.T) {
	policy := originPolicy{"http://localhost:*", "https://app.example.com"}
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true}, // non-browser clients send no Origin
		{"http://localhost:3000", true},
		{"http://localhost:8080", true},
		{"https://app.example.com", true},
		{"https://evil.example.net", false},
		{"https://app.example.com.evil.net", false},
	}
	for _, tt := range tests {
		if got := policy.allows(tt.origin); got != tt.want {
			t.Errorf("allows(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
