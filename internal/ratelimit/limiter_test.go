package ratelimit

import (
	"testing"
	"time"
)

func TestFixedWindow_AdmitsUpToMax(t *testing.T) {
	l := NewFixedWindow(50, 60*time.Second)

	for i := 0; i < 50; i++ {
		if !l.Admit("203.0.113.7") {
			t.Fatalf("request %d: expected admit, got deny", i+1)
		}
	}

	// 51st request in the same window must be denied.
	if l.Admit("203.0.113.7") {
		t.Error("request 51: expected deny, got admit")
	}
}

func TestFixedWindow_IndependentPerIP(t *testing.T) {
	l := NewFixedWindow(2, 60*time.Second)

	if !l.Admit("10.0.0.1") || !l.Admit("10.0.0.1") {
		t.Fatal("first IP: expected two admits")
	}
	if l.Admit("10.0.0.1") {
		t.Error("first IP: expected deny at limit")
	}
	if !l.Admit("10.0.0.2") {
		t.Error("second IP: expected admit, limits must be independent")
	}
}

func TestFixedWindow_WindowExpiryReadmits(t *testing.T) {
	l := NewFixedWindow(1, 60*time.Second)
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	if !l.Admit("10.0.0.3") {
		t.Fatal("expected first request admitted")
	}
	if l.Admit("10.0.0.3") {
		t.Fatal("expected second request in window denied")
	}

	// After the window elapses the counter is purged and the IP is admitted again.
	now = now.Add(61 * time.Second)
	if !l.Admit("10.0.0.3") {
		t.Error("expected admit after window elapsed")
	}
}

func TestFixedWindow_PurgesExpiredCounters(t *testing.T) {
	l := NewFixedWindow(5, 60*time.Second)
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	l.Admit("10.0.0.1")
	l.Admit("10.0.0.2")
	l.Admit("10.0.0.3")
	if got := l.Len(); got != 3 {
		t.Fatalf("expected 3 tracked IPs, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	l.Admit("10.0.0.4")
	if got := l.Len(); got != 1 {
		t.Errorf("expected expired counters purged, got %d tracked IPs", got)
	}
}
