package middleware

import (
	"testing"
	"time"
)

func TestSlidingWindowLimiterBlocksAtLimit(t *testing.T) {
	l := NewSlidingWindowLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("fourth request should be blocked")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatal("limits are per key")
	}
}

func TestSlidingWindowLimiterRecoversAfterWindow(t *testing.T) {
	l := NewSlidingWindowLimiter(1, 20*time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("first request should pass")
	}
	if l.Allow("k") {
		t.Fatal("second request inside the window should be blocked")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("request after the window should pass")
	}
}
