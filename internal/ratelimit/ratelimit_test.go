package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial events",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst is refused",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
		{
			name:     "zero rate is unlimited",
			rps:      0,
			burst:    1,
			calls:    50,
			wantPass: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("ebook") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := New(1, 1)

	if !rl.Allow("ebook") {
		t.Fatal("first ebook event refused")
	}
	if rl.Allow("ebook") {
		t.Fatal("second ebook event allowed")
	}
	if !rl.Allow("author") {
		t.Error("author bucket drained by ebook events")
	}
	if rl.Keys() != 2 {
		t.Errorf("Keys() = %d, want 2", rl.Keys())
	}
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(10, 1) // 10 rps, burst of 1

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := rl.Wait(ctx, "ebook"); err != nil {
		t.Errorf("first Wait() failed: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("first Wait() should be immediate")
	}

	// Second call waits about 100ms.
	start = time.Now()
	if err := rl.Wait(ctx, "ebook"); err != nil {
		t.Errorf("second Wait() failed: %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("second Wait() should have been delayed")
	}
}

func TestKeyedRateLimiter_WaitCanceled(t *testing.T) {
	rl := New(0.1, 1)
	rl.Allow("ebook")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx, "ebook"); err == nil {
		t.Error("Wait() with canceled context should fail")
	}
}
