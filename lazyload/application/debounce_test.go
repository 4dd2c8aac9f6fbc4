package application

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_BurstRunsOnce(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one run after burst, got %d", n)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(40 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no run after Stop, got %d", n)
	}
}
