package watch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_DeliversLatestOnce(t *testing.T) {
	var count atomic.Int32
	var mu sync.Mutex
	var got string
	d := NewDebouncer(50*time.Millisecond, func(v string) {
		count.Add(1)
		mu.Lock()
		got = v
		mu.Unlock()
	})
	defer d.Stop()

	for _, v := range []string{"token", "user", "token"} {
		d.Trigger(v)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if n := count.Load(); n != 1 {
		t.Fatalf("callback ran %d times, want 1", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if got != "token" {
		t.Fatalf("delivered %q, want the last value", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func(int) { count.Add(1) })

	d.Trigger(1)
	d.Stop()
	time.Sleep(100 * time.Millisecond)

	if n := count.Load(); n != 0 {
		t.Fatalf("callback ran %d times after Stop", n)
	}
}
