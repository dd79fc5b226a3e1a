package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryStorePutGetTake(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get: %q %v", got, err)
	}
	got, err = s.Take(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Take: %q %v", got, err)
	}
	if _, err := s.Take(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Take: want ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.Put(ctx, "a", []byte("1"), time.Minute)
	s.Put(ctx, "b", []byte("2"), time.Hour)

	now = now.Add(2 * time.Minute)
	if _, err := s.Take(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Take: got %v", err)
	}
	s.sweep()
	if n := s.Len(); n != 1 {
		t.Fatalf("after sweep: %d entries", n)
	}
}

func TestMemoryStoreTakeIsAtMostOnce(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()
	s.Put(ctx, "once", []byte("x"), time.Minute)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "once"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("Take succeeded %d times", wins)
	}
}

func TestMemoryStoreCopiesValue(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()
	buf := []byte("abc")
	s.Put(ctx, "k", buf, 0)
	buf[0] = 'z'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
}
