package conncache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeClient simulates a runtime client whose liveness can be toggled.
type fakeClient struct {
	id       int
	pingErr  error
	closed   bool
	pingLog  int
	closeLog int
}

func (f *fakeClient) Ping(ctx context.Context) error {
	f.pingLog++
	return f.pingErr
}

func (f *fakeClient) Close() error {
	f.closeLog++
	f.closed = true
	return nil
}

// fakeDialer returns successive clients and records dial attempts.
type fakeDialer struct {
	next    int
	dialErr error
	dials   int
	clients []*fakeClient
}

func (d *fakeDialer) dial(ctx context.Context, endpoint string) (*fakeClient, error) {
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	d.next++
	c := &fakeClient{id: d.next}
	d.clients = append(d.clients, c)
	return c, nil
}

func TestGet_CachesHealthyClient(t *testing.T) {
	d := &fakeDialer{}
	cache := New(d.dial, time.Second)

	first, err := cache.Get(context.Background(), "tcp://h:2375", true)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	second, err := cache.Get(context.Background(), "tcp://h:2375", true)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if first != second {
		t.Errorf("expected the same cached handle, got %d and %d", first.id, second.id)
	}
	if d.dials != 1 {
		t.Errorf("dials = %d, want 1", d.dials)
	}
}

func TestGet_EvictsOnPingFailure(t *testing.T) {
	d := &fakeDialer{}
	cache := New(d.dial, time.Second)

	first, err := cache.Get(context.Background(), "tcp://h:2375", true)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	// Simulate the daemon going away: the cached client's ping now fails.
	first.pingErr = errors.New("connection refused")

	second, err := cache.Get(context.Background(), "tcp://h:2375", true)
	if err != nil {
		t.Fatalf("Get() after eviction error: %v", err)
	}

	if first == second {
		t.Error("expected a fresh handle after liveness failure")
	}
	if !first.closed {
		t.Error("stale handle should be closed on eviction")
	}
	if d.dials != 2 {
		t.Errorf("dials = %d, want 2", d.dials)
	}
}

func TestGet_DialFailureCachesNothing(t *testing.T) {
	d := &fakeDialer{dialErr: fmt.Errorf("cannot connect")}
	cache := New(d.dial, time.Second)

	if _, err := cache.Get(context.Background(), "tcp://down:2375", true); err == nil {
		t.Fatal("expected dial error")
	}
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d after failed dial, want 0", cache.Len())
	}

	// A later successful dial takes the normal path.
	d.dialErr = nil
	if _, err := cache.Get(context.Background(), "tcp://down:2375", true); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("cache.Len() = %d, want 1", cache.Len())
	}
}

func TestGet_NoCacheBypassesStore(t *testing.T) {
	d := &fakeDialer{}
	cache := New(d.dial, time.Second)

	if _, err := cache.Get(context.Background(), "tcp://h:2375", false); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d with useCache=false, want 0", cache.Len())
	}
	if d.dials != 1 {
		t.Errorf("dials = %d, want 1", d.dials)
	}
}

func TestInvalidate_ClosesAndClears(t *testing.T) {
	d := &fakeDialer{}
	cache := New(d.dial, time.Second)

	a, _ := cache.Get(context.Background(), "tcp://a:2375", true)
	b, _ := cache.Get(context.Background(), "tcp://b:2375", true)
	if cache.Len() != 2 {
		t.Fatalf("cache.Len() = %d, want 2", cache.Len())
	}

	cache.Invalidate()

	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d after Invalidate, want 0", cache.Len())
	}
	if !a.closed || !b.closed {
		t.Error("invalidated clients should be closed")
	}

	// Next Get re-dials.
	c, err := cache.Get(context.Background(), "tcp://a:2375", true)
	if err != nil {
		t.Fatalf("Get() after Invalidate error: %v", err)
	}
	if c == a {
		t.Error("expected a fresh handle after Invalidate")
	}
}
