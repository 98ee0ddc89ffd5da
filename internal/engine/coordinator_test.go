// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeStore serves a swappable catalog and can be forced to fail.
type fakeStore struct {
	mu       sync.Mutex
	products []Product
	err      error
	calls    int
}

func (f *fakeStore) ProductCatalog(_ context.Context) ([]Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeStore) set(products []Product, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = products
	f.err = err
}

func newTestCoordinator(store Store) *Coordinator {
	return NewCoordinator(store, CoordinatorConfig{}, zerolog.Nop())
}

func TestCoordinator_CurrentNilBeforeFirstBuild(t *testing.T) {
	c := newTestCoordinator(&fakeStore{})
	if c.Current() != nil {
		t.Error("Current() should be nil before the first rebuild")
	}
}

func TestCoordinator_Rebuild(t *testing.T) {
	store := &fakeStore{}
	store.set(testCatalog(), nil)
	c := newTestCoordinator(store)

	if err := c.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	snap := c.Current()
	if snap == nil {
		t.Fatal("Current() is nil after successful rebuild")
	}
	if snap.Len() != 4 {
		t.Errorf("snapshot has %d products, want 4", snap.Len())
	}
	if snap.Version() != 1 {
		t.Errorf("snapshot version = %d, want 1", snap.Version())
	}
}

func TestCoordinator_FailedRebuildKeepsPreviousSnapshot(t *testing.T) {
	store := &fakeStore{}
	store.set(testCatalog(), nil)
	c := newTestCoordinator(store)

	if err := c.Rebuild(context.Background()); err != nil {
		t.Fatalf("first Rebuild() error = %v", err)
	}
	published := c.Current()

	store.set(nil, errors.New("connection refused"))
	if err := c.Rebuild(context.Background()); err == nil {
		t.Fatal("Rebuild() with failing store should return an error")
	}

	if c.Current() != published {
		t.Error("failed rebuild must leave the previously published snapshot live")
	}
}

func TestCoordinator_RebuildVersionsIncrease(t *testing.T) {
	store := &fakeStore{}
	store.set(testCatalog(), nil)
	c := newTestCoordinator(store)

	for want := int64(1); want <= 3; want++ {
		if err := c.Rebuild(context.Background()); err != nil {
			t.Fatalf("Rebuild() error = %v", err)
		}
		if got := c.Current().Version(); got != want {
			t.Fatalf("version = %d, want %d", got, want)
		}
	}
}

func TestCoordinator_RequestCoalesces(t *testing.T) {
	c := newTestCoordinator(&fakeStore{})

	// Many requests while nothing is draining the channel must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.Request()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Request() blocked; it must coalesce into the pending slot")
	}
}

func TestCoordinator_ServeProcessesRequests(t *testing.T) {
	store := &fakeStore{}
	store.set(testCatalog(), nil)
	c := newTestCoordinator(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() { serveDone <- c.Serve(ctx) }()

	c.Request()

	deadline := time.After(2 * time.Second)
	for c.Current() == nil {
		select {
		case <-deadline:
			t.Fatal("Serve did not publish a snapshot after Request()")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-serveDone:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

// TestCoordinator_ConcurrentReadsDuringPublish hammers queries while
// snapshots are republished and asserts every response is explainable by
// exactly one of the two known catalogs, never a blend.
func TestCoordinator_ConcurrentReadsDuringPublish(t *testing.T) {
	oldCatalog := []Product{
		{ID: 1, Title: "batik tulis"},
		{ID: 2, Title: "batik tulis"},
		{ID: 3, Title: "jeans denim"},
	}
	// New catalog flips which product mirrors product 1.
	newCatalog := []Product{
		{ID: 1, Title: "batik tulis"},
		{ID: 2, Title: "jeans denim"},
		{ID: 3, Title: "batik tulis"},
	}

	store := &fakeStore{}
	store.set(oldCatalog, nil)
	c := newTestCoordinator(store)
	if err := c.Rebuild(context.Background()); err != nil {
		t.Fatalf("seed rebuild error = %v", err)
	}

	var stop atomic.Bool
	var wg sync.WaitGroup
	errCh := make(chan string, 16)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				snap := c.Current()
				got := snap.Recommend(1, 1)
				if len(got) != 1 {
					errCh <- "empty recommendation for known id"
					return
				}
				// Old model pairs 1 with 2, new model pairs 1 with 3.
				// Any other answer means a reader saw mixed state.
				if got[0] != 2 && got[0] != 3 {
					errCh <- "recommendation not explainable by either snapshot"
					return
				}
				if got[0] == 2 && snap.Version()%2 == 0 {
					errCh <- "old-model answer from new-model snapshot"
					return
				}
				if got[0] == 3 && snap.Version()%2 == 1 {
					errCh <- "new-model answer from old-model snapshot"
					return
				}
			}
		}()
	}

	// Alternate catalogs through repeated publishes under the readers.
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			store.set(newCatalog, nil)
		} else {
			store.set(oldCatalog, nil)
		}
		if err := c.Rebuild(context.Background()); err != nil {
			t.Fatalf("rebuild %d error = %v", i, err)
		}
	}

	stop.Store(true)
	wg.Wait()
	close(errCh)
	for msg := range errCh {
		t.Error(msg)
	}
}
