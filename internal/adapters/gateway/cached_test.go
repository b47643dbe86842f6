package gateway_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angrychow/train-ticket/internal/adapters/gateway"
	"github.com/angrychow/train-ticket/internal/core/domain"
	"github.com/angrychow/train-ticket/internal/core/ports"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// countingGateway resolves station ids and counts lookups.
type countingGateway struct {
	ports.Gateway
	lookups int
}

func (g *countingGateway) ResolveStationID(ctx context.Context, name string) (string, error) {
	g.lookups++
	if name == "nowhere" {
		return "", domain.ErrNotFound
	}
	return "id-" + name, nil
}

func TestCachedGateway_ResolveStationID(t *testing.T) {
	next := &countingGateway{}
	cache := newMemCache()
	g := gateway.NewCached(next, cache, 60)

	for i := 0; i < 3; i++ {
		id, err := g.ResolveStationID(context.Background(), "suzhou")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "id-suzhou" {
			t.Errorf("expected id-suzhou, got %s", id)
		}
	}
	if next.lookups != 1 {
		t.Errorf("expected 1 downstream lookup, got %d", next.lookups)
	}

	if err := g.HandleStationEvent(context.Background(), &domain.StationEvent{Type: "updated", Name: "suzhou"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.ResolveStationID(context.Background(), "suzhou"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.lookups != 2 {
		t.Errorf("expected a fresh lookup after eviction, got %d", next.lookups)
	}
}

func TestCachedGateway_ErrorsNotCached(t *testing.T) {
	next := &countingGateway{}
	cache := newMemCache()
	g := gateway.NewCached(next, cache, 60)

	for i := 0; i < 2; i++ {
		if _, err := g.ResolveStationID(context.Background(), "nowhere"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if next.lookups != 2 {
		t.Errorf("expected failed lookups to be retried, got %d", next.lookups)
	}
	if _, ok := cache.data[gateway.StationKey("nowhere")]; ok {
		t.Error("failed lookup must not be cached")
	}
}
