package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hassbridge/hassbridge-core/internal/hass"
)

type mockFetcher struct {
	statesCalls int
	statesErr   error

	integrationCalls map[string]int
}

func (m *mockFetcher) States(ctx context.Context) ([]hass.Entity, error) {
	m.statesCalls++
	if m.statesErr != nil {
		return nil, m.statesErr
	}
	return []hass.Entity{{EntityID: "light.kitchen"}}, nil
}

func (m *mockFetcher) Devices(ctx context.Context) ([]hass.Device, error) {
	return []hass.Device{{ID: "dev-1"}}, nil
}

func (m *mockFetcher) Areas(ctx context.Context) ([]hass.Area, error) {
	return []hass.Area{{ID: "kitchen"}}, nil
}

func (m *mockFetcher) Floors(ctx context.Context) ([]hass.Floor, error) {
	return []hass.Floor{{ID: "ground"}}, nil
}

func (m *mockFetcher) Labels(ctx context.Context) ([]hass.Label, error) {
	return []hass.Label{{ID: "mood"}}, nil
}

func (m *mockFetcher) IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error) {
	if m.integrationCalls == nil {
		m.integrationCalls = make(map[string]int)
	}
	m.integrationCalls[integration]++
	return []string{"light.kitchen"}, nil
}

func (m *mockFetcher) ServicesRaw(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"light":{}}`), nil
}

func TestCacheServesRepeatReadsFromSnapshot(t *testing.T) {
	f := &mockFetcher{}
	c := New(f, 32, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Entities(ctx); err != nil {
			t.Fatalf("Entities: %v", err)
		}
	}
	if f.statesCalls != 1 {
		t.Errorf("upstream called %d times, want 1", f.statesCalls)
	}
}

func TestCacheFailureNotCached(t *testing.T) {
	f := &mockFetcher{statesErr: errors.New("unreachable")}
	c := New(f, 32, time.Minute)
	ctx := context.Background()

	if _, err := c.Entities(ctx); err == nil {
		t.Fatal("expected fetch error")
	}
	f.statesErr = nil
	if _, err := c.Entities(ctx); err != nil {
		t.Fatalf("recovered fetch failed: %v", err)
	}
	if f.statesCalls != 2 {
		t.Errorf("upstream called %d times, want 2 (failure must not be cached)", f.statesCalls)
	}
}

func TestCacheReturnsIndependentSlices(t *testing.T) {
	c := New(&mockFetcher{}, 32, time.Minute)
	ctx := context.Background()

	first, _ := c.Entities(ctx)
	first[0].EntityID = "mutated"

	second, _ := c.Entities(ctx)
	if second[0].EntityID != "light.kitchen" {
		t.Error("caller mutation leaked into the cached snapshot")
	}
}

func TestCacheIntegrationKeysAreIndependent(t *testing.T) {
	f := &mockFetcher{}
	c := New(f, 32, time.Minute)
	ctx := context.Background()

	c.IntegrationEntityIDs(ctx, "hue")
	c.IntegrationEntityIDs(ctx, "hue")
	c.IntegrationEntityIDs(ctx, "kasa")

	if f.integrationCalls["hue"] != 1 || f.integrationCalls["kasa"] != 1 {
		t.Errorf("integration fetch counts = %v, want one each", f.integrationCalls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	f := &mockFetcher{}
	c := New(f, 32, time.Minute)
	ctx := context.Background()

	c.Entities(ctx)
	c.Invalidate()
	c.Entities(ctx)

	if f.statesCalls != 2 {
		t.Errorf("upstream called %d times, want refetch after invalidate", f.statesCalls)
	}
	if got := len(c.Status().CachedKeys); got != 1 {
		t.Errorf("status reports %d keys, want 1", got)
	}
}
