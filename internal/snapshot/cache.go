package snapshot

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hassbridge/hassbridge-core/internal/hass"
)

// Fetcher is the upstream boundary the cache fills from. *hass.Client
// satisfies it.
type Fetcher interface {
	States(ctx context.Context) ([]hass.Entity, error)
	Devices(ctx context.Context) ([]hass.Device, error)
	Areas(ctx context.Context) ([]hass.Area, error)
	Floors(ctx context.Context) ([]hass.Floor, error)
	Labels(ctx context.Context) ([]hass.Label, error)
	IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error)
	ServicesRaw(ctx context.Context) (json.RawMessage, error)
}

// Logger defines the logging interface used by the cache.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

const (
	keyEntities = "entities"
	keyDevices  = "devices"
	keyAreas    = "areas"
	keyFloors   = "floors"
	keyLabels   = "labels"
	keyServices = "services"

	keyIntegrationPrefix = "integration:"
)

// Cache is a TTL cache over the upstream collections.
type Cache struct {
	fetcher Fetcher
	logger  Logger
	ttl     time.Duration

	// mu serializes fills so concurrent misses do not stampede upstream.
	mu  sync.Mutex
	lru *expirable.LRU[string, any]
}

// New creates a Cache holding at most capacity collections, each expiring
// after ttl.
func New(fetcher Fetcher, capacity int, ttl time.Duration) *Cache {
	if capacity < 8 {
		capacity = 8
	}
	return &Cache{
		fetcher: fetcher,
		logger:  noopLogger{},
		ttl:     ttl,
		lru:     expirable.NewLRU[string, any](capacity, nil, ttl),
	}
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// Entities returns the cached entity snapshot, filling it on miss.
func (c *Cache) Entities(ctx context.Context) ([]hass.Entity, error) {
	v, err := c.fill(keyEntities, func() (any, error) {
		return c.fetcher.States(ctx)
	})
	if err != nil {
		return nil, err
	}
	return copySlice(v.([]hass.Entity)), nil
}

// Devices returns the cached device snapshot, filling it on miss.
func (c *Cache) Devices(ctx context.Context) ([]hass.Device, error) {
	v, err := c.fill(keyDevices, func() (any, error) {
		return c.fetcher.Devices(ctx)
	})
	if err != nil {
		return nil, err
	}
	return copySlice(v.([]hass.Device)), nil
}

// Areas returns the cached area snapshot, filling it on miss.
func (c *Cache) Areas(ctx context.Context) ([]hass.Area, error) {
	v, err := c.fill(keyAreas, func() (any, error) {
		return c.fetcher.Areas(ctx)
	})
	if err != nil {
		return nil, err
	}
	return copySlice(v.([]hass.Area)), nil
}

// Floors returns the cached floor snapshot, filling it on miss.
func (c *Cache) Floors(ctx context.Context) ([]hass.Floor, error) {
	v, err := c.fill(keyFloors, func() (any, error) {
		return c.fetcher.Floors(ctx)
	})
	if err != nil {
		return nil, err
	}
	return copySlice(v.([]hass.Floor)), nil
}

// Labels returns the cached label snapshot, filling it on miss.
func (c *Cache) Labels(ctx context.Context) ([]hass.Label, error) {
	v, err := c.fill(keyLabels, func() (any, error) {
		return c.fetcher.Labels(ctx)
	})
	if err != nil {
		return nil, err
	}
	return copySlice(v.([]hass.Label)), nil
}

// IntegrationEntityIDs returns the cached entity IDs for an integration.
func (c *Cache) IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error) {
	v, err := c.fill(keyIntegrationPrefix+integration, func() (any, error) {
		return c.fetcher.IntegrationEntityIDs(ctx, integration)
	})
	if err != nil {
		return nil, err
	}
	return copySlice(v.([]string)), nil
}

// ServicesRaw returns the cached raw service schema document.
func (c *Cache) ServicesRaw(ctx context.Context) (json.RawMessage, error) {
	v, err := c.fill(keyServices, func() (any, error) {
		return c.fetcher.ServicesRaw(ctx)
	})
	if err != nil {
		return nil, err
	}
	raw := v.(json.RawMessage)
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, nil
}

// Invalidate drops every cached collection so the next read refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.logger.Debug("snapshot cache invalidated")
}

// Status describes the live cache content for the operational API.
type Status struct {
	CachedKeys []string      `json:"cached_keys"`
	TTL        time.Duration `json:"ttl"`
}

// Status reports which collections are currently cached.
func (c *Cache) Status() Status {
	return Status{CachedKeys: c.lru.Keys(), TTL: c.ttl}
}

// fill returns the cached value for key, invoking fetch on a miss. Fetch
// failures are never cached.
func (c *Cache) fill(key string, fetch func() (any, error)) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	v, err := fetch()
	if err != nil {
		c.logger.Warn("snapshot fetch failed", "collection", key, "error", err)
		return nil, err
	}
	c.lru.Add(key, v)
	c.logger.Debug("snapshot cached", "collection", key)
	return v, nil
}

func copySlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
