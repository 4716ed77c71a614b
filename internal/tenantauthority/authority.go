// Package tenantauthority is the read path to the tenant orchestrator:
// it answers "does this tenant exist, and is it ACTIVE" for every
// other component without every caller re-implementing the HTTP call,
// caching, or failure isolation. Each lookup is a single attempt; the
// client does not retry.
package tenantauthority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// defaultCacheTTL is deliberately small, seconds rather than minutes,
// so a tenant suspension propagates to the gateway's fast path quickly
// without a cache invalidation channel.
const defaultCacheTTL = 5 * time.Second

type cacheEntry struct {
	record    *tenant.Record
	realm     string
	fetchedAt time.Time
}

func (e cacheEntry) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.fetchedAt) > ttl
}

// Client queries the orchestrator's read endpoints, protected by a
// circuit breaker and a short-lived per-instance cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitBreaker
	ttl        time.Duration

	mu    sync.Mutex
	cache map[tenant.ID]cacheEntry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCacheTTL overrides defaultCacheTTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithCircuitBreaker overrides the default failure/success thresholds
// and recovery timeout.
func WithCircuitBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) Option {
	return func(c *Client) {
		c.breaker = newCircuitBreaker(failureThreshold, successThreshold, recoveryTimeout)
	}
}

// NewClient builds a Client against the orchestrator's base URL
// (e.g. "http://orchestrator.internal:8080").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 3 * time.Second},
		breaker:    newCircuitBreaker(0, 0, 0),
		ttl:        defaultCacheTTL,
		cache:      make(map[tenant.ID]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTenant fetches the tenant record, preferring the cache when it is
// fresh. A tenant that does not exist is reported as (nil, nil), never
// as an error — callers check for nil rather than unwrapping an error
// to tell "unknown tenant" apart from a transport failure.
func (c *Client) GetTenant(ctx context.Context, id tenant.ID) (*tenant.Record, error) {
	if entry, ok := c.cached(id); ok {
		return entry.record, nil
	}

	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	record, found, err := c.fetchTenant(ctx, id)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	c.breaker.RecordSuccess()

	c.store(id, func(e *cacheEntry) {
		if found {
			e.record = record
		} else {
			e.record = nil
		}
	})

	if !found {
		return nil, nil
	}
	return record, nil
}

// GetRealm returns the tenant's effective realm name, or "" if the
// tenant does not exist.
func (c *Client) GetRealm(ctx context.Context, id tenant.ID) (string, error) {
	record, err := c.GetTenant(ctx, id)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	return record.Realm(), nil
}

func (c *Client) cached(id tenant.ID) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[id]
	if !ok || entry.expired(c.ttl, time.Now()) {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *Client) store(id tenant.ID, mutate func(*cacheEntry)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.cache[id]
	mutate(&entry)
	entry.fetchedAt = time.Now()
	c.cache[id] = entry
}

func (c *Client) fetchTenant(ctx context.Context, id tenant.ID) (*tenant.Record, bool, error) {
	url := fmt.Sprintf("%s/tenants/%s", c.baseURL, id.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrOrchestratorUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrOrchestratorUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record tenant.Record
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, false, fmt.Errorf("%w: decode: %w", ErrOrchestratorUnavailable, err)
		}
		return &record, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: status %d", ErrOrchestratorUnavailable, resp.StatusCode)
	}
}

// Invalidate drops any cached entry for id, forcing the next call to
// hit the orchestrator.
func (c *Client) Invalidate(id tenant.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, id)
}
