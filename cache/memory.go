// Package cache provides caching implementations for Custodian permission decisions.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/labfoundry/custodian"
)

// Compile-time interface check.
var _ custodian.Cache = (*Memory)(nil)

// Memory is an in-memory LRU-like cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	result    *custodian.PermissionResult
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached permission decision.
func (m *Memory) Get(_ context.Context, req *custodian.PermissionContext) (*custodian.PermissionResult, bool) {
	key := cacheKey(req)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.result, true
}

// Set stores a permission decision in the cache.
func (m *Memory) Set(_ context.Context, req *custodian.PermissionContext, result *custodian.PermissionResult) {
	key := cacheKey(req)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			// Evict oldest entry.
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		result:    result,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateLab removes all cached decisions for a lab.
func (m *Memory) InvalidateLab(_ context.Context, labID string) {
	prefix := labID + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
}

// InvalidateUser removes all cached decisions for a user within a lab.
func (m *Memory) InvalidateUser(_ context.Context, labID, userID string) {
	userKey := fmt.Sprintf("%s:%s:", labID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) >= len(userKey) && k[:len(userKey)] == userKey {
			delete(m.entries, k)
		}
	}
}

func cacheKey(req *custodian.PermissionContext) string {
	// ResourceSpecific changes which layers may run, so requests that
	// differ only in that flag must never share a decision.
	return fmt.Sprintf("%s:%s:%s:%s:%s:%t",
		req.LabID,
		req.UserID,
		req.EntityType,
		req.EntityID,
		req.Action,
		req.ResourceSpecific,
	)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
