package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
)

type memoryEntry struct {
	forward   *model.GeocodeResult
	address   string
	expiresAt time.Time
}

// MemoryGeocodeCacheRepository プロセス内のTTL付きキャッシュ
type MemoryGeocodeCacheRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryGeocodeCacheRepository 新しいメモリキャッシュを作成
func NewMemoryGeocodeCacheRepository(ttl time.Duration) *MemoryGeocodeCacheRepository {
	return &MemoryGeocodeCacheRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func forwardKey(query string) string {
	return "fwd:" + strings.ToLower(strings.TrimSpace(query))
}

func reverseKey(coord model.Coordinate) string {
	return "rev:" + coordinateCacheKey(coord)
}

func (r *MemoryGeocodeCacheRepository) get(key string) (memoryEntry, bool) {
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return memoryEntry{}, false
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.mu.Lock()
		delete(r.entries, key)
		r.mu.Unlock()
		return memoryEntry{}, false
	}
	return entry, true
}

func (r *MemoryGeocodeCacheRepository) set(key string, entry memoryEntry) {
	entry.expiresAt = r.now().Add(r.ttl)
	r.mu.Lock()
	r.entries[key] = entry
	r.mu.Unlock()
}

func (r *MemoryGeocodeCacheRepository) GetForward(ctx context.Context, query string) (*model.GeocodeResult, error) {
	entry, ok := r.get(forwardKey(query))
	if !ok || entry.forward == nil {
		return nil, repository.ErrCacheMiss
	}
	result := *entry.forward
	return &result, nil
}

func (r *MemoryGeocodeCacheRepository) SetForward(ctx context.Context, query string, result *model.GeocodeResult) error {
	if result == nil {
		return nil
	}
	copied := *result
	r.set(forwardKey(query), memoryEntry{forward: &copied})
	return nil
}

func (r *MemoryGeocodeCacheRepository) GetReverse(ctx context.Context, coord model.Coordinate) (string, error) {
	entry, ok := r.get(reverseKey(coord))
	if !ok || entry.address == "" {
		return "", repository.ErrCacheMiss
	}
	return entry.address, nil
}

func (r *MemoryGeocodeCacheRepository) SetReverse(ctx context.Context, coord model.Coordinate, address string) error {
	r.set(reverseKey(coord), memoryEntry{address: address})
	return nil
}
