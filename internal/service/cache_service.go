package service

import (
	"strconv"
	"sync"
	"time"

	"github.com/ignatzorin/musicstore-support/internal/goroutine"
)

// CacheService — потокобезопасный in-memory кэш с TTL.
// Используется для редко меняющихся выборок каталога.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кэш и запускает фоновую чистку.
func NewCacheService() *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
	}

	goroutine.SafeGo(cs.cleanup)

	return cs
}

// Get возвращает значение из кэша.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists {
		return nil, false
	}

	// Просроченные записи удалит cleanup.
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.data, true
}

// Set сохраняет значение с TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete удаляет ключ.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix удаляет все ключи с данным префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(cs.cache, key)
		}
	}
}

// InvalidateCustomerCache сбрасывает кэшированные выборки покупателя.
// Вызывается после покупки: история и рекомендации устарели.
func (cs *CacheService) InvalidateCustomerCache(customerID int64) {
	cs.InvalidateByPrefix("recommendations:" + strconv.FormatInt(customerID, 10))
	// Покупка меняет и счётчики популярности.
	cs.InvalidateByPrefix(PopularTracksCacheKey())
}

// cleanup периодически удаляет просроченные записи.
func (cs *CacheService) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cs.mu.Lock()
		now := time.Now()
		for key, entry := range cs.cache {
			if now.After(entry.expiresAt) {
				delete(cs.cache, key)
			}
		}
		cs.mu.Unlock()
	}
}

// Генераторы ключей кэша
func GenresCacheKey() string {
	return "catalog:genres"
}

func PopularTracksCacheKey() string {
	return "catalog:popular"
}

func RecommendationsCacheKey(customerID int64, limit int) string {
	return "recommendations:" + strconv.FormatInt(customerID, 10) + ":" + strconv.Itoa(limit)
}

// GetOrSet возвращает значение из кэша либо вычисляет и сохраняет его.
func (cs *CacheService) GetOrSet(
	key string,
	ttl time.Duration,
	fn func() (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	cs.Set(key, value, ttl)

	return value, nil
}
