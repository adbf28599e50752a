package ftl

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Cache defaults
const (
	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheMaxEntries  = 1000
	DefaultNegativeCacheTTL = 30 * time.Second
)

// CachedStore wraps any DocumentStore with an in-memory cache of Get results.
// Writes through the wrapper invalidate the affected name; writes made to the
// underlying store directly are seen once the entry expires.
type CachedStore struct {
	store  DocumentStore
	config CacheConfig

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	gen    uint64
	closed bool
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached documents remain valid.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of cached names.
	// When exceeded, the least recently used entry is evicted.
	// Default: 1000.
	MaxEntries int

	// NegativeCacheTTL is how long "not found" results are cached.
	// Set to 0 to disable negative caching.
	NegativeCacheTTL time.Duration
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              DefaultCacheTTL,
		MaxEntries:       DefaultCacheMaxEntries,
		NegativeCacheTTL: DefaultNegativeCacheTTL,
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

type cacheEntry struct {
	doc        *StoredDocument
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
}

// NewCachedStore wraps store with caching.
func NewCachedStore(store DocumentStore, config CacheConfig) *CachedStore {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}

	return &CachedStore{
		store:  store,
		config: config,
		cache:  make(map[string]*cacheEntry),
	}
}

// Get retrieves a document, using the cache when available.
func (s *CachedStore) Get(ctx context.Context, name string) (*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStoreClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		entry.accessedAt = time.Now()
		s.mu.Unlock()
		if entry.notFound {
			return nil, NewDocumentNotFoundError(name)
		}
		return copyDocument(entry.doc), nil
	}
	gen := s.gen
	s.mu.Unlock()

	doc, err := s.store.Get(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}
	// An invalidation during the fetch means the result may be stale.
	stale := s.gen != gen
	if err != nil {
		if !stale && s.config.NegativeCacheTTL > 0 && errors.Is(err, ErrDocumentNotFound) {
			s.addEntry(name, nil, true)
		}
		return nil, err
	}

	if !stale {
		s.addEntry(name, copyDocument(doc), false)
	}
	return doc, nil
}

// Put stores a document and invalidates its cache entry.
func (s *CachedStore) Put(ctx context.Context, doc *StoredDocument) error {
	if err := s.store.Put(ctx, doc); err != nil {
		return err
	}
	s.Invalidate(doc.Name)
	return nil
}

// Delete removes a document and invalidates its cache entry.
func (s *CachedStore) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// List bypasses the cache.
func (s *CachedStore) List(ctx context.Context) ([]*StoredDocument, error) {
	return s.store.List(ctx)
}

// Exists answers from a valid cache entry, otherwise from the store.
func (s *CachedStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStoreClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		s.mu.Unlock()
		return !entry.notFound, nil
	}
	s.mu.Unlock()

	return s.store.Exists(ctx, name)
}

// Close drops the cache and closes the underlying store.
func (s *CachedStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cache = nil
	s.mu.Unlock()

	return s.store.Close()
}

// Invalidate removes name from the cache.
func (s *CachedStore) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.gen++
	s.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (s *CachedStore) InvalidateAll() {
	s.mu.Lock()
	if !s.closed {
		s.cache = make(map[string]*cacheEntry)
	}
	s.gen++
	s.mu.Unlock()
}

// Stats returns cache statistics.
func (s *CachedStore) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := CacheStats{Entries: len(s.cache)}
	for _, entry := range s.cache {
		if !s.isValid(entry) {
			continue
		}
		if entry.notFound {
			stats.NegativeEntries++
		} else {
			stats.ValidEntries++
		}
	}
	return stats
}

// isValid reports whether entry is still fresh. Caller must hold the lock.
func (s *CachedStore) isValid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeCacheTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// addEntry caches doc under name, evicting first if full. Caller must hold
// the lock.
func (s *CachedStore) addEntry(name string, doc *StoredDocument, notFound bool) {
	if _, ok := s.cache[name]; !ok && len(s.cache) >= s.config.MaxEntries {
		s.evictOldest()
	}

	now := time.Now()
	s.cache[name] = &cacheEntry{
		doc:        doc,
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
	}
}

// evictOldest removes the least recently accessed entry. Caller must hold
// the lock.
func (s *CachedStore) evictOldest() {
	var (
		oldestName string
		oldest     *cacheEntry
	)
	for name, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldestName, oldest = name, entry
		}
	}
	if oldest != nil {
		delete(s.cache, oldestName)
	}
}
