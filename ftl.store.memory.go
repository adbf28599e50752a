package ftl

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory DocumentStore.
// It is primarily intended for testing and development.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]*StoredDocument
	closed bool
}

// MemoryStoreDriver opens MemoryStore instances.
type MemoryStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverMemory, &MemoryStoreDriver{})
}

// Open creates a new MemoryStore. The connection string is ignored.
func (d *MemoryStoreDriver) Open(dsn string) (DocumentStore, error) {
	return NewMemoryStore(), nil
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*StoredDocument),
	}
}

// Get retrieves a document by name.
func (s *MemoryStore) Get(ctx context.Context, name string) (*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}

	doc, ok := s.docs[name]
	if !ok {
		return nil, NewDocumentNotFoundError(name)
	}
	return copyDocument(doc), nil
}

// Put creates or replaces a document.
func (s *MemoryStore) Put(ctx context.Context, doc *StoredDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateDocumentName(doc.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}

	now := time.Now()
	doc.UpdatedAt = now
	if existing, ok := s.docs[doc.Name]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = now
	}

	s.docs[doc.Name] = copyDocument(doc)
	return nil
}

// Delete removes a document.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}

	if _, ok := s.docs[name]; !ok {
		return NewDocumentNotFoundError(name)
	}
	delete(s.docs, name)
	return nil
}

// List returns all documents ordered by name.
func (s *MemoryStore) List(ctx context.Context) ([]*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}

	result := make([]*StoredDocument, 0, len(s.docs))
	for _, doc := range s.docs {
		result = append(result, copyDocument(doc))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Exists checks if a document exists.
func (s *MemoryStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStoreClosedError()
	}

	_, ok := s.docs[name]
	return ok, nil
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.docs = nil
	return nil
}
