package ftl

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itsatony/go-cuserr"
)

// StoredDocument is a named source document held by a DocumentStore.
type StoredDocument struct {
	// Name is the lookup key.
	Name string `json:"name" yaml:"name"`

	// Source is the raw markup.
	Source string `json:"source" yaml:"-"`

	// Metadata contains arbitrary key-value pairs for user-defined data.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// CreatedAt is set by the store on first Put.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is set by the store on every Put.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// DocumentStore is the interface for pluggable document backends.
// Implementations must be safe for concurrent use.
type DocumentStore interface {
	// Get retrieves a document by name.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	Get(ctx context.Context, name string) (*StoredDocument, error)

	// Put creates or replaces a document. CreatedAt and UpdatedAt are set
	// by the store and written back to doc.
	Put(ctx context.Context, doc *StoredDocument) error

	// Delete removes a document.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	Delete(ctx context.Context, name string) error

	// List returns all documents ordered by name.
	List(ctx context.Context) ([]*StoredDocument, error)

	// Exists checks if a document with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Close releases any resources held by the store.
	// After Close, every operation fails with ErrStoreClosed.
	Close() error
}

// StoreDriver is a factory for document stores.
// Drivers register themselves during init().
type StoreDriver interface {
	// Open creates a store from a driver-specific connection string.
	Open(dsn string) (DocumentStore, error)
}

// Store driver names
const (
	StoreDriverMemory     = "memory"
	StoreDriverFilesystem = "filesystem"
	StoreDriverPostgres   = "postgres"
)

// Store error message constants
const (
	ErrMsgNilStoreDriver          = "store driver is nil"
	ErrMsgDriverAlreadyRegistered = "store driver already registered"
)

// ErrInvalidDocumentName reports a name no store accepts.
var ErrInvalidDocumentName = errors.New(ErrMsgInvalidDocName)

// Store driver registry
var (
	storeDriversMu sync.RWMutex
	storeDrivers   = make(map[string]StoreDriver)
)

// RegisterStoreDriver registers a store driver by name.
// Panics if the driver is nil or the name is taken.
func RegisterStoreDriver(name string, driver StoreDriver) {
	storeDriversMu.Lock()
	defer storeDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStoreDriver)
	}
	if _, exists := storeDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storeDrivers[name] = driver
}

// OpenStore opens a document store using the named driver.
//
// Example:
//
//	store, err := ftl.OpenStore("memory", "")
//	store, err := ftl.OpenStore("filesystem", "/path/to/documents")
func OpenStore(driver, dsn string) (DocumentStore, error) {
	storeDriversMu.RLock()
	d, ok := storeDrivers[driver]
	storeDriversMu.RUnlock()

	if !ok {
		return nil, NewUnknownDriverError(driver)
	}
	return d.Open(dsn)
}

// ListStoreDrivers returns the sorted names of all registered drivers.
func ListStoreDrivers() []string {
	storeDriversMu.RLock()
	defer storeDriversMu.RUnlock()

	names := make([]string, 0, len(storeDrivers))
	for name := range storeDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDocumentName accepts names made of letters, digits, '_', '-' and
// '.', not starting with '.'.
func ValidateDocumentName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") {
		return NewInvalidDocumentNameError(name)
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '_', ch == '-', ch == '.':
		default:
			return NewInvalidDocumentNameError(name)
		}
	}
	return nil
}

// NewInvalidDocumentNameError creates an error for an unusable document name.
func NewInvalidDocumentNameError(name string) error {
	return cuserr.WrapStdError(ErrInvalidDocumentName, ErrCodeStore, ErrMsgInvalidDocName).
		WithMetadata(MetaKeyDocument, name)
}

// NewStoreClosedError creates an error for operations on a closed store.
func NewStoreClosedError() error {
	return cuserr.WrapStdError(ErrStoreClosed, ErrCodeStore, ErrMsgStoreClosed)
}

// copyDocument returns a deep copy of doc.
func copyDocument(doc *StoredDocument) *StoredDocument {
	if doc == nil {
		return nil
	}
	cp := *doc
	cp.Metadata = copyStringMap(doc.Metadata)
	return &cp
}

// copyStringMap returns a copy of m, nil for nil.
func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
