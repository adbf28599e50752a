package ftl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FilesystemStore keeps each document as a plain source file, with an
// optional YAML sidecar for metadata and timestamps:
//
//	root/
//	  page.ftl        # document source
//	  page.meta.yaml  # metadata, created_at, updated_at
//
// Hand-written .ftl files without a sidecar are served with file times.
type FilesystemStore struct {
	root   string
	mu     sync.RWMutex
	closed bool
}

// Filesystem layout constants
const (
	FilesystemSourceExt   = ".ftl"
	FilesystemMetaExt     = ".meta.yaml"
	FilesystemDirPerms    = 0o755
	FilesystemFilePerms   = 0o644
	ErrMsgEmptyStoreRoot  = "filesystem store root is empty"
	ErrMsgStoreRootNotDir = "filesystem store root is not a directory"
)

// FilesystemStoreDriver opens FilesystemStore instances.
type FilesystemStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverFilesystem, &FilesystemStoreDriver{})
}

// Open creates a FilesystemStore rooted at the connection string.
func (d *FilesystemStoreDriver) Open(dsn string) (DocumentStore, error) {
	return NewFilesystemStore(dsn)
}

// fsMeta is the sidecar file content.
type fsMeta struct {
	Metadata  map[string]string `yaml:"metadata,omitempty"`
	CreatedAt time.Time         `yaml:"created_at"`
	UpdatedAt time.Time         `yaml:"updated_at"`
}

// NewFilesystemStore creates the root directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if root == "" {
		return nil, NewStoreError(ErrMsgEmptyStoreRoot, "", ErrInvalidConfig)
	}
	if err := os.MkdirAll(root, FilesystemDirPerms); err != nil {
		return nil, NewStoreError(ErrMsgStoreFailed, root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, NewStoreError(ErrMsgStoreFailed, root, err)
	}
	if !info.IsDir() {
		return nil, NewStoreError(ErrMsgStoreRootNotDir, root, ErrInvalidConfig)
	}
	return &FilesystemStore{root: root}, nil
}

// Root returns the store directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) sourcePath(name string) string {
	return filepath.Join(s.root, name+FilesystemSourceExt)
}

func (s *FilesystemStore) metaPath(name string) string {
	return filepath.Join(s.root, name+FilesystemMetaExt)
}

// Get retrieves a document by name.
func (s *FilesystemStore) Get(ctx context.Context, name string) (*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateDocumentName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}
	return s.load(name)
}

// load reads a document without locking.
func (s *FilesystemStore) load(name string) (*StoredDocument, error) {
	path := s.sourcePath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewDocumentNotFoundError(name)
		}
		return nil, NewStoreError(ErrMsgStoreFailed, name, err)
	}

	doc := &StoredDocument{Name: name, Source: string(data)}

	meta, err := s.loadMeta(name)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		doc.Metadata = meta.Metadata
		doc.CreatedAt = meta.CreatedAt
		doc.UpdatedAt = meta.UpdatedAt
		return doc, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, NewStoreError(ErrMsgStoreFailed, name, err)
	}
	doc.CreatedAt = info.ModTime()
	doc.UpdatedAt = info.ModTime()
	return doc, nil
}

// loadMeta reads the sidecar; nil when there is none.
func (s *FilesystemStore) loadMeta(name string) (*fsMeta, error) {
	data, err := os.ReadFile(s.metaPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, NewStoreError(ErrMsgStoreFailed, name, err)
	}
	var meta fsMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, NewStoreError(ErrMsgStoreFailed, name, err)
	}
	return &meta, nil
}

// Put writes the source file and its sidecar.
func (s *FilesystemStore) Put(ctx context.Context, doc *StoredDocument) error {
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

	now := time.Now().UTC()
	createdAt := now
	if existing, err := s.load(doc.Name); err == nil {
		createdAt = existing.CreatedAt
	}

	meta := fsMeta{
		Metadata:  copyStringMap(doc.Metadata),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	metaData, err := yaml.Marshal(&meta)
	if err != nil {
		return NewStoreError(ErrMsgStoreFailed, doc.Name, err)
	}

	if err := os.WriteFile(s.sourcePath(doc.Name), []byte(doc.Source), FilesystemFilePerms); err != nil {
		return NewStoreError(ErrMsgStoreFailed, doc.Name, err)
	}
	if err := os.WriteFile(s.metaPath(doc.Name), metaData, FilesystemFilePerms); err != nil {
		return NewStoreError(ErrMsgStoreFailed, doc.Name, err)
	}

	doc.CreatedAt = createdAt
	doc.UpdatedAt = now
	return nil
}

// Delete removes the source file and its sidecar.
func (s *FilesystemStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateDocumentName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}

	if err := os.Remove(s.sourcePath(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocumentNotFoundError(name)
		}
		return NewStoreError(ErrMsgStoreFailed, name, err)
	}
	if err := os.Remove(s.metaPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewStoreError(ErrMsgStoreFailed, name, err)
	}
	return nil
}

// List returns all documents ordered by name.
func (s *FilesystemStore) List(ctx context.Context) ([]*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, NewStoreError(ErrMsgStoreFailed, s.root, err)
	}

	var result []*StoredDocument
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FilesystemSourceExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), FilesystemSourceExt)
		if ValidateDocumentName(name) != nil {
			continue
		}
		doc, err := s.load(name)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Exists checks if a document exists.
func (s *FilesystemStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ValidateDocumentName(name) != nil {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStoreClosedError()
	}

	_, err := os.Stat(s.sourcePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, NewStoreError(ErrMsgStoreFailed, name, err)
	}
	return true, nil
}

// Close marks the store closed. Files are left in place.
func (s *FilesystemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
