package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// MemoryStorage implements Storage interface with in-memory storage. Records
// are copied on the way in and out, so callers never share a stored value.
type MemoryStorage struct {
	mu   sync.RWMutex
	docs map[string]*models.StoredDoc
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		docs: make(map[string]*models.StoredDoc),
	}
}

// CreateDoc registers a new documentation set. IDs and names are unique.
func (m *MemoryStorage) CreateDoc(doc *models.StoredDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[doc.ID]; exists {
		return fmt.Errorf("doc with ID %s: %w", doc.ID, ErrExists)
	}
	if m.findByName(doc.Name) != nil {
		return fmt.Errorf("doc named %q: %w", doc.Name, ErrExists)
	}

	m.docs[doc.ID] = cloneDoc(doc)
	return nil
}

// GetDoc retrieves a doc by ID
func (m *MemoryStorage) GetDoc(id string) (*models.StoredDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[id]
	if !exists {
		return nil, fmt.Errorf("doc %s: %w", id, ErrNotFound)
	}

	return cloneDoc(doc), nil
}

// GetDocByName retrieves a doc by its unique name
func (m *MemoryStorage) GetDocByName(name string) (*models.StoredDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if doc := m.findByName(name); doc != nil {
		return cloneDoc(doc), nil
	}
	return nil, fmt.Errorf("doc named %q: %w", name, ErrNotFound)
}

func (m *MemoryStorage) findByName(name string) *models.StoredDoc {
	for _, doc := range m.docs {
		if doc.Name == name {
			return doc
		}
	}
	return nil
}

// GetAllDocs retrieves all docs, oldest first
func (m *MemoryStorage) GetAllDocs() ([]*models.StoredDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*models.StoredDoc, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, cloneDoc(doc))
	}

	sortDocs(docs)
	return docs, nil
}

// UpdateDoc replaces a stored doc
func (m *MemoryStorage) UpdateDoc(doc *models.StoredDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[doc.ID]; !exists {
		return fmt.Errorf("doc %s: %w", doc.ID, ErrNotFound)
	}
	for id, other := range m.docs {
		if id != doc.ID && other.Name == doc.Name {
			return fmt.Errorf("doc named %q: %w", doc.Name, ErrExists)
		}
	}

	m.docs[doc.ID] = cloneDoc(doc)
	return nil
}

// DeleteDoc deletes a doc
func (m *MemoryStorage) DeleteDoc(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[id]; !exists {
		return fmt.Errorf("doc %s: %w", id, ErrNotFound)
	}

	delete(m.docs, id)
	return nil
}

// Close closes the storage (no-op for memory storage)
func (m *MemoryStorage) Close() error {
	return nil
}

// cloneDoc copies the record. Documentation is replaced wholesale on update
// and never edited in place, so the tree itself is shared.
func cloneDoc(doc *models.StoredDoc) *models.StoredDoc {
	c := *doc
	return &c
}

// sortDocs orders docs by creation time, then name
func sortDocs(docs []*models.StoredDoc) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].Name < docs[j].Name
	})
}
