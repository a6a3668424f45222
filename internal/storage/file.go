package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// FileStorage implements Storage interface with one JSON file per doc
type FileStorage struct {
	mu       sync.RWMutex
	basePath string
	memory   *MemoryStorage
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(basePath string) (*FileStorage, error) {
	dir := filepath.Join(basePath, "docs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}

	// Load existing data
	if err := fs.loadAll(); err != nil {
		return nil, err
	}

	return fs, nil
}

// loadAll loads all docs from disk. Unreadable files are skipped.
func (f *FileStorage) loadAll() error {
	docsDir := filepath.Join(f.basePath, "docs")
	entries, err := os.ReadDir(docsDir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(docsDir, entry.Name()))
		if err != nil {
			continue
		}

		var doc models.StoredDoc
		if err := json.Unmarshal(data, &doc); err != nil || doc.ID == "" {
			continue
		}

		f.memory.docs[doc.ID] = &doc
	}

	return nil
}

func (f *FileStorage) docPath(id string) string {
	return filepath.Join(f.basePath, "docs", id+".json")
}

// saveDoc writes a doc to disk via a temporary file
func (f *FileStorage) saveDoc(doc *models.StoredDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	path := f.docPath(doc.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// CreateDoc creates a new doc
func (f *FileStorage) CreateDoc(doc *models.StoredDoc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateDoc(doc); err != nil {
		return err
	}

	if err := f.saveDoc(doc); err != nil {
		_ = f.memory.DeleteDoc(doc.ID)
		return fmt.Errorf("failed to save doc %s: %w", doc.ID, err)
	}
	return nil
}

// GetDoc retrieves a doc by ID
func (f *FileStorage) GetDoc(id string) (*models.StoredDoc, error) {
	return f.memory.GetDoc(id)
}

// GetDocByName retrieves a doc by name
func (f *FileStorage) GetDocByName(name string) (*models.StoredDoc, error) {
	return f.memory.GetDocByName(name)
}

// GetAllDocs retrieves all docs
func (f *FileStorage) GetAllDocs() ([]*models.StoredDoc, error) {
	return f.memory.GetAllDocs()
}

// UpdateDoc updates a doc
func (f *FileStorage) UpdateDoc(doc *models.StoredDoc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, err := f.memory.GetDoc(doc.ID)
	if err != nil {
		return err
	}
	if err := f.memory.UpdateDoc(doc); err != nil {
		return err
	}

	if err := f.saveDoc(doc); err != nil {
		_ = f.memory.UpdateDoc(previous)
		return fmt.Errorf("failed to save doc %s: %w", doc.ID, err)
	}
	return nil
}

// DeleteDoc deletes a doc
func (f *FileStorage) DeleteDoc(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteDoc(id); err != nil {
		return err
	}

	if err := os.Remove(f.docPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}
