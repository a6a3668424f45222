package storage

import (
	"errors"
	"fmt"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// Catalog errors. Backends wrap these so callers can use errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// Storage defines the interface for the documentation catalog
type Storage interface {
	// Documentation operations
	CreateDoc(doc *models.StoredDoc) error
	GetDoc(id string) (*models.StoredDoc, error)
	GetDocByName(name string) (*models.StoredDoc, error)
	GetAllDocs() ([]*models.StoredDoc, error)
	UpdateDoc(doc *models.StoredDoc) error
	DeleteDoc(id string) error

	// Utility
	Close() error
}

// Storage types
const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeSQLite = "sqlite"
)

// Open creates the storage backend named by kind. For file storage path is
// a directory; for sqlite it is the database file.
func Open(kind, path string) (Storage, error) {
	switch kind {
	case "", TypeMemory:
		return NewMemoryStorage(), nil
	case TypeFile:
		return NewFileStorage(path)
	case TypeSQLite:
		return NewSQLiteStorage(path)
	}
	return nil, fmt.Errorf("unknown storage type %q (want memory, file or sqlite)", kind)
}
