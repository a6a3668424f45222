package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// SQLiteStorage implements Storage interface on a SQLite database. The
// documentation tree is stored as a JSON column.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at dsn
func NewSQLiteStorage(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS docs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			documentation TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const docColumns = `id,name,source,documentation,created_at,updated_at`

// CreateDoc creates a new doc
func (s *SQLiteStorage) CreateDoc(doc *models.StoredDoc) error {
	body, err := json.Marshal(doc.Documentation)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO docs(`+docColumns+`) VALUES(?,?,?,?,?,?)`,
		doc.ID, doc.Name, doc.Source, string(body), formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil && isConstraintError(err) {
		return fmt.Errorf("doc %s (%q): %w", doc.ID, doc.Name, ErrExists)
	}
	return err
}

// GetDoc retrieves a doc by ID
func (s *SQLiteStorage) GetDoc(id string) (*models.StoredDoc, error) {
	row := s.db.QueryRow(`SELECT `+docColumns+` FROM docs WHERE id=?`, id)
	doc, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("doc %s: %w", id, ErrNotFound)
	}
	return doc, err
}

// GetDocByName retrieves a doc by name
func (s *SQLiteStorage) GetDocByName(name string) (*models.StoredDoc, error) {
	row := s.db.QueryRow(`SELECT `+docColumns+` FROM docs WHERE name=?`, name)
	doc, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("doc named %q: %w", name, ErrNotFound)
	}
	return doc, err
}

// GetAllDocs retrieves all docs
func (s *SQLiteStorage) GetAllDocs() ([]*models.StoredDoc, error) {
	rows, err := s.db.Query(`SELECT ` + docColumns + ` FROM docs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*models.StoredDoc, 0)
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortDocs(docs)
	return docs, nil
}

// UpdateDoc updates a doc
func (s *SQLiteStorage) UpdateDoc(doc *models.StoredDoc) error {
	body, err := json.Marshal(doc.Documentation)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`UPDATE docs SET name=?, source=?, documentation=?, updated_at=? WHERE id=?`,
		doc.Name, doc.Source, string(body), formatTime(doc.UpdatedAt), doc.ID)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("doc named %q: %w", doc.Name, ErrExists)
		}
		return err
	}
	return expectOneRow(res, doc.ID)
}

// DeleteDoc deletes a doc
func (s *SQLiteStorage) DeleteDoc(id string) error {
	res, err := s.db.Exec(`DELETE FROM docs WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, id)
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoc(row rowScanner) (*models.StoredDoc, error) {
	var (
		doc              models.StoredDoc
		body             string
		created, updated string
	)
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Source, &body, &created, &updated); err != nil {
		return nil, err
	}

	doc.Documentation = &models.Documentation{}
	if err := json.Unmarshal([]byte(body), doc.Documentation); err != nil {
		return nil, fmt.Errorf("doc %s: corrupt documentation column: %w", doc.ID, err)
	}
	doc.CreatedAt = parseTime(created)
	doc.UpdatedAt = parseTime(updated)
	return &doc, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("doc %s: %w", id, ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isConstraintError(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
