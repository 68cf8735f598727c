package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store locates the catalog document and the per-table record documents.
// It holds no table contents: every Load reads from disk.
type Store struct {
	catalogPath string
	tablesDir   string
}

// New returns a Store using the given catalog file and table directory.
// The table directory is created lazily on the first table write.
func New(catalogPath, tablesDir string) *Store {
	return &Store{catalogPath: catalogPath, tablesDir: tablesDir}
}

// CatalogPath returns the path to the catalog document.
func (s *Store) CatalogPath() string {
	return s.catalogPath
}

// TablesDir returns the directory holding table documents.
func (s *Store) TablesDir() string {
	return s.tablesDir
}

// TablePath returns the path to a table's document.
func (s *Store) TablePath(name string) string {
	return filepath.Join(s.tablesDir, name+".json")
}

// LoadCatalog reads the catalog.
// A missing catalog is empty. A corrupt catalog is also returned empty, together
// with an error wrapping ErrDocumentCorrupt that callers report as a warning.
func (s *Store) LoadCatalog() (*Catalog, error) {
	catalog := NewCatalog()
	err := readDocument(s.catalogPath, catalog)
	switch {
	case err == nil:
		return catalog, nil
	case errors.Is(err, ErrDocumentNotFound):
		return NewCatalog(), nil
	case errors.Is(err, ErrDocumentCorrupt):
		return NewCatalog(), err
	default:
		return nil, err
	}
}

// SaveCatalog writes the catalog.
func (s *Store) SaveCatalog(c *Catalog) error {
	if err := writeDocument(s.catalogPath, c); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	slog.Debug("saved catalog", "path", s.catalogPath, "tables", c.Len())
	return nil
}

// LoadTable reads a table's records in stored order.
// Missing and corrupt documents follow the same rules as LoadCatalog.
func (s *Store) LoadTable(name string) ([]Record, error) {
	var records []Record
	err := readDocument(s.TablePath(name), &records)
	switch {
	case err == nil:
		return records, nil
	case errors.Is(err, ErrDocumentNotFound):
		return nil, nil
	case errors.Is(err, ErrDocumentCorrupt):
		return nil, err
	default:
		return nil, err
	}
}

// SaveTable writes a table's records.
func (s *Store) SaveTable(name string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	if err := writeDocument(s.TablePath(name), records); err != nil {
		return fmt.Errorf("saving table %s: %w", name, err)
	}
	slog.Debug("saved table", "table", name, "records", len(records))
	return nil
}

// RemoveTable deletes a table's document. A missing document is not an error.
func (s *Store) RemoveTable(name string) error {
	if err := os.Remove(s.TablePath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing table %s: %w", name, err)
	}
	return nil
}

// TableSize returns the size in bytes of a table's document, or 0 if it does not exist.
func (s *Store) TableSize(name string) int64 {
	stat, err := os.Stat(s.TablePath(name))
	if err != nil {
		return 0
	}
	return stat.Size()
}

// Hash returns a digest over the catalog and every cataloged table document.
func (s *Store) Hash(c *Catalog) (string, error) {
	paths := []string{s.catalogPath}
	for name := range c.Tables() {
		paths = append(paths, s.TablePath(name))
	}
	return hashFiles(paths...)
}
