package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Mirror is a disposable SQLite copy of every table, rebuilt from the JSON
// documents on Sync. The JSON documents stay the source of truth.
type Mirror struct {
	path  string
	store *Store
}

// SyncResult reports what a Sync rebuilt.
type SyncResult struct {
	Path    string `json:"path"`
	Tables  int    `json:"tables"`
	Records int    `json:"records"`
	Action  string `json:"action"` // "rebuilt" or "skipped"
}

// QueryResult holds the columns and rows of a mirror query.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewMirror returns a mirror stored at path, built from s.
func NewMirror(path string, s *Store) *Mirror {
	return &Mirror{path: path, store: s}
}

// Path returns the path to the SQLite database.
func (m *Mirror) Path() string {
	return m.path
}

// openStoreDB opens a SQLite database.
func openStoreDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	return db, nil
}

// quoteIdent quotes an identifier for SQLite.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqliteType maps ColumnType to SQLite type.
func sqliteType(ct ColumnType) string {
	switch ct {
	case TypeInt, TypeBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// GenerateDDL generates a CREATE TABLE statement from a schema.
func GenerateDDL(table string, schema *Schema) string {
	var cols []string
	for _, col := range schema.Columns() {
		def := fmt.Sprintf("%s %s", quoteIdent(col.Name), sqliteType(col.Type))
		if col.Name == IDColumn {
			def += " PRIMARY KEY"
		}
		cols = append(cols, def)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", quoteIdent(table), strings.Join(cols, ",\n  "))
}

// GenerateMetaTableDDL generates the _meta table DDL.
func GenerateMetaTableDDL() string {
	return `CREATE TABLE IF NOT EXISTS _meta (
  key TEXT PRIMARY KEY,
  value TEXT
)`
}

// convertValueForSQLite converts a Value to a SQLite-compatible value.
func convertValueForSQLite(v Value) any {
	if b, ok := v.AsBool(); ok {
		if b {
			return 1
		}
		return 0
	}
	return v.Any()
}

// NeedsSync returns true if the mirror is missing or older than the documents.
func (m *Mirror) NeedsSync() (bool, error) {
	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		return true, nil
	}

	catalog, err := m.loadCatalog()
	if err != nil {
		return true, err
	}
	currentHash, err := m.store.Hash(catalog)
	if err != nil {
		return true, err
	}

	db, err := openStoreDB(m.path)
	if err != nil {
		return true, err
	}
	defer db.Close()

	storedHash, err := getMeta(db, "docs_hash")
	if err != nil {
		return true, err
	}

	return currentHash != storedHash, nil
}

// loadCatalog loads the catalog, mirroring a corrupt one as empty.
func (m *Mirror) loadCatalog() (*Catalog, error) {
	catalog, err := m.store.LoadCatalog()
	if errors.Is(err, ErrDocumentCorrupt) {
		slog.Warn("mirroring corrupt catalog as empty", "error", err)
		return catalog, nil
	}
	return catalog, err
}

// Sync rebuilds the mirror from the catalog and table documents.
// Unless force is set, an up-to-date mirror is left alone.
func (m *Mirror) Sync(force bool) (*SyncResult, error) {
	result := &SyncResult{Path: m.path, Action: "skipped"}

	if !force {
		stale, err := m.NeedsSync()
		if err != nil {
			return nil, err
		}
		if !stale {
			return result, nil
		}
	}

	catalog, err := m.loadCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	hash, err := m.store.Hash(catalog)
	if err != nil {
		return nil, fmt.Errorf("computing hash: %w", err)
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing old mirror: %w", err)
	}
	if err := os.MkdirAll(m.store.TablesDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	db, err := openStoreDB(m.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.Exec(GenerateMetaTableDDL()); err != nil {
		return nil, fmt.Errorf("creating meta table: %w", err)
	}

	for name := range catalog.Tables() {
		schema, err := catalog.Schema(name)
		if err != nil {
			return nil, err
		}
		records, err := m.store.LoadTable(name)
		if errors.Is(err, ErrDocumentCorrupt) {
			slog.Warn("mirroring corrupt table as empty", "table", name, "error", err)
			err = nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading table %s: %w", name, err)
		}
		if err := rebuildTable(db, name, schema, records); err != nil {
			return nil, fmt.Errorf("rebuilding table %s: %w", name, err)
		}
		result.Tables++
		result.Records += len(records)
	}

	if err := setMeta(db, "docs_hash", hash); err != nil {
		return nil, fmt.Errorf("updating hash: %w", err)
	}
	if err := setMeta(db, "last_sync", time.Now().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("updating sync time: %w", err)
	}

	result.Action = "rebuilt"
	slog.Debug("rebuilt mirror", "path", m.path, "tables", result.Tables, "records", result.Records)
	return result, nil
}

// rebuildTable creates one table and inserts its records in a transaction.
func rebuildTable(db *sql.DB, name string, schema *Schema, records []Record) error {
	if _, err := db.Exec(GenerateDDL(name, schema)); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	cols := schema.Columns()
	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		names[i] = quoteIdent(col.Name)
		placeholders[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "))

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, record := range records {
		values := make([]any, len(cols))
		for j, col := range cols {
			values[j] = convertValueForSQLite(record[col.Name])
		}
		if _, err := stmt.Exec(values...); err != nil {
			return fmt.Errorf("inserting record %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// Query executes a SQL query against the mirror.
func (m *Mirror) Query(query string) (*QueryResult, error) {
	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("mirror not built: %s", m.path)
	}

	db, err := openStoreDB(m.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	return result, rows.Err()
}

// LastSync returns the time of the last rebuild, or the zero time if unknown.
func (m *Mirror) LastSync() (time.Time, error) {
	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}

	db, err := openStoreDB(m.path)
	if err != nil {
		return time.Time{}, err
	}
	defer db.Close()

	value, err := getMeta(db, "last_sync")
	if err != nil || value == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// getMeta retrieves a value from the _meta table.
func getMeta(db *sql.DB, key string) (string, error) {
	var value sql.NullString
	err := db.QueryRow("SELECT value FROM _meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// setMeta stores a value in the _meta table.
func setMeta(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`, key, value)
	return err
}
