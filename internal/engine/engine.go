// Package engine runs table commands against the store.
//
// Every operation loads the catalog and the table it touches from disk,
// validates, mutates in memory, and persists before returning. Nothing is
// printed here; callers render the returned results.
package engine

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/matsen/primdb/internal/cache"
	"github.com/matsen/primdb/internal/parser"
	"github.com/matsen/primdb/internal/store"
)

// Engine executes table operations.
type Engine struct {
	store *store.Store
	cache *cache.Cache[*SelectResult]
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the query cache. A nil cache disables caching.
func WithCache(c *cache.Cache[*SelectResult]) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// New returns an engine over s. Conditioned selects are cached unless
// WithCache(nil) is given.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{store: s, cache: cache.New[*SelectResult]()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// CacheStats returns the query cache counters, or false if caching is off.
func (e *Engine) CacheStats() (cache.Stats, bool) {
	if e.cache == nil {
		return cache.Stats{}, false
	}
	return e.cache.Stats(), true
}

// CreateResult reports a created table.
type CreateResult struct {
	Table    string   `json:"table"`
	Columns  []string `json:"columns"`
	Warnings []string `json:"warnings,omitempty"`
}

// DropResult reports a dropped table.
type DropResult struct {
	Table    string   `json:"table"`
	Warnings []string `json:"warnings,omitempty"`
}

// ListResult holds the table names in creation order.
// Tables can be ranged over once.
type ListResult struct {
	Tables   iter.Seq[string] `json:"-"`
	Warnings []string         `json:"warnings,omitempty"`
}

// InsertResult reports the ID given to a new record.
type InsertResult struct {
	Table    string   `json:"table"`
	ID       int64    `json:"id"`
	Warnings []string `json:"warnings,omitempty"`
}

// SelectResult holds the rows of a select.
// Empty means the table had no records at all, before any filtering.
type SelectResult struct {
	Table    string         `json:"table"`
	Columns  []string       `json:"columns"`
	Rows     []store.Record `json:"rows"`
	Where    *parser.Clause `json:"where,omitempty"`
	Empty    bool           `json:"empty"`
	Cached   bool           `json:"cached"`
	Warnings []string       `json:"warnings,omitempty"`
}

// UpdateResult reports how many records an update changed.
type UpdateResult struct {
	Table    string   `json:"table"`
	Updated  int      `json:"updated"`
	Warnings []string `json:"warnings,omitempty"`
}

// DeleteResult reports how many records a delete removed.
type DeleteResult struct {
	Table    string   `json:"table"`
	Deleted  int      `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

// InfoResult describes a table.
type InfoResult struct {
	Table    string   `json:"table"`
	Columns  []string `json:"columns"`
	Records  int      `json:"records"`
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Warnings []string `json:"warnings,omitempty"`
}

// warnings collects document-corruption notices raised while loading.
type warnings []string

// absorb turns a corrupt-document error into a warning and passes anything else through.
func (w *warnings) absorb(err error) error {
	if errors.Is(err, store.ErrDocumentCorrupt) {
		slog.Debug("treating corrupt document as empty", "error", err)
		*w = append(*w, err.Error())
		return nil
	}
	return err
}

func (e *Engine) loadCatalog(w *warnings) (*store.Catalog, error) {
	catalog, err := e.store.LoadCatalog()
	if err := w.absorb(err); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (e *Engine) loadSchema(w *warnings, table string) (*store.Schema, error) {
	catalog, err := e.loadCatalog(w)
	if err != nil {
		return nil, err
	}
	return catalog.Schema(table)
}

func (e *Engine) loadRecords(w *warnings, table string) ([]store.Record, error) {
	records, err := e.store.LoadTable(table)
	if err := w.absorb(err); err != nil {
		return nil, err
	}
	return records, nil
}

func columnNames(schema *store.Schema) []string {
	cols := schema.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func columnSpecs(schema *store.Schema) []string {
	cols := schema.Columns()
	specs := make([]string, len(cols))
	for i, c := range cols {
		specs[i] = c.String()
	}
	return specs
}

// CreateTable registers a table from `name:type` specs and persists the catalog.
func (e *Engine) CreateTable(table string, specs []string) (*CreateResult, error) {
	var w warnings
	catalog, err := e.loadCatalog(&w)
	if err != nil {
		return nil, err
	}

	schema, err := catalog.CreateTable(table, specs)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveCatalog(catalog); err != nil {
		return nil, err
	}

	return &CreateResult{Table: table, Columns: columnSpecs(schema), Warnings: w}, nil
}

// DropTable removes a table from the catalog and deletes its records.
func (e *Engine) DropTable(table string) (*DropResult, error) {
	var w warnings
	catalog, err := e.loadCatalog(&w)
	if err != nil {
		return nil, err
	}

	if err := catalog.DropTable(table); err != nil {
		return nil, err
	}
	if err := e.store.SaveCatalog(catalog); err != nil {
		return nil, err
	}
	if err := e.store.RemoveTable(table); err != nil {
		return nil, err
	}

	return &DropResult{Table: table, Warnings: w}, nil
}

// ListTables returns the table names in creation order.
func (e *Engine) ListTables() (*ListResult, error) {
	var w warnings
	catalog, err := e.loadCatalog(&w)
	if err != nil {
		return nil, err
	}
	return &ListResult{Tables: catalog.Tables(), Warnings: w}, nil
}

// Insert parses a row literal, assigns the next ID, and appends the record.
func (e *Engine) Insert(table, literal string) (*InsertResult, error) {
	var w warnings
	schema, err := e.loadSchema(&w, table)
	if err != nil {
		return nil, err
	}

	raw := parser.ParseRowLiteral(literal)
	if want := len(schema.DataColumns()); len(raw) != want {
		return nil, fmt.Errorf("%w: expected %d, got %d", store.ErrArityMismatch, want, len(raw))
	}

	records, err := e.loadRecords(&w, table)
	if err != nil {
		return nil, err
	}

	record, err := store.NewRecord(schema, records, raw)
	if err != nil {
		return nil, err
	}
	records = append(records, record)

	if err := e.store.SaveTable(table, records); err != nil {
		return nil, err
	}

	id, _ := record.ID()
	return &InsertResult{Table: table, ID: id, Warnings: w}, nil
}

// Select returns the records of a table, filtered by where when it is non-nil.
//
// Conditioned selects go through the query cache. A cache hit returns the rows
// stored by the first identical select, even if the table has changed since.
func (e *Engine) Select(table string, where *parser.Clause) (*SelectResult, error) {
	var w warnings
	schema, err := e.loadSchema(&w, table)
	if err != nil {
		return nil, err
	}

	compute := func() (*SelectResult, error) {
		var cw warnings
		records, err := e.loadRecords(&cw, table)
		if err != nil {
			return nil, err
		}

		result := &SelectResult{
			Table:    table,
			Columns:  columnNames(schema),
			Rows:     []store.Record{},
			Where:    where,
			Empty:    len(records) == 0,
			Warnings: cw,
		}
		if where != nil {
			records = store.Filter(records, where.Column, where.Value)
		}
		for _, r := range records {
			result.Rows = append(result.Rows, r.Clone())
		}
		return result, nil
	}

	if where == nil || e.cache == nil {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		result.Warnings = append(w, result.Warnings...)
		return result, nil
	}

	key := cache.Key{Table: table, Column: where.Column, Value: where.Value}
	stored, hit, err := e.cache.GetOrCompute(key, compute)
	if err != nil {
		return nil, err
	}

	result := *stored
	result.Cached = hit
	result.Warnings = append(w, stored.Warnings...)
	return &result, nil
}

// Update sets a column on every record matching where.
// Nothing is written when no record matched or a value failed to coerce.
func (e *Engine) Update(table string, set, where parser.Clause) (*UpdateResult, error) {
	var w warnings
	schema, err := e.loadSchema(&w, table)
	if err != nil {
		return nil, err
	}
	records, err := e.loadRecords(&w, table)
	if err != nil {
		return nil, err
	}

	updated, err := store.UpdateRecords(schema, records, set.Column, set.Value, where.Column, where.Value)
	if err != nil {
		return nil, err
	}

	if updated > 0 {
		if err := e.store.SaveTable(table, records); err != nil {
			return nil, err
		}
	}

	return &UpdateResult{Table: table, Updated: updated, Warnings: w}, nil
}

// Delete removes every record matching where.
// Nothing is written when no record matched.
func (e *Engine) Delete(table string, where parser.Clause) (*DeleteResult, error) {
	var w warnings
	schema, err := e.loadSchema(&w, table)
	if err != nil {
		return nil, err
	}
	records, err := e.loadRecords(&w, table)
	if err != nil {
		return nil, err
	}

	kept, deleted, err := store.DeleteRecords(schema, records, where.Column, where.Value)
	if err != nil {
		return nil, err
	}

	if deleted > 0 {
		if err := e.store.SaveTable(table, kept); err != nil {
			return nil, err
		}
	}

	return &DeleteResult{Table: table, Deleted: deleted, Warnings: w}, nil
}

// Info describes a table's columns, record count, and document.
func (e *Engine) Info(table string) (*InfoResult, error) {
	var w warnings
	schema, err := e.loadSchema(&w, table)
	if err != nil {
		return nil, err
	}
	records, err := e.loadRecords(&w, table)
	if err != nil {
		return nil, err
	}

	return &InfoResult{
		Table:    table,
		Columns:  columnSpecs(schema),
		Records:  len(records),
		Path:     e.store.TablePath(table),
		Size:     e.store.TableSize(table),
		Warnings: w,
	}, nil
}
