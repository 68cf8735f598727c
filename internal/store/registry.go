package store

import (
	"encoding/json"
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Catalog maps table names to schemas, in creation order.
// It is persisted as db_meta.json.
type Catalog struct {
	tables *orderedmap.OrderedMap[string, *Schema]
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: orderedmap.New[string, *Schema]()}
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	return c.tables.Len()
}

// Schema returns the schema of a table.
func (c *Catalog) Schema(name string) (*Schema, error) {
	s, ok := c.tables.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return s, nil
}

// Has reports whether a table exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.tables.Get(name)
	return ok
}

// CreateTable registers a new table from `name:type` specs.
// Validation stops at the first bad spec and leaves the catalog unchanged.
func (c *Catalog) CreateTable(name string, specs []string) (*Schema, error) {
	if c.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrTableExists, name)
	}
	if !validIdentifier.MatchString(name) {
		return nil, fmt.Errorf("%w %q: must be alphanumeric with underscores, starting with letter or underscore", ErrInvalidTableName, name)
	}

	cols := make([]Column, 0, len(specs))
	for _, spec := range specs {
		col, err := ParseColumnSpec(spec)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	schema, err := NewSchema(cols)
	if err != nil {
		return nil, err
	}

	c.tables.Set(name, schema)
	return schema, nil
}

// DropTable removes a table from the catalog.
func (c *Catalog) DropTable(name string) error {
	if _, ok := c.tables.Delete(name); !ok {
		return fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return nil
}

// Tables returns the table names in creation order.
// The sequence is a snapshot and can be ranged over once; later ranges yield nothing.
func (c *Catalog) Tables() iter.Seq[string] {
	names := make([]string, 0, c.tables.Len())
	for pair := c.tables.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}

	consumed := false
	return func(yield func(string) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// MarshalJSON encodes the catalog as `{table: {column: type}}` in creation order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.tables)
}

// UnmarshalJSON decodes `{table: {column: type}}`, keeping document order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	tables := orderedmap.New[string, *Schema]()
	if err := json.Unmarshal(data, tables); err != nil {
		return err
	}

	for pair := tables.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			return fmt.Errorf("table %q has no schema", pair.Key)
		}
	}

	c.tables = tables
	return nil
}
