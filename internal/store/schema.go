// Package store provides the JSON-backed catalog and per-table record documents.
package store

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ColumnType represents the declared type of a column.
type ColumnType string

const (
	TypeInt  ColumnType = "int"
	TypeStr  ColumnType = "str"
	TypeBool ColumnType = "bool"
)

// IDColumn is the implicit first column of every table.
const IDColumn = "ID"

// validIdentifier matches table and column names (alphanumeric + underscore, must start with letter or underscore).
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// columnTypeAliases maps accepted spellings to canonical column types.
var columnTypeAliases = map[string]ColumnType{
	"int":    TypeInt,
	"str":    TypeStr,
	"string": TypeStr,
	"bool":   TypeBool,
}

// ParseColumnType resolves a declared type name.
func ParseColumnType(name string) (ColumnType, error) {
	ct, ok := columnTypeAliases[name]
	if !ok {
		return "", fmt.Errorf("%w %q (valid: int, str, bool)", ErrUnsupportedType, name)
	}
	return ct, nil
}

// Column is a single column definition.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// String renders the column as `name:type`.
func (c Column) String() string {
	return c.Name + ":" + string(c.Type)
}

// ParseColumnSpec parses a `name:type` spec.
func ParseColumnSpec(spec string) (Column, error) {
	name, typ, ok := strings.Cut(spec, ":")
	if !ok || strings.Contains(typ, ":") || !validIdentifier.MatchString(name) || typ == "" {
		return Column{}, fmt.Errorf("%w %q (expected name:type)", ErrMalformedColumnSpec, spec)
	}

	ct, err := ParseColumnType(typ)
	if err != nil {
		return Column{}, err
	}

	return Column{Name: name, Type: ct}, nil
}

// Schema is the ordered column list of one table.
// Column order is declaration order, with ID first.
type Schema struct {
	columns *orderedmap.OrderedMap[string, ColumnType]
}

// NewSchema builds a schema with the implicit ID column followed by cols.
// A repeated column name, including a declared ID, is a malformed spec.
func NewSchema(cols []Column) (*Schema, error) {
	s := &Schema{columns: orderedmap.New[string, ColumnType]()}
	s.columns.Set(IDColumn, TypeInt)

	for _, col := range cols {
		if _, exists := s.columns.Get(col.Name); exists {
			return nil, fmt.Errorf("%w %q (duplicate column %s)", ErrMalformedColumnSpec, col.String(), col.Name)
		}
		s.columns.Set(col.Name, col.Type)
	}

	return s, nil
}

// Columns returns all columns in order, ID first.
func (s *Schema) Columns() []Column {
	cols := make([]Column, 0, s.columns.Len())
	for pair := s.columns.Oldest(); pair != nil; pair = pair.Next() {
		cols = append(cols, Column{Name: pair.Key, Type: pair.Value})
	}
	return cols
}

// DataColumns returns every column except ID, in order.
// These are the columns a row literal supplies values for.
func (s *Schema) DataColumns() []Column {
	cols := make([]Column, 0, s.columns.Len())
	for pair := s.columns.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == IDColumn {
			continue
		}
		cols = append(cols, Column{Name: pair.Key, Type: pair.Value})
	}
	return cols
}

// Lookup returns the declared type of a column.
func (s *Schema) Lookup(name string) (ColumnType, bool) {
	return s.columns.Get(name)
}

// Len returns the number of columns including ID.
func (s *Schema) Len() int {
	return s.columns.Len()
}

// String renders the column list as `ID:int, name:str, ...`.
func (s *Schema) String() string {
	cols := s.Columns()
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the schema as an ordered `{column: type}` object.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.columns)
}

// UnmarshalJSON decodes an ordered `{column: type}` object.
func (s *Schema) UnmarshalJSON(data []byte) error {
	columns := orderedmap.New[string, ColumnType]()
	if err := json.Unmarshal(data, columns); err != nil {
		return err
	}

	for pair := columns.Oldest(); pair != nil; pair = pair.Next() {
		ct, err := ParseColumnType(string(pair.Value))
		if err != nil {
			return fmt.Errorf("column %q: %w", pair.Key, err)
		}
		pair.Value = ct
	}
	if ct, ok := columns.Get(IDColumn); !ok || ct != TypeInt {
		return fmt.Errorf("schema lacks %s:int column", IDColumn)
	}

	s.columns = columns
	return nil
}

var (
	trueWords  = map[string]bool{"true": true, "1": true, "yes": true}
	falseWords = map[string]bool{"false": true, "0": true, "no": true}
)

// Coerce converts a raw token into a Value of the declared type.
// It is applied identically to inserted values and to SET values.
func Coerce(raw string, ct ColumnType) (Value, error) {
	switch ct {
	case TypeInt:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrTypeCoercion, raw)
		}
		return Int(i), nil

	case TypeBool:
		word := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case trueWords[word]:
			return Bool(true), nil
		case falseWords[word]:
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("%w: %q is not a boolean (use true/false, 1/0, yes/no)", ErrTypeCoercion, raw)

	case TypeStr:
		if len(raw) >= 2 {
			first, last := raw[0], raw[len(raw)-1]
			if first == last && (first == '"' || first == '\'') {
				return Str(raw[1 : len(raw)-1]), nil
			}
		}
		return Str(raw), nil
	}

	return Value{}, fmt.Errorf("%w %q", ErrUnsupportedType, ct)
}
