package store

import (
	"fmt"
)

// NextID returns max(existing IDs) + 1, or 1 for an empty table.
func NextID(records []Record) int64 {
	var maxID int64
	for _, r := range records {
		if id, ok := r.ID(); ok && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// NewRecord coerces raw values positionally against the schema's data columns
// and assigns the next ID. The first coercion failure aborts without building a record.
func NewRecord(schema *Schema, existing []Record, raw []string) (Record, error) {
	cols := schema.DataColumns()
	if len(raw) != len(cols) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrArityMismatch, len(cols), len(raw))
	}

	record := Record{IDColumn: Int(NextID(existing))}
	for i, col := range cols {
		v, err := Coerce(raw[i], col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		record[col.Name] = v
	}

	return record, nil
}

// Matches reports whether the record's value at column, in string form, equals value.
// A record without the column never matches.
func Matches(r Record, column, value string) bool {
	v, ok := r[column]
	if !ok {
		return false
	}
	return v.String() == value
}

// Filter returns the records matching `column = value`, in order.
func Filter(records []Record, column, value string) []Record {
	matched := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(r, column, value) {
			matched = append(matched, r)
		}
	}
	return matched
}

// requireColumn returns the declared type of a column or ErrUnknownColumn.
func requireColumn(schema *Schema, name string) (ColumnType, error) {
	ct, ok := schema.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return ct, nil
}

// UpdateRecords assigns setValue to setColumn on every record matching
// `whereColumn = whereValue`, modifying records in place.
//
// Both columns are checked before any record is scanned. The SET value is
// coerced for each match; a coercion failure stops the scan and returns the
// count so far with the error. Records already modified stay modified.
func UpdateRecords(schema *Schema, records []Record, setColumn, setValue, whereColumn, whereValue string) (int, error) {
	setType, err := requireColumn(schema, setColumn)
	if err != nil {
		return 0, err
	}
	if _, err := requireColumn(schema, whereColumn); err != nil {
		return 0, err
	}
	if setColumn == IDColumn {
		return 0, fmt.Errorf("%w: %s", ErrReadOnlyColumn, IDColumn)
	}

	updated := 0
	for _, r := range records {
		if !Matches(r, whereColumn, whereValue) {
			continue
		}
		v, err := Coerce(setValue, setType)
		if err != nil {
			return updated, fmt.Errorf("column %s: %w", setColumn, err)
		}
		r[setColumn] = v
		updated++
	}

	return updated, nil
}

// DeleteRecords returns the records that do not match `column = value`
// and the number removed.
func DeleteRecords(schema *Schema, records []Record, column, value string) ([]Record, int, error) {
	if _, err := requireColumn(schema, column); err != nil {
		return records, 0, err
	}

	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if !Matches(r, column, value) {
			kept = append(kept, r)
		}
	}

	return kept, len(records) - len(kept), nil
}
