package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// valueKind identifies which variant a Value holds.
type valueKind int

const (
	kindNull valueKind = iota
	kindInt
	kindStr
	kindBool
)

// Value is a single typed cell: an int, a string, or a bool.
// The zero Value is null and only appears when a stored document holds null.
type Value struct {
	kind valueKind
	i    int64
	s    string
	b    bool
}

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: kindInt, i: i} }

// Str returns a string Value.
func Str(s string) Value { return Value{kind: kindStr, s: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// AsInt returns the integer and whether v holds one.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == kindInt }

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == kindBool }

// String returns the string form used by WHERE comparisons and text output.
func (v Value) String() string {
	switch v.kind {
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindStr:
		return v.s
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Any returns the value as a plain Go value (int64, string, bool, or nil).
func (v Value) Any() any {
	switch v.kind {
	case kindInt:
		return v.i
	case kindStr:
		return v.s
	case kindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON encodes v as a JSON number, string, boolean, or null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON scalar into the matching variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}

	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Str(s)
		return nil
	case '{', '[':
		return fmt.Errorf("unsupported nested value %s", data)
	}

	i, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", data)
	}
	*v = Int(i)
	return nil
}

// Record is one row: column name to typed value.
type Record map[string]Value

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// ID returns the record's ID column.
func (r Record) ID() (int64, bool) {
	v, ok := r[IDColumn]
	if !ok {
		return 0, false
	}
	return v.AsInt()
}
