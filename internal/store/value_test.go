package store

import (
	"encoding/json"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(25), "25"},
		{Int(-3), "-3"},
		{Str("Ivan"), "Ivan"},
		{Str(""), ""},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Value{}, ""},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		data string
		want Value
	}{
		{`42`, Int(42)},
		{`-1`, Int(-1)},
		{`"42"`, Str("42")},
		{`"with \"quotes\""`, Str(`with "quotes"`)},
		{`true`, Bool(true)},
		{`false`, Bool(false)},
		{`null`, Value{}},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.data), &v); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.data, err)
			}
			if v != tt.want {
				t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.data, v, tt.want)
			}

			out, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(out) != tt.data {
				t.Errorf("Marshal = %s, want %s", out, tt.data)
			}
		})
	}
}

func TestValueJSON_Rejects(t *testing.T) {
	for _, data := range []string{`1.5`, `1e3`, `[1]`, `{"a":1}`} {
		var v Value
		if err := json.Unmarshal([]byte(data), &v); err == nil {
			t.Errorf("Unmarshal(%s) should fail, got %#v", data, v)
		}
	}
}

func TestRecordClone(t *testing.T) {
	r := Record{"ID": Int(1), "name": Str("a")}
	c := r.Clone()
	c["name"] = Str("b")

	if r["name"] != Str("a") {
		t.Error("Clone shares storage with the original")
	}
	if id, ok := c.ID(); !ok || id != 1 {
		t.Errorf("ID() = %d, %v", id, ok)
	}
	if _, ok := (Record{"ID": Str("x")}).ID(); ok {
		t.Error("ID() should fail for a non-integer ID")
	}
}
