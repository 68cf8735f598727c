package engine

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matsen/primdb/internal/parser"
	"github.com/matsen/primdb/internal/store"
)

// setupTestEngine creates an engine over a temp directory.
func setupTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dir := t.TempDir()
	s := store.New(filepath.Join(dir, "db_meta.json"), filepath.Join(dir, "data"))
	return New(s, opts...)
}

// setupUsers creates the users table and inserts Ivan and Maria.
func setupUsers(t *testing.T, e *Engine) {
	t.Helper()
	if _, err := e.CreateTable("users", []string{"name:str", "age:int", "is_active:bool"}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	for _, lit := range []string{`("Ivan", 25, true)`, `("Maria", 30, false)`} {
		if _, err := e.Insert("users", lit); err != nil {
			t.Fatalf("Insert(%s): %v", lit, err)
		}
	}
}

func where(column, value string) *parser.Clause {
	return &parser.Clause{Column: column, Value: value}
}

func rowIDs(rows []store.Record) []int64 {
	var ids []int64
	for _, r := range rows {
		id, _ := r.ID()
		ids = append(ids, id)
	}
	return ids
}

func TestCreateTableThenInfo(t *testing.T) {
	e := setupTestEngine(t)

	created, err := e.CreateTable("users", []string{"name:str", "age:int", "is_active:bool"})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	want := []string{"ID:int", "name:str", "age:int", "is_active:bool"}
	if !slices.Equal(created.Columns, want) {
		t.Errorf("created columns = %v, want %v", created.Columns, want)
	}

	info, err := e.Info("users")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !slices.Equal(info.Columns, want) {
		t.Errorf("info columns = %v, want %v", info.Columns, want)
	}
	if info.Records != 0 {
		t.Errorf("info records = %d, want 0", info.Records)
	}
	if info.Size != 0 {
		t.Errorf("info size = %d before any insert, want 0", info.Size)
	}
}

func TestCreateTableTwice(t *testing.T) {
	e := setupTestEngine(t)
	if _, err := e.CreateTable("users", []string{"name:str"}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	if _, err := e.CreateTable("users", []string{"age:int"}); !errors.Is(err, store.ErrTableExists) {
		t.Fatalf("second CreateTable error = %v, want ErrTableExists", err)
	}

	info, _ := e.Info("users")
	if !slices.Equal(info.Columns, []string{"ID:int", "name:str"}) {
		t.Errorf("schema changed to %v", info.Columns)
	}
}

func TestCreateTable_InvalidSpecNotPersisted(t *testing.T) {
	e := setupTestEngine(t)

	if _, err := e.CreateTable("users", []string{"name:invalid_type"}); !errors.Is(err, store.ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
	if _, err := os.Stat(e.Store().CatalogPath()); !os.IsNotExist(err) {
		t.Error("catalog written after a failed create")
	}
}

func TestListTables(t *testing.T) {
	e := setupTestEngine(t)

	list, err := e.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if got := slices.Collect(list.Tables); len(got) != 0 {
		t.Errorf("tables = %v, want none", got)
	}

	for _, name := range []string{"zoo", "apple"} {
		e.CreateTable(name, []string{"x:int"})
	}
	list, _ = e.ListTables()
	if got := slices.Collect(list.Tables); !slices.Equal(got, []string{"zoo", "apple"}) {
		t.Errorf("tables = %v", got)
	}
}

func TestDropTable(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	if _, err := e.DropTable("users"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if _, err := e.Info("users"); !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("Info after drop error = %v, want ErrTableNotFound", err)
	}
	if _, err := os.Stat(e.Store().TablePath("users")); !os.IsNotExist(err) {
		t.Error("table document still exists after drop")
	}

	if _, err := e.DropTable("users"); !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("second DropTable error = %v, want ErrTableNotFound", err)
	}

	// A recreated table starts empty
	e.CreateTable("users", []string{"name:str", "age:int", "is_active:bool"})
	result, err := e.Select("users", nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !result.Empty {
		t.Errorf("recreated table has rows: %v", result.Rows)
	}
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	e := setupTestEngine(t)
	e.CreateTable("users", []string{"name:str"})

	for i, name := range []string{"a", "b", "c"} {
		result, err := e.Insert("users", `("`+name+`")`)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if result.ID != int64(i+1) {
			t.Errorf("insert %d got ID %d", i, result.ID)
		}
	}

	if _, err := e.Delete("users", parser.Clause{Column: "ID", Value: "2"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	result, err := e.Insert("users", `("d")`)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if result.ID != 4 {
		t.Errorf("ID after deleting 2 = %d, want 4", result.ID)
	}
}

func TestInsert_Errors(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	tests := []struct {
		name    string
		table   string
		literal string
		wantErr error
	}{
		{"unknown table", "nope", `(1)`, store.ErrTableNotFound},
		{"too few", "users", `("Ana", 31)`, store.ErrArityMismatch},
		{"too many", "users", `("Ana", 31, true, 1)`, store.ErrArityMismatch},
		{"empty", "users", `()`, store.ErrArityMismatch},
		{"bad int", "users", `("Ana", old, true)`, store.ErrTypeCoercion},
		{"bad bool", "users", `("Ana", 31, maybe)`, store.ErrTypeCoercion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := os.ReadFile(e.Store().TablePath("users"))

			if _, err := e.Insert(tt.table, tt.literal); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Insert error = %v, want %v", err, tt.wantErr)
			}

			after, _ := os.ReadFile(e.Store().TablePath("users"))
			if string(before) != string(after) {
				t.Error("records changed after a failed insert")
			}
		})
	}
}

func TestInsert_QuotedComma(t *testing.T) {
	e := setupTestEngine(t)
	e.CreateTable("notes", []string{"text:str", "tag:str"})

	if _, err := e.Insert("notes", `("a, b", 'c')`); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	result, _ := e.Select("notes", nil)
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %v", result.Rows)
	}
	if result.Rows[0]["text"] != store.Str("a, b") || result.Rows[0]["tag"] != store.Str("c") {
		t.Errorf("row = %v", result.Rows[0])
	}
}

func TestInsert_TrailingComma(t *testing.T) {
	e := setupTestEngine(t)
	e.CreateTable("tags", []string{"label:str"})

	inserted, err := e.Insert("tags", "(a,)")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inserted.ID != 1 {
		t.Errorf("ID = %d, want 1", inserted.ID)
	}

	result, _ := e.Select("tags", nil)
	if len(result.Rows) != 1 || result.Rows[0]["label"] != store.Str("a") {
		t.Errorf("rows = %v", result.Rows)
	}
}

func TestSelect_BoolMatchesLowercaseForm(t *testing.T) {
	e := setupTestEngine(t, WithCache(nil))
	setupUsers(t, e)

	tests := []struct {
		value string
		want  []int64
	}{
		{"true", []int64{1}},
		{"false", []int64{2}},
		{"True", nil},
		{"1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			result, err := e.Select("users", where("is_active", tt.value))
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if got := rowIDs(result.Rows); !slices.Equal(got, tt.want) {
				t.Errorf("is_active = %s matched %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestUsersScenario(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	all, err := e.Select("users", nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !slices.Equal(rowIDs(all.Rows), []int64{1, 2}) {
		t.Errorf("select all IDs = %v", rowIDs(all.Rows))
	}
	if !slices.Equal(all.Columns, []string{"ID", "name", "age", "is_active"}) {
		t.Errorf("columns = %v", all.Columns)
	}

	byAge, err := e.Select("users", where("age", "25"))
	if err != nil {
		t.Fatalf("Select where: %v", err)
	}
	if !slices.Equal(rowIDs(byAge.Rows), []int64{1}) {
		t.Errorf("select age=25 IDs = %v", rowIDs(byAge.Rows))
	}

	updated, err := e.Update("users", parser.Clause{Column: "age", Value: "31"}, parser.Clause{Column: "name", Value: "Ivan"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Updated != 1 {
		t.Errorf("updated = %d, want 1", updated.Updated)
	}

	records, _ := e.Store().LoadTable("users")
	if records[0]["age"] != store.Int(31) {
		t.Errorf("stored age = %#v, want Int(31)", records[0]["age"])
	}

	deleted, err := e.Delete("users", parser.Clause{Column: "name", Value: "Ivan"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted.Deleted)
	}

	path := e.Store().TablePath("users")
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	// Replace the document with a marker so any rewrite is visible
	marker := []byte(`[{"ID": 2, "name": "Maria", "age": 30, "is_active": false}]`)
	if err := os.WriteFile(path, marker, before.Mode()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deleted, err = e.Delete("users", parser.Clause{Column: "name", Value: "Ivan"})
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if deleted.Deleted != 0 {
		t.Errorf("second delete removed %d", deleted.Deleted)
	}
	if data, _ := os.ReadFile(path); string(data) != string(marker) {
		t.Errorf("document rewritten by a delete that matched nothing:\n%s", data)
	}
}

func TestUpdate_NoMatchDoesNotWrite(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	path := e.Store().TablePath("users")
	marker := []byte(`[{"ID": 1, "name": "Ivan", "age": 25, "is_active": true}]`)
	os.WriteFile(path, marker, 0644)

	result, err := e.Update("users", parser.Clause{Column: "age", Value: "1"}, parser.Clause{Column: "name", Value: "Nobody"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if result.Updated != 0 {
		t.Errorf("updated = %d, want 0", result.Updated)
	}
	if data, _ := os.ReadFile(path); string(data) != string(marker) {
		t.Error("document rewritten by an update that matched nothing")
	}
}

func TestUpdate_Errors(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	tests := []struct {
		name       string
		table      string
		set, where parser.Clause
		wantErr    error
	}{
		{"unknown table", "nope", parser.Clause{Column: "age", Value: "1"}, parser.Clause{Column: "ID", Value: "1"}, store.ErrTableNotFound},
		{"unknown set column", "users", parser.Clause{Column: "email", Value: "x"}, parser.Clause{Column: "ID", Value: "1"}, store.ErrUnknownColumn},
		{"unknown where column", "users", parser.Clause{Column: "age", Value: "1"}, parser.Clause{Column: "email", Value: "x"}, store.ErrUnknownColumn},
		{"read-only ID", "users", parser.Clause{Column: "ID", Value: "9"}, parser.Clause{Column: "ID", Value: "1"}, store.ErrReadOnlyColumn},
		{"bad value", "users", parser.Clause{Column: "age", Value: "old"}, parser.Clause{Column: "ID", Value: "1"}, store.ErrTypeCoercion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := os.ReadFile(e.Store().TablePath("users"))

			if _, err := e.Update(tt.table, tt.set, tt.where); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Update error = %v, want %v", err, tt.wantErr)
			}

			after, _ := os.ReadFile(e.Store().TablePath("users"))
			if string(before) != string(after) {
				t.Error("records persisted after a failed update")
			}
		})
	}
}

func TestDelete_UnknownColumn(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	if _, err := e.Delete("users", parser.Clause{Column: "email", Value: "x"}); !errors.Is(err, store.ErrUnknownColumn) {
		t.Errorf("error = %v, want ErrUnknownColumn", err)
	}
	if _, err := e.Delete("nope", parser.Clause{Column: "ID", Value: "1"}); !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("error = %v, want ErrTableNotFound", err)
	}
}

func TestSelect_EmptyTable(t *testing.T) {
	e := setupTestEngine(t)
	e.CreateTable("users", []string{"name:str"})

	result, err := e.Select("users", where("name", "x"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !result.Empty {
		t.Error("Empty should be set for a table with no records")
	}

	e.Insert("users", `("a")`)
	result, err = e.Select("users", where("name", "b"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if result.Empty {
		t.Error("Empty should not be set when filtering removes every row")
	}
	if len(result.Rows) != 0 {
		t.Errorf("rows = %v, want none", result.Rows)
	}
}

func TestSelect_UnknownColumnMatchesNothing(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	result, err := e.Select("users", where("email", "x"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Errorf("rows = %v, want none", result.Rows)
	}
}

func TestSelect_UnknownTable(t *testing.T) {
	e := setupTestEngine(t)

	if _, err := e.Select("nope", nil); !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("error = %v, want ErrTableNotFound", err)
	}
	if _, err := e.Select("nope", where("a", "b")); !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("conditioned error = %v, want ErrTableNotFound", err)
	}
	if stats, _ := e.CacheStats(); stats.Entries != 0 {
		t.Errorf("cache entries = %d after failed select", stats.Entries)
	}
}

func TestSelect_CacheReturnsStaleRows(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	first, err := e.Select("users", where("name", "Ivan"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if first.Cached {
		t.Error("first select should not be cached")
	}

	if _, err := e.Update("users", parser.Clause{Column: "age", Value: "31"}, parser.Clause{Column: "name", Value: "Ivan"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	second, err := e.Select("users", where("name", "Ivan"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !second.Cached {
		t.Error("second select should be served from cache")
	}
	if second.Rows[0]["age"] != store.Int(25) {
		t.Errorf("cached age = %#v, want stale Int(25)", second.Rows[0]["age"])
	}

	// Unconditioned selects bypass the cache
	all, _ := e.Select("users", nil)
	if all.Cached || all.Rows[0]["age"] != store.Int(31) {
		t.Errorf("unconditioned select = %+v", all)
	}

	stats, ok := e.CacheStats()
	if !ok || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("CacheStats() = %+v, %v", stats, ok)
	}
}

func TestSelect_CacheDisabled(t *testing.T) {
	e := setupTestEngine(t, WithCache(nil))
	setupUsers(t, e)

	e.Select("users", where("name", "Ivan"))
	e.Update("users", parser.Clause{Column: "age", Value: "31"}, parser.Clause{Column: "name", Value: "Ivan"})

	result, err := e.Select("users", where("name", "Ivan"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if result.Cached || result.Rows[0]["age"] != store.Int(31) {
		t.Errorf("select = %+v, want fresh rows", result)
	}
	if _, ok := e.CacheStats(); ok {
		t.Error("CacheStats should report caching off")
	}
}

func TestCorruptTableWarns(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	if err := os.WriteFile(e.Store().TablePath("users"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := e.Select("users", nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !result.Empty || len(result.Warnings) != 1 {
		t.Errorf("select = %+v, want empty with one warning", result)
	}

	info, err := e.Info("users")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Records != 0 || len(info.Warnings) != 1 {
		t.Errorf("info = %+v", info)
	}

	inserted, err := e.Insert("users", `("Ana", 20, no)`)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inserted.ID != 1 || len(inserted.Warnings) != 1 {
		t.Errorf("insert = %+v, want ID 1 with a warning", inserted)
	}
}

func TestCorruptCatalogWarns(t *testing.T) {
	e := setupTestEngine(t)
	setupUsers(t, e)

	if err := os.WriteFile(e.Store().CatalogPath(), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := e.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if got := slices.Collect(list.Tables); len(got) != 0 || len(list.Warnings) != 1 {
		t.Errorf("list = %v, warnings %v", got, list.Warnings)
	}

	if _, err := e.Info("users"); !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("Info error = %v, want ErrTableNotFound", err)
	}
}
