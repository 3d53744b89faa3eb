package typemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/henry/drivers/schema"
)

func TestTypeMap_Resolve(t *testing.T) {
	tm := New("m", TagMySQL, TagStandard, "String")
	tm.Set("int", "Integer")
	tm.Set("DateTime", "DateTime")

	assert.Equal(t, "Integer", tm.Resolve("int"))
	assert.Equal(t, "Integer", tm.Resolve("INT"))
	assert.Equal(t, "Integer", tm.Resolve("Int"))
	assert.Equal(t, "DateTime", tm.Resolve("datetime"))
	assert.Equal(t, "String", tm.Resolve("geometry"), "unmapped types resolve to the default")
	assert.Equal(t, []string{"DATETIME", "INT"}, tm.NativeTypes())
	assert.Equal(t, "MySQL:Standard", tm.Key())
	assert.Equal(t, 1, tm.LockVersion)
}

func TestTypeMap_ResolveStandard(t *testing.T) {
	tm := New("m", TagSQLite, TagStandard, "binary")
	tm.Set("int", "integer")
	tm.Set("weird", "NotAType")

	assert.Equal(t, Integer, tm.ResolveStandard("INT"))
	assert.Equal(t, Binary, tm.ResolveStandard("weird"), "falls back to the default")

	tm.DefaultType = "nope"
	assert.Equal(t, String, tm.ResolveStandard("weird"))
}

func TestParseStandardType(t *testing.T) {
	for _, st := range AllStandardTypes {
		got, err := ParseStandardType(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	got, err := ParseStandardType(" timestamp ")
	require.NoError(t, err)
	assert.Equal(t, TimeStamp, got)

	_, err = ParseStandardType("Int32")
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	first := New("first", TagMySQL, TagStandard, "String")
	second := New("second", TagMySQL, TagStandard, "Binary")
	other := New("other", TagMySQL, "Go", "any")
	maps := []*TypeMap{other, first, second}

	got, ok := Select(maps, TagMySQL, TagStandard)
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = Select(maps, TagSQLite, TagStandard)
	assert.False(t, ok)
}

func TestDefaults(t *testing.T) {
	for _, dbType := range []schema.DatabaseType{schema.MySQL, schema.PostgreSQL, schema.SQLite} {
		tm, ok := ForDatabase(dbType)
		require.True(t, ok, dbType)
		assert.Equal(t, SourceTag(dbType), tm.FromType)
		assert.Equal(t, TagStandard, tm.ToType)
		for _, native := range tm.NativeTypes() {
			_, err := ParseStandardType(tm.Resolve(native))
			assert.NoError(t, err, "%s maps %s outside the vocabulary", tm.Name, native)
		}
	}

	pg := DefaultPostgreSQL()
	assert.Equal(t, "Integer", pg.Resolve("integer"))
	assert.Equal(t, "String", pg.Resolve("character varying"))
	assert.Equal(t, "TimeStamp", pg.Resolve("timestamp with time zone"))
	assert.Equal(t, "String", pg.Resolve("tsvector"))
}

const tomlMaps = `
[[maps]]
name = "sqlite-go"
from_type = "SQLite"
to_type = "Go"
default_type = "any"
integer = "int64"
"double precision" = "float64"

[[maps]]
name = "sqlite-standard"
from_type = "SQLite"
to_type = "Standard"
default_type = "String"
integer = "Integer"
`

const yamlMaps = `
maps:
  - name: sqlite-go
    from_type: SQLite
    to_type: Go
    default_type: any
    integer: int64
    double precision: float64
  - name: sqlite-standard
    from_type: SQLite
    to_type: Standard
    default_type: String
    integer: Integer
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct{ name, body string }{
		{"maps.toml", tomlMaps},
		{"maps.yaml", yamlMaps},
		{"maps.YML", yamlMaps},
	} {
		t.Run(tc.name, func(t *testing.T) {
			maps, err := Load(writeFile(t, tc.name, tc.body))
			require.NoError(t, err)
			require.Len(t, maps, 2)

			goMap := maps[0]
			assert.Equal(t, "sqlite-go", goMap.Name)
			assert.Equal(t, "SQLite:Go", goMap.Key())
			assert.Equal(t, "any", goMap.DefaultType)
			assert.Equal(t, map[string]string{"INTEGER": "int64", "DOUBLE PRECISION": "float64"}, goMap.Map)
			assert.Equal(t, "float64", goMap.Resolve("double precision"))

			std, ok := Select(maps, TagSQLite, TagStandard)
			require.True(t, ok)
			assert.Equal(t, Integer, std.ResolveStandard("integer"))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"extension", "maps.json", `{}`, "unsupported map file extension"},
		{"no maps", "maps.toml", `title = "x"`, "no maps array"},
		{"maps not array", "maps.yaml", "maps: 3\n", "maps must be an array"},
		{"missing header", "maps.yaml", "maps:\n  - name: a\n    from_type: b\n    to_type: c\n", "missing or non-string default_type"},
		{"non-string value", "maps.yaml", "maps:\n  - name: a\n    from_type: b\n    to_type: c\n    default_type: d\n    int: 5\n", "value for int must be a string"},
		{"syntax", "maps.toml", "[[maps]\n", "parsing map file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStandardize(t *testing.T) {
	tb := schema.NewTableBuilder("album", nil)
	require.NoError(t, tb.AddColumn(schema.Column{Name: "id", DataType: "INTEGER", Order: 1, IsPrimary: true, IsAuto: true}))
	require.NoError(t, tb.AddColumn(schema.Column{Name: "title", DataType: "NVARCHAR", Order: 2, Length: intPtr(160)}))
	require.NoError(t, tb.AddColumn(schema.Column{Name: "shape", DataType: "GEOMETRY", Order: 3, IsNullable: true}))
	tb.AddIndex(schema.Index{Name: "PRIMARY", Columns: []string{"id"}, IsPrimary: true, IsUnique: true})
	tb.AddForeignKey(schema.ForeignKey{Name: "Unknown", Column: "id", ForeignTable: "x", ForeignColumn: "y"})
	table, err := tb.Build()
	require.NoError(t, err)

	vb := schema.NewViewBuilder("albums", nil)
	require.NoError(t, vb.AddColumn(schema.ViewColumn{Name: "title", DataType: "text", Order: 1}))

	db := schema.NewDatabaseBuilder("chinook", schema.SQLite)
	require.NoError(t, db.AddTable(table))
	require.NoError(t, db.AddView(vb.Build()))

	md := Standardize(db.Build(), DefaultSQLite())
	assert.Equal(t, "chinook", md.Name)
	assert.Equal(t, schema.SQLite, md.Type)

	album := md.Tables["album"]
	require.NotNil(t, album)
	assert.Equal(t, []string{"id", "title", "shape"}, album.Columns.Keys())

	id, _ := album.Columns.Get("id")
	assert.Equal(t, Integer, id.DataType)
	assert.True(t, id.IsPrimary)
	assert.True(t, id.IsAuto)

	title, _ := album.Columns.Get("title")
	assert.Equal(t, String, title.DataType)
	assert.Equal(t, 160, *title.Length)

	shape, _ := album.Columns.Get("shape")
	assert.Equal(t, String, shape.DataType, "unknown native types take the default")
	assert.True(t, shape.IsNullable)

	require.Len(t, album.Indexes, 1)
	assert.Equal(t, []string{"id"}, album.Indexes[0].Columns)
	require.Len(t, album.ForeignKeys, 1)
	assert.Equal(t, "x", album.ForeignKeys[0].ForeignTable)

	view := md.Views["albums"]
	col, ok := view.Columns.Get("title")
	require.True(t, ok)
	assert.Equal(t, String, col.DataType)
	assert.Equal(t, 1, col.Order)
}

func intPtr(i int) *int { return &i }
