package typemap

import "github.com/burugo/henry/drivers/schema"

// ColumnMetadata is a table column with its type translated to the standard vocabulary.
type ColumnMetadata struct {
	Name       string       `json:"name" yaml:"name"`
	DataType   StandardType `json:"data_type" yaml:"data_type"`
	Length     *int         `json:"length,omitempty" yaml:"length,omitempty"`
	IsNullable bool         `json:"is_nullable" yaml:"is_nullable"`
	IsUnique   bool         `json:"is_unique" yaml:"is_unique"`
	IsAuto     bool         `json:"is_auto" yaml:"is_auto"`
	IsPrimary  bool         `json:"is_primary" yaml:"is_primary"`
}

type IndexMetadata struct {
	Name      string   `json:"name" yaml:"name"`
	Columns   []string `json:"columns" yaml:"columns"`
	IsUnique  bool     `json:"is_unique" yaml:"is_unique"`
	IsPrimary bool     `json:"is_primary" yaml:"is_primary"`
}

type ForeignKeyMetadata struct {
	Name          string `json:"name" yaml:"name"`
	Column        string `json:"column" yaml:"column"`
	ForeignTable  string `json:"foreign_table" yaml:"foreign_table"`
	ForeignColumn string `json:"foreign_column" yaml:"foreign_column"`
}

type TableMetadata struct {
	Name        string                             `json:"name" yaml:"name"`
	Columns     *schema.OrderedMap[ColumnMetadata] `json:"columns" yaml:"columns"`
	Indexes     []IndexMetadata                    `json:"indexes" yaml:"indexes"`
	ForeignKeys []ForeignKeyMetadata               `json:"foreign_keys" yaml:"foreign_keys"`
}

type ViewColumnMetadata struct {
	Name     string       `json:"name" yaml:"name"`
	DataType StandardType `json:"data_type" yaml:"data_type"`
	Order    int          `json:"order" yaml:"order"`
	Length   *int         `json:"length,omitempty" yaml:"length,omitempty"`
}

type ViewMetadata struct {
	Name    string                                 `json:"name" yaml:"name"`
	Columns *schema.OrderedMap[ViewColumnMetadata] `json:"columns" yaml:"columns"`
}

// DatabaseMetadata is the generator-facing form of an extracted database.
type DatabaseMetadata struct {
	Name   string                    `json:"name" yaml:"name"`
	Type   schema.DatabaseType       `json:"type" yaml:"type"`
	Tables map[string]*TableMetadata `json:"tables" yaml:"tables"`
	Views  map[string]*ViewMetadata  `json:"views" yaml:"views"`
}

// Standardize translates every column type of db through tm. Column order,
// key flags and index membership are carried over unchanged.
func Standardize(db *schema.Database, tm *TypeMap) *DatabaseMetadata {
	out := &DatabaseMetadata{
		Name:   db.Name,
		Type:   db.Type,
		Tables: make(map[string]*TableMetadata, len(db.Tables)),
		Views:  make(map[string]*ViewMetadata, len(db.Views)),
	}

	for name, t := range db.Tables {
		tmd := &TableMetadata{
			Name:    t.Name,
			Columns: schema.NewOrderedMap[ColumnMetadata](),
		}
		for _, c := range t.Columns.Values() {
			tmd.Columns.Set(c.Name, ColumnMetadata{
				Name:       c.Name,
				DataType:   tm.ResolveStandard(c.DataType),
				Length:     c.Length,
				IsNullable: c.IsNullable,
				IsUnique:   c.IsUnique,
				IsAuto:     c.IsAuto,
				IsPrimary:  c.IsPrimary,
			})
		}
		for _, idx := range t.Indexes {
			tmd.Indexes = append(tmd.Indexes, IndexMetadata{
				Name:      idx.Name,
				Columns:   append([]string(nil), idx.Columns...),
				IsUnique:  idx.IsUnique,
				IsPrimary: idx.IsPrimary,
			})
		}
		for _, fk := range t.ForeignKeys {
			tmd.ForeignKeys = append(tmd.ForeignKeys, ForeignKeyMetadata{
				Name:          fk.Name,
				Column:        fk.Column,
				ForeignTable:  fk.ForeignTable,
				ForeignColumn: fk.ForeignColumn,
			})
		}
		out.Tables[name] = tmd
	}

	for name, v := range db.Views {
		vmd := &ViewMetadata{
			Name:    v.Name,
			Columns: schema.NewOrderedMap[ViewColumnMetadata](),
		}
		for _, c := range v.Columns.Values() {
			vmd.Columns.Set(c.Name, ViewColumnMetadata{
				Name:     c.Name,
				DataType: tm.ResolveStandard(c.DataType),
				Order:    c.Order,
				Length:   c.Length,
			})
		}
		out.Views[name] = vmd
	}
	return out
}
