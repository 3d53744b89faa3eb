package schema

// DatabaseType identifies the engine a Database was extracted from. The
// values double as the registry driver identifiers.
type DatabaseType string

const (
	MySQL      DatabaseType = "mysql"
	PostgreSQL DatabaseType = "postgresql"
	SQLite     DatabaseType = "sqlite"
)

// Database holds the extracted schema of one database.
type Database struct {
	Name   string            `json:"name" yaml:"name"`
	Type   DatabaseType      `json:"type" yaml:"type"`
	Tables map[string]*Table `json:"tables" yaml:"tables"`
	Views  map[string]*View  `json:"views" yaml:"views"`
}

// Table holds the definition of a table. Columns are kept in ordinal order.
type Table struct {
	Name        string              `json:"name" yaml:"name"`
	Columns     *OrderedMap[Column] `json:"columns" yaml:"columns"`
	Indexes     []Index             `json:"indexes" yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKey        `json:"foreign_keys" yaml:"foreign_keys,omitempty"`
	Comment     *string             `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// View holds the definition of a view.
type View struct {
	Name    string                  `json:"name" yaml:"name"`
	Columns *OrderedMap[ViewColumn] `json:"columns" yaml:"columns"`
	Comment *string                 `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Column holds the metadata for a single column in a table.
type Column struct {
	Name       string  `json:"name" yaml:"name"`
	DataType   string  `json:"data_type" yaml:"data_type"` // Native type (e.g., int, character varying)
	Order      int     `json:"order" yaml:"order"`         // 1-based ordinal position
	Length     *int    `json:"length,omitempty" yaml:"length,omitempty"`
	Default    *string `json:"default,omitempty" yaml:"default,omitempty"`
	IsNullable bool    `json:"is_nullable" yaml:"is_nullable"`
	IsKey      bool    `json:"is_key" yaml:"is_key"` // Member of some unique or primary index
	IsUnique   bool    `json:"is_unique" yaml:"is_unique"`
	IsAuto     bool    `json:"is_auto" yaml:"is_auto"` // auto_increment, sequence or AUTOINCREMENT backed
	IsPrimary  bool    `json:"is_primary" yaml:"is_primary"`
	Comment    *string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ViewColumn holds the metadata for a view column. Views surface no key or
// nullability semantics.
type ViewColumn struct {
	Name     string  `json:"name" yaml:"name"`
	DataType string  `json:"data_type" yaml:"data_type"`
	Order    int     `json:"order" yaml:"order"`
	Length   *int    `json:"length,omitempty" yaml:"length,omitempty"`
	Comment  *string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Index holds metadata for a single index. A primary key is an Index with
// IsPrimary set.
type Index struct {
	Name      string   `json:"name" yaml:"name"`
	Columns   []string `json:"columns" yaml:"columns"` // In key order
	IsUnique  bool     `json:"is_unique" yaml:"is_unique"`
	IsPrimary bool     `json:"is_primary" yaml:"is_primary"`
	Comment   *string  `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ForeignKey describes one column of a foreign key constraint. Composite
// constraints produce one ForeignKey per column.
type ForeignKey struct {
	Name          string  `json:"name" yaml:"name"`
	Column        string  `json:"column" yaml:"column"`
	ForeignTable  string  `json:"foreign_table" yaml:"foreign_table"`
	ForeignColumn string  `json:"foreign_column" yaml:"foreign_column"`
	Comment       *string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// PrimaryKey returns the first index flagged as primary.
func (t *Table) PrimaryKey() (Index, bool) {
	for _, idx := range t.Indexes {
		if idx.IsPrimary {
			return idx, true
		}
	}
	return Index{}, false
}

// PrimaryColumns returns the names of the columns flagged IsPrimary, in ordinal order.
func (t *Table) PrimaryColumns() []string {
	var names []string
	for _, col := range t.Columns.Values() {
		if col.IsPrimary {
			names = append(names, col.Name)
		}
	}
	return names
}
