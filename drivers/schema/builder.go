package schema

import (
	"fmt"
	"sort"
	"strings"
)

// TableBuilder accumulates the parts of a table during extraction. Nothing
// built here is visible to callers until Build returns.
type TableBuilder struct {
	name        string
	comment     *string
	columns     *OrderedMap[Column]
	indexes     []Index
	foreignKeys []ForeignKey
}

// NewTableBuilder starts a table definition.
func NewTableBuilder(name string, comment *string) *TableBuilder {
	return &TableBuilder{
		name:    name,
		comment: comment,
		columns: NewOrderedMap[Column](),
	}
}

// AddColumn appends a column. Columns must arrive in strictly increasing
// ordinal order and names must be unique.
func (b *TableBuilder) AddColumn(col Column) error {
	if b.columns.Has(col.Name) {
		return fmt.Errorf("table %s: duplicate column %s", b.name, col.Name)
	}
	if col.Order < 1 {
		return fmt.Errorf("table %s: column %s has invalid ordinal %d", b.name, col.Name, col.Order)
	}
	if n := b.columns.Len(); n > 0 {
		last := b.columns.values[b.columns.keys[n-1]]
		if col.Order <= last.Order {
			return fmt.Errorf("table %s: column %s ordinal %d does not follow %d", b.name, col.Name, col.Order, last.Order)
		}
	}
	b.columns.Set(col.Name, col)
	return nil
}

// Column returns a previously added column.
func (b *TableBuilder) Column(name string) (Column, bool) {
	return b.columns.Get(name)
}

// ReplaceColumn swaps the named column for the value returned by fn.
// It reports false when the column does not exist.
func (b *TableBuilder) ReplaceColumn(name string, fn func(Column) Column) bool {
	col, ok := b.columns.Get(name)
	if !ok {
		return false
	}
	updated := fn(col)
	updated.Name = col.Name
	updated.Order = col.Order
	b.columns.Set(name, updated)
	return true
}

// AddIndex appends an index definition.
func (b *TableBuilder) AddIndex(idx Index) {
	idx.Columns = append([]string(nil), idx.Columns...)
	b.indexes = append(b.indexes, idx)
}

// AddForeignKey appends a single-column foreign key.
func (b *TableBuilder) AddForeignKey(fk ForeignKey) {
	b.foreignKeys = append(b.foreignKeys, fk)
}

// Build validates the table and returns it. Members of unique or primary
// indexes are marked IsKey.
func (b *TableBuilder) Build() (*Table, error) {
	for _, idx := range b.indexes {
		if !idx.IsUnique && !idx.IsPrimary {
			continue
		}
		for _, name := range idx.Columns {
			b.ReplaceColumn(name, func(c Column) Column {
				c.IsKey = true
				return c
			})
		}
	}

	t := &Table{
		Name:        b.name,
		Columns:     b.columns,
		Indexes:     b.indexes,
		ForeignKeys: b.foreignKeys,
		Comment:     b.comment,
	}
	if err := checkPrimaryKey(t); err != nil {
		return nil, err
	}

	// The builder must not leak the published maps.
	b.columns = NewOrderedMap[Column]()
	b.indexes = nil
	b.foreignKeys = nil
	return t, nil
}

// checkPrimaryKey verifies that the primary index and the IsPrimary column
// flags describe the same set of columns.
func checkPrimaryKey(t *Table) error {
	pk, ok := t.PrimaryKey()
	if !ok {
		return nil
	}
	want := append([]string(nil), pk.Columns...)
	got := t.PrimaryColumns()
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		return fmt.Errorf("table %s: primary index %s covers [%s] but primary columns are [%s]",
			t.Name, pk.Name, strings.Join(want, ", "), strings.Join(got, ", "))
	}
	return nil
}

// ViewBuilder accumulates the columns of a view.
type ViewBuilder struct {
	name    string
	comment *string
	columns *OrderedMap[ViewColumn]
}

// NewViewBuilder starts a view definition.
func NewViewBuilder(name string, comment *string) *ViewBuilder {
	return &ViewBuilder{
		name:    name,
		comment: comment,
		columns: NewOrderedMap[ViewColumn](),
	}
}

// AddColumn appends a view column, enforcing the same ordering rules as tables.
func (b *ViewBuilder) AddColumn(col ViewColumn) error {
	if b.columns.Has(col.Name) {
		return fmt.Errorf("view %s: duplicate column %s", b.name, col.Name)
	}
	if col.Order < 1 {
		return fmt.Errorf("view %s: column %s has invalid ordinal %d", b.name, col.Name, col.Order)
	}
	if n := b.columns.Len(); n > 0 {
		last := b.columns.values[b.columns.keys[n-1]]
		if col.Order <= last.Order {
			return fmt.Errorf("view %s: column %s ordinal %d does not follow %d", b.name, col.Name, col.Order, last.Order)
		}
	}
	b.columns.Set(col.Name, col)
	return nil
}

// Build returns the finished view.
func (b *ViewBuilder) Build() *View {
	v := &View{Name: b.name, Columns: b.columns, Comment: b.comment}
	b.columns = NewOrderedMap[ViewColumn]()
	return v
}

// DatabaseBuilder collects finished tables and views and assembles the
// Database in one step.
type DatabaseBuilder struct {
	name   string
	dbType DatabaseType
	tables map[string]*Table
	views  map[string]*View
}

// NewDatabaseBuilder starts a database graph.
func NewDatabaseBuilder(name string, dbType DatabaseType) *DatabaseBuilder {
	return &DatabaseBuilder{
		name:   name,
		dbType: dbType,
		tables: make(map[string]*Table),
		views:  make(map[string]*View),
	}
}

// AddTable registers a finished table under its name.
func (b *DatabaseBuilder) AddTable(t *Table) error {
	if _, exists := b.tables[t.Name]; exists {
		return fmt.Errorf("database %s: duplicate table %s", b.name, t.Name)
	}
	b.tables[t.Name] = t
	return nil
}

// AddView registers a finished view under its name.
func (b *DatabaseBuilder) AddView(v *View) error {
	if _, exists := b.views[v.Name]; exists {
		return fmt.Errorf("database %s: duplicate view %s", b.name, v.Name)
	}
	b.views[v.Name] = v
	return nil
}

// Build returns the assembled database.
func (b *DatabaseBuilder) Build() *Database {
	db := &Database{
		Name:   b.name,
		Type:   b.dbType,
		Tables: b.tables,
		Views:  b.views,
	}
	b.tables = make(map[string]*Table)
	b.views = make(map[string]*View)
	return db
}
