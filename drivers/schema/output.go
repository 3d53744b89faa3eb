package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// databaseFields has Database's layout without its methods, so cmp walks
// the fields instead of calling Database.Equal.
type databaseFields Database

// Equal reports whether two extracted databases are structurally equal.
func (d *Database) Equal(other *Database) bool {
	return cmp.Equal((*databaseFields)(d), (*databaseFields)(other))
}

// Diff returns a human-readable description of the differences between two
// databases, or "" when they are equal.
func Diff(a, b *Database) string {
	return cmp.Diff((*databaseFields)(a), (*databaseFields)(b))
}

// TableNames returns the table names sorted alphabetically.
func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for name := range d.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ViewNames returns the view names sorted alphabetically.
func (d *Database) ViewNames() []string {
	names := make([]string, 0, len(d.Views))
	for name := range d.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary returns a human-readable summary of the database.
func (d *Database) Summary() string {
	var totalCols, totalIdx, totalFKs int
	for _, t := range d.Tables {
		totalCols += t.Columns.Len()
		totalIdx += len(t.Indexes)
		totalFKs += len(t.ForeignKeys)
	}
	return fmt.Sprintf(
		"%s database %s: %d tables, %d views, %d columns, %d indexes, %d foreign keys",
		d.Type, d.Name, len(d.Tables), len(d.Views), totalCols, totalIdx, totalFKs,
	)
}

// ToYAML returns the database as a YAML byte slice.
func (d *Database) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// WriteYAML writes the database to a YAML file at the given path.
func (d *Database) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := d.ToYAML()
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
