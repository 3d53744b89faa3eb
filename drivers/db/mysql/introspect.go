package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/burugo/henry/drivers/schema"
)

type introspector struct {
	conn   *sqlx.Conn
	schema string
	logger *zap.Logger
}

type objectRow struct {
	Name    string `db:"name"`
	Comment string `db:"comment"`
}

type columnRow struct {
	Name     string         `db:"name"`
	Position int            `db:"position"`
	Default  sql.NullString `db:"default_value"`
	Nullable string         `db:"is_nullable"`
	DataType string         `db:"data_type"`
	Length   sql.NullInt64  `db:"length"`
	Key      string         `db:"col_key"`
	Extra    string         `db:"extra"`
	Comment  string         `db:"comment"`
}

type foreignKeyRow struct {
	Name          string `db:"name"`
	Column        string `db:"column_name"`
	ForeignTable  string `db:"foreign_table"`
	ForeignColumn string `db:"foreign_column"`
}

const columnsQuery = `
SELECT COLUMN_NAME AS name, ORDINAL_POSITION AS position, COLUMN_DEFAULT AS default_value,
	IS_NULLABLE AS is_nullable, DATA_TYPE AS data_type, CHARACTER_MAXIMUM_LENGTH AS length,
	COLUMN_KEY AS col_key, EXTRA AS extra, COLUMN_COMMENT AS comment
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

// indexesQuery lists one uniqueness class of indexes, PRIMARY first.
const indexesQuery = `
SELECT INDEX_NAME AS name, MAX(INDEX_COMMENT) AS comment
FROM INFORMATION_SCHEMA.STATISTICS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND NON_UNIQUE = ?
GROUP BY INDEX_NAME
ORDER BY INDEX_NAME = 'PRIMARY' DESC, INDEX_NAME`

const indexColumnsQuery = `
SELECT COLUMN_NAME AS name
FROM INFORMATION_SCHEMA.STATISTICS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND INDEX_NAME = ?
ORDER BY SEQ_IN_INDEX`

const foreignKeysQuery = `
SELECT CONSTRAINT_NAME AS name, COLUMN_NAME AS column_name,
	REFERENCED_TABLE_NAME AS foreign_table, REFERENCED_COLUMN_NAME AS foreign_column
FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL
ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`

func (in *introspector) databaseExists(ctx context.Context) (bool, error) {
	var count int
	err := in.conn.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?`, in.schema)
	if err != nil {
		return false, fmt.Errorf("query schemata: %w", err)
	}
	return count > 0, nil
}

// objects lists tables or views with their comments. kind is a TABLE_TYPE value.
func (in *introspector) objects(ctx context.Context, kind string) ([]objectRow, error) {
	var rows []objectRow
	err := in.conn.SelectContext(ctx, &rows, `
SELECT TABLE_NAME AS name, COALESCE(TABLE_COMMENT, '') AS comment
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = ?
ORDER BY TABLE_NAME`, in.schema, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s objects: %w", strings.ToLower(kind), err)
	}
	in.logger.Debug("listed objects", zap.String("type", kind), zap.Int("count", len(rows)))
	return rows, nil
}

func (in *introspector) columns(ctx context.Context, name string) ([]columnRow, error) {
	var rows []columnRow
	if err := in.conn.SelectContext(ctx, &rows, columnsQuery, in.schema, name); err != nil {
		return nil, fmt.Errorf("columns of %s: %w", name, err)
	}
	return rows, nil
}

func (in *introspector) view(ctx context.Context, name, comment string) (*schema.View, error) {
	in.logger.Debug("reading view", zap.String("view", name))
	rows, err := in.columns(ctx, name)
	if err != nil {
		return nil, err
	}
	// MySQL reports the literal comment VIEW for every view.
	if comment == "VIEW" {
		comment = ""
	}
	b := schema.NewViewBuilder(name, optional(comment))
	for _, r := range rows {
		err := b.AddColumn(schema.ViewColumn{
			Name:     r.Name,
			DataType: r.DataType,
			Order:    r.Position,
			Length:   length(r.Length),
			Comment:  optional(r.Comment),
		})
		if err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (in *introspector) table(ctx context.Context, name, comment string) (*schema.Table, error) {
	in.logger.Debug("reading table", zap.String("table", name))
	rows, err := in.columns(ctx, name)
	if err != nil {
		return nil, err
	}

	b := schema.NewTableBuilder(name, optional(comment))
	for _, r := range rows {
		col := schema.Column{
			Name:       r.Name,
			DataType:   r.DataType,
			Order:      r.Position,
			Length:     length(r.Length),
			IsNullable: r.Nullable == "YES",
			IsPrimary:  r.Key == "PRI",
			IsUnique:   r.Key == "UNI",
			IsAuto:     strings.Contains(strings.ToLower(r.Extra), "auto_increment"),
			Comment:    optional(r.Comment),
		}
		if r.Default.Valid {
			def := r.Default.String
			col.Default = &def
		}
		if err := b.AddColumn(col); err != nil {
			return nil, err
		}
	}

	// Unique indexes (PRIMARY among them) first, then non-unique ones.
	for _, nonUnique := range []int{0, 1} {
		indexes, err := in.indexes(ctx, name, nonUnique)
		if err != nil {
			return nil, err
		}
		for _, idx := range indexes {
			b.AddIndex(idx)
		}
	}

	var fks []foreignKeyRow
	if err := in.conn.SelectContext(ctx, &fks, foreignKeysQuery, in.schema, name); err != nil {
		return nil, fmt.Errorf("foreign keys of %s: %w", name, err)
	}
	for _, fk := range fks {
		b.AddForeignKey(schema.ForeignKey{
			Name:          fk.Name,
			Column:        fk.Column,
			ForeignTable:  fk.ForeignTable,
			ForeignColumn: fk.ForeignColumn,
		})
	}

	return b.Build()
}

func (in *introspector) indexes(ctx context.Context, table string, nonUnique int) ([]schema.Index, error) {
	var rows []objectRow
	if err := in.conn.SelectContext(ctx, &rows, indexesQuery, in.schema, table, nonUnique); err != nil {
		return nil, fmt.Errorf("indexes of %s: %w", table, err)
	}

	indexes := make([]schema.Index, 0, len(rows))
	for _, r := range rows {
		var cols []sql.NullString
		if err := in.conn.SelectContext(ctx, &cols, indexColumnsQuery, in.schema, table, r.Name); err != nil {
			return nil, fmt.Errorf("columns of index %s.%s: %w", table, r.Name, err)
		}
		idx := schema.Index{
			Name:      r.Name,
			IsUnique:  nonUnique == 0,
			IsPrimary: r.Name == "PRIMARY",
			Comment:   optional(r.Comment),
		}
		for _, c := range cols {
			// Functional key parts have no column name.
			if c.Valid {
				idx.Columns = append(idx.Columns, c.String)
			}
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func length(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
