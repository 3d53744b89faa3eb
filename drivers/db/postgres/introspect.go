package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/burugo/henry/common"
	"github.com/burugo/henry/drivers/schema"
)

type introspector struct {
	conn   *sqlx.Conn
	schema string
	logger *zap.Logger
}

type relationRow struct {
	Name    string         `db:"name"`
	Comment sql.NullString `db:"comment"`
}

type columnRow struct {
	Position int            `db:"position"`
	Name     string         `db:"name"`
	DataType string         `db:"data_type"`
	Length   sql.NullInt64  `db:"length"`
	Nullable string         `db:"is_nullable"`
	Default  sql.NullString `db:"default_value"`
	Identity string         `db:"is_identity"`
	Comment  sql.NullString `db:"comment"`
}

type indexRow struct {
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	IsUnique  bool           `db:"is_unique"`
	IsPrimary bool           `db:"is_primary"`
	Comment   sql.NullString `db:"comment"`
}

type foreignKeyRow struct {
	Name          string `db:"name"`
	Column        string `db:"column_name"`
	ForeignTable  string `db:"foreign_table"`
	ForeignColumn string `db:"foreign_column"`
}

const relationsQuery = `
SELECT c.relname AS name, obj_description(c.oid, 'pg_class') AS comment
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relkind::text = ANY($2::text[]) AND NOT c.relispartition
ORDER BY c.relname`

const columnsQuery = `
SELECT c.ordinal_position AS position, c.column_name AS name, c.data_type,
	c.character_maximum_length AS length, c.is_nullable, c.column_default AS default_value, c.is_identity,
	col_description((quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass,
		c.ordinal_position::int) AS comment
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`

const indexesQuery = `
SELECT x.indexrelid::bigint AS id, i.relname AS name, x.indisunique AS is_unique,
	x.indisprimary AS is_primary, obj_description(x.indexrelid, 'pg_class') AS comment
FROM pg_index x
JOIN pg_class t ON t.oid = x.indrelid
JOIN pg_class i ON i.oid = x.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
WHERE n.nspname = $1 AND t.relname = $2
ORDER BY x.indisprimary DESC, i.relname`

// indexColumnsQuery resolves index key columns in key order. Expression
// keys (attnum 0) have no attribute and drop out of the join. INCLUDE
// columns follow the indnkeyatts key columns and are skipped.
const indexColumnsQuery = `
SELECT a.attname AS name
FROM pg_index x
CROSS JOIN LATERAL unnest(x.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
JOIN pg_attribute a ON a.attrelid = x.indrelid AND a.attnum = k.attnum
WHERE x.indexrelid::bigint = $1 AND k.ord <= x.indnkeyatts
ORDER BY k.ord`

const foreignKeysQuery = `
SELECT con.conname AS name, a.attname AS column_name,
	ft.relname AS foreign_table, fa.attname AS foreign_column
FROM pg_constraint con
JOIN pg_class t ON t.oid = con.conrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_class ft ON ft.oid = con.confrelid
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
JOIN pg_attribute fa ON fa.attrelid = con.confrelid AND fa.attnum = k.fattnum
WHERE con.contype = 'f' AND n.nspname = $1 AND t.relname = $2
ORDER BY con.conname, k.ord`

func (in *introspector) databaseExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := in.conn.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name)
	if err != nil {
		return false, fmt.Errorf("query pg_database: %w", err)
	}
	return exists, nil
}

// resolveSchema prefers a schema named after the database and falls back to public.
func (in *introspector) resolveSchema(ctx context.Context, database string) (string, error) {
	var names []string
	err := in.conn.SelectContext(ctx, &names,
		`SELECT nspname FROM pg_namespace WHERE nspname = $1 OR nspname = $2`, database, DefaultSchema)
	if err != nil {
		return "", fmt.Errorf("query pg_namespace: %w", err)
	}
	found := make(map[string]bool, len(names))
	for _, n := range names {
		found[n] = true
	}
	switch {
	case found[database]:
		return database, nil
	case found[DefaultSchema]:
		return DefaultSchema, nil
	default:
		return "", &common.SchemaNotFoundError{Name: DefaultSchema}
	}
}

// relations lists relations of the given pg_class relkinds with their comments.
func (in *introspector) relations(ctx context.Context, kinds ...string) ([]relationRow, error) {
	var rows []relationRow
	if err := in.conn.SelectContext(ctx, &rows, relationsQuery, in.schema, kinds); err != nil {
		return nil, fmt.Errorf("list relations %s: %w", strings.Join(kinds, ","), err)
	}
	in.logger.Debug("listed relations", zap.Strings("relkind", kinds), zap.Int("count", len(rows)))
	return rows, nil
}

// columns returns the columns of a relation in attribute order. Attribute
// numbers keep gaps left by dropped columns, so callers renumber densely.
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
	b := schema.NewViewBuilder(name, optional(comment))
	for i, r := range rows {
		err := b.AddColumn(schema.ViewColumn{
			Name:     r.Name,
			DataType: r.DataType,
			Order:    i + 1,
			Length:   length(r.Length),
			Comment:  optional(r.Comment.String),
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
	for i, r := range rows {
		col := schema.Column{
			Name:       r.Name,
			DataType:   r.DataType,
			Order:      i + 1,
			Length:     length(r.Length),
			IsNullable: r.Nullable == "YES",
			IsAuto:     r.Identity == "YES",
			Comment:    optional(r.Comment.String),
		}
		if r.Default.Valid {
			def := r.Default.String
			col.Default = &def
			col.IsAuto = col.IsAuto || strings.Contains(def, "nextval")
		}
		if err := b.AddColumn(col); err != nil {
			return nil, err
		}
	}

	indexes, err := in.indexes(ctx, name)
	if err != nil {
		return nil, err
	}
	primaryDone := false
	for _, idx := range indexes {
		b.AddIndex(idx)
		switch {
		case idx.IsPrimary && !primaryDone:
			// Only the first primary index rewrites column flags.
			primaryDone = true
			for _, colName := range idx.Columns {
				b.ReplaceColumn(colName, func(c schema.Column) schema.Column {
					c.IsPrimary = true
					c.IsUnique = true
					return c
				})
			}
		case idx.IsUnique && !idx.IsPrimary && len(idx.Columns) == 1:
			b.ReplaceColumn(idx.Columns[0], func(c schema.Column) schema.Column {
				c.IsUnique = true
				return c
			})
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

func (in *introspector) indexes(ctx context.Context, table string) ([]schema.Index, error) {
	var rows []indexRow
	if err := in.conn.SelectContext(ctx, &rows, indexesQuery, in.schema, table); err != nil {
		return nil, fmt.Errorf("indexes of %s: %w", table, err)
	}

	indexes := make([]schema.Index, 0, len(rows))
	for _, r := range rows {
		var cols []string
		if err := in.conn.SelectContext(ctx, &cols, indexColumnsQuery, r.ID); err != nil {
			return nil, fmt.Errorf("columns of index %s: %w", r.Name, err)
		}
		indexes = append(indexes, schema.Index{
			Name:      r.Name,
			Columns:   cols,
			IsUnique:  r.IsUnique,
			IsPrimary: r.IsPrimary,
			Comment:   optional(r.Comment.String),
		})
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
