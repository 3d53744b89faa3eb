package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/burugo/henry/drivers/schema"
)

// ForeignKeyName is assigned to every foreign key; SQLite does not name them.
const ForeignKeyName = "Unknown"

type introspector struct {
	conn   *sqlx.Conn
	logger *zap.Logger
}

type masterRow struct {
	Name string         `db:"name"`
	SQL  sql.NullString `db:"sql"`
}

type columnRow struct {
	CID       int            `db:"cid"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	NotNull   int            `db:"notnull"`
	DfltValue sql.NullString `db:"dflt_value"`
	PK        int            `db:"pk"`
}

type indexRow struct {
	Seq     int    `db:"seq"`
	Name    string `db:"name"`
	Unique  int    `db:"unique"`
	Origin  string `db:"origin"`
	Partial int    `db:"partial"`
}

type indexColumnRow struct {
	SeqNo int            `db:"seqno"`
	CID   int            `db:"cid"`
	Name  sql.NullString `db:"name"`
}

type foreignKeyRow struct {
	ID       int            `db:"id"`
	Seq      int            `db:"seq"`
	Table    string         `db:"table"`
	From     string         `db:"from"`
	To       sql.NullString `db:"to"`
	OnUpdate string         `db:"on_update"`
	OnDelete string         `db:"on_delete"`
	Match    string         `db:"match"`
}

func (in *introspector) objectNames(ctx context.Context, kind string) ([]masterRow, error) {
	var rows []masterRow
	err := in.conn.SelectContext(ctx, &rows,
		`SELECT name, sql FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`, kind)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	in.logger.Debug("listed objects", zap.String("type", kind), zap.Int("count", len(rows)))
	return rows, nil
}

func (in *introspector) columns(ctx context.Context, name string) ([]columnRow, error) {
	var rows []columnRow
	if err := in.conn.SelectContext(ctx, &rows, `SELECT * FROM pragma_table_info(?)`, name); err != nil {
		return nil, fmt.Errorf("table_info(%s): %w", name, err)
	}
	return rows, nil
}

func (in *introspector) view(ctx context.Context, name string) (*schema.View, error) {
	in.logger.Debug("reading view", zap.String("view", name))
	rows, err := in.columns(ctx, name)
	if err != nil {
		return nil, err
	}
	b := schema.NewViewBuilder(name, nil)
	for _, r := range rows {
		dataType, length := splitType(r.Type)
		err := b.AddColumn(schema.ViewColumn{
			Name:     r.Name,
			DataType: dataType,
			Order:    r.CID + 1,
			Length:   length,
		})
		if err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (in *introspector) table(ctx context.Context, name, ddl string) (*schema.Table, error) {
	in.logger.Debug("reading table", zap.String("table", name))
	rows, err := in.columns(ctx, name)
	if err != nil {
		return nil, err
	}

	auto := autoIncrementColumn(ddl)
	b := schema.NewTableBuilder(name, nil)
	var pkRows []columnRow
	for _, r := range rows {
		dataType, length := splitType(r.Type)
		col := schema.Column{
			Name:       r.Name,
			DataType:   dataType,
			Order:      r.CID + 1,
			Length:     length,
			IsNullable: r.NotNull == 0,
			IsPrimary:  r.PK > 0,
			IsAuto:     auto != "" && strings.EqualFold(auto, r.Name),
		}
		if r.DfltValue.Valid {
			def := r.DfltValue.String
			col.Default = &def
		}
		if r.PK > 0 {
			pkRows = append(pkRows, r)
		}
		if err := b.AddColumn(col); err != nil {
			return nil, err
		}
	}

	indexes, err := in.indexes(ctx, name)
	if err != nil {
		return nil, err
	}
	hasPrimary := false
	for _, idx := range indexes {
		if idx.IsPrimary {
			hasPrimary = true
		}
	}
	// A rowid alias primary key has no catalog index, so one is synthesized
	// from the pk positions reported by table_info.
	if !hasPrimary && len(pkRows) > 0 {
		sort.Slice(pkRows, func(i, j int) bool { return pkRows[i].PK < pkRows[j].PK })
		pk := schema.Index{Name: "PRIMARY", IsUnique: true, IsPrimary: true}
		for _, r := range pkRows {
			pk.Columns = append(pk.Columns, r.Name)
		}
		b.AddIndex(pk)
	}
	for _, idx := range indexes {
		b.AddIndex(idx)
		if idx.IsUnique && !idx.IsPrimary && len(idx.Columns) == 1 {
			b.ReplaceColumn(idx.Columns[0], func(c schema.Column) schema.Column {
				c.IsUnique = true
				return c
			})
		}
	}

	fks, err := in.foreignKeys(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, fk := range fks {
		b.AddForeignKey(fk)
	}

	return b.Build()
}

func (in *introspector) indexes(ctx context.Context, table string) ([]schema.Index, error) {
	var rows []indexRow
	if err := in.conn.SelectContext(ctx, &rows, `SELECT * FROM pragma_index_list(?)`, table); err != nil {
		return nil, fmt.Errorf("index_list(%s): %w", table, err)
	}
	// index_list reports the most recently created index first.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq > rows[j].Seq })

	indexes := make([]schema.Index, 0, len(rows))
	for _, r := range rows {
		var cols []indexColumnRow
		if err := in.conn.SelectContext(ctx, &cols, `SELECT * FROM pragma_index_info(?) ORDER BY seqno`, r.Name); err != nil {
			return nil, fmt.Errorf("index_info(%s): %w", r.Name, err)
		}
		idx := schema.Index{
			Name:      r.Name,
			IsUnique:  r.Unique == 1,
			IsPrimary: r.Origin == "pk",
		}
		for _, c := range cols {
			// Expression columns have no name.
			if c.Name.Valid {
				idx.Columns = append(idx.Columns, c.Name.String)
			}
		}
		indexes = append(indexes, idx)
	}
	sort.SliceStable(indexes, func(i, j int) bool { return indexes[i].IsPrimary && !indexes[j].IsPrimary })
	return indexes, nil
}

func (in *introspector) foreignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	var rows []foreignKeyRow
	if err := in.conn.SelectContext(ctx, &rows, `SELECT * FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table); err != nil {
		return nil, fmt.Errorf("foreign_key_list(%s): %w", table, err)
	}

	fks := make([]schema.ForeignKey, 0, len(rows))
	for _, r := range rows {
		to := r.To.String
		if !r.To.Valid {
			// REFERENCES parent without a column list targets the parent's primary key.
			pk, err := in.primaryKeyColumns(ctx, r.Table)
			if err != nil {
				return nil, err
			}
			if r.Seq < len(pk) {
				to = pk[r.Seq]
			}
		}
		fks = append(fks, schema.ForeignKey{
			Name:          ForeignKeyName,
			Column:        r.From,
			ForeignTable:  r.Table,
			ForeignColumn: to,
		})
	}
	return fks, nil
}

func (in *introspector) primaryKeyColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := in.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PK < rows[j].PK })
	var names []string
	for _, r := range rows {
		if r.PK > 0 {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

// splitType separates a declared type such as VARCHAR(160) into its base
// name and length. Only a single integer argument is taken as a length.
func splitType(declared string) (string, *int) {
	declared = strings.TrimSpace(declared)
	open := strings.IndexByte(declared, '(')
	if open < 0 {
		return declared, nil
	}
	base := strings.TrimSpace(declared[:open])
	end := strings.LastIndexByte(declared, ')')
	if end <= open {
		return base, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(declared[open+1 : end]))
	if err != nil {
		return base, nil
	}
	return base, &n
}
