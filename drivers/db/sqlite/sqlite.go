package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/burugo/henry"
	"github.com/burugo/henry/common"
	"github.com/burugo/henry/drivers/schema"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Driver is the registry identifier for this explorer.
const Driver = "sqlite"

// Explorer extracts schemas from SQLite database files. Connection.Host is
// the path of the file.
type Explorer struct {
	logger *zap.Logger
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithLogger sets the logger used for per-step diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Explorer) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExplorer creates a SQLite explorer.
func NewExplorer(opts ...Option) *Explorer {
	e := &Explorer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("driver", Driver))
	return e
}

// Register binds the SQLite explorer to r under Driver.
func Register(r *henry.Registry, opts ...Option) error {
	return r.Register(Driver, func() henry.Explorer { return NewExplorer(opts...) })
}

// Compile-time check to ensure the interface is implemented.
var _ henry.Explorer = (*Explorer)(nil)

// Extract reads every table and view of the database file at conn.Host.
func (e *Explorer) Extract(ctx context.Context, conn henry.Connection) (*schema.Database, error) {
	if err := checkExists(conn.Host); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite3", dsn(conn.Host))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	c, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sqlite connection: %w", err)
	}
	defer c.Close()

	name := conn.Database
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(conn.Host), filepath.Ext(conn.Host))
	}

	in := &introspector{conn: c, logger: e.logger}
	builder := schema.NewDatabaseBuilder(name, schema.SQLite)

	views, err := in.objectNames(ctx, "view")
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		view, err := in.view(ctx, v.Name)
		if err != nil {
			return nil, err
		}
		if err := builder.AddView(view); err != nil {
			return nil, err
		}
	}

	tables, err := in.objectNames(ctx, "table")
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		table, err := in.table(ctx, t.Name, t.SQL.String)
		if err != nil {
			return nil, err
		}
		if err := builder.AddTable(table); err != nil {
			return nil, err
		}
	}

	result := builder.Build()
	e.logger.Info("extracted schema",
		zap.String("database", result.Name),
		zap.Int("tables", len(result.Tables)),
		zap.Int("views", len(result.Views)),
	)
	return result, nil
}

func checkExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &common.DatabaseNotFoundError{Name: path, Err: err}
		}
		return fmt.Errorf("failed to stat sqlite database: %w", err)
	}
	if info.IsDir() {
		return &common.DatabaseNotFoundError{Name: path}
	}
	return nil
}

// dsn opens the file read-only so extraction can never create or modify it.
// The path is escaped so that '?', '#' and '%' stay part of the file name.
func dsn(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	return u.String()
}
