package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/burugo/henry"
	"github.com/burugo/henry/common"
	"github.com/burugo/henry/drivers/schema"
)

// Driver is the registry identifier for this explorer.
const Driver = "postgresql"

// DefaultPort is used when Connection.Port is zero.
const DefaultPort = 5432

// DefaultSchema is used when no schema is named after the database.
const DefaultSchema = "public"

// invalidCatalogName is the SQLSTATE for a missing database.
const invalidCatalogName = "3D000"

// Explorer extracts schemas from a PostgreSQL server.
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

// NewExplorer creates a PostgreSQL explorer.
func NewExplorer(opts ...Option) *Explorer {
	e := &Explorer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("driver", Driver))
	return e
}

// Register binds the PostgreSQL explorer to r under Driver.
func Register(r *henry.Registry, opts ...Option) error {
	return r.Register(Driver, func() henry.Explorer { return NewExplorer(opts...) })
}

// Compile-time check to ensure the interface is implemented.
var _ henry.Explorer = (*Explorer)(nil)

// Extract reads every table and view of the resolved schema of conn.Database.
func (e *Explorer) Extract(ctx context.Context, conn henry.Connection) (*schema.Database, error) {
	cfg, err := pgx.ParseConfig(connString(conn))
	if err != nil {
		return nil, fmt.Errorf("invalid postgresql connection: %w", err)
	}
	db := sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")
	defer db.Close()
	db.SetMaxOpenConns(1)

	c, err := db.Connx(ctx)
	if err != nil {
		return nil, classify(conn.Database, fmt.Errorf("failed to connect to postgresql: %w", err))
	}
	defer c.Close()

	in := &introspector{conn: c, logger: e.logger}

	exists, err := in.databaseExists(ctx, conn.Database)
	if err != nil {
		return nil, classify(conn.Database, err)
	}
	if !exists {
		return nil, &common.DatabaseNotFoundError{Name: conn.Database}
	}

	in.schema, err = in.resolveSchema(ctx, conn.Database)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("resolved schema", zap.String("schema", in.schema))

	builder := schema.NewDatabaseBuilder(conn.Database, schema.PostgreSQL)

	views, err := in.relations(ctx, "v")
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		view, err := in.view(ctx, v.Name, v.Comment.String)
		if err != nil {
			return nil, err
		}
		if err := builder.AddView(view); err != nil {
			return nil, err
		}
	}

	tables, err := in.relations(ctx, "r", "p")
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		table, err := in.table(ctx, t.Name, t.Comment.String)
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
		zap.String("schema", in.schema),
		zap.Int("tables", len(result.Tables)),
		zap.Int("views", len(result.Views)),
	)
	return result, nil
}

func connString(conn henry.Connection) string {
	port := conn.Port
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(conn.User, conn.Password),
		Host:   net.JoinHostPort(conn.Host, strconv.Itoa(port)),
		Path:   "/" + conn.Database,
	}
	return u.String()
}

// classify turns a missing-database connect error into DatabaseNotFoundError.
func classify(name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidCatalogName {
		return &common.DatabaseNotFoundError{Name: name, Err: err}
	}
	if strings.Contains(err.Error(), fmt.Sprintf("database %q does not exist", name)) {
		return &common.DatabaseNotFoundError{Name: name, Err: err}
	}
	return err
}
