package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/burugo/henry"
	"github.com/burugo/henry/common"
	"github.com/burugo/henry/drivers/schema"
)

// Driver is the registry identifier for this explorer.
const Driver = "mysql"

// DefaultPort is used when Connection.Port is zero.
const DefaultPort = 3306

// errUnknownDatabase is the server error number for ER_BAD_DB_ERROR.
const errUnknownDatabase = 1049

// Explorer extracts schemas from a MySQL server.
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

// NewExplorer creates a MySQL explorer.
func NewExplorer(opts ...Option) *Explorer {
	e := &Explorer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("driver", Driver))
	return e
}

// Register binds the MySQL explorer to r under Driver.
func Register(r *henry.Registry, opts ...Option) error {
	return r.Register(Driver, func() henry.Explorer { return NewExplorer(opts...) })
}

// Compile-time check to ensure the interface is implemented.
var _ henry.Explorer = (*Explorer)(nil)

// Extract reads every table and view of conn.Database.
func (e *Explorer) Extract(ctx context.Context, conn henry.Connection) (*schema.Database, error) {
	db, err := sqlx.Open("mysql", dsn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	c, err := db.Connx(ctx)
	if err != nil {
		return nil, classify(conn.Database, fmt.Errorf("failed to connect to mysql: %w", err))
	}
	defer c.Close()

	in := &introspector{conn: c, schema: conn.Database, logger: e.logger}

	exists, err := in.databaseExists(ctx)
	if err != nil {
		return nil, classify(conn.Database, err)
	}
	if !exists {
		return nil, &common.DatabaseNotFoundError{Name: conn.Database}
	}

	builder := schema.NewDatabaseBuilder(conn.Database, schema.MySQL)

	views, err := in.objects(ctx, "VIEW")
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		view, err := in.view(ctx, v.Name, v.Comment)
		if err != nil {
			return nil, err
		}
		if err := builder.AddView(view); err != nil {
			return nil, err
		}
	}

	tables, err := in.objects(ctx, "BASE TABLE")
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		table, err := in.table(ctx, t.Name, t.Comment)
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

// dsn connects without selecting a database so that a missing schema is
// reported by the existence check rather than the handshake.
func dsn(conn henry.Connection) string {
	port := conn.Port
	if port == 0 {
		port = DefaultPort
	}
	cfg := mysql.NewConfig()
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", conn.Host, port)
	return cfg.FormatDSN()
}

// classify turns an unknown-database server error into DatabaseNotFoundError.
func classify(name string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errUnknownDatabase {
		return &common.DatabaseNotFoundError{Name: name, Err: err}
	}
	return err
}
