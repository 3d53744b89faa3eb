package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/henry"
	"github.com/burugo/henry/common"
)

func TestConnString(t *testing.T) {
	cfg, err := pgx.ParseConfig(connString(henry.Connection{
		Database: "chinook",
		User:     "app",
		Password: "p@ss:word",
		Host:     "db.local",
	}))
	require.NoError(t, err)
	assert.Equal(t, "db.local", cfg.Host)
	assert.Equal(t, uint16(DefaultPort), cfg.Port)
	assert.Equal(t, "chinook", cfg.Database)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "p@ss:word", cfg.Password)
}

func TestClassify(t *testing.T) {
	missing := fmt.Errorf("connect: %w", &pgconn.PgError{Code: invalidCatalogName, Message: `database "x" does not exist`})
	err := classify("x", missing)
	assert.True(t, errors.Is(err, common.ErrDatabaseNotFound))
	assert.Contains(t, err.Error(), "x")

	byText := errors.New(`failed to connect: FATAL: database "y" does not exist`)
	assert.True(t, errors.Is(classify("y", byText), common.ErrDatabaseNotFound))

	role := errors.New(`FATAL: role "app" does not exist`)
	assert.Same(t, role, classify("y", role))
}
