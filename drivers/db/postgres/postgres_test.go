package postgres_test

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/henry"
	"github.com/burugo/henry/drivers/db/postgres"
	"github.com/burugo/henry/drivers/schema"
)

const testDatabase = "henry_album_test"

var albumFixture = []string{
	`CREATE TABLE artist (
		id SERIAL PRIMARY KEY,
		name VARCHAR(120) NOT NULL
	)`,
	`COMMENT ON TABLE artist IS 'Recording artists'`,
	`CREATE TABLE album (
		id SERIAL PRIMARY KEY,
		title VARCHAR(160) NOT NULL,
		artist_id INTEGER NOT NULL REFERENCES artist (id),
		release_year SMALLINT,
		price NUMERIC(10,2),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT now()
	)`,
	`COMMENT ON COLUMN album.created_at IS 'Row creation time'`,
	`CREATE UNIQUE INDEX album_title_uq ON album (title)`,
	`CREATE INDEX artist_album ON album (artist_id)`,
	`CREATE VIEW albums AS
		SELECT a.id, a.title, r.name AS artist FROM album a JOIN artist r ON r.id = a.artist_id`,
	`CREATE INDEX artist_name_cover ON artist (name) INCLUDE (id)`,
	`CREATE TABLE tag (
		label TEXT,
		code INTEGER GENERATED ALWAYS AS IDENTITY,
		PRIMARY KEY (code, label)
	)`,
}

func testConnection(database string) henry.Connection {
	port, _ := strconv.Atoi(os.Getenv("HENRY_PG_PORT"))
	host := os.Getenv("HENRY_PG_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	user := os.Getenv("HENRY_PG_USER")
	if user == "" {
		user = "postgres"
	}
	return henry.Connection{
		Database: database,
		User:     user,
		Password: os.Getenv("HENRY_PG_PASSWORD"),
		Host:     host,
		Port:     port,
	}
}

func open(t *testing.T, conn henry.Connection) *sqlx.DB {
	t.Helper()
	port := conn.Port
	if port == 0 {
		port = postgres.DefaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(conn.User, conn.Password),
		Host:   net.JoinHostPort(conn.Host, strconv.Itoa(port)),
		Path:   "/" + conn.Database,
	}
	cfg, err := pgx.ParseConfig(u.String())
	require.NoError(t, err)
	return sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")
}

// setupAlbumDB creates the album fixture in a scratch database and skips
// the test when no PostgreSQL server is reachable.
func setupAlbumDB(t *testing.T) henry.Connection {
	t.Helper()
	admin := open(t, testConnection("postgres"))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := admin.PingContext(ctx); err != nil {
		admin.Close()
		t.Logf("PostgreSQL not available, skipping test: %v", err)
		t.Skip("PostgreSQL not available")
	}

	admin.MustExec("DROP DATABASE IF EXISTS " + testDatabase)
	admin.MustExec("CREATE DATABASE " + testDatabase)

	conn := testConnection(testDatabase)
	fixture := open(t, conn)
	for _, stmt := range albumFixture {
		fixture.MustExec(stmt)
	}
	fixture.Close()

	t.Cleanup(func() {
		admin.Exec("DROP DATABASE IF EXISTS " + testDatabase + " WITH (FORCE)")
		admin.Close()
	})
	return conn
}

func TestExtract_Album(t *testing.T) {
	conn := setupAlbumDB(t)

	db, err := postgres.NewExplorer().Extract(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, testDatabase, db.Name)
	assert.Equal(t, schema.PostgreSQL, db.Type)
	assert.Equal(t, []string{"album", "artist", "tag"}, db.TableNames())
	assert.Equal(t, []string{"albums"}, db.ViewNames())

	artist := db.Tables["artist"]
	require.NotNil(t, artist.Comment)
	assert.Equal(t, "Recording artists", *artist.Comment)

	album := db.Tables["album"]
	require.Equal(t, 7, album.Columns.Len())
	for i, col := range album.Columns.Values() {
		assert.Equal(t, i+1, col.Order, "column %s", col.Name)
	}

	id, _ := album.Columns.Get("id")
	assert.True(t, id.IsPrimary)
	assert.True(t, id.IsUnique)
	assert.True(t, id.IsAuto)
	assert.True(t, id.IsKey)
	assert.Equal(t, "integer", id.DataType)

	title, _ := album.Columns.Get("title")
	assert.Equal(t, "character varying", title.DataType)
	require.NotNil(t, title.Length)
	assert.Equal(t, 160, *title.Length)
	assert.True(t, title.IsUnique)
	assert.False(t, title.IsNullable)

	created, _ := album.Columns.Get("created_at")
	require.NotNil(t, created.Comment)
	assert.Equal(t, "Row creation time", *created.Comment)
	assert.False(t, created.IsAuto)

	require.Len(t, album.Indexes, 3)
	assert.Equal(t, "album_pkey", album.Indexes[0].Name)
	assert.True(t, album.Indexes[0].IsPrimary)
	assert.Equal(t, album.Indexes[0].Columns, album.PrimaryColumns())

	var fkIndex *schema.Index
	for i := range album.Indexes {
		if album.Indexes[i].Name == "artist_album" {
			fkIndex = &album.Indexes[i]
		}
	}
	require.NotNil(t, fkIndex)
	assert.False(t, fkIndex.IsUnique)
	assert.Equal(t, []string{"artist_id"}, fkIndex.Columns)

	require.Len(t, album.ForeignKeys, 1)
	assert.Equal(t, "artist_id", album.ForeignKeys[0].Column)
	assert.Equal(t, "artist", album.ForeignKeys[0].ForeignTable)
	assert.Equal(t, "id", album.ForeignKeys[0].ForeignColumn)

	view := db.Views["albums"]
	assert.Equal(t, []string{"id", "title", "artist"}, view.Columns.Keys())
}

func TestExtract_CompositeIdentityKey(t *testing.T) {
	conn := setupAlbumDB(t)

	db, err := postgres.NewExplorer().Extract(context.Background(), conn)
	require.NoError(t, err)

	tag := db.Tables["tag"]
	pk, ok := tag.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, []string{"code", "label"}, pk.Columns)
	assert.ElementsMatch(t, pk.Columns, tag.PrimaryColumns())

	code, _ := tag.Columns.Get("code")
	assert.True(t, code.IsAuto)
}

// execIn runs statements against conn's database.
func execIn(t *testing.T, conn henry.Connection, stmts ...string) {
	t.Helper()
	db := open(t, conn)
	defer db.Close()
	for _, stmt := range stmts {
		db.MustExec(stmt)
	}
}

func TestExtract_CoveringIndexKeyColumnsOnly(t *testing.T) {
	conn := setupAlbumDB(t)

	db, err := postgres.NewExplorer().Extract(context.Background(), conn)
	require.NoError(t, err)

	var cover *schema.Index
	for i, idx := range db.Tables["artist"].Indexes {
		if idx.Name == "artist_name_cover" {
			cover = &db.Tables["artist"].Indexes[i]
		}
	}
	require.NotNil(t, cover)
	assert.Equal(t, []string{"name"}, cover.Columns)
}

func TestExtract_SchemaNamedAfterDatabase(t *testing.T) {
	conn := setupAlbumDB(t)
	execIn(t, conn,
		"CREATE SCHEMA "+testDatabase,
		"CREATE TABLE "+testDatabase+".track (id SERIAL PRIMARY KEY, name TEXT NOT NULL)",
	)

	db, err := postgres.NewExplorer().Extract(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"track"}, db.TableNames(), "public tables are not read")
	assert.Empty(t, db.ViewNames())

	track := db.Tables["track"]
	assert.Equal(t, []string{"id", "name"}, track.Columns.Keys())
	assert.Equal(t, []string{"id"}, track.PrimaryColumns())
}

func TestExtract_DroppedColumnOrdinals(t *testing.T) {
	conn := setupAlbumDB(t)
	execIn(t, conn, "ALTER TABLE album DROP COLUMN release_year")

	db, err := postgres.NewExplorer().Extract(context.Background(), conn)
	require.NoError(t, err)

	album := db.Tables["album"]
	assert.Equal(t,
		[]string{"id", "title", "artist_id", "price", "is_active", "created_at"},
		album.Columns.Keys())
	for i, col := range album.Columns.Values() {
		assert.Equal(t, i+1, col.Order, "column %s", col.Name)
	}
}

func TestExtract_MissingSchema(t *testing.T) {
	conn := setupAlbumDB(t)
	execIn(t, conn, "DROP SCHEMA public CASCADE")

	_, err := postgres.NewExplorer().Extract(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, henry.ErrSchemaNotFound))
	assert.True(t, errors.Is(err, henry.ErrDatabaseNotFound))

	var schemaErr *henry.SchemaNotFoundError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, postgres.DefaultSchema, schemaErr.Name)
}

func TestExtract_RoundTrip(t *testing.T) {
	conn := setupAlbumDB(t)
	explorer := postgres.NewExplorer()

	first, err := explorer.Extract(context.Background(), conn)
	require.NoError(t, err)
	second, err := explorer.Extract(context.Background(), conn)
	require.NoError(t, err)
	assert.Empty(t, schema.Diff(first, second))
}

func TestExtract_MissingDatabase(t *testing.T) {
	setupAlbumDB(t)
	conn := testConnection("henry_no_such_database")

	_, err := postgres.NewExplorer().Extract(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, henry.ErrDatabaseNotFound))
	assert.Contains(t, err.Error(), "henry_no_such_database")
}
