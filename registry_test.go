package henry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/henry"
	"github.com/burugo/henry/drivers/db/mysql"
	"github.com/burugo/henry/drivers/db/postgres"
	"github.com/burugo/henry/drivers/db/sqlite"
	"github.com/burugo/henry/drivers/schema"
)

// stubExplorer returns a fixed database named after its tag.
type stubExplorer struct{ tag string }

func (s *stubExplorer) Extract(ctx context.Context, conn henry.Connection) (*schema.Database, error) {
	return schema.NewDatabaseBuilder(s.tag, schema.SQLite).Build(), nil
}

func TestRegistry_CreateAndUnregister(t *testing.T) {
	r := henry.NewRegistry()
	require.NoError(t, r.Register("stub", func() henry.Explorer { return &stubExplorer{tag: "one"} }))

	e, err := r.Create("stub")
	require.NoError(t, err)
	db, err := e.Extract(context.Background(), henry.Connection{})
	require.NoError(t, err)
	assert.Equal(t, "one", db.Name)

	// Re-registering replaces the factory.
	require.NoError(t, r.Register("stub", func() henry.Explorer { return &stubExplorer{tag: "two"} }))
	e, err = r.Create("stub")
	require.NoError(t, err)
	db, _ = e.Extract(context.Background(), henry.Connection{})
	assert.Equal(t, "two", db.Name)

	r.Unregister("stub")
	r.Unregister("stub")
	_, err = r.Create("stub")
	require.Error(t, err)
	assert.True(t, errors.Is(err, henry.ErrUnknownDriver))

	var unknown *henry.UnknownDriverError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "stub", unknown.Driver)
}

func TestRegistry_CaseSensitive(t *testing.T) {
	r := henry.NewRegistry()
	require.NoError(t, sqlite.Register(r))

	_, err := r.Create("SQLite")
	assert.ErrorIs(t, err, henry.ErrUnknownDriver)
	_, err = r.Create("sqlite")
	assert.NoError(t, err)
}

func TestRegistry_NilFactory(t *testing.T) {
	r := henry.NewRegistry()
	assert.ErrorIs(t, r.Register("x", nil), henry.ErrNilFactory)
	assert.Empty(t, r.Drivers())
}

func TestRegistry_BundledDrivers(t *testing.T) {
	r := henry.NewRegistry()
	assert.Empty(t, r.Drivers(), "nothing is registered by default")

	require.NoError(t, mysql.Register(r))
	require.NoError(t, postgres.Register(r))
	require.NoError(t, sqlite.Register(r))
	assert.Equal(t, []string{"mysql", "postgresql", "sqlite"}, r.Drivers())

	e, err := r.Create(postgres.Driver)
	require.NoError(t, err)
	assert.IsType(t, &postgres.Explorer{}, e)

	a, _ := r.Create(mysql.Driver)
	b, _ := r.Create(mysql.Driver)
	assert.NotSame(t, a, b, "each Create returns a fresh explorer")
}

func TestRegistry_Concurrent(t *testing.T) {
	r := henry.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("d%d", i%5)
			_ = r.Register(name, func() henry.Explorer { return &stubExplorer{tag: name} })
			_, _ = r.Create(name)
			_ = r.Drivers()
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.Drivers(), 5)
}

func TestErrors(t *testing.T) {
	dbErr := &henry.DatabaseNotFoundError{Name: "chinook"}
	assert.Equal(t, "the following database could not be found: chinook", dbErr.Error())
	assert.ErrorIs(t, dbErr, henry.ErrDatabaseNotFound)
	assert.NotErrorIs(t, dbErr, henry.ErrSchemaNotFound)

	cause := errors.New("driver said no")
	wrapped := fmt.Errorf("extract: %w", &henry.DatabaseNotFoundError{Name: "x", Err: cause})
	assert.ErrorIs(t, wrapped, henry.ErrDatabaseNotFound)
	assert.ErrorIs(t, wrapped, cause)

	schemaErr := &henry.SchemaNotFoundError{Name: "public"}
	assert.Equal(t, "the following schema could not be found: public", schemaErr.Error())
	assert.ErrorIs(t, schemaErr, henry.ErrSchemaNotFound)
	assert.ErrorIs(t, schemaErr, henry.ErrDatabaseNotFound)

	dup := &henry.DuplicateRecordError{Key: "k"}
	assert.ErrorIs(t, dup, henry.ErrDuplicateRecord)
	assert.Contains(t, dup.Error(), "k already exists")

	missing := &henry.RecordNotFoundError{Key: "k"}
	assert.ErrorIs(t, missing, henry.ErrRecordNotFound)
	assert.NotErrorIs(t, missing, henry.ErrNotFound)
}

func TestConnection_String(t *testing.T) {
	c := henry.Connection{Database: "d", User: "u", Password: "secret", Host: "h", Port: 5432}
	assert.Equal(t, "h:5432", c.Address())
	assert.Equal(t, "u@h:5432/d", c.String())
	assert.NotContains(t, c.String(), "secret")

	assert.Equal(t, "/tmp/x.db", henry.Connection{Host: "/tmp/x.db"}.Address())
}
