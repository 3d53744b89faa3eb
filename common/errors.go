package common

import "errors"

// ErrNotFound is returned when a requested item (e.g., a stored type map) is not found.
var ErrNotFound = errors.New("henry: requested item not found")

// Additional package-level errors
var (
	ErrDatabaseNotFound = errors.New("henry: database not found")
	// ErrSchemaNotFound is only produced by the PostgreSQL explorer.
	ErrSchemaNotFound  = errors.New("henry: schema not found")
	ErrUnknownDriver   = errors.New("henry: unknown driver")
	ErrDuplicateRecord = errors.New("henry: record already exists")
	ErrRecordNotFound  = errors.New("henry: record does not exist")
	ErrNilFactory      = errors.New("henry: explorer factory must be non-nil")
)

// DatabaseNotFoundError is returned when the named database (or SQLite file)
// does not exist at the target host.
type DatabaseNotFoundError struct {
	Name string
	Err  error // driver error that triggered the classification, if any
}

func (e *DatabaseNotFoundError) Error() string {
	return "the following database could not be found: " + e.Name
}

func (e *DatabaseNotFoundError) Unwrap() error { return e.Err }

func (e *DatabaseNotFoundError) Is(target error) bool {
	return target == ErrDatabaseNotFound
}

// SchemaNotFoundError is a DatabaseNotFoundError specialisation: the database
// exists but neither the schema named after it nor "public" does.
type SchemaNotFoundError struct {
	Name string
}

func (e *SchemaNotFoundError) Error() string {
	return "the following schema could not be found: " + e.Name
}

func (e *SchemaNotFoundError) Is(target error) bool {
	return target == ErrSchemaNotFound || target == ErrDatabaseNotFound
}

// UnknownDriverError is returned by the registry when no factory is bound to a driver.
type UnknownDriverError struct {
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return "no explorer registered for driver: " + e.Driver
}

func (e *UnknownDriverError) Is(target error) bool {
	return target == ErrUnknownDriver
}

// DuplicateRecordError is returned by stores when inserting an existing key.
type DuplicateRecordError struct {
	Key string
}

func (e *DuplicateRecordError) Error() string {
	return "a record with the key: " + e.Key + " already exists"
}

func (e *DuplicateRecordError) Is(target error) bool {
	return target == ErrDuplicateRecord
}

// RecordNotFoundError is returned by stores when updating a missing key.
type RecordNotFoundError struct {
	Key string
}

func (e *RecordNotFoundError) Error() string {
	return "a record with the key: " + e.Key + " does not exist"
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}
