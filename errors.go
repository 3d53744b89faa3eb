package henry

import "github.com/burugo/henry/common"

// ErrNotFound is returned when a requested item (e.g., a stored type map) is not found.
var ErrNotFound = common.ErrNotFound

// Additional package-level errors, re-exported from common so callers only
// need the root package.
var (
	ErrDatabaseNotFound = common.ErrDatabaseNotFound
	ErrSchemaNotFound   = common.ErrSchemaNotFound
	ErrUnknownDriver    = common.ErrUnknownDriver
	ErrDuplicateRecord  = common.ErrDuplicateRecord
	ErrRecordNotFound   = common.ErrRecordNotFound
	ErrNilFactory       = common.ErrNilFactory
)

type (
	DatabaseNotFoundError = common.DatabaseNotFoundError
	SchemaNotFoundError   = common.SchemaNotFoundError
	UnknownDriverError    = common.UnknownDriverError
	DuplicateRecordError  = common.DuplicateRecordError
	RecordNotFoundError   = common.RecordNotFoundError
)
