package store

import "errors"

// Errors returned by catalog and record operations.
// Callers compare with errors.Is; messages carry the offending name or value.
var (
	ErrTableExists         = errors.New("table already exists")
	ErrTableNotFound       = errors.New("table does not exist")
	ErrInvalidTableName    = errors.New("invalid table name")
	ErrUnsupportedType     = errors.New("unsupported column type")
	ErrMalformedColumnSpec = errors.New("malformed column spec")
	ErrArityMismatch       = errors.New("wrong number of values")
	ErrTypeCoercion        = errors.New("type coercion failed")
	ErrUnknownColumn       = errors.New("unknown column")
	ErrReadOnlyColumn      = errors.New("column is read-only")

	// ErrDocumentNotFound means the persisted document does not exist yet.
	// Loaders treat it as empty and never surface it.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentCorrupt means the persisted document could not be decoded.
	// Loaders treat it as empty and surface it as a warning.
	ErrDocumentCorrupt = errors.New("document corrupt")
)
