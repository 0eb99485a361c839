package errors

import "errors"

var (
	ErrIndex          = errors.New("index error")
	ErrKey            = errors.New("key error")
	ErrType           = errors.New("type error")
	ErrNotImplemented = errors.New("not implemented")

	// ErrColumnNotFound is returned when a plan references a column that does
	// not exist in the schema of its input.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when a schema would contain the same
	// column name twice.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrPlanTooDeep is returned when a plan exceeds the configured maximum
	// depth of an optimization pass.
	ErrPlanTooDeep = errors.New("plan exceeds maximum depth")
)
