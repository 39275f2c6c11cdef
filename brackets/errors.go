package brackets

import "errors"

var (
	// ErrConfiguration reports parameters the engine cannot work with, such
	// as a table size outside the fixed tables or a field too large for them.
	ErrConfiguration = errors.New("bracket configuration error")
	// ErrInvalidState reports an operation that the current state forbids.
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrValidation reports input that does not belong to the bout or team.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedFormat reports an elimination format other than single.
	ErrUnsupportedFormat = errors.New("unsupported bracket format")
)
