package records

import "errors"

var (
	// ErrInconsistentField reports a field whose index or maxIndex does not
	// match its position in the record.
	ErrInconsistentField = errors.New("records: inconsistent field")

	// ErrSizeMismatch reports a field count that does not fit the record kind.
	ErrSizeMismatch = errors.New("records: size does not match record kind")

	// ErrNullKey reports a key-value record whose key would be null.
	ErrNullKey = errors.New("records: key must not be null")

	// ErrIndexOutOfRange reports an access to a field index the record does
	// not have.
	ErrIndexOutOfRange = errors.New("records: index out of range")
)
