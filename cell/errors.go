package cell

import "errors"

// Errors returned by the codec. Failures wrap one of these with a message
// carrying the lengths and counts involved, so use errors.Is to classify them.
var (
	ErrUnknownKind          = errors.New("unknown cell kind")
	ErrTruncated            = errors.New("truncated cell")
	ErrMalformedPayload     = errors.New("malformed cell payload")
	ErrConflictingArguments = errors.New("conflicting arguments")
	ErrNotImplemented       = errors.New("cell kind not implemented")
)
