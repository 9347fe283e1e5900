package domain

import "errors"

// Pipeline error kinds. Each stage wraps one of these so callers can map a
// failure to the right user-facing response without string matching.
var (
	ErrUnsupportedType   = errors.New("unsupported input type")
	ErrReadFailure       = errors.New("input read failed")
	ErrDecodeFailure     = errors.New("image decode failed")
	ErrInvalidParameters = errors.New("invalid tool parameters")
	ErrEncodeFailure     = errors.New("image encode failed")
	ErrStorageFailure    = errors.New("artifact storage failed")
)
