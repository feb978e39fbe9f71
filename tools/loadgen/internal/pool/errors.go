package pool

import "errors"

var (
	// ErrPoolClosed reports an operation against a pool after Close.
	ErrPoolClosed = errors.New("parameter pool is closed")

	// ErrValueNotFound reports a lookup that matched nothing.
	ErrValueNotFound = errors.New("value not found in pool")

	// ErrInvalidSemanticType reports an unusable semantic type.
	ErrInvalidSemanticType = errors.New("invalid semantic type")
)
