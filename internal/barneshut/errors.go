package barneshut

import "errors"

var (
	// ErrInvalidDepth indicates a subdivision cap outside 1..MaxDepthLimit.
	ErrInvalidDepth = errors.New("barneshut: invalid max depth")

	// ErrMismatchedInput indicates positions and masses of different lengths.
	ErrMismatchedInput = errors.New("barneshut: positions and masses differ in length")
)
