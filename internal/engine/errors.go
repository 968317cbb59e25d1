package engine

import "errors"

var (
	// ErrUnknownMode indicates a force mode name that ParseMode does not know.
	ErrUnknownMode = errors.New("engine: unknown force mode")

	// ErrInvalidTheta indicates a negative, NaN or infinite opening threshold.
	ErrInvalidTheta = errors.New("engine: invalid theta")

	// ErrInvalidThreshold indicates a negative auto-mode body threshold.
	ErrInvalidThreshold = errors.New("engine: invalid gpu threshold")
)
