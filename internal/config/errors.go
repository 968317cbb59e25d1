package config

import "errors"

var (
	// ErrUnknownPreset indicates a preset name not present in Presets.
	ErrUnknownPreset = errors.New("config: unknown preset")

	// ErrUnknownGenerator indicates a generator kind other than lattice,
	// random or disk.
	ErrUnknownGenerator = errors.New("config: unknown generator")

	// ErrInvalid indicates a field value that Validate rejects.
	ErrInvalid = errors.New("config: invalid value")
)
