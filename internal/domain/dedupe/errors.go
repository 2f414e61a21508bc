package dedupe

import "errors"

// Sentinel errors for record validation and configuration.
var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrUnknownPolicy = errors.New("unknown merge policy")
)
