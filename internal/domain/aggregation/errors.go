package aggregation

import "errors"

// ErrConfiguration is returned when a source cannot be registered.
var ErrConfiguration = errors.New("invalid source configuration")
