package api

import "errors"

// ErrBadRequest marks caller mistakes that map to 400.
var ErrBadRequest = errors.New("bad request")
