package source

import (
	"errors"
	"fmt"

	"github.com/okian/trendhub/internal/domain/model"
)

// ErrSourceFetch marks any failure retrieving data from a source.
var ErrSourceFetch = errors.New("source fetch failed")

// FetchError carries the context of a failed fetch.
type FetchError struct {
	Source     string
	Capability model.Capability
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrSourceFetch, e.Source, e.Capability, e.Err)
}

// Unwrap lets errors.Is match both ErrSourceFetch and the cause.
func (e *FetchError) Unwrap() []error {
	return []error{ErrSourceFetch, e.Err}
}
