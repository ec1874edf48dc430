package settings

import (
	"context"
	"encoding/json"
	"fmt"
)

// Fetcher knows how to fetch stored response data by id.
//
// Implementations must be safe for concurrent access by multiple goroutines.
// Callers are expected to share a single instance as much as possible.
type Fetcher interface {
	// FetchResponses fetches the stored responses for the given IDs in one
	// batched call. The returned map has an entry for every requested id that
	// exists; a requested-but-absent id is a successful fetch with a missing
	// key, not an error. Deadline semantics ride on the context.
	//
	// The returned objects can only be read from. They may not be written to.
	FetchResponses(ctx context.Context, ids []string) (data map[string]json.RawMessage, errs []error)
}

// NotFoundError is an error type to flag that an ID was not found by the Fetcher.
type NotFoundError struct {
	ID       string
	DataType string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf(`Stored %s with ID="%s" not found.`, e.DataType, e.ID)
}
