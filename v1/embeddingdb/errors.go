package embeddingdb

import "errors"

// ErrInvalidArgument is wrapped by errors about malformed input: empty
// collection names, empty queries, selectors that select nothing.
var ErrInvalidArgument = errors.New("invalid argument")
