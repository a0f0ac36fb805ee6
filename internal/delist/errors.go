package delist

import (
	"errors"
	"fmt"
)

// Discovery failure reasons. These are the only two ways handle
// acquisition can fail; everything else inside discovery degrades or
// falls back instead of failing.
const (
	ReasonInit     = "init"
	ReasonNoToolID = "no_tool_id"
)

// ErrInvalidConcurrency rejects batch requests with a non-positive worker
// count before any remote call is made.
var ErrInvalidConcurrency = errors.New("requested concurrency must be positive")

// DiscoveryError means no usable handle could be acquired. It is fatal
// for the whole batch: without a handle no item can be attempted.
type DiscoveryError struct {
	Reason string
	Err    error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handle discovery failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("handle discovery failed (%s)", e.Reason)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
