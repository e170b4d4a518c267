// Package observability defines the hook through which library components report
// the operations they perform.
//
// Components accept an optional Observer and call ObserveOperation once per
// operation. The metrics package provides a Prometheus-backed implementation.
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "embeddingdb" or "qdrant".
	Component string

	// Operation is the operation name, e.g. "search" or "save_many".
	Operation string

	// Resource is the primary object the operation touched (a collection name).
	Resource string

	// SubResource carries extra context such as the backend type.
	SubResource string

	// Duration is the wall-clock time the operation took.
	Duration time.Duration

	// Error is the error returned by the operation, nil on success.
	Error error

	// Size is an operation specific count: results returned, items written.
	Size int64

	// Metadata holds additional free-form attributes.
	Metadata map[string]interface{}
}

// Observer receives operation notifications. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}

// Status returns "success" or "error" depending on whether the operation failed.
func (c OperationContext) Status() string {
	if c.Error != nil {
		return "error"
	}
	return "success"
}
