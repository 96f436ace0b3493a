package observability

import "time"

// Observer receives a notification for every observed operation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a completed operation.
type OperationContext struct {
	// Component is the reporting component, usually the store scheme
	// ("sqlite", "mongodb", ...).
	Component string

	// Operation is the operation name ("insert", "query", "delete", ...).
	Operation string

	// Resource is the primary target, e.g. the database alias.
	Resource string

	// SubResource is the secondary target, e.g. the collection name.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is an operation-specific amount such as the number of rows
	// inserted, returned or deleted.
	Size int64

	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }

// Multi fans a notification out to several observers. Nil entries are skipped.
func Multi(observers ...Observer) Observer {
	list := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return ObserverFunc(func(ctx OperationContext) {
		for _, o := range list {
			o.ObserveOperation(ctx)
		}
	})
}
