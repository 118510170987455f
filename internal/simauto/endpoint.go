package simauto

import "context"

// Reply is the raw result of one endpoint invocation: the server's own
// error flag and message plus the untyped payload. A blank flag means
// success; the payload scalars are whatever the server serialized,
// untouched.
type Reply struct {
	ErrorFlag    string
	ErrorMessage string
	Payload      []any
}

// Endpoint is the entire surface this package depends on: a synchronous,
// order-preserving invoker of named automation-server functions.
// Implementations are not required to be safe for concurrent use; the
// Session serializes access.
type Endpoint interface {
	Invoke(ctx context.Context, function string, params []any) (Reply, error)
	Close() error
}
