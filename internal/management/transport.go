package management

import "context"

// Management request properties.
const (
	OperationQuery = "QUERY"
	SelfName       = "self"
)

// Request is a management request. It is sent as application properties
// with an empty attribute-name list in the body, which asks for every column.
type Request struct {
	Operation  string
	EntityType string
	Name       string
}

// Properties returns the request as application properties.
func (r Request) Properties() map[string]any {
	return map[string]any{
		"operation":  r.Operation,
		"entityType": r.EntityType,
		"name":       r.Name,
	}
}

// Response is a management response: application properties carrying the
// status and a decoded body.
type Response struct {
	Properties map[string]any
	Body       any
}

// Conn is one connection to the management agent. Calls are synchronous and
// must not be issued concurrently.
type Conn interface {
	Call(ctx context.Context, req Request) (*Response, error)
	Close() error
}

// Dialer opens connections to the management agent.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Conn, error)

// Dial calls f(ctx).
func (f DialerFunc) Dial(ctx context.Context) (Conn, error) {
	return f(ctx)
}
