package management

import (
	"context"
	"log/slog"
	"sync"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

// mockConn answers Call from a per-entity-type table of responses.
type mockConn struct {
	mu        sync.Mutex
	responses map[string]*Response
	errs      map[string]error
	requests  []Request
	closed    int
}

func (m *mockConn) Call(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.errs[req.EntityType]; ok {
		return nil, err
	}
	return m.responses[req.EntityType], nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *mockConn) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// mockDialer hands out fresh mockConns and counts dials.
type mockDialer struct {
	mu    sync.Mutex
	dials int
	conns []*mockConn
	err   error
}

func (d *mockDialer) Dial(_ context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	c := &mockConn{errs: map[string]error{}}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *mockDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func tableResponse(names []any, rows ...[]any) *Response {
	results := make([]any, len(rows))
	for i, r := range rows {
		results[i] = r
	}
	return &Response{
		Properties: map[string]any{"statusCode": int32(200), "statusDescription": "OK"},
		Body: map[string]any{
			"attributeNames": names,
			"results":        results,
		},
	}
}
