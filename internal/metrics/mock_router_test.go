package metrics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/EnMasseProject/enmasse/internal/management"
	"github.com/EnMasseProject/enmasse/internal/router"
)

var errNoEntity = errors.New("no such entity type")

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

// fakeRouter is a management.Dialer whose connections answer queries from a
// fixed snapshot of entity tables.
type fakeRouter struct {
	mu      sync.Mutex
	tables  map[string]*management.Response
	errs    map[string]error
	dialErr error
	dials   int
	queries []string
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		tables: map[string]*management.Response{},
		errs:   map[string]error{},
	}
}

func (r *fakeRouter) set(entityType string, names []string, rows ...[]any) {
	anyNames := make([]any, len(names))
	for i, n := range names {
		anyNames[i] = n
	}
	results := make([]any, len(rows))
	for i, row := range rows {
		results[i] = row
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[entityType] = &management.Response{
		Properties: map[string]any{"statusCode": int32(200)},
		Body: map[string]any{
			"attributeNames": anyNames,
			"results":        results,
		},
	}
}

func (r *fakeRouter) fail(entityType string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[entityType] = err
}

func (r *fakeRouter) Dial(_ context.Context) (management.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dials++
	if r.dialErr != nil {
		return nil, r.dialErr
	}
	return &fakeConn{router: r}, nil
}

func (r *fakeRouter) dialCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dials
}

func (r *fakeRouter) queried() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

type fakeConn struct {
	router *fakeRouter
}

// Call copies the stored rows so that join procedures appending columns do
// not alter the snapshot.
func (c *fakeConn) Call(ctx context.Context, req management.Request) (*management.Response, error) {
	r := c.router
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, req.EntityType)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := r.errs[req.EntityType]; ok {
		return nil, err
	}
	resp, ok := r.tables[req.EntityType]
	if !ok {
		return nil, errNoEntity
	}
	body := resp.Body.(map[string]any)
	results := body["results"].([]any)
	copied := make([]any, len(results))
	for i, row := range results {
		copied[i] = append([]any(nil), row.([]any)...)
	}
	return &management.Response{
		Properties: resp.Properties,
		Body: map[string]any{
			"attributeNames": body["attributeNames"],
			"results":        copied,
		},
	}, nil
}

func (c *fakeConn) Close() error { return nil }

// snapshotRouter returns a router with one router entity, two connections
// and five links: three outgoing on anycast/queue1 (two of them on the same
// connection), one incoming on queue1, and one whose connection is unknown.
func snapshotRouter() *fakeRouter {
	r := newFakeRouter()
	r.set(router.RouterEntityType,
		[]string{"routerId", "connectionCount", "linkCount", "addrCount", "autoLinkCount", "linkRouteCount"},
		[]any{"R1", 4, 10, 2, 0, 0},
	)
	r.set(router.ConnectionEntityType,
		[]string{"identity", "container"},
		[]any{"1", "client-a"},
		[]any{"2", "client-b"},
	)
	r.set(router.LinkEntityType,
		[]string{"identity", "owningAddr", "connectionId", "linkDir", "unsettledCount", "deliveryCount",
			"releasedCount", "rejectedCount", "acceptedCount", "undeliveredCount", "capacity"},
		[]any{"l1", "M0queue1", "1", "out", 2, 100, 1, 0, 99, 0, 250},
		[]any{"l2", "M0queue1", "1", "out", 3, 50, 0, 1, 49, 1, 250},
		[]any{"l3", "M0queue1", "2", "out", 5, 10, 0, 0, 10, 0, 250},
		[]any{"l4", "M0queue1", "2", "in", 0, 160, 0, 0, 160, 0, 250},
		[]any{"l5", "Ltopic", "9", "in", 0, 7, 0, 0, 7, 0, 100},
	)
	return r
}

func newTestPool(r *fakeRouter) *management.Pool {
	return management.NewPool(r, 0, discardLogger())
}

func newTestCollector(t *testing.T, r *fakeRouter) (*Collector, *management.Pool) {
	t.Helper()
	pool := newTestPool(r)
	c, err := NewCollector(Config{}, DefaultBindings(), pool, discardLogger())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return c, pool
}
