package router

import (
	"context"
	"testing"

	"github.com/EnMasseProject/enmasse/internal/entity"
)

// fakeQuerier serves canned tables per entity type. Each Query builds a fresh
// table so procedures may mutate the result.
type fakeQuerier struct {
	names   map[string][]string
	rows    map[string][][]any
	errs    map[string]error
	queries []string
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		names: map[string][]string{},
		rows:  map[string][][]any{},
		errs:  map[string]error{},
	}
}

func (f *fakeQuerier) set(entityType string, names []string, rows ...[]any) {
	f.names[entityType] = names
	f.rows[entityType] = rows
}

func (f *fakeQuerier) Query(_ context.Context, entityType string) (*entity.Table, error) {
	f.queries = append(f.queries, entityType)
	if err, ok := f.errs[entityType]; ok {
		return nil, err
	}
	rows := make([][]any, len(f.rows[entityType]))
	for i, r := range f.rows[entityType] {
		rows[i] = append([]any(nil), r...)
	}
	return entity.NewTable(f.names[entityType], rows)
}

func mustGet(t *testing.T, row entity.Row, name string) any {
	t.Helper()
	v, ok := row.Get(name)
	if !ok {
		t.Fatalf("attribute %q missing", name)
	}
	return v
}
