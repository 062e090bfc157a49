// Package router fetches router entity tables and enriches them with the
// derived columns the router metrics are computed from.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/EnMasseProject/enmasse/internal/entity"
)

// Management entity types.
const (
	RouterEntityType     = "org.apache.qpid.dispatch.router"
	ConnectionEntityType = "org.apache.qpid.dispatch.connection"
	LinkEntityType       = "org.apache.qpid.dispatch.router.link"
)

// Derived attribute names.
const (
	AttrConnectionCount = "connectionCount"
	AttrLinkCount       = "linkCount"
	AttrAddress         = "address"
	AttrContainer       = "container"
)

// Source attribute names used by the joins.
const (
	attrOwningAddr   = "owningAddr"
	attrConnectionID = "connectionId"
	attrIdentity     = "identity"
)

// ErrMissingJoinDependency is returned when the secondary table of a join
// could not be fetched.
var ErrMissingJoinDependency = errors.New("router: missing join dependency")

// Querier runs one management query.
type Querier interface {
	Query(ctx context.Context, entityType string) (*entity.Table, error)
}

// FetchFunc produces one enriched table, or an error meaning "no data".
type FetchFunc func(ctx context.Context, q Querier) (*entity.Table, error)

// Procedure is a named fetch-and-join step.
type Procedure struct {
	Name       string
	EntityType string
	Fetch      FetchFunc
}

// Procedures in collection order.
var (
	RouterTotals = Procedure{Name: "router", EntityType: RouterEntityType, Fetch: FetchRouterTotals}
	Connections  = Procedure{Name: "connections", EntityType: ConnectionEntityType, Fetch: FetchConnections}
	Links        = Procedure{Name: "links", EntityType: LinkEntityType, Fetch: FetchLinks}
)

// FetchRouterTotals returns the router entity table unchanged.
func FetchRouterTotals(ctx context.Context, q Querier) (*entity.Table, error) {
	return q.Query(ctx, RouterEntityType)
}

// FetchConnections returns the connection table with connectionCount=1 on
// every row.
func FetchConnections(ctx context.Context, q Querier) (*entity.Table, error) {
	connections, err := q.Query(ctx, ConnectionEntityType)
	if err != nil {
		return nil, err
	}
	if err := connections.AppendConstantField(AttrConnectionCount, 1); err != nil {
		return nil, fmt.Errorf("router: connections: %w", err)
	}
	return connections, nil
}

// FetchLinks returns the link table with address, linkCount and container
// attached. The container comes from the connection whose identity matches
// the link's connectionId; the whole procedure fails if connections cannot
// be fetched.
func FetchLinks(ctx context.Context, q Querier) (*entity.Table, error) {
	links, err := q.Query(ctx, LinkEntityType)
	if err != nil {
		return nil, err
	}

	connections, err := FetchConnections(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: connections: %w", ErrMissingJoinDependency, err)
	}

	if err := links.AppendDerivedField(AttrAddress, attrOwningAddr, CleanAddress); err != nil {
		return nil, fmt.Errorf("router: links: %w", err)
	}
	if err := links.AppendConstantField(AttrLinkCount, 1); err != nil {
		return nil, fmt.Errorf("router: links: %w", err)
	}
	if err := links.AppendDerivedField(AttrContainer, attrConnectionID, ContainerLookup(connections)); err != nil {
		return nil, fmt.Errorf("router: links: %w", err)
	}
	return links, nil
}
