package management

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EnMasseProject/enmasse/internal/entity"
)

// Client issues management queries over a single connection. It is used by
// one collection pass at a time; queries run sequentially.
type Client struct {
	conn    Conn
	timeout time.Duration
	logger  *slog.Logger
	broken  bool
}

// NewClient wraps conn. A non-positive timeout uses DefaultRequestTimeout.
func NewClient(conn Conn, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		conn:    conn,
		timeout: timeout,
		logger:  logger,
	}
}

// Query fetches the full attribute table of entityType.
func (c *Client) Query(ctx context.Context, entityType string) (*entity.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := Request{
		Operation:  OperationQuery,
		EntityType: entityType,
		Name:       SelfName,
	}

	start := time.Now()
	resp, err := c.conn.Call(ctx, req)
	if err != nil {
		c.broken = true
		return nil, &TransportError{Op: "query", EntityType: entityType, Err: err}
	}
	if resp == nil {
		return nil, fmt.Errorf("management: query %s: %w: empty response", entityType, ErrMalformedResponse)
	}

	if err := checkStatus(resp.Properties); err != nil {
		return nil, fmt.Errorf("management: query %s: %w", entityType, err)
	}

	table, err := decodeTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("management: query %s: %w", entityType, err)
	}

	c.logger.Debug("management query",
		"entity_type", entityType,
		"rows", table.Len(),
		"duration", time.Since(start),
	)
	return table, nil
}

// Broken reports whether a transport error has been seen on this client.
func (c *Client) Broken() bool {
	return c.broken
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// checkStatus validates the statusCode application property. A response
// without one is accepted.
func checkStatus(props map[string]any) error {
	raw, ok := props["statusCode"]
	if !ok || raw == nil {
		return nil
	}
	code, ok := toInt(raw)
	if !ok {
		return fmt.Errorf("%w: statusCode has type %T", ErrMalformedResponse, raw)
	}
	if code >= 200 && code < 300 {
		return nil
	}
	desc, _ := props["statusDescription"].(string)
	return &StatusError{StatusCode: code, Description: desc}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}

// decodeTable converts a {attributeNames, results} body into a Table.
func decodeTable(body any) (*entity.Table, error) {
	m, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: body has type %T", ErrMalformedResponse, body)
	}

	rawNames, ok := m["attributeNames"]
	if !ok {
		return nil, fmt.Errorf("%w: missing attributeNames", ErrMalformedResponse)
	}
	names, err := decodeNames(rawNames)
	if err != nil {
		return nil, err
	}

	rawResults, ok := m["results"]
	if !ok {
		return nil, fmt.Errorf("%w: missing results", ErrMalformedResponse)
	}
	results, ok := rawResults.([]any)
	if !ok && rawResults != nil {
		return nil, fmt.Errorf("%w: results has type %T", ErrMalformedResponse, rawResults)
	}

	rows := make([][]any, 0, len(results))
	for i, r := range results {
		row, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: result %d has type %T", ErrMalformedResponse, i, r)
		}
		rows = append(rows, row)
	}

	table, err := entity.NewTable(names, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return table, nil
}

func decodeNames(v any) ([]string, error) {
	switch names := v.(type) {
	case []string:
		return names, nil
	case []any:
		out := make([]string, len(names))
		for i, n := range names {
			s, ok := n.(string)
			if !ok {
				return nil, fmt.Errorf("%w: attribute name %d has type %T", ErrMalformedResponse, i, n)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: attributeNames has type %T", ErrMalformedResponse, v)
	}
}
