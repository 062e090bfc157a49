package management

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("management: pool closed")

// Pool hands out one Client per collection pass. It keeps at most one idle
// connection between passes; overlapping passes get independent connections.
// A client that saw a transport error is closed on release and the next pass
// dials again.
type Pool struct {
	dialer  Dialer
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	idle   *Client
	closed bool
}

// NewPool creates a Pool that dials with dialer. requestTimeout bounds each
// query issued by the clients it hands out.
func NewPool(dialer Dialer, requestTimeout time.Duration, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		dialer:  dialer,
		timeout: requestTimeout,
		logger:  logger.With("component", "management"),
	}
}

// Acquire returns the idle client if there is one, or dials a new connection.
// The caller owns the client until Release.
func (p *Pool) Acquire(ctx context.Context) (*Client, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if c := p.idle; c != nil {
		p.idle = nil
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	conn, err := p.dialer.Dial(ctx)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	p.logger.Debug("management connection established")
	return NewClient(conn, p.timeout, p.logger), nil
}

// Release returns c to the pool. Broken clients, and clients released while
// another idle one is held or after Close, are closed.
func (p *Pool) Release(c *Client) {
	if c == nil {
		return
	}
	p.mu.Lock()
	if !c.Broken() && !p.closed && p.idle == nil {
		p.idle = c
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if c.Broken() {
		p.logger.Debug("dropping broken management connection")
	}
	if err := c.Close(); err != nil {
		p.logger.Debug("close management connection", "error", err)
	}
}

// Close closes the idle connection and rejects further Acquire calls.
func (p *Pool) Close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	if idle != nil {
		return idle.Close()
	}
	return nil
}
