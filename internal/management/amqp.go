package management

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/Azure/go-amqp"
	"github.com/google/uuid"
)

// ManagementAddress is the router's management node address.
const ManagementAddress = "$management"

// AMQPDialer opens AMQP 1.0 connections to the router management agent.
// With a certificate directory configured it negotiates TLS and SASL
// EXTERNAL; otherwise the connection is plain and unauthenticated.
type AMQPDialer struct {
	cfg       Config
	tlsConfig *tls.Config
	logger    *slog.Logger
}

// NewAMQPDialer validates cfg and loads TLS material if configured.
// Config defaults are applied automatically.
func NewAMQPDialer(cfg Config, logger *slog.Logger) (*AMQPDialer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ContainerID == "" {
		cfg.ContainerID = "router-metrics-" + uuid.NewString()
	}

	d := &AMQPDialer{
		cfg:    cfg,
		logger: logger.With("component", "management"),
	}
	if cfg.TLSEnabled() {
		tlsConfig, err := LoadTLSConfig(cfg.CertDir, cfg.Host, cfg.VerifyHostname)
		if err != nil {
			return nil, err
		}
		d.tlsConfig = tlsConfig
	}
	return d, nil
}

// URL returns the router address the dialer connects to.
func (d *AMQPDialer) URL() string {
	scheme := "amqp"
	if d.tlsConfig != nil {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port)))
}

// Dial connects, opens a session, a sender to the management node and a
// receiver on a dynamic reply address.
func (d *AMQPDialer) Dial(ctx context.Context) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ConnectTimeout)
	defer cancel()

	opts := &amqp.ConnOptions{
		ContainerID: d.cfg.ContainerID,
		Properties:  map[string]any{"product": "router-metrics"},
	}
	if d.tlsConfig != nil {
		opts.TLSConfig = d.tlsConfig
		opts.SASLType = amqp.SASLTypeExternal("")
	}

	conn, err := amqp.Dial(ctx, d.URL(), opts)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.URL(), err)
	}

	session, err := conn.NewSession(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}

	receiver, err := session.NewReceiver(ctx, "", &amqp.ReceiverOptions{DynamicAddress: true})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open reply receiver: %w", err)
	}

	sender, err := session.NewSender(ctx, ManagementAddress, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open management sender: %w", err)
	}

	d.logger.Debug("connected to router", "url", d.URL(), "reply_to", receiver.Address())

	return &amqpConn{
		conn:     conn,
		sender:   sender,
		receiver: receiver,
		replyTo:  receiver.Address(),
		logger:   d.logger,
	}, nil
}

// messageSender is the part of *amqp.Sender used by amqpConn.
type messageSender interface {
	Send(ctx context.Context, msg *amqp.Message, opts *amqp.SendOptions) error
}

// messageReceiver is the part of *amqp.Receiver used by amqpConn.
type messageReceiver interface {
	Receive(ctx context.Context, opts *amqp.ReceiveOptions) (*amqp.Message, error)
	AcceptMessage(ctx context.Context, msg *amqp.Message) error
}

type amqpConn struct {
	conn     io.Closer
	sender   messageSender
	receiver messageReceiver
	replyTo  string
	logger   *slog.Logger
}

// Call sends req and waits for the response correlated with it. Responses
// left over from earlier requests that timed out are discarded.
func (c *amqpConn) Call(ctx context.Context, req Request) (*Response, error) {
	id := uuid.NewString()
	replyTo := c.replyTo
	msg := &amqp.Message{
		Properties: &amqp.MessageProperties{
			MessageID: id,
			ReplyTo:   &replyTo,
		},
		ApplicationProperties: req.Properties(),
		Value:                 map[string]any{"attributeNames": []string{}},
	}

	if err := c.sender.Send(ctx, msg, nil); err != nil {
		return nil, fmt.Errorf("send %s: %w", describe(req), err)
	}

	for {
		resp, err := c.receiver.Receive(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("receive %s: %w", describe(req), err)
		}
		if err := c.receiver.AcceptMessage(ctx, resp); err != nil {
			return nil, fmt.Errorf("accept %s: %w", describe(req), err)
		}
		if !correlates(resp, id) {
			c.logger.Debug("discarding uncorrelated management response", "request", describe(req))
			continue
		}

		props := make(map[string]any, len(resp.ApplicationProperties))
		for k, v := range resp.ApplicationProperties {
			props[k] = normalize(v)
		}
		return &Response{Properties: props, Body: normalize(resp.Value)}, nil
	}
}

func (c *amqpConn) Close() error {
	return c.conn.Close()
}

// describe renders a request for log messages.
func describe(req Request) string {
	return strings.Join([]string{req.Operation, req.EntityType, req.Name}, " ")
}

func correlates(msg *amqp.Message, id string) bool {
	if msg.Properties == nil || msg.Properties.CorrelationID == nil {
		return true
	}
	got, ok := msg.Properties.CorrelationID.(string)
	return ok && got == id
}

// normalize converts AMQP-specific types in a decoded body into plain Go
// values: symbols become strings and maps get string keys.
func normalize(v any) any {
	switch t := v.(type) {
	case amqp.Symbol:
		return string(t)
	case []amqp.Symbol:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = string(s)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[mapKey(k)] = normalize(e)
		}
		return out
	default:
		return v
	}
}

func mapKey(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case amqp.Symbol:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
