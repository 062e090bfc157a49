package management

import (
	"context"
	"errors"
	"sync"

	"github.com/Azure/go-amqp"
)

var errNoReply = errors.New("no reply queued")

// mockLink stands in for the sender, receiver and connection of an
// amqpConn. Every sent message queues the replies built by the reply
// functions, in order.
type mockLink struct {
	mu       sync.Mutex
	replies  []func(req *amqp.Message) *amqp.Message
	pending  []*amqp.Message
	sent     []*amqp.Message
	accepted int
	closed   int
	sendErr  error
	recvErr  error
}

func (l *mockLink) Send(_ context.Context, msg *amqp.Message, _ *amqp.SendOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return l.sendErr
	}
	l.sent = append(l.sent, msg)
	for _, reply := range l.replies {
		l.pending = append(l.pending, reply(msg))
	}
	return nil
}

func (l *mockLink) Receive(_ context.Context, _ *amqp.ReceiveOptions) (*amqp.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.recvErr != nil {
		return nil, l.recvErr
	}
	if len(l.pending) == 0 {
		return nil, errNoReply
	}
	msg := l.pending[0]
	l.pending = l.pending[1:]
	return msg, nil
}

func (l *mockLink) AcceptMessage(_ context.Context, _ *amqp.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accepted++
	return nil
}

func (l *mockLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed++
	return nil
}

func newMockAMQPConn(l *mockLink) *amqpConn {
	return &amqpConn{
		conn:     l,
		sender:   l,
		receiver: l,
		replyTo:  "reply-1",
		logger:   discardLogger(),
	}
}

// tableReply answers with the given AMQP-encoded table, correlated with the
// request, or with correlationID when it is non-nil.
func tableReply(correlationID any, names []amqp.Symbol, rows ...[]any) func(*amqp.Message) *amqp.Message {
	return func(req *amqp.Message) *amqp.Message {
		id := correlationID
		if id == nil {
			id = req.Properties.MessageID
		}
		results := make([]any, len(rows))
		for i, r := range rows {
			results[i] = r
		}
		return &amqp.Message{
			Properties: &amqp.MessageProperties{CorrelationID: id},
			ApplicationProperties: map[string]any{
				"statusCode":        int32(200),
				"statusDescription": "OK",
			},
			Value: map[any]any{
				amqp.Symbol("attributeNames"): names,
				"results":                     results,
			},
		}
	}
}
