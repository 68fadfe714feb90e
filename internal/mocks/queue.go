package mocks

import (
	"context"
	"sync"

	sharedBus "github.com/davicafu/gamehub/internal/shared/infra/platform/bus"
	"github.com/stretchr/testify/mock"
)

// ReceiveResult es la respuesta guionizada de un Receive.
type ReceiveResult struct {
	Messages []sharedBus.Message
	Err      error
}

// SentMessage registra un Send.
type SentMessage struct {
	Queue      string
	Body       []byte
	Attributes map[string]string
}

// FakeQueue devuelve Script en orden; agotado el guion, devuelve lotes vacíos.
// OnReceive se invoca tras cada Receive con el número de llamada (desde 1).
type FakeQueue struct {
	mu        sync.Mutex
	Script    []ReceiveResult
	OnReceive func(call int)
	SendErr   error
	DeleteErr error

	receives int
	deleted  []string
	sent     []SentMessage
}

var _ sharedBus.MessageQueue = (*FakeQueue)(nil)

func (q *FakeQueue) Receive(ctx context.Context, queue string, opts sharedBus.ReceiveOptions) ([]sharedBus.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.receives++
	call := q.receives
	var res ReceiveResult
	if call <= len(q.Script) {
		res = q.Script[call-1]
	}
	hook := q.OnReceive
	q.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return res.Messages, res.Err
}

func (q *FakeQueue) Delete(ctx context.Context, queue string, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.DeleteErr != nil {
		return q.DeleteErr
	}
	q.deleted = append(q.deleted, receiptHandle)
	return nil
}

func (q *FakeQueue) Send(ctx context.Context, queue string, body []byte, attributes map[string]string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.SendErr != nil {
		return q.SendErr
	}
	q.sent = append(q.sent, SentMessage{Queue: queue, Body: body, Attributes: attributes})
	return nil
}

func (q *FakeQueue) Receives() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.receives
}

func (q *FakeQueue) Deleted() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

func (q *FakeQueue) Sent() []SentMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]SentMessage(nil), q.sent...)
}

// MockMessageQueue es la variante testify para verificar llamadas exactas.
type MockMessageQueue struct {
	mock.Mock
}

var _ sharedBus.MessageQueue = (*MockMessageQueue)(nil)

func (m *MockMessageQueue) Receive(ctx context.Context, queue string, opts sharedBus.ReceiveOptions) ([]sharedBus.Message, error) {
	args := m.Called(ctx, queue, opts)
	msgs, _ := args.Get(0).([]sharedBus.Message)
	return msgs, args.Error(1)
}

func (m *MockMessageQueue) Delete(ctx context.Context, queue string, receiptHandle string) error {
	args := m.Called(ctx, queue, receiptHandle)
	return args.Error(0)
}

func (m *MockMessageQueue) Send(ctx context.Context, queue string, body []byte, attributes map[string]string) error {
	args := m.Called(ctx, queue, body, attributes)
	return args.Error(0)
}
