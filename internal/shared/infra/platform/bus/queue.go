package bus

import (
	"context"
	"time"
)

// Message es una entrega concreta de un mensaje de la cola.
type Message struct {
	ID            string // identificador de entrega asignado por la cola
	ReceiptHandle string // válido solo para este intento de entrega
	Body          []byte
	ReceiveCount  int // 0 si el transporte no lo informa
	Attributes    map[string]string
}

// ReceiveOptions parametriza un poll.
type ReceiveOptions struct {
	MaxMessages       int32
	WaitTime          time.Duration
	VisibilityTimeout time.Duration
}

// MessageQueue es el puerto hacia la cola (SQS, Kafka...).
// queue es la dirección resuelta: URL de SQS o topic de Kafka.
type MessageQueue interface {
	Receive(ctx context.Context, queue string, opts ReceiveOptions) ([]Message, error)
	Delete(ctx context.Context, queue string, receiptHandle string) error
	Send(ctx context.Context, queue string, body []byte, attributes map[string]string) error
}
