package bus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaQueue implementa MessageQueue sobre Kafka con un consumer group.
// queue es el nombre del topic. Kafka no tiene visibilidad ni contador de entregas, así que
// se emulan en memoria: un mensaje no confirmado se vuelve a entregar desde aquí cuando
// expira su VisibilityTimeout, y el offset solo avanza sobre el prefijo confirmado.
type KafkaQueue struct {
	brokers []string
	groupID string
	linger  time.Duration
	// maxInflight limita los mensajes sin confirmar por topic; al alcanzarlo se deja de leer
	// del broker hasta que avance el prefijo confirmado.
	maxInflight int
	writer      *kafka.Writer
	log         *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	readers map[string]*kafka.Reader
	acks    map[string]*partitionAcks // topic/partition
}

var _ MessageQueue = (*KafkaQueue)(nil)

func NewKafkaQueue(brokers []string, groupID string, log *zap.Logger) *KafkaQueue {
	return &KafkaQueue{
		brokers:     brokers,
		groupID:     groupID,
		linger:      100 * time.Millisecond,
		maxInflight: 1000,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		log:     log,
		now:     time.Now,
		readers: make(map[string]*kafka.Reader),
		acks:    make(map[string]*partitionAcks),
	}
}

func (q *KafkaQueue) reader(topic string) *kafka.Reader {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.readers[topic]
	if !ok {
		r = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  q.brokers,
			Topic:    topic,
			GroupID:  q.groupID,
			MinBytes: 1,
			MaxBytes: 10e6, // 10MB
		})
		q.readers[topic] = r
		q.log.Info("🎧 Kafka reader created", zap.String("topic", topic), zap.String("group", q.groupID))
	}
	return r
}

// Receive primero re-entrega los mensajes cuya visibilidad expiró. Si no hay, espera hasta
// WaitTime por un mensaje nuevo y agrupa los que lleguen dentro de la ventana de linger,
// hasta MaxMessages. Con el topic saturado de mensajes sin confirmar devuelve un lote vacío.
func (q *KafkaQueue) Receive(ctx context.Context, topic string, opts ReceiveOptions) ([]Message, error) {
	wait := opts.WaitTime
	if wait <= 0 {
		wait = time.Second
	}
	limit := int(opts.MaxMessages)
	if limit <= 0 {
		limit = 1
	}

	redelivered, backlogged := q.expired(topic, opts.VisibilityTimeout, limit)
	if len(redelivered) > 0 {
		return redelivered, nil
	}
	if backlogged {
		q.log.Debug("Kafka in-flight limit reached, fetch paused", zap.String("topic", topic), zap.Int("limit", q.maxInflight))
		return nil, nil
	}

	r := q.reader(topic)

	fctx, cancel := context.WithTimeout(ctx, wait)
	first, err := r.FetchMessage(fctx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("kafka fetch: %w", err)
	}

	msgs := []Message{q.track(first, opts.VisibilityTimeout)}
	for len(msgs) < limit {
		lctx, cancel := context.WithTimeout(ctx, q.linger)
		m, err := r.FetchMessage(lctx)
		cancel()
		if err != nil {
			break
		}
		msgs = append(msgs, q.track(m, opts.VisibilityTimeout))
	}
	return msgs, nil
}

// expired devuelve hasta limit mensajes del topic cuya visibilidad expiró, ya marcados
// con una nueva entrega, e indica si el topic alcanzó maxInflight.
func (q *KafkaQueue) expired(topic string, visibility time.Duration, limit int) ([]Message, bool) {
	now := q.now()
	prefix := topic + "/"

	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Message
	pending := 0
	for key, acks := range q.acks {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		pending += acks.pending()
		if len(out) < limit {
			for _, e := range acks.redeliver(now, visibility, limit-len(out)) {
				out = append(out, toMessage(e.msg, e.deliveries))
			}
		}
	}
	return out, q.maxInflight > 0 && pending >= q.maxInflight
}

func (q *KafkaQueue) track(m kafka.Message, visibility time.Duration) Message {
	key := m.Topic + "/" + strconv.Itoa(m.Partition)

	q.mu.Lock()
	acks, ok := q.acks[key]
	if !ok {
		acks = &partitionAcks{}
		q.acks[key] = acks
	}
	acks.add(m, q.now().Add(visibility))
	q.mu.Unlock()

	return toMessage(m, 1)
}

func toMessage(m kafka.Message, deliveries int) Message {
	receipt := m.Topic + "/" + strconv.Itoa(m.Partition) + "/" + strconv.FormatInt(m.Offset, 10)
	attrs := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		attrs[h.Key] = string(h.Value)
	}
	return Message{
		ID:            receipt,
		ReceiptHandle: receipt,
		Body:          m.Value,
		ReceiveCount:  deliveries,
		Attributes:    attrs,
	}
}

// Delete confirma el mensaje. El offset solo avanza sobre el prefijo contiguo
// de mensajes confirmados de la partición, así un fallo no queda tapado por
// un éxito posterior.
func (q *KafkaQueue) Delete(ctx context.Context, topic string, receiptHandle string) error {
	partKey, offset, err := parseReceipt(receiptHandle)
	if err != nil {
		return err
	}

	q.mu.Lock()
	acks, ok := q.acks[partKey]
	var commit *kafka.Message
	if ok {
		commit = acks.done(offset)
	}
	r := q.readers[topic]
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("kafka delete: unknown receipt %s", receiptHandle)
	}
	if commit == nil {
		return nil
	}
	if r == nil {
		return fmt.Errorf("kafka delete: no reader for topic %s", topic)
	}
	if err := r.CommitMessages(ctx, *commit); err != nil {
		return fmt.Errorf("kafka commit: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Send(ctx context.Context, topic string, body []byte, attributes map[string]string) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(attributes["subjectId"]),
		Value: body,
	}
	for k, v := range attributes {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close cierra readers y writer.
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var errs []error
	for _, r := range q.readers {
		errs = append(errs, r.Close())
	}
	errs = append(errs, q.writer.Close())
	return errors.Join(errs...)
}

// partitionAcks guarda los mensajes en vuelo de una partición, ordenados por offset.
type partitionAcks struct {
	inflight []ackEntry
	acked    int // confirmados que siguen en inflight detrás de uno pendiente
}

type ackEntry struct {
	msg        kafka.Message
	done       bool
	deliveries int
	visibleAt  time.Time
}

func (p *partitionAcks) add(m kafka.Message, visibleAt time.Time) {
	// Tras un rebalance el broker vuelve a servir desde el último commit: lo ya
	// registrado a partir de ese offset se sustituye.
	if n := len(p.inflight); n > 0 && m.Offset <= p.inflight[n-1].msg.Offset {
		i := p.search(m.Offset)
		for _, e := range p.inflight[i:] {
			if e.done {
				p.acked--
			}
		}
		p.inflight = p.inflight[:i]
	}
	p.inflight = append(p.inflight, ackEntry{msg: m, deliveries: 1, visibleAt: visibleAt})
}

func (p *partitionAcks) search(offset int64) int {
	return sort.Search(len(p.inflight), func(i int) bool { return p.inflight[i].msg.Offset >= offset })
}

// pending es el número de mensajes entregados y aún sin confirmar.
func (p *partitionAcks) pending() int {
	return len(p.inflight) - p.acked
}

// redeliver marca como nueva entrega hasta limit mensajes sin confirmar cuya visibilidad expiró.
func (p *partitionAcks) redeliver(now time.Time, visibility time.Duration, limit int) []ackEntry {
	var out []ackEntry
	for i := range p.inflight {
		if len(out) >= limit {
			break
		}
		e := &p.inflight[i]
		if e.done || now.Before(e.visibleAt) {
			continue
		}
		e.deliveries++
		e.visibleAt = now.Add(visibility)
		out = append(out, *e)
	}
	return out
}

// done marca offset y devuelve el último mensaje del prefijo confirmado, o nil.
func (p *partitionAcks) done(offset int64) *kafka.Message {
	i := p.search(offset)
	if i == len(p.inflight) || p.inflight[i].msg.Offset != offset || p.inflight[i].done {
		return nil
	}
	p.inflight[i].done = true
	p.acked++

	var last *kafka.Message
	n := 0
	for n < len(p.inflight) && p.inflight[n].done {
		m := p.inflight[n].msg
		last = &m
		n++
	}
	if n > 0 {
		p.acked -= n
		p.inflight = p.inflight[n:]
	}
	return last
}

func parseReceipt(receipt string) (string, int64, error) {
	for i := len(receipt) - 1; i >= 0; i-- {
		if receipt[i] == '/' {
			offset, err := strconv.ParseInt(receipt[i+1:], 10, 64)
			if err != nil {
				break
			}
			return receipt[:i], offset, nil
		}
	}
	return "", 0, fmt.Errorf("kafka: invalid receipt %q", receipt)
}
