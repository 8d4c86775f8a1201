// Package eventbus implements the event bus producer: a batching,
// at-least-once publisher that ships domain.Events off-process.
//
// Transport is adapted directly from the teacher's internal/mq package
// (Connection's auto-reconnect, Publisher's JSON envelope convention);
// Producer adds the batching/linger/requeue machinery the teacher's
// single-message Publish call never needed.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flowforge/automata/internal/domain"
	"github.com/flowforge/automata/internal/mq"
)

// Message pairs an Event with its ordering key and resolved topic,
// letting a Transport shard or order delivery by session, and route to
// the right queue, without parsing the payload.
type Message struct {
	Key   string
	Topic string
	Event domain.Event
}

// Transport ships a batch of messages off-process. SendBatch must be
// all-or-nothing from the caller's point of view: a partial failure
// should be reported as an error so Producer can requeue the whole
// batch rather than silently drop part of it.
type Transport interface {
	SendBatch(ctx context.Context, msgs []Message) error
	Close() error
}

const eventsExchange = "automata.events"

// queueForTopic names the durable queue backing one fully-qualified
// topic. Every topic gets its own queue, bound to eventsExchange under a
// routing key equal to the topic name itself, so consumers can bind to
// exactly the topics they care about.
func queueForTopic(topic string) string { return topic }

// RabbitMQTransport publishes events to one queue per resolved topic
// (spec.md §4.6) on a single shared direct exchange.
type RabbitMQTransport struct {
	conn       *mq.Connection
	publisher  *mq.Publisher
	compressor Compressor
	logger     *slog.Logger
}

// NewRabbitMQTransport declares one queue per fully-qualified topic
// (Topics(), each prefixed with topicPrefix) and returns a Transport
// backed by them.
func NewRabbitMQTransport(ctx context.Context, conn *mq.Connection, topicPrefix string, compressor Compressor, logger *slog.Logger) (*RabbitMQTransport, error) {
	for _, topic := range Topics() {
		qualified := QualifiedTopic(topicPrefix, topic)
		spec := mq.TopologySpec{
			Exchange:     eventsExchange,
			ExchangeKind: "direct",
			Queue:        mq.Queue(queueForTopic(qualified)),
			RoutingKey:   mq.RoutingKey(qualified),
		}
		if err := mq.DeclareTopology(ctx, conn, spec); err != nil {
			return nil, fmt.Errorf("setup topology for topic %s: %w", qualified, err)
		}
	}

	return &RabbitMQTransport{
		conn:       conn,
		publisher:  mq.NewPublisher(conn, logger),
		compressor: compressor,
		logger:     logger,
	}, nil
}

// envelope is the wire shape published to each event's topic: the
// compressed, JSON-encoded event plus enough metadata for a consumer to
// decompress it without guessing.
type envelope struct {
	Codec string `json:"codec"`
	Body  []byte `json:"body"`
}

func (t *RabbitMQTransport) SendBatch(ctx context.Context, msgs []Message) error {
	for _, m := range msgs {
		raw, err := json.Marshal(m.Event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", m.Event.ID, err)
		}

		compressed, err := t.compressor.Compress(raw)
		if err != nil {
			return fmt.Errorf("compress event %s: %w", m.Event.ID, err)
		}

		env := envelope{Codec: t.compressor.Name(), Body: compressed}

		if err := t.publisher.PublishJSON(ctx, mq.Exchange(eventsExchange), mq.RoutingKey(m.Topic), mq.MessageType(m.Event.Type), env); err != nil {
			return fmt.Errorf("publish event %s to topic %s: %w", m.Event.ID, m.Topic, err)
		}
	}
	return nil
}

func (t *RabbitMQTransport) Close() error {
	return t.conn.Close()
}
