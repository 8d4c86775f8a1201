package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// TopologySpec describes one exchange/queue/binding set a caller wants
// declared. Generalized from the teacher's single hardcoded runs/tasks/dlq
// layout into a caller-supplied spec, since this module's per-topic event
// queues replace that multi-exchange task-dispatch graph.
type TopologySpec struct {
	Exchange     Exchange
	ExchangeKind string // "direct", "topic", "fanout"
	Queue        Queue
	RoutingKey   RoutingKey
	Args         amqp.Table
}

// DeclareTopology declares one exchange, one queue, and the binding
// between them, idempotently (RabbitMQ declare calls are no-ops when the
// entity already exists with matching properties).
func DeclareTopology(ctx context.Context, conn *Connection, spec TopologySpec) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		kind := spec.ExchangeKind
		if kind == "" {
			kind = "direct"
		}

		if err := ch.ExchangeDeclare(string(spec.Exchange), kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", spec.Exchange, err)
		}

		if _, err := ch.QueueDeclare(string(spec.Queue), true, false, false, false, spec.Args); err != nil {
			return fmt.Errorf("declare queue %s: %w", spec.Queue, err)
		}

		if err := ch.QueueBind(string(spec.Queue), string(spec.RoutingKey), string(spec.Exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", spec.Queue, spec.Exchange, err)
		}

		return nil
	})
}
