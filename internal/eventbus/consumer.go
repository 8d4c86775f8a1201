package eventbus

import (
	"context"
	"log/slog"

	"github.com/flowforge/automata/internal/mq"
)

// CommandHandler reacts to a decoded Command.
type CommandHandler func(ctx context.Context, cmd *Command) error

// CommandConsumer binds to the instrument-commands queue and decodes
// messages as Commands, adapted directly from the teacher's
// mq.Consumer — the producer side of this package never needed a
// consumer, but the instrument-commands topic does.
type CommandConsumer struct {
	inner *mq.Consumer
}

// NewCommandConsumer wires handler to fire for every decodable Command
// delivered on the (topicPrefix-qualified) instrument-commands queue.
// The Command is read from the "payload" field of an mq.Message JSON
// envelope (the shape mq.Publisher writes); a body that is a bare
// {action, instrumentId, payload} object is not decoded as a Command and
// reaches handler with an empty Action.
func NewCommandConsumer(conn *mq.Connection, topicPrefix string, logger *slog.Logger, handler CommandHandler) *CommandConsumer {
	wrapped := func(ctx context.Context, d *mq.Delivery) error {
		cmd, err := mq.ParsePayload[Command](&d.Message)
		if err != nil {
			return err
		}
		return handler(ctx, &cmd)
	}

	queue := queueForTopic(QualifiedTopic(topicPrefix, TopicInstrumentCommands))
	return &CommandConsumer{
		inner: mq.NewConsumer(conn, logger, mq.ConsumerConfig{
			Queue:    queue,
			Handler:  wrapped,
			Prefetch: 10,
		}),
	}
}

// Start consumes until ctx is cancelled.
func (c *CommandConsumer) Start(ctx context.Context) error {
	return c.inner.Start(ctx)
}

// Stop requests the consumer loop to exit.
func (c *CommandConsumer) Stop() {
	c.inner.Stop()
}
