package eventbus

import (
	"context"
	"log/slog"
)

// NoopTransport discards batches; used when no broker is configured,
// matching the teacher's orchestrator fallback to polling-only mode when
// RabbitMQ is unreachable.
type NoopTransport struct {
	logger *slog.Logger
}

func NewNoopTransport(logger *slog.Logger) *NoopTransport {
	return &NoopTransport{logger: logger}
}

func (t *NoopTransport) SendBatch(ctx context.Context, msgs []Message) error {
	t.logger.Debug("discarding event batch, no transport configured", "count", len(msgs))
	return nil
}

func (t *NoopTransport) Close() error { return nil }
