package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flowforge/automata/internal/domain"
	"github.com/flowforge/automata/internal/telemetry"
)

// Config tunes the producer's batching behavior.
type Config struct {
	MaxBatchSize int
	LingerMs     int

	// TopicPrefix is prepended to every event's resolved topic to form
	// the fully-qualified topic (spec.md §4.6).
	TopicPrefix string
}

func (c Config) withDefaults() Config {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 50
	}
	if c.LingerMs <= 0 {
		c.LingerMs = 500
	}
	return c
}

// Producer buffers emitted events and ships them in batches, flushing
// either once the buffer reaches Config.MaxBatchSize or once
// Config.LingerMs has elapsed since the oldest buffered event, whichever
// comes first.
type Producer struct {
	cfg       Config
	transport Transport
	logger    *slog.Logger

	bufMu  sync.Mutex
	buffer []Message
	timer  *time.Timer

	flushMu sync.Mutex // TryLock guards against overlapping flushes

	closed bool
}

// NewProducer creates a Producer shipping through transport.
func NewProducer(transport Transport, cfg Config, logger *slog.Logger) *Producer {
	return &Producer{
		cfg:       cfg.withDefaults(),
		transport: transport,
		logger:    logger,
	}
}

// EmitKeyed buffers an event under key (used by transports that shard or
// order by it, e.g. session ID) and triggers a flush once the buffer is
// full, or arms the linger timer on the first buffered event. The
// event's topic is resolved from its type up front (spec.md §4.6) so the
// transport never has to re-derive it.
func (p *Producer) EmitKeyed(key string, evt domain.Event) {
	topic := QualifiedTopic(p.cfg.TopicPrefix, Route(evt.Type))

	p.bufMu.Lock()
	p.buffer = append(p.buffer, Message{Key: key, Topic: topic, Event: evt})
	full := len(p.buffer) >= p.cfg.MaxBatchSize
	armTimer := len(p.buffer) == 1 && p.timer == nil
	if armTimer {
		p.timer = time.AfterFunc(time.Duration(p.cfg.LingerMs)*time.Millisecond, func() {
			p.Flush(context.Background())
		})
	}
	p.bufMu.Unlock()

	if full {
		go p.Flush(context.Background())
	}
}

// Emit implements the probe.Emitter interface, keying by the event's
// session ID.
func (p *Producer) Emit(evt domain.Event) error {
	p.EmitKeyed(evt.SessionID, evt)
	return nil
}

// Flush ships the buffer batch by batch (each at most Config.MaxBatchSize
// events) until it is empty or a send fails. At most one flush runs at a
// time; a concurrent caller's Flush call returns
// immediately, leaving its data in the buffer for the in-flight flush (or
// a subsequent one) to pick up.
func (p *Producer) Flush(ctx context.Context) {
	if !p.flushMu.TryLock() {
		return
	}
	defer p.flushMu.Unlock()

	for {
		batch := p.takeBatch()
		if len(batch) == 0 {
			return
		}

		if err := p.transport.SendBatch(ctx, batch); err != nil {
			telemetry.ProducerFlushFailures.Inc()
			p.logger.Warn("event batch send failed, requeueing", "error", err, "batch_size", len(batch))
			p.requeue(batch)
			return
		}
	}
}

func (p *Producer) takeBatch() []Message {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()

	if len(p.buffer) == 0 {
		return nil
	}

	n := len(p.buffer)
	if n > p.cfg.MaxBatchSize {
		n = p.cfg.MaxBatchSize
	}

	batch := make([]Message, n)
	copy(batch, p.buffer[:n])
	p.buffer = p.buffer[n:]

	if len(p.buffer) == 0 && p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}

	return batch
}

// requeue puts a failed batch back at the head of the buffer so later
// events don't ship ahead of earlier, still-unacknowledged ones.
func (p *Producer) requeue(batch []Message) {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()
	p.buffer = append(batch, p.buffer...)

	// Re-arm the linger timer so the requeued events are retried even if
	// no further Emit arrives.
	if p.closed {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(time.Duration(p.cfg.LingerMs)*time.Millisecond, func() {
		p.Flush(context.Background())
	})
}

// Close flushes any remaining buffered events and closes the transport.
func (p *Producer) Close(ctx context.Context) error {
	p.bufMu.Lock()
	if p.closed {
		p.bufMu.Unlock()
		return nil
	}
	p.closed = true
	p.bufMu.Unlock()

	p.Flush(ctx)
	return p.transport.Close()
}
