package eventbus

import (
	"context"
	"log/slog"
	"io"
	"testing"
	"time"

	"github.com/flowforge/automata/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_FlushesOnBatchSize(t *testing.T) {
	transport := &FakeTransport{}
	p := NewProducer(transport, Config{MaxBatchSize: 3, LingerMs: 10_000}, testLogger())

	for i := 0; i < 3; i++ {
		p.Emit(domain.Event{ID: "e"})
	}

	deadline := time.Now().Add(time.Second)
	for len(transport.Batches()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	batches := transport.Batches()
	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Fatalf("expected one batch of 3, got %v", batches)
	}
}

func TestProducer_FlushesOnLinger(t *testing.T) {
	transport := &FakeTransport{}
	p := NewProducer(transport, Config{MaxBatchSize: 100, LingerMs: 20}, testLogger())

	p.Emit(domain.Event{ID: "e1"})

	deadline := time.Now().Add(time.Second)
	for len(transport.Batches()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	batches := transport.Batches()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("expected linger flush of 1 event, got %v", batches)
	}
}

func TestProducer_RequeuesOnSendFailure(t *testing.T) {
	transport := &FakeTransport{}
	transport.FailNextSend(1)
	p := NewProducer(transport, Config{MaxBatchSize: 2, LingerMs: 10_000}, testLogger())

	p.Emit(domain.Event{ID: "a"})
	p.Emit(domain.Event{ID: "b"})

	p.Flush(context.Background())
	if len(transport.Batches()) != 0 {
		t.Fatalf("expected failed send to be requeued, not recorded")
	}

	p.Flush(context.Background())
	batches := transport.Batches()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("expected requeued batch to succeed on retry, got %v", batches)
	}
}

func TestProducer_Close_FlushesAndClosesTransport(t *testing.T) {
	transport := &FakeTransport{}
	p := NewProducer(transport, Config{MaxBatchSize: 100, LingerMs: 10_000}, testLogger())

	p.Emit(domain.Event{ID: "e1"})
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transport.Batches()) != 1 {
		t.Errorf("expected buffered event to flush on close")
	}
	if !transport.Closed() {
		t.Error("expected transport to be closed")
	}
}

func TestProducer_TagsMessagesWithResolvedQualifiedTopic(t *testing.T) {
	transport := &FakeTransport{}
	p := NewProducer(transport, Config{MaxBatchSize: 2, LingerMs: 10_000, TopicPrefix: "prod."}, testLogger())

	p.Emit(domain.Event{ID: "e1", Type: "instrument.alert"})
	p.Emit(domain.Event{ID: "e2", Type: "workflow.started"})

	deadline := time.Now().Add(time.Second)
	for len(transport.Batches()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	batch := transport.Batches()[0]
	if batch[0].Topic != "prod.alerts" {
		t.Errorf("expected topic prod.alerts, got %s", batch[0].Topic)
	}
	if batch[1].Topic != "prod.tasks" {
		t.Errorf("expected topic prod.tasks, got %s", batch[1].Topic)
	}
}

func TestConfig_WithDefaults_MatchesSpec(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.MaxBatchSize != 50 {
		t.Errorf("expected default MaxBatchSize 50, got %d", cfg.MaxBatchSize)
	}
	if cfg.LingerMs != 500 {
		t.Errorf("expected default LingerMs 500, got %d", cfg.LingerMs)
	}
}

func TestCompressors_RoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")

	for _, codec := range []string{"gzip", "s2", "lz4", "none"} {
		c := NewCompressor(codec)
		compressed, err := c.Compress(data)
		if err != nil {
			t.Fatalf("%s: compress error: %v", codec, err)
		}
		decoded, err := Decompress(c.Name(), compressed)
		if err != nil {
			t.Fatalf("%s: decompress error: %v", codec, err)
		}
		if string(decoded) != string(data) {
			t.Errorf("%s: round-trip mismatch", codec)
		}
	}
}
