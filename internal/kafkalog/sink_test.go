package kafkalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pedohorse/tankgrid-battle-sim/internal/kafka"
)

type fakeProducer struct {
	mu       sync.Mutex
	messages []kafka.Message
	closed   bool
}

func (p *fakeProducer) Publish(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakeProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakeProducer) snapshot() []kafka.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]kafka.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func TestSinkPublishesAndDecodesTraceLines(t *testing.T) {
	producer := &fakeProducer{}
	sink := NewSink(producer, "run-1", zerolog.Nop())

	sink.Write("tank[A]", "+cmd(3)", 10, 5)

	deadline := time.Now().Add(time.Second)
	for len(producer.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	msgs := producer.snapshot()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if string(msgs[0].Key) != "run-1" {
		t.Fatalf("partition key = %q, want %q", msgs[0].Key, "run-1")
	}

	line, err := Deserialize(msgs[0].Value)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if line.Object != "tank[A]" || line.Action != "+cmd(3)" || line.GameTime != 10 || line.Duration != 5 {
		t.Fatalf("decoded line = %+v, want object=tank[A] action=+cmd(3) time=10 duration=5", line)
	}
	if !producer.closed {
		t.Error("Close did not close the underlying producer")
	}
}

func TestSinkDropsWhenBacklogIsFull(t *testing.T) {
	producer := &fakeProducer{}
	sink := &Sink{producer: producer, runID: "run-2", logger: zerolog.Nop(), lines: make(chan TraceLine), done: make(chan struct{})}
	close(sink.done) // no background publisher running; the channel send must never block

	sink.Write("tank[A]", "+cmd(1)", 0, 0) // unbuffered channel with no reader: drops immediately
	if len(producer.snapshot()) != 0 {
		t.Fatal("expected no messages published without a running publisher goroutine")
	}
}
