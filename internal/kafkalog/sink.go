package kafkalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pedohorse/tankgrid-battle-sim/internal/engine"
	"github.com/pedohorse/tankgrid-battle-sim/internal/kafka"
)

// Sink is an engine.LogSink that publishes every trace line to Kafka,
// adapted from the teacher's PublishEffect (engine -> Kafka for the
// engine's authoritative event stream). Unlike PublishEffect, which ran
// synchronously inline with command processing, Write hands lines off to a
// background goroutine so a slow or unavailable broker never stalls the
// scheduler's single-threaded main loop.
type Sink struct {
	producer kafka.Producer
	runID    string
	logger   zerolog.Logger
	lines    chan TraceLine
	done     chan struct{}
}

var _ engine.LogSink = (*Sink)(nil)

// NewSink constructs a Sink that publishes under key runID (so every trace
// line from one battle lands on the same partition, preserving order), and
// starts its background publisher goroutine.
func NewSink(producer kafka.Producer, runID string, logger zerolog.Logger) *Sink {
	s := &Sink{
		producer: producer,
		runID:    runID,
		logger:   logger,
		lines:    make(chan TraceLine, 256),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sink) run() {
	defer close(s.done)
	ctx := context.Background()
	for line := range s.lines {
		data, err := Marshal(line)
		if err != nil {
			s.logger.Error().Err(err).Msg("marshal trace line")
			continue
		}
		msg := kafka.Message{
			Topic: kafka.BattleTraceTopic,
			Key:   kafka.GameKey(s.runID),
			Value: data,
		}
		if err := s.producer.Publish(ctx, msg); err != nil {
			s.logger.Error().Err(err).Msg("publish trace line")
		}
	}
}

// Write implements engine.LogSink. It never blocks the caller on network
// I/O: a full backlog drops the line with a warning rather than stalling
// the engine's main loop.
func (s *Sink) Write(object, action string, t, duration engine.GameTime) {
	line := TraceLine{
		BaseEvent: BaseEvent{
			RunID:     s.runID,
			Timestamp: time.Now().UnixMilli(),
			Type:      TypeTraceLine,
		},
		Object:   object,
		Action:   action,
		GameTime: uint64(t),
		Duration: uint64(duration),
	}
	select {
	case s.lines <- line:
	default:
		s.logger.Warn().Str("object", object).Str("action", action).Msg("trace line dropped; kafka sink backlog full")
	}
}

// Close drains the publish channel and closes the underlying producer.
func (s *Sink) Close() error {
	close(s.lines)
	<-s.done
	return s.producer.Close()
}
