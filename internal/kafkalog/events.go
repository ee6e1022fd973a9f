// Package kafkalog adapts the engine's trace log (component C8, LogSink) to
// a durable Kafka stream, so spectators and post-hoc tooling can consume a
// battle's trace without attaching to the process that ran it.
package kafkalog

import "encoding/json"

// TypeTraceLine is the stable, runtime-fixed contract string for every
// message this package publishes.
const TypeTraceLine = "trace_line"

// BaseEvent is the common header for every message on the trace topic.
// Timestamp is wall-clock Unix time in milliseconds, distinct from the
// in-game logical clock carried in GameTime.
type BaseEvent struct {
	RunID     string `json:"run_id"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
}

// TraceLine is the one event shape this package ever emits: a single
// (object, action, time, duration) tuple from the engine's LogSink.
type TraceLine struct {
	BaseEvent
	Object   string `json:"object"`
	Action   string `json:"action"`
	GameTime uint64 `json:"game_time"`
	Duration uint64 `json:"duration"`
}

// Marshal encodes a TraceLine to JSON.
func Marshal(line TraceLine) ([]byte, error) {
	return json.Marshal(line)
}

// Deserialize decodes a TraceLine. Unlike the teacher's multi-event
// Deserialize, there is exactly one event shape on this topic, so no type
// switch is needed; the Type field is still checked so a misrouted message
// fails loudly instead of silently decoding into the wrong shape.
func Deserialize(data []byte) (*TraceLine, error) {
	var line TraceLine
	if err := json.Unmarshal(data, &line); err != nil {
		return nil, err
	}
	if line.Type != TypeTraceLine {
		return nil, &unexpectedTypeError{got: line.Type}
	}
	return &line, nil
}

type unexpectedTypeError struct{ got string }

func (e *unexpectedTypeError) Error() string {
	return "kafkalog: unexpected event type " + e.got
}
