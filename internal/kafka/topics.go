package kafka

// Topic names.
// These represent durable Kafka logs, NOT event semantics.
const (
	// BattleTraceTopic is the stream of authoritative trace-log lines
	// (object, action, time, duration) emitted by the engine's log sink.
	BattleTraceTopic = "battle.trace.lines"
)

// Consumer group names.
// These identify who is consuming a topic, not what is being consumed.
const (
	BattleConsumerGroup = "tankgrid-battle-sim"
)

// GameKey returns the Kafka partition key for a given battle run. All trace
// lines for the same run MUST use the same key to preserve ordering.
func GameKey(gameID string) []byte {
	return []byte(gameID)
}
