// Command spectate subscribes to a battle's trace topic on Kafka and prints
// each decoded trace line to stdout, in the same tab-separated shape as
// internal/logsink.TextSink. It never attaches to the process running the
// battle: it only reads what cmd/battle published, demonstrating the
// spectator/replay use case the streaming sink exists for.
//
//	spectate
//
// Reads its Kafka connection settings (KAFKA_BROKERS, KAFKA_GROUP_ID) from
// the environment via internal/config, the same loader cmd/battle uses.
// Exit codes: 0 normal shutdown (signal received), 1 Kafka error, 2 bad configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pedohorse/tankgrid-battle-sim/internal/config"
	"github.com/pedohorse/tankgrid-battle-sim/internal/kafka"
	"github.com/pedohorse/tankgrid-battle-sim/internal/kafkalog"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("loading configuration")
		return 2
	}
	if !cfg.KafkaEnabled() {
		fmt.Fprintln(os.Stderr, "spectate: KAFKA_BROKERS must be set")
		return 2
	}

	consumer, err := kafka.NewKafkaConsumer(cfg.KafkaBrokers, kafka.BattleTraceTopic, cfg.KafkaGroupID)
	if err != nil {
		logger.Error().Err(err).Msg("creating kafka consumer")
		return 1
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error().Err(err).Msg("closing kafka consumer")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", kafka.BattleTraceTopic).Msg("spectating battle trace")

	var handler kafka.HandlerFunc = func(ctx context.Context, msg kafka.Message) error {
		line, err := kafkalog.Deserialize(msg.Value)
		if err != nil {
			logger.Warn().Err(err).Msg("dropping undecodable trace message")
			return nil
		}
		fmt.Printf("%d\t%s\t%s\t%d\n", line.GameTime, line.Object, line.Action, line.Duration)
		return nil
	}

	if err := consumer.Consume(ctx, handler); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("consumer stopped")
		return 1
	}
	return 0
}
