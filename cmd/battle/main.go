// Command battle runs one grid tank-combat simulation to completion and
// prints its outcome.
//
//	battle [-o LOGFILE] [-l TIME_LIMIT] [-kafka-brokers=b1,b2] MAP_FILE PLAYER_PROGRAM...
//
// Exit codes: 0 normal completion, 1 I/O error, 2 bad arguments.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pedohorse/tankgrid-battle-sim/internal/callsign"
	"github.com/pedohorse/tankgrid-battle-sim/internal/config"
	"github.com/pedohorse/tankgrid-battle-sim/internal/engine"
	"github.com/pedohorse/tankgrid-battle-sim/internal/kafka"
	"github.com/pedohorse/tankgrid-battle-sim/internal/kafkalog"
	"github.com/pedohorse/tankgrid-battle-sim/internal/logsink"
	"github.com/pedohorse/tankgrid-battle-sim/internal/rules"
	"github.com/pedohorse/tankgrid-battle-sim/internal/scripthost"
	"github.com/pedohorse/tankgrid-battle-sim/internal/world"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("battle", flag.ContinueOnError)
	logFile := fs.String("o", "", "write the trace log to this file instead of stdout")
	timeLimit := fs.Int64("l", 0, "stop the battle at this game time if no winner has emerged (0 = no limit)")
	kafkaBrokers := fs.String("kafka-brokers", "", "comma-separated Kafka brokers to stream the trace log to, overriding KAFKA_BROKERS")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	args := fs.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: battle [-o LOGFILE] [-l TIME_LIMIT] [-kafka-brokers=...] MAP_FILE PLAYER_PROGRAM...")
		return 2
	}
	mapFile, programPaths := args[0], args[1:]

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("loading configuration")
		return 2
	}
	if *kafkaBrokers != "" {
		cfg.KafkaBrokers = splitCommaList(*kafkaBrokers)
	}

	grid, spawns, err := world.LoadMap(mapFile)
	if err != nil {
		logger.Error().Err(err).Str("map", mapFile).Msg("loading map")
		return 1
	}
	if len(spawns) < len(programPaths) {
		logger.Error().Int("spawns", len(spawns)).Int("players", len(programPaths)).Msg("not enough spawn points for the given players")
		return 2
	}

	programs := make([]string, len(programPaths))
	for i, p := range programPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			logger.Error().Err(err).Str("program", p).Msg("reading player program")
			return 1
		}
		programs[i] = string(data)
	}

	out := os.Stdout
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			logger.Error().Err(err).Str("file", *logFile).Msg("opening log file")
			return 1
		}
		defer f.Close()
		out = f
	}

	runID := callsign.NewRunID("battle")
	sinks := []engine.LogSink{logsink.NewTextSink(out)}

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaClientID)
		if err != nil {
			logger.Error().Err(err).Msg("creating kafka producer")
			return 1
		}
		kSink := kafkalog.NewSink(producer, runID, logger)
		defer kSink.Close()
		sinks = append(sinks, kSink)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", kafka.BattleTraceTopic).Msg("streaming trace log to kafka")
	}

	rulesCfg := rules.DefaultConfig()
	rulesCfg.Labels = assignCallsigns(len(programPaths))
	rulesModule := rules.New(grid, spawns[:len(programPaths)], rulesCfg)

	settings := engine.DefaultSettings()
	settings.ThinkTimeout = cfg.ThinkTimeout
	settings.CancelFloodLimit = cfg.CancelFloodLimit
	settings.Logger = logger
	settings.NewRuntime = func(seed int64) (engine.ScriptRuntime, error) {
		return scripthost.New(seed)
	}

	battle, err := engine.NewBattle(rulesModule, programs, multiSink(sinks), settings)
	if err != nil {
		logger.Error().Err(err).Msg("constructing battle")
		return 2
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn().Msg("interrupt received; the battle will run to completion (no mid-run abort is supported)")
	}()

	var winners []engine.PlayerIndex
	if *timeLimit > 0 {
		limit := engine.GameTime(*timeLimit)
		winners, err = battle.RunWithLimit(&limit)
	} else {
		winners, err = battle.Run()
	}
	if err != nil {
		logger.Error().Err(err).Msg("running battle")
		return 1
	}

	if len(winners) == 0 {
		fmt.Println("DRAW")
	} else {
		fmt.Printf("WINNERS:%s\n", joinPlayerIndices(winners))
	}
	return 0
}

// assignCallsigns draws n pilot callsigns from the default pool, in
// player-index order. A player beyond the pool's size is left with an empty
// label, which rules.Config falls back to tank[A]/tank[B]/... for.
func assignCallsigns(n int) []string {
	gen, err := callsign.NewGenerator(callsign.DefaultCallsigns)
	if err != nil {
		return nil
	}
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		name, err := gen.Next()
		if err != nil {
			break
		}
		labels[i] = name
	}
	return labels
}

func splitCommaList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinPlayerIndices(winners []engine.PlayerIndex) string {
	parts := make([]string, len(winners))
	for i, w := range winners {
		parts[i] = strconv.Itoa(int(w))
	}
	return strings.Join(parts, ",")
}

// multiSink fans one trace line out to every configured sink (text, and
// optionally Kafka).
type multiSink []engine.LogSink

func (m multiSink) Write(object, action string, t, duration engine.GameTime) {
	for _, s := range m {
		s.Write(object, action, t, duration)
	}
}
