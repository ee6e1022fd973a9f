package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Settings holds the scheduler's tunable constants (SPEC_FULL.md §6).
type Settings struct {
	// ThinkTimeout is VM_THINK_TIMEOUT: the wall-clock think-time budget
	// per player, reset whenever a reply is sent to that player.
	ThinkTimeout time.Duration
	// CancelFloodLimit bounds the cancellation flood's attempt count.
	CancelFloodLimit int
	// PollInterval is the sleep between Phase C scans, to avoid a tight
	// busy-wait.
	PollInterval time.Duration
	// NewRuntime constructs the script host for each player's worker. It
	// must be supplied by the caller (e.g. internal/scripthost's goja
	// adapter); the engine package has no default so that it never needs
	// to import a concrete script host.
	NewRuntime RuntimeFactory
	// Logger receives ambient operational/diagnostic logging, distinct
	// from the battle trace (see LogSink). The zero value discards it.
	Logger zerolog.Logger
}

// DefaultSettings returns the constants named in SPEC_FULL.md §6, with no
// RuntimeFactory (the caller must supply one).
func DefaultSettings() Settings {
	return Settings{
		ThinkTimeout:     5 * time.Second,
		CancelFloodLimit: 1_000_000,
		PollInterval:     time.Microsecond,
		Logger:           zerolog.Nop(),
	}
}

// Battle is the Engine API (C9): it owns one simulation run end to end.
type Battle struct {
	rules    Rules
	log      LogSink
	programs []string
	settings Settings

	n           int
	pipeline    []pipelineEntry
	extraQueue  [][]Command
	deathLogged []bool
	lastReply   []time.Time
	workers     []*workerHandle

	events        *EventQueue
	nextCommandID CommandID
	t             GameTime

	winners    []PlayerIndex
	winnersSet bool
}

// NewBattle constructs a Battle for the given rules module, one program per
// player, and a log sink. settings.NewRuntime must be non-nil.
func NewBattle(rules Rules, programs []string, sink LogSink, settings Settings) (*Battle, error) {
	if rules == nil {
		return nil, errors.New("engine: rules must not be nil")
	}
	if sink == nil {
		return nil, errors.New("engine: log sink must not be nil")
	}
	if len(programs) == 0 {
		return nil, errors.New("engine: at least one player program is required")
	}
	if settings.NewRuntime == nil {
		return nil, errors.New("engine: settings.NewRuntime must be supplied")
	}

	defaults := DefaultSettings()
	if settings.ThinkTimeout <= 0 {
		settings.ThinkTimeout = defaults.ThinkTimeout
	}
	if settings.CancelFloodLimit <= 0 {
		settings.CancelFloodLimit = defaults.CancelFloodLimit
	}
	if settings.PollInterval <= 0 {
		settings.PollInterval = defaults.PollInterval
	}

	n := len(programs)
	return &Battle{
		rules:       rules,
		log:         sink,
		programs:    programs,
		settings:    settings,
		n:           n,
		pipeline:    make([]pipelineEntry, n),
		extraQueue:  make([][]Command, n),
		deathLogged: make([]bool, n),
		lastReply:   make([]time.Time, n),
		events:      NewEventQueue(),
	}, nil
}

// Run is equivalent to RunWithLimit(nil).
func (b *Battle) Run() ([]PlayerIndex, error) {
	return b.RunWithLimit(nil)
}

// RunWithLimit runs the simulation to completion, stopping early (with an
// empty winners slice, a draw) once the game time reaches limit, if
// limit is non-nil. It returns the winners (possibly empty) on normal
// completion. A non-nil error return is reserved for engine-level failures;
// the current design never produces one (SPEC_FULL.md §4.6), but a rules
// module panic unwinds the simulation per §7 rather than returning here.
func (b *Battle) RunWithLimit(limit *GameTime) (winners []PlayerIndex, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.settings.Logger.Error().Interface("panic", r).Msg("rules module panicked; simulation aborted")
			panic(r)
		}
	}()

	b.start()
	defer b.joinWorkers()

	b.rules.InitialSetup(b.log)

mainLoop:
	for {
	readinessLoop:
		for {
			b.phaseDeathSweep()
			b.phaseWinCheck(limit)
			b.phaseInboundPoll()
			b.phaseCleanupTerminated()

			if b.allTerminated() {
				if !b.winnersSet {
					b.winners = []PlayerIndex{}
					b.winnersSet = true
				}
				break mainLoop
			}
			if b.countReady() == b.n {
				break readinessLoop
			}
		}

		b.phasePromoteQueued()
		b.phaseSelectAndAdvance()
	}

	return b.winners, nil
}

// start spawns every worker and blocks until all have signalled ready, per
// SPEC_FULL.md §4.1's spawn protocol.
func (b *Battle) start() {
	b.workers = make([]*workerHandle, b.n)
	for p := 0; p < b.n; p++ {
		b.workers[p] = spawnWorker(PlayerIndex(p), b.programs[p], b.rules, b.settings.NewRuntime, &b.settings.Logger)
	}
	for p := 0; p < b.n; p++ {
		<-b.workers[p].ready
	}
	now := time.Now()
	for p := range b.lastReply {
		b.lastReply[p] = now
	}
}

// joinWorkers waits for every worker goroutine to exit and logs its
// outcome. Join failures (a worker that never exits) are logged, never
// propagated, per §4.1's "Joining" policy.
func (b *Battle) joinWorkers() {
	const joinGrace = 2 * time.Second
	for p, w := range b.workers {
		select {
		case <-w.done:
		case <-time.After(joinGrace):
			b.settings.Logger.Warn().Int("player", p).Msg("worker did not exit within the join grace period")
			continue
		}
		if w.exitErr != nil {
			b.settings.Logger.Info().Int("player", p).Err(w.exitErr).Msg("worker exited")
		}
	}
}

// phaseDeathSweep is Phase A.
func (b *Battle) phaseDeathSweep() {
	for p := 0; p < b.n; p++ {
		if b.deathLogged[p] {
			continue
		}
		pi := PlayerIndex(p)
		if b.rules.IsDead(pi) {
			b.pipeline[p].status = statusTerminated
			b.log.Write(b.rules.ObjectLabel(pi), "die", b.t, 0)
			b.deathLogged[p] = true
		}
	}
}

// phaseWinCheck is Phase B.
func (b *Battle) phaseWinCheck(limit *GameTime) {
	if !b.winnersSet {
		if winners, finished := b.rules.GameFinished(b.t); finished {
			b.winners = winners
			b.winnersSet = true
			for _, w := range winners {
				b.log.Write(b.rules.ObjectLabel(w), "win", b.t, 0)
			}
		} else if limit != nil && b.t >= *limit {
			b.winners = []PlayerIndex{}
			b.winnersSet = true
		}
	}
	if b.winnersSet {
		for p := range b.pipeline {
			if b.pipeline[p].status == statusIdle {
				b.pipeline[p].status = statusTerminated
			}
		}
	}
}

// phaseInboundPoll is Phase C.
func (b *Battle) phaseInboundPoll() {
	for p := 0; p < b.n; p++ {
		if b.pipeline[p].status != statusIdle {
			continue
		}
		w := b.workers[p]
		if !w.channelsLive {
			continue
		}

		if len(b.extraQueue[p]) > 0 {
			cmd := b.extraQueue[p][0]
			b.extraQueue[p] = b.extraQueue[p][1:]
			b.pipeline[p] = pipelineEntry{
				status:     statusQueued,
				cmd:        cmd,
				needsReply: false,
				enqueuedAt: b.t,
			}
			continue
		}

		select {
		case cmd, ok := <-w.cmdOut:
			if !ok {
				b.pipeline[p].status = statusTerminated
			} else {
				b.pipeline[p] = pipelineEntry{
					status:     statusQueued,
					cmd:        cmd,
					needsReply: true,
					enqueuedAt: b.t,
				}
			}
		default:
			if time.Since(b.lastReply[p]) > b.settings.ThinkTimeout {
				b.pipeline[p].status = statusTerminated
			}
		}
	}
	time.Sleep(b.settings.PollInterval)
}

// phaseCleanupTerminated is Phase D.
func (b *Battle) phaseCleanupTerminated() {
	for p := 0; p < b.n; p++ {
		if b.pipeline[p].status != statusTerminated {
			continue
		}
		w := b.workers[p]
		if w.channelsLive {
			close(w.replyIn)
			w.channelsLive = false
			w.floodCancel(b.settings.CancelFloodLimit)
		}
	}
}

func (b *Battle) countReady() int {
	n := 0
	for p := range b.pipeline {
		if b.pipeline[p].status != statusIdle {
			n++
		}
	}
	return n
}

func (b *Battle) allTerminated() bool {
	for p := range b.pipeline {
		if b.pipeline[p].status != statusTerminated {
			return false
		}
	}
	return true
}

// phasePromoteQueued is Phase F.
func (b *Battle) phasePromoteQueued() {
	for p := 0; p < b.n; p++ {
		if b.pipeline[p].status != statusQueued {
			continue
		}
		pi := PlayerIndex(p)
		entry := &b.pipeline[p]

		execDuration := b.commandDuration(pi, entry.cmd)
		replyDelay := b.rules.CommandReplyDelay(pi, entry.cmd)
		id := b.nextCommandID
		b.nextCommandID++

		if label, ok := entry.cmd.LogRepr(); ok {
			b.log.Write(b.rules.ObjectLabel(pi), fmt.Sprintf("%s(%d)", label, id), b.t, execDuration+replyDelay)
		}
		b.rules.CommandReceived(pi, entry.cmd, id, b.t, b.log)

		entry.status = statusExecuting
		entry.execDuration = execDuration
		entry.replyDelay = replyDelay
		entry.commandID = id
	}
}

func (b *Battle) commandDuration(p PlayerIndex, cmd Command) GameTime {
	if d, explicit := b.rules.CommandDuration(p, cmd); explicit {
		return d
	}
	return DefaultCommandDuration
}

// phaseSelectAndAdvance is Phase G.
func (b *Battle) phaseSelectAndAdvance() {
	bestPlayer := -1
	var bestRemaining GameTime
	for p := range b.pipeline {
		if b.pipeline[p].status == statusTerminated {
			continue
		}
		if r, ok := b.pipeline[p].remainingTime(b.t); ok {
			if bestPlayer == -1 || r < bestRemaining {
				bestPlayer, bestRemaining = p, r
			}
		}
	}
	if bestPlayer == -1 {
		// Every non-terminated entry is Idle or Queued; Phase E's
		// readiness gate guarantees this cannot happen when this phase
		// runs, but guard defensively rather than advance blindly.
		return
	}

	tPrime := b.t + bestRemaining

	if peek, ok := b.events.PeekTime(); ok && peek < tPrime {
		evTime, ev, _ := b.events.Pop()
		b.t = evTime
		extra := b.rules.ProcessEvent(ev, b.t, b.log)
		for _, te := range extra {
			b.events.Push(b.t+te.Delta, te.Event)
		}
		return
	}

	b.t = tPrime
	p := bestPlayer
	pi := PlayerIndex(p)
	entry := &b.pipeline[p]

	switch entry.status {
	case statusExecuting:
		reply, extraCmds, extraEvents := b.rules.ProcessCommand(pi, entry.cmd, entry.commandID, b.t, b.log)
		b.extraQueue[p] = append(b.extraQueue[p], extraCmds...)
		for _, te := range extraEvents {
			b.events.Push(b.t+te.Delta, te.Event)
		}
		entry.reply = reply
		entry.replyStartedAt = b.t
		entry.status = statusReplyPending

	case statusReplyPending:
		b.rules.CommandReplyDelivered(pi, entry.cmd, entry.commandID, b.t, b.log)

		success := true
		if entry.needsReply {
			success = b.sendReply(p, entry.reply)
		}

		if label, ok := entry.cmd.LogRepr(); ok {
			prefix := "+"
			if !success {
				prefix = "!"
			}
			b.log.Write(b.rules.ObjectLabel(pi), fmt.Sprintf("%s%s(%d)", prefix, label, entry.commandID), b.t, 0)
		}

		if !success {
			entry.status = statusTerminated
		} else {
			b.lastReply[p] = time.Now()
			entry.status = statusIdle
		}
	}
}

// sendReply delivers reply to player p's worker. The worker is guaranteed
// to be blocked receiving it (that is the invariant maintained by
// ReplyPending + needsReply), so this never blocks under correct operation;
// it only fails if the channel was already closed by a race the scheduler
// itself didn't expect.
func (b *Battle) sendReply(p int, reply Reply) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	b.workers[p].replyIn <- reply
	return true
}
