// Package engine implements the battle orchestration engine: the scheduler
// that interleaves command streams produced asynchronously by per-player
// script interpreters, a priority queue of deferred game events, and a
// pluggable rules module that mutates world state.
//
// The scheduler's main loop (see Battle.RunWithLimit) repeats the following
// phases every round. Implementations elsewhere in this package must
// preserve this exact sequencing; it defines the simulation's determinism.
//
//	Phase A — Death sweep: for each player rules.IsDead reports and whose
//	death hasn't been logged yet, terminate its pipeline entry and emit a
//	"die" log line.
//
//	Phase B — Win check: ask rules.GameFinished; if winners come back, or a
//	configured time limit has been reached, record them and emit "win" log
//	lines, then terminate every still-Idle player.
//
//	Phase C — Inbound poll: for each Idle player, drain its extra-command
//	queue first, else try a non-blocking receive from its worker; terminate
//	on disconnect or think-timeout.
//
//	Phase D — Cleanup of Terminated: for each newly Terminated player whose
//	channel pair is still live, drop it and begin the cancellation flood.
//
//	Phase E — Readiness gate: if not every player is non-Idle, restart from
//	Phase A; if every player is Terminated, finalize winners and stop.
//
//	Phase F — Promote queued: assign command IDs and transition every Queued
//	entry to Executing, in player-index order, so command IDs are assigned
//	contiguously and deterministically within a round.
//
//	Phase G — Select next work item: advance game time to the nearest of (a)
//	the next due event or (b) the player with the least remaining time, and
//	process whichever is earlier (an event goes first only when strictly
//	earlier; on equal times the command step wins).
package engine

import "fmt"

// GameTime is the simulator's logical clock: an unsigned, strictly
// non-decreasing integer, zero at simulation start. Only the scheduler
// advances it.
type GameTime uint64

// PlayerIndex is a stable 0..N-1 index into the simulation's player roster.
type PlayerIndex int

// CommandID is a process-local, monotonically increasing identifier assigned
// to a command when it is promoted from Queued to Executing. Never reused
// within one simulation.
type CommandID uint64

// DefaultCommandDuration is substituted by the scheduler whenever a rules
// module declines to price a command explicitly (see Rules.CommandDuration).
const DefaultCommandDuration GameTime = 10

// Command is a rules-module-defined player action. Implementations must be
// cheaply clonable and equality-comparable, and may opt out of trace logging
// entirely by returning ok=false from LogRepr (e.g. pure introspection
// commands like check_ammo).
type Command interface {
	// Equal reports whether other is an equivalent command.
	Equal(other Command) bool
	// Clone returns an independent copy of this command.
	Clone() Command
	// LogRepr returns the trace label for this command, and whether it
	// should appear in the trace at all.
	LogRepr() (label string, ok bool)
}

// Reply is a rules-module-defined response to one command.
type Reply interface {
	// Succeeded reports whether the command this reply answers completed
	// successfully, used only to pick the completion log line's prefix.
	Succeeded() bool
}

// Event is an opaque, rules-module-defined deferred side effect scheduled
// for a future game time.
type Event any

// TimedEvent pairs an Event with the delta (relative to the game time at
// which it was scheduled) at which it should fire.
type TimedEvent struct {
	Delta GameTime
	Event Event
}

// LogSink is the core's Log Adapter (C8): it accepts one
// (object, action, time, duration) tuple per call. The format of those
// strings is the concern of external adapters (internal/logsink,
// internal/kafkalog); the core only guarantees the tuple's shape and
// ordering (see the package doc above and §4.5 of SPEC_FULL.md).
type LogSink interface {
	Write(objectLabel, actionLabel string, t GameTime, duration GameTime)
}

// Rules is the core's only game-specific collaborator (component C2). A
// rules module owns all player state internally; the core addresses players
// only by PlayerIndex.
type Rules interface {
	// IsDead is a pure predicate over player p's current state.
	IsDead(p PlayerIndex) bool

	// GameFinished reports whether the game has ended and, if so, the
	// winners (possibly empty, meaning a draw).
	GameFinished(t GameTime) (winners []PlayerIndex, finished bool)

	// InitialSetup is called once before the main loop begins.
	InitialSetup(log LogSink)

	// CommandReceived fires when a command is promoted to Executing.
	CommandReceived(p PlayerIndex, cmd Command, id CommandID, t GameTime, log LogSink)

	// ProcessCommand is the core-visible mutation point: it applies cmd to
	// player p's state and returns the reply plus any extra commands
	// (appended to p's extra-command queue) and extra events (scheduled
	// relative to t).
	ProcessCommand(p PlayerIndex, cmd Command, id CommandID, t GameTime, log LogSink) (reply Reply, extraCmds []Command, extraEvents []TimedEvent)

	// CommandReplyDelivered fires just before a reply is sent back to the
	// player's worker.
	CommandReplyDelivered(p PlayerIndex, cmd Command, id CommandID, t GameTime, log LogSink)

	// ProcessEvent handles one deferred event, returning any further events
	// it schedules (relative to t).
	ProcessEvent(ev Event, t GameTime, log LogSink) []TimedEvent

	// CommandDuration prices the execution time of cmd for player p. A
	// false second return tells the scheduler to substitute
	// DefaultCommandDuration.
	CommandDuration(p PlayerIndex, cmd Command) (duration GameTime, explicit bool)

	// CommandReplyDelay reports the time between execution completion and
	// reply delivery for cmd.
	CommandReplyDelay(p PlayerIndex, cmd Command) GameTime

	// ObjectLabel returns the stable trace identifier for player p.
	ObjectLabel(p PlayerIndex) string

	// InstallBindings wires this rules module's script primitives into host,
	// each primitive calling send to issue a command and block for its
	// reply. Called once per player, from that player's own worker
	// goroutine, before the program is run.
	InstallBindings(p PlayerIndex, host ScriptRuntime, send func(Command) (Reply, error)) error
}

// ScriptRuntime is the minimal surface the Worker Supervisor (C7) needs from
// a script host (C1) to run one player's program. Concrete implementations
// (internal/scripthost) need not import this package to satisfy it.
type ScriptRuntime interface {
	// Bind installs fn as a callable primitive named name in the script's
	// global scope.
	Bind(name string, fn func(args []any) (any, error)) error
	// Run compiles and executes programText to completion, blocking until
	// it finishes, is interrupted, or fails.
	Run(programText string) error
	// Interrupt requests that a running (or about-to-run) program stop as
	// soon as possible. Safe to call concurrently and repeatedly.
	Interrupt(reason any)
}

// RuntimeFactory constructs a fresh ScriptRuntime for one worker,
// deterministically seeded from a hash of that worker's program text.
type RuntimeFactory func(seed int64) (ScriptRuntime, error)

// errTerminated is returned by a worker's send closure once its reply
// channel has been dropped by the scheduler.
var errTerminated = fmt.Errorf("engine: player terminated")
