package engine

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
)

// workerHandle is the scheduler's view of one player's worker goroutine: an
// outbound command channel, an inbound reply channel, a readiness signal,
// and a completion signal. The scheduler exclusively owns all four; the
// worker goroutine only ever sends on cmdOut, receives on replyIn, and
// closes cmdOut, ready and done.
type workerHandle struct {
	player PlayerIndex

	cmdOut  chan Command
	replyIn chan Reply
	ready   chan struct{}
	done    chan struct{}

	// channelsLive is scheduler-owned bookkeeping: whether replyIn is still
	// open for this player (Phase D closes it exactly once and then clears
	// this flag).
	channelsLive bool

	runtime ScriptRuntime
	exitErr error
}

// spawnWorker creates the channel pair for player p and starts its worker
// goroutine, which constructs a fresh ScriptRuntime via newRuntime, installs
// rules' script bindings, and then runs programText to completion.
func spawnWorker(p PlayerIndex, programText string, rules Rules, newRuntime RuntimeFactory, logger *zerolog.Logger) *workerHandle {
	h := &workerHandle{
		player: p,
		// cmdOut is buffered so a primitive binding's send to the
		// scheduler never blocks; only the subsequent reply receive can
		// block, and that is the worker's sole suspension point.
		cmdOut:       make(chan Command, 1),
		replyIn:      make(chan Reply),
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
		channelsLive: true,
	}
	go h.run(programText, rules, newRuntime, logger)
	return h
}

func (h *workerHandle) run(programText string, rules Rules, newRuntime RuntimeFactory, logger *zerolog.Logger) {
	defer close(h.done)
	defer close(h.cmdOut)
	defer func() {
		if r := recover(); r != nil {
			h.exitErr = fmt.Errorf("worker panic: %v", r)
			logger.Error().Int("player", int(h.player)).Interface("panic", r).Msg("player worker panicked")
		}
	}()

	rt, err := newRuntime(seedFromProgramText(programText))
	if err != nil {
		h.exitErr = fmt.Errorf("constructing script runtime: %w", err)
		close(h.ready)
		return
	}
	h.runtime = rt

	send := func(cmd Command) (Reply, error) {
		h.cmdOut <- cmd
		reply, ok := <-h.replyIn
		if !ok {
			return nil, errTerminated
		}
		return reply, nil
	}

	if err := rules.InstallBindings(h.player, rt, send); err != nil {
		h.exitErr = fmt.Errorf("installing script bindings: %w", err)
		close(h.ready)
		return
	}
	close(h.ready)

	if err := rt.Run(programText); err != nil {
		h.exitErr = err
	}
}

// interrupt forwards one cancellation signal to the worker's runtime, if it
// has been constructed yet.
func (h *workerHandle) interrupt(reason any) {
	if h.runtime != nil {
		h.runtime.Interrupt(reason)
	}
}

// floodCancel implements the cancellation flood of SPEC_FULL.md §4.1 and
// §5: repeated Interrupt calls, bounded by limit, stopping as soon as the
// worker goroutine exits. Runs in its own goroutine so it never blocks the
// scheduler's main loop.
func (h *workerHandle) floodCancel(limit int) {
	go func() {
		for i := 0; i < limit; i++ {
			select {
			case <-h.done:
				return
			default:
			}
			h.interrupt("cancelled")
			time.Sleep(time.Microsecond)
		}
	}()
}

// seedFromProgramText derives a deterministic 64-bit seed from a program's
// source text, per SPEC_FULL.md §9's "any stable byte hash with a 64-bit
// output suffices".
func seedFromProgramText(text string) int64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(text))
	return int64(hasher.Sum64())
}
