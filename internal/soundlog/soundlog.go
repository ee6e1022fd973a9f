// Package soundlog implements the time-bounded positional noise container
// the rules module consults to answer the listen primitive (component C3).
package soundlog

import (
	"container/heap"
	"sort"

	"github.com/pedohorse/tankgrid-battle-sim/internal/world"
)

// Entry is one noise event: something happened at origin at game time
// EmittedAt, described by Label ("shot", "footstep", ...).
type Entry struct {
	Origin    world.Position
	EmittedAt uint64
	Label     string
}

type entryHeap []Entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].EmittedAt < h[j].EmittedAt }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)         { *h = append(*h, x.(Entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Log is a min-heap of Entry ordered by EmittedAt, so pruning everything
// older than a cutoff is a cheap repeated pop from the front.
type Log struct {
	h      entryHeap
	expiry uint64
}

// New constructs a Log whose entries are considered expired once more than
// expiry game-time units old.
func New(expiry uint64) *Log {
	l := &Log{expiry: expiry}
	heap.Init(&l.h)
	return l
}

// Push records a new noise event.
func (l *Log) Push(origin world.Position, t uint64, label string) {
	heap.Push(&l.h, Entry{Origin: origin, EmittedAt: t, Label: label})
}

// Prune discards every entry older than now - expiry.
func (l *Log) Prune(now uint64) {
	for l.h.Len() > 0 {
		oldest := l.h[0]
		if now-oldest.EmittedAt <= l.expiry {
			break
		}
		heap.Pop(&l.h)
	}
}

// Hearable returns every unexpired entry, oldest first, pruning expired
// entries as a side effect. Callers needing a specific listener's perspective
// (bearing, distance) derive it from Entry.Origin themselves.
func (l *Log) Hearable(now uint64) []Entry {
	l.Prune(now)
	out := make([]Entry, l.h.Len())
	copy(out, l.h)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EmittedAt < out[j].EmittedAt })
	return out
}
