package engine

import "container/heap"

// queuedEvent is one entry in the EventQueue's backing heap: an Event tagged
// with its absolute firing time and an insertion sequence number used to
// break ties in FIFO order.
type queuedEvent struct {
	time  GameTime
	seq   uint64
	event Event
}

type eventHeap []*queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// EventQueue is the min-heap of deferred game events described in
// SPEC_FULL.md §4.3: ordered by absolute game time, ties broken by
// insertion order. Grounded on the container/heap task-queue idiom in
// other_examples/2f02d623_MongooseMoo-barn__server-scheduler.go.go.
type EventQueue struct {
	h       eventHeap
	nextSeq uint64
}

// NewEventQueue constructs an empty EventQueue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{}
	heap.Init(&q.h)
	return q
}

// Push schedules ev to fire at absolute time t.
func (q *EventQueue) Push(t GameTime, ev Event) {
	heap.Push(&q.h, &queuedEvent{time: t, seq: q.nextSeq, event: ev})
	q.nextSeq++
}

// Len reports the number of pending events.
func (q *EventQueue) Len() int { return q.h.Len() }

// PeekTime returns the absolute time of the earliest pending event, and
// whether the queue is non-empty.
func (q *EventQueue) PeekTime() (GameTime, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	return q.h[0].time, true
}

// Pop removes and returns the earliest pending event.
func (q *EventQueue) Pop() (GameTime, Event, bool) {
	if q.h.Len() == 0 {
		return 0, nil, false
	}
	item := heap.Pop(&q.h).(*queuedEvent)
	return item.time, item.event, true
}
