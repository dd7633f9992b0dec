// Package pqueue is the binary min-heap that drives the meeting search:
// entries are ordered by a lexicographic tuple (elapsed seconds, absolute
// arrival second, distance to the participants' midpoint, target stop id)
// with a monotonic insertion counter appended as the final tiebreaker,
// following the standard container/heap.Interface pattern for an open set.
package pqueue

import "container/heap"

// Entry is one item on the queue. Elapsed is the total accumulated travel
// time since a participant's t0; it dominates ordering (this is Dijkstra's
// distance). ArrivalAbs and DistMid are tiebreakers only — they never
// change which entry is optimal, only the order same-elapsed entries are
// explored in. Payload carries whatever the caller needs to act on a pop
// (typically a models.StepInfo).
type Entry struct {
	Elapsed    int
	ArrivalAbs int
	DistMid    float64
	ToStop     string
	Payload    any

	seq int
}

// Queue is a min-heap of Entry ordered by (Elapsed, ArrivalAbs, DistMid,
// ToStop, seq).
type Queue struct {
	items   []*Entry
	nextSeq int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Len reports the number of entries currently queued.
func (q *Queue) Len() int { return len(q.items) }

// Push inserts an entry, stamping it with the next monotonic sequence
// number so entries with an otherwise-equal key pop in insertion order.
func (q *Queue) Push(e Entry) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push((*innerHeap)(q), &e)
}

// Pop removes and returns the entry with the smallest key. ok is false if
// the queue is empty.
func (q *Queue) Pop() (Entry, bool) {
	if len(q.items) == 0 {
		return Entry{}, false
	}
	e := heap.Pop((*innerHeap)(q)).(*Entry)
	return *e, true
}

// Peek returns the smallest entry without removing it.
func (q *Queue) Peek() (Entry, bool) {
	if len(q.items) == 0 {
		return Entry{}, false
	}
	return *q.items[0], true
}

// innerHeap adapts Queue to container/heap.Interface without exposing heap
// plumbing (Less/Swap/Push/Pop) on the public Queue type.
type innerHeap Queue

func (h *innerHeap) Len() int { return len(h.items) }

func (h *innerHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.Elapsed != b.Elapsed {
		return a.Elapsed < b.Elapsed
	}
	if a.ArrivalAbs != b.ArrivalAbs {
		return a.ArrivalAbs < b.ArrivalAbs
	}
	if a.DistMid != b.DistMid {
		return a.DistMid < b.DistMid
	}
	if a.ToStop != b.ToStop {
		return a.ToStop < b.ToStop
	}
	return a.seq < b.seq
}

func (h *innerHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *innerHeap) Push(x any) {
	h.items = append(h.items, x.(*Entry))
}

func (h *innerHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}
