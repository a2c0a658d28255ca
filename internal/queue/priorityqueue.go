package queue

import (
	"container/heap"

	"github.com/dawgym/pipeline/internal/models"
)

// entry is one (priority, job) pair inside a PriorityQueue. seq is an
// explicit monotonically increasing sequence number used as the stable
// tiebreak, so equal-priority jobs pop in insertion order.
type entry struct {
	priority int
	seq      int64
	job      *models.Job
}

// entryHeap implements container/heap.Interface, ordered by ascending
// priority then ascending seq (insertion order).
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// PriorityQueue is a min-heap of (priority, Job) pairs. Lower priority
// value is served earlier; ties are broken by insertion order. It is not
// thread-safe by itself, synchronization is imposed by StepQueue.
type PriorityQueue struct {
	h      entryHeap
	nextSeq int64
}

// NewPriorityQueue returns an empty queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{}
}

// Push adds job to the queue with the given priority.
func (q *PriorityQueue) Push(job *models.Job, priority int) {
	heap.Push(&q.h, &entry{priority: priority, seq: q.nextSeq, job: job})
	q.nextSeq++
}

// Pop removes and returns the highest-priority (lowest value) job, or nil
// if the queue is empty.
func (q *PriorityQueue) Pop() *models.Job {
	if len(q.h) == 0 {
		return nil
	}
	e := heap.Pop(&q.h).(*entry)
	return e.job
}

// Len returns the number of jobs currently queued.
func (q *PriorityQueue) Len() int {
	return len(q.h)
}

// entries returns a copy of the queue's contents in heap order (not
// sorted) without mutating it, for use by StepQueue.snapshot().
func (q *PriorityQueue) entries() []*entry {
	out := make([]*entry, len(q.h))
	copy(out, q.h)
	return out
}

// heapifyStage restores the heap invariant on q.h after entries have been
// appended directly (used by StepQueue.restore() when loading a snapshot).
func heapifyStage(q *PriorityQueue) {
	heap.Init(&q.h)
}
