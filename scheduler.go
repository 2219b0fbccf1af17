package hypercube

// scheduler.go holds the queue of flows that have been handed to a simulation
// but whose start tick has not yet been reached.  Flows leave the queue in order
// of start tick; flows with the same start tick leave in input order.

import (
	"container/heap"
)

// pendingFlow is a flow waiting for its start tick, remembered with its input position
type pendingFlow struct {
	idx  int
	flow Flow
}

// startHeap and its methods implement a min-priority heap on (start tick, input position)
type startHeap []pendingFlow

func (h startHeap) Len() int { return len(h) }
func (h startHeap) Less(i, j int) bool {
	if h[i].flow.Start != h[j].flow.Start {
		return h[i].flow.Start < h[j].flow.Start
	}
	return h[i].idx < h[j].idx
}
func (h startHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *startHeap) Push(x any) {
	*h = append(*h, x.(pendingFlow))
}

func (h *startHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// pendingQueue releases flows as the simulation clock reaches their start ticks
type pendingQueue struct {
	waiting startHeap
}

// createPendingQueue is a constructor.  The position of each flow in flows is
// the input position used to break ties.
func createPendingQueue(flows []Flow) *pendingQueue {
	pq := new(pendingQueue)
	pq.waiting = make(startHeap, 0, len(flows))
	for idx, f := range flows {
		pq.waiting = append(pq.waiting, pendingFlow{idx: idx, flow: f})
	}
	heap.Init(&pq.waiting)
	return pq
}

// Len returns the number of flows still waiting
func (pq *pendingQueue) Len() int {
	return pq.waiting.Len()
}

// release removes and returns, in input order, every waiting flow whose start tick is tick
func (pq *pendingQueue) release(tick int) []pendingFlow {
	var due []pendingFlow
	for pq.waiting.Len() > 0 && pq.waiting[0].flow.Start <= tick {
		due = append(due, heap.Pop(&pq.waiting).(pendingFlow))
	}
	return due
}

// nextStart returns the earliest start tick among the waiting flows
func (pq *pendingQueue) nextStart() (int, bool) {
	if pq.waiting.Len() == 0 {
		return 0, false
	}
	return pq.waiting[0].flow.Start, true
}
