package room

import (
	"container/heap"
	"time"
)

// scheduler is the room's one-shot task queue. Everything that used to
// be a fire-and-forget timer (respawns, offline marks, sweeps) goes
// through here so the loop runs callbacks inside the room's synchronous
// context and teardown can cancel the lot deterministically.
type scheduler struct {
	h      taskHeap
	nextID uint64
	byID   map[uint64]*scheduledTask
}

type scheduledTask struct {
	id    uint64
	due   time.Time
	fn    func()
	index int
}

func newScheduler() *scheduler {
	return &scheduler{byID: map[uint64]*scheduledTask{}}
}

func (s *scheduler) Schedule(due time.Time, fn func()) uint64 {
	s.nextID++
	t := &scheduledTask{id: s.nextID, due: due, fn: fn}
	s.byID[t.id] = t
	heap.Push(&s.h, t)
	return t.id
}

func (s *scheduler) Cancel(id uint64) bool {
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	heap.Remove(&s.h, t.index)
	return true
}

func (s *scheduler) CancelAll() {
	s.h = s.h[:0]
	s.byID = map[uint64]*scheduledTask{}
}

func (s *scheduler) Len() int { return len(s.h) }

// RunDue pops and runs every task due at or before now, in due order.
// Tasks may schedule new tasks; ones that come due at exactly now still
// run in this pass.
func (s *scheduler) RunDue(now time.Time) int {
	n := 0
	for len(s.h) > 0 && !s.h[0].due.After(now) {
		t := heap.Pop(&s.h).(*scheduledTask)
		delete(s.byID, t.id)
		t.fn()
		n++
	}
	return n
}

type taskHeap []*scheduledTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].id < h[j].id
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*scheduledTask)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
