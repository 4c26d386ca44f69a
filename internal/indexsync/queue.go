package indexsync

// queue holds at most one pending task per document, in first-enqueued
// order, and tracks which documents a worker is currently applying.
// It is not safe for concurrent use; the coordinator guards it.
type queue struct {
	pending  map[key]*Task
	order    []key
	inflight map[key]struct{}
}

func newQueue() *queue {
	return &queue{
		pending:  make(map[key]*Task),
		inflight: make(map[key]struct{}),
	}
}

// push adds t or merges it into the pending task for the same document.
// It reports whether t was coalesced.
func (q *queue) push(t *Task) bool {
	k := t.key()
	if cur, ok := q.pending[k]; ok {
		cur.merge(t)
		return true
	}
	cp := *t
	q.pending[k] = &cp
	q.order = append(q.order, k)
	return false
}

// pop takes the oldest pending task whose document is not in flight and
// marks it in flight.
func (q *queue) pop() (*Task, bool) {
	for i, k := range q.order {
		if _, busy := q.inflight[k]; busy {
			continue
		}
		t := q.pending[k]
		delete(q.pending, k)
		q.order = append(q.order[:i], q.order[i+1:]...)
		q.inflight[k] = struct{}{}
		return t, true
	}
	return nil, false
}

// done releases a document taken by pop.
func (q *queue) done(k key) {
	delete(q.inflight, k)
}

// hasPending reports whether newer work for k arrived.
func (q *queue) hasPending(k key) bool {
	_, ok := q.pending[k]
	return ok
}

func (q *queue) depth() int {
	return len(q.pending)
}

func (q *queue) idle() bool {
	return len(q.pending) == 0 && len(q.inflight) == 0
}
