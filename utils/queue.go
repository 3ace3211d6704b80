package utils

import (
	"sync"

	"github.com/cmsd2/woot/communication"
)

// Queue is a mutex-guarded FIFO of operations. The middleware's receive
// goroutine fills it; the owning host empties it from its own thread, so
// the replica itself never sees concurrent calls.
type Queue struct {
	mu  sync.Mutex
	ops []communication.Operation
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends op.
func (q *Queue) Enqueue(op communication.Operation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, op)
}

// Dequeue removes and returns the oldest operation, if any.
func (q *Queue) Dequeue() (communication.Operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) == 0 {
		return communication.Operation{}, false
	}
	op := q.ops[0]
	q.ops = q.ops[1:]
	return op, true
}

// DrainAll removes and returns everything queued, in arrival order.
func (q *Queue) DrainAll() []communication.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	return ops
}

// Len reports how many operations are queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}
