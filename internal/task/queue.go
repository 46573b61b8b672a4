package task

import "context"

// entryState tracks where a task is in its lifecycle. Transitions are
// guarded by the scheduler mutex.
type entryState int

const (
	stateQueued entryState = iota
	stateRunning
	stateSettled
)

// taskEntry is one submitted operation waiting for or undergoing execution.
// Entries double as nodes of the intrusive wait queue below.
type taskEntry struct {
	op     Operation
	handle *Handle

	state entryState

	// cancelRun cancels the operation's context once the entry is running.
	cancelRun context.CancelFunc

	prev, next *taskEntry
}

// waitQueue is a FIFO of queued task entries. Enqueue, dequeue, and removal
// of an arbitrary entry are all O(1); removal exists so a canceled entry can
// leave the queue without disturbing the order of the rest. A channel cannot
// serve here because channels do not support mid-queue removal.
//
// The queue is not safe for concurrent use; the scheduler mutex guards it.
type waitQueue struct {
	head, tail *taskEntry
	n          int
}

// len returns the number of queued entries.
func (q *waitQueue) len() int {
	return q.n
}

// pushBack appends an entry to the tail.
func (q *waitQueue) pushBack(e *taskEntry) {
	e.prev = q.tail
	e.next = nil
	if q.tail != nil {
		q.tail.next = e
	} else {
		q.head = e
	}
	q.tail = e
	q.n++
}

// popFront removes and returns the head entry, or nil if the queue is empty.
func (q *waitQueue) popFront() *taskEntry {
	e := q.head
	if e == nil {
		return nil
	}
	q.remove(e)
	return e
}

// remove unlinks the entry from the queue. The entry must currently be
// linked; remove on an unlinked entry would corrupt the list.
func (q *waitQueue) remove(e *taskEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		q.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		q.tail = e.prev
	}
	e.prev = nil
	e.next = nil
	q.n--
}
