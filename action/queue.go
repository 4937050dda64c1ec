package action

import (
	"container/list"
	"context"
	"sync"
)

// Queue is a thread-safe FIFO of Messages with a blocking Pop, the
// inbound side of a federate: producers (the owning core's network I/O
// paths) push from any number of goroutines, and a single consumer (the
// worker holding the federate's processing token) pops. Unlike the
// reference implementation's spectator spin-wait on the processing
// token, Queue itself never busy-waits: Pop blocks on a sync.Cond that
// Push signals.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *list.List
	closed bool
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	var q = &Queue{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends msg to the queue, unless it's a CmdIgnore (a caller
// expressing "nothing to deliver"), matching addAction's validation.
// Push on a closed Queue silently drops msg: a federate that has
// already halted has no worker left to drain it.
func (q *Queue) Push(msg Message) {
	if msg.Action == CmdIgnore {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items.PushBack(msg)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until a Message is available, the queue is closed, or ctx
// is done. ok is false when the queue was closed with no further
// messages pending, or when ctx is done while the queue is empty.
func (q *Queue) Pop(ctx context.Context) (msg Message, ok bool) {
	// A watcher goroutine turns ctx cancellation into a broadcast so a
	// blocked Pop doesn't outlive the caller's context. It's only
	// started if ctx can actually be cancelled.
	if done := ctx.Done(); done != nil {
		var stop = make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-done:
				q.cond.Broadcast()
			case <-stop:
			}
		}()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.closed {
		if ctx.Err() != nil {
			return Message{}, false
		}
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return Message{}, false
	}
	var front = q.items.Remove(q.items.Front())
	return front.(Message), true
}

// TryPop returns the head Message without blocking, or ok=false if the
// queue is currently empty.
func (q *Queue) TryPop() (msg Message, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return Message{}, false
	}
	var front = q.items.Remove(q.items.Front())
	return front.(Message), true
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close wakes any blocked Pop calls; subsequent Pops drain remaining
// messages and then return ok=false.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Sender is the capability a federate uses to push outbound
// ActionMessages to its parent core, installed via
// federate.State.SetParent in place of a raw back-reference to the core
// object (spec Design Notes §9).
type Sender interface {
	Send(Message)
}

// SenderFunc adapts a function to a Sender.
type SenderFunc func(Message)

// Send implements Sender.
func (f SenderFunc) Send(m Message) { f(m) }
