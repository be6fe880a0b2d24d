package store

import (
	"context"
	"fmt"
	"sync"
)

// KeyedQueue runs tasks one at a time per key in submission order.
// Tasks for different keys run concurrently. A key's entry is pruned as soon
// as its last task settles.
type KeyedQueue struct {
	mu     sync.Mutex
	queues map[string]*keyQueue
	wg     sync.WaitGroup
}

type keyQueue struct {
	tasks []queuedTask
}

type queuedTask struct {
	ctx  context.Context
	run  func(context.Context) error
	done chan error
}

// NewKeyedQueue creates an empty queue.
func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{queues: make(map[string]*keyQueue)}
}

// Submit enqueues fn behind every task already submitted for key.
// The returned channel receives exactly one value: fn's result, or ctx's
// error if ctx was done before fn started.
func (q *KeyedQueue) Submit(ctx context.Context, key string, fn func(context.Context) error) <-chan error {
	done := make(chan error, 1)

	q.mu.Lock()
	kq, active := q.queues[key]
	if !active {
		kq = &keyQueue{}
		q.queues[key] = kq
	}
	kq.tasks = append(kq.tasks, queuedTask{ctx: ctx, run: fn, done: done})
	if !active {
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if !active {
		go q.drain(key, kq)
	}
	return done
}

func (q *KeyedQueue) drain(key string, kq *keyQueue) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(kq.tasks) == 0 {
			delete(q.queues, key)
			q.mu.Unlock()
			return
		}
		t := kq.tasks[0]
		kq.tasks = kq.tasks[1:]
		q.mu.Unlock()

		t.done <- runTask(t)
	}
}

func runTask(t queuedTask) (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queued task panicked: %v", r)
		}
	}()
	return t.run(t.ctx)
}

// ActiveKeys returns the number of keys with queued or running tasks.
func (q *KeyedQueue) ActiveKeys() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues)
}

// Wait blocks until every submitted task has settled.
func (q *KeyedQueue) Wait() {
	q.wg.Wait()
}
