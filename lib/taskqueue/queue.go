// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskqueue holds work deferred while a shared prerequisite
// (session creation) is in flight. Tasks run in enqueue order when the
// owner of the prerequisite calls ExecutePending with its outcome.
package taskqueue

import (
	"fmt"
	"log/slog"
	"sync"
)

// Task is a deferred action. outcome is nil when the prerequisite
// succeeded and carries its error otherwise.
type Task func(outcome error)

// Queue is a FIFO of pending tasks, safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	logger *slog.Logger
}

// New returns an empty queue. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Enqueue appends task. It never blocks on task execution.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// ExecutePending runs every task queued so far, oldest first, and
// returns how many ran. Tasks enqueued while the drain is running are
// left for the next call. A panicking task is logged and does not stop
// the drain.
func (q *Queue) ExecutePending(outcome error) int {
	q.mu.Lock()
	batch := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for index, task := range batch {
		q.run(index, task, outcome)
	}
	return len(batch)
}

// Len returns the number of tasks waiting for the next drain.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) run(index int, task Task, outcome error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			q.logger.Error("queued task panicked",
				"position", index,
				"panic", fmt.Sprint(recovered),
			)
		}
	}()
	task(outcome)
}
