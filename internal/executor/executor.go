// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package executor runs background tasks on a small fixed worker pool.
//
// The render callback must never block on I/O and must never outlive the
// frame, so all network work is enqueued here. A panicking task is contained
// by its worker: a panic escaping into the host process is undefined
// behavior, so recovery is mandatory rather than best-effort.
package executor

import (
	"sync"

	"github.com/jeranaias/gamesage/internal/diag"
)

// defaultQueueSize bounds pending tasks. The UI spawns at most one request
// at a time, so a small buffer is plenty.
const defaultQueueSize = 16

// Pool is a fixed-size worker pool.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers goroutines draining the task queue.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{tasks: make(chan func(), defaultQueueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			diag.Errorf("executor: task panic: %v", r)
		}
	}()
	task()
}

// Submit enqueues a task without blocking. Returns false when the queue is
// full or the pool is closed; the caller decides whether that matters.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		diag.Warnf("executor: queue full, task dropped")
		return false
	}
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
