// MIT License
//
// Copyright (c) 2024-2026 Lockstep Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package engine

import (
	"context"

	"github.com/stelliform/lockstep/internal/types"
	"github.com/stelliform/lockstep/queue"
)

// relocationRingCapacity bounds how many element handoffs a worker can have
// pending at one phase boundary. The controller retries with backoff when a
// ring is full.
const relocationRingCapacity = 64

// worker owns a disjoint subset of elements and executes them one at a time
// off its run queue. Ownership moves between workers only at phase
// boundaries, through the bounded incoming ring.
type worker struct {
	id     int
	engine *Engine

	// runq holds elements scheduled for execution. Producers are the phase
	// broadcast and wakers; this worker is the only consumer.
	runq   *queue.MPSC[*element]
	notify chan types.Unit

	// incoming carries relocation envelopes from the controller.
	incoming *queue.Bounded[*relocation]
}

func newWorker(engine *Engine, id int) (*worker, error) {
	incoming, err := queue.NewBounded[*relocation](relocationRingCapacity)
	if err != nil {
		return nil, err
	}
	return &worker{
		id:       id,
		engine:   engine,
		runq:     queue.NewMPSC[*element](),
		notify:   make(chan types.Unit, 1),
		incoming: incoming,
	}, nil
}

// run executes scheduled elements until the context is canceled. The worker
// parks on its notify channel whenever the run queue is empty.
func (w *worker) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.notify:
			w.adoptIncoming()
			w.drain(ctx)
		}
	}
}

// drain pops and executes elements until the run queue is empty or the
// context is canceled.
func (w *worker) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		elem, ok := w.runq.Pop()
		if !ok {
			return
		}
		w.engine.runElement(ctx, elem)
	}
}

// schedule queues the element for execution and nudges the worker.
func (w *worker) schedule(elem *element) {
	w.runq.Push(elem)
	w.wake()
}

// wake nudges the worker without blocking. The notify channel acts as a
// binary semaphore; one pending nudge is enough because the worker drains
// its whole queue per nudge.
func (w *worker) wake() {
	select {
	case w.notify <- types.Unit{}:
	default:
	}
}

// adoptIncoming takes ownership of every element handed to this worker at
// the last phase boundary. It runs before draining, while the elements are
// parked, so no executor can observe a half-restored box.
func (w *worker) adoptIncoming() {
	for {
		env, ok := w.incoming.TryPop()
		if !ok {
			return
		}
		w.adopt(env)
	}
}
