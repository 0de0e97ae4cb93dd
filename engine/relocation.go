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
	"fmt"
	"sort"
	"time"

	"github.com/flowchartsman/retry"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/internal/types"
)

// Relocation handoff retry bounds. A full destination ring resolves as soon
// as the worker adopts what it holds, so the backoff stays short.
const (
	handoffMaxRetries   = 5
	handoffInitialDelay = time.Millisecond
	handoffMaxDelay     = 50 * time.Millisecond
)

// Snapshotter is the protocol a box must implement for its element to move
// between workers. Snapshot captures the box state at a phase boundary;
// Restore installs it on the destination worker before the next phase
// begins.
type Snapshotter interface {
	Snapshot() ([]byte, error)
	Restore(snapshot []byte) error
}

// relocation is one element handoff in flight to a destination worker.
type relocation struct {
	elem     *element
	snapshot []byte
	done     chan<- types.Unit
}

// move is a queued relocation request, applied at the next phase boundary.
type move struct {
	elem   *element
	worker int
}

// Relocate queues the element at addr for handoff to the given worker at the
// next phase boundary. The element's box must implement Snapshotter.
// Relocations requested before Run apply ahead of the first phase.
func (x *Engine) Relocate(addr address.Address, worker int) error {
	elem, err := x.elementAt(addr)
	if err != nil {
		return err
	}
	if worker < 0 || worker >= x.workerCount {
		return fmt.Errorf("%w: %d", errors.ErrUnknownWorker, worker)
	}
	if _, ok := elem.box.(Snapshotter); !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotRelocatable, addr)
	}
	x.movesMu.Lock()
	x.pendingMoves = append(x.pendingMoves, move{elem: elem, worker: worker})
	x.movesMu.Unlock()
	return nil
}

func (x *Engine) takePendingMoves() []move {
	x.movesMu.Lock()
	moves := x.pendingMoves
	x.pendingMoves = nil
	x.movesMu.Unlock()
	return moves
}

// applyRelocations hands queued element moves to their destination workers
// and waits until every one is adopted. It runs between phases, while all
// elements are parked, so snapshots see no executor in flight.
func (x *Engine) applyRelocations(ctx context.Context) error {
	moves := x.takePendingMoves()
	if x.rebalancing {
		moves = append(moves, x.rebalanceMoves(moves)...)
	}
	if len(moves) == 0 {
		return nil
	}
	// address order keeps the handoff sequence reproducible across runs
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].elem.addr.Less(moves[j].elem.addr)
	})

	done := make(chan types.Unit, len(moves))
	handed := 0
	for _, mv := range moves {
		elem := mv.elem
		if elem.terminated() || int(elem.workerID.Load()) == mv.worker {
			continue
		}
		snapshotter, ok := elem.box.(Snapshotter)
		if !ok {
			return fmt.Errorf("%w: %s", errors.ErrNotRelocatable, elem.addr)
		}
		snapshot, err := snapshotter.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshotting %s: %w", elem.addr, err)
		}

		dest := x.workers[mv.worker]
		env := &relocation{elem: elem, snapshot: snapshot, done: done}
		retrier := retry.NewRetrier(handoffMaxRetries, handoffInitialDelay, handoffMaxDelay)
		if err := retrier.RunContext(ctx, func(context.Context) error {
			if err := dest.incoming.TryPush(env); err != nil {
				// ring full; nudge the worker to adopt what it holds
				dest.wake()
				return err
			}
			return nil
		}); err != nil {
			return fmt.Errorf("handing %s to worker %d: %w", elem.addr, mv.worker, err)
		}
		dest.wake()
		handed++
	}

	for i := 0; i < handed; i++ {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// rebalanceMoves levels the per-worker share of processed actions. Longest
// processing time greedy: visit elements by descending processed count and
// assign each to the lightest worker so far. Elements already queued for an
// explicit move, terminated, or without a Snapshotter box stay put.
func (x *Engine) rebalanceMoves(explicit []move) []move {
	pinned := make(map[*element]bool, len(explicit))
	for _, mv := range explicit {
		pinned[mv.elem] = true
	}

	type loaded struct {
		elem *element
		cost uint64
	}
	var candidates []loaded
	for _, component := range x.directory.Components() {
		for _, elem := range component.elements {
			if elem.terminated() || pinned[elem] {
				continue
			}
			if _, ok := elem.box.(Snapshotter); !ok {
				continue
			}
			// +1 so a cold start still spreads elements across workers
			candidates = append(candidates, loaded{elem: elem, cost: elem.processed.Load() + 1})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].cost != candidates[j].cost {
			return candidates[i].cost > candidates[j].cost
		}
		return candidates[i].elem.addr.Less(candidates[j].elem.addr)
	})

	loads := make([]uint64, x.workerCount)
	var moves []move
	for _, candidate := range candidates {
		lightest := 0
		for w := 1; w < x.workerCount; w++ {
			if loads[w] < loads[lightest] {
				lightest = w
			}
		}
		loads[lightest] += candidate.cost
		if int(candidate.elem.workerID.Load()) != lightest {
			moves = append(moves, move{elem: candidate.elem, worker: lightest})
		}
	}
	return moves
}

// adopt restores a relocated element's box from its snapshot and takes
// ownership. It runs on the destination worker while the element is parked
// between phases; the done token orders the ownership change before the
// controller's next broadcast.
func (w *worker) adopt(env *relocation) {
	defer func() { env.done <- types.Unit{} }()

	// Relocate vets the box before queueing the move
	snapshotter, ok := env.elem.box.(Snapshotter)
	if !ok {
		w.engine.abort(fmt.Errorf("%w: %s", errors.ErrNotRelocatable, env.elem.addr))
		return
	}
	if err := snapshotter.Restore(env.snapshot); err != nil {
		w.engine.abort(fmt.Errorf("restoring %s on worker %d: %w", env.elem.addr, w.id, err))
		return
	}
	from := int(env.elem.workerID.Load())
	env.elem.workerID.Store(int32(w.id))
	w.engine.publishEvent(&ElementRelocated{Address: env.elem.addr, From: from, To: w.id})
}
