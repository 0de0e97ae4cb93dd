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

	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/internal/types"
)

// runElement drains the element's action list from its current cursor. It
// runs on the element's owning worker, which owns the element exclusively
// until it parks again.
//
// The quiescence protocol hinges on the ordering here. An element counts as
// active from the phase broadcast until it parks; parking publishes the
// parked state before retiring the active slot, and a suspend rechecks the
// dirty bit after parking so a delivery racing the park is either observed
// by the recheck or finds the element already suspended and wakes it. Either
// way no delivery is lost and the active count never drops to zero with
// work still pending.
func (x *Engine) runElement(ctx context.Context, elem *element) {
	if !elem.sched.CompareAndSwap(queued, running) {
		x.abort(errors.NewViolation(errors.ErrReentrantExecution, elem.addr, elem.phase.Load(), int(elem.cursor.Load()), ""))
		return
	}
	elem.toggleFlag(dirtyFlag, false)

	actions := elem.actionList()
	for {
		select {
		case <-ctx.Done():
			// the run is aborting; the element stays wherever it was
			return
		default:
		}

		cursor := int(elem.cursor.Load())
		if cursor >= len(actions) {
			x.parkIdle(elem)
			return
		}

		action := actions[cursor]
		outcome, err := x.applyAction(elem, action)
		if err != nil {
			x.abort(errors.NewViolation(err, elem.addr, elem.phase.Load(), cursor, action.Name()))
			return
		}
		elem.processed.Inc()
		x.actionsCount.Inc()

		switch outcome.kind {
		case outcomeAdvance:
			elem.cursor.Inc()
		case outcomeRestart:
			elem.cursor.Store(0)
		case outcomeTerminate:
			x.terminate(elem)
			return
		case outcomeSuspend:
			if x.parkSuspended(elem, outcome.reason) {
				// a delivery raced the park; rerun from the held cursor
				continue
			}
			return
		}
	}
}

// applyAction runs one action under the element's box lock, converting a
// panic or an error recorded by the action context into a returned error.
func (x *Engine) applyAction(elem *element, action Action) (outcome Outcome, err error) {
	elem.failure = nil
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrActionPanic, r)
		}
	}()
	elem.boxLock.With(func() {
		outcome = action.Apply(&elem.actx)
	})
	if elem.failure != nil {
		err = elem.failure
	}
	return outcome, err
}

// parkIdle publishes the element as done with its action list for the
// current phase.
func (x *Engine) parkIdle(elem *element) {
	elem.sched.Store(idle)
	x.parkDone()
}

// terminate retires the element for the remainder of the run.
func (x *Engine) terminate(elem *element) {
	elem.toggleFlag(terminatedFlag, true)
	elem.clearSuspendReason()
	elem.sched.Store(idle)
	x.elementsAlive.Dec()
	x.publishEvent(&ElementTerminated{Address: elem.addr, Phase: Phase(elem.phase.Load())})
	x.parkDone()
}

// parkSuspended publishes the element as suspended, retires its active slot
// and rechecks the dirty bit. It returns true when a delivery raced the park
// and the element must keep running from the same cursor.
func (x *Engine) parkSuspended(elem *element, reason string) bool {
	elem.setSuspendReason(reason)
	x.suspensionsCount.Inc()

	// the suspension must be visible before the active slot is retired, so
	// a controller that reads active == 0 cannot miss it
	x.suspended.Inc()
	elem.sched.Store(suspended)
	x.parkDone()

	// a delivery between the last inbox read and the store above may have
	// found the element not yet suspended and woken nobody; the dirty bit
	// recheck catches it
	if elem.isFlagEnabled(dirtyFlag) {
		x.active.Inc()
		if elem.sched.CompareAndSwap(suspended, running) {
			x.wakeGen.Inc()
			x.suspended.Dec()
			elem.toggleFlag(dirtyFlag, false)
			elem.clearSuspendReason()
			return true
		}
		// a concurrent waker won the swap and owns the transition
		if x.active.Dec() == 0 {
			x.pokeQuiescence()
		}
	}
	return false
}

// parkDone retires one active slot. The last parker pokes the controller.
func (x *Engine) parkDone() {
	if x.active.Dec() == 0 {
		x.pokeQuiescence()
	}
}

// pokeQuiescence nudges the controller to re-evaluate quiescence without
// blocking. The channel is a binary semaphore, one pending nudge is enough.
func (x *Engine) pokeQuiescence() {
	select {
	case x.quiescence <- types.Unit{}:
	default:
	}
}

// wake transfers a suspended element back to its worker's run queue after a
// delivery. Elements in any other state only get their dirty bit set: a
// running element rechecks it before parking, an idle one keeps the data
// for a later phase.
//
// The commit order matters twice over. The active slot is taken before the
// swap so the active count cannot read zero while a wake is in flight, and
// the wake generation is bumped between the swap and the suspended
// decrement so a controller that misses both counters still sees the
// generation move.
func (x *Engine) wake(elem *element) {
	elem.toggleFlag(dirtyFlag, true)
	if elem.sched.Load() != suspended {
		return
	}
	x.active.Inc()
	if elem.sched.CompareAndSwap(suspended, queued) {
		x.wakeGen.Inc()
		x.suspended.Dec()
		elem.clearSuspendReason()
		x.workers[elem.workerID.Load()].schedule(elem)
		return
	}
	// lost the swap to the element's own dirty recheck or another waker
	if x.active.Dec() == 0 {
		x.pokeQuiescence()
	}
}
