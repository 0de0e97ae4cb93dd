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
	"go.uber.org/atomic"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/inbox"
	"github.com/stelliform/lockstep/locker"
)

// element is one addressable unit of work inside a component. Elements never
// share memory directly: they exchange keyed inbox data and private state
// lives in the box. A single worker executes an element at a time; which
// worker owns it can change between phases via relocation.
type element struct {
	addr      address.Address
	component *Component
	engine    *Engine

	// box holds the element's private mutable state, created by the
	// component's box factory. boxLock guards it so the synchronous query
	// hook serializes with actions.
	box     any
	boxLock *locker.Lock

	// inbox buffers keyed data sent to this element. Producers are other
	// elements' workers; only the owning executor consumes.
	inbox *inbox.Inbox

	// sched holds exactly one scheduling state (idle, queued, running or
	// suspended); flags holds the sticky markers. See element_state.go.
	sched atomic.Int32
	flags atomic.Uint32

	phase  atomic.Uint32
	cursor atomic.Int64

	// actions is the list installed by the latest phase broadcast. It sits
	// behind an atomic pointer so diagnostics can read it while the
	// controller rearms elements between phases.
	actions atomic.Pointer[[]Action]

	suspendReason atomic.Pointer[string]

	// processed counts actions applied over the whole run. The rebalancer
	// uses it as a per-element load signal.
	processed atomic.Uint64

	// workerID names the owning worker. It changes only between phases,
	// while no executor holds the element; atomic because diagnostics may
	// read it while a relocation adopts the element.
	workerID atomic.Int32

	// failure carries an error raised inside an action (for example a failed
	// Send) out to the executor. Owned by the executing goroutine.
	failure error

	actx ActionContext
}

// newElement creates an element with a fresh inbox and box. The element
// starts idle with no action list; the first phase broadcast arms it.
func newElement(engine *Engine, component *Component, addr address.Address, kinds []inbox.Kind, factory func(address.Address) any) (*element, error) {
	mailbox, err := inbox.New(kinds...)
	if err != nil {
		return nil, err
	}
	elem := &element{
		addr:      addr,
		component: component,
		engine:    engine,
		boxLock:   locker.New(),
		inbox:     mailbox,
	}
	if factory != nil {
		elem.box = factory(addr)
	}
	elem.actx = ActionContext{element: elem}
	return elem, nil
}

// terminated reports whether a Terminate outcome retired the element.
func (e *element) terminated() bool {
	return e.isFlagEnabled(terminatedFlag)
}

// actionList returns the action list of the current phase, or nil before the
// first broadcast.
func (e *element) actionList() []Action {
	if actions := e.actions.Load(); actions != nil {
		return *actions
	}
	return nil
}

func (e *element) setActionList(actions []Action) {
	e.actions.Store(&actions)
}

func (e *element) setSuspendReason(reason string) {
	e.suspendReason.Store(&reason)
}

func (e *element) clearSuspendReason() {
	e.suspendReason.Store(nil)
}

// currentSuspendReason returns the reason carried by the latest Suspend
// outcome, or an empty string when the element is not suspended.
func (e *element) currentSuspendReason() string {
	if reason := e.suspendReason.Load(); reason != nil {
		return *reason
	}
	return ""
}

// nextActionName returns the name of the action the cursor points at, or an
// empty string when the element ran its list to completion.
func (e *element) nextActionName() string {
	actions := e.actionList()
	cursor := int(e.cursor.Load())
	if cursor < 0 || cursor >= len(actions) {
		return ""
	}
	return actions[cursor].Name()
}
