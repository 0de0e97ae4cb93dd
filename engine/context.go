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
	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/inbox"
	"github.com/stelliform/lockstep/log"
)

// ActionContext is the element-side API handed to an action's Apply. It is
// valid only for the duration of the call, on the element's owning worker
// goroutine, with the element's box lock held.
//
// Errors returned by Send, Contribute and Query are also recorded on the
// element: when Apply returns, the executor escalates any recorded error to
// a protocol violation and aborts the run. Actions that can recover from a
// delivery error have no business doing so here; targets are fixed at setup
// time, so a failed send is a programming error.
type ActionContext struct {
	element *element
}

// Address returns the address of the executing element.
func (ctx *ActionContext) Address() address.Address {
	return ctx.element.addr
}

// Component returns the component the executing element belongs to.
func (ctx *ActionContext) Component() *Component {
	return ctx.element.component
}

// Phase returns the phase currently driving the element.
func (ctx *ActionContext) Phase() Phase {
	return Phase(ctx.element.phase.Load())
}

// Box returns the element's private state as created by the component's box
// factory, or nil when the component declared none. The element's box lock
// is held for the whole action, so the state may be mutated freely.
func (ctx *ActionContext) Box() any {
	return ctx.element.box
}

// Inbox returns the executing element's inbox. Only the executing action
// consumes from it; insertions arrive from other elements and external
// senders at any time.
func (ctx *ActionContext) Inbox() *inbox.Inbox {
	return ctx.element.inbox
}

// Directory returns the frozen engine directory for component membership
// and global parameter lookups.
func (ctx *ActionContext) Directory() *Directory {
	return ctx.element.engine.directory
}

// Logger returns the engine logger.
func (ctx *ActionContext) Logger() log.Logger {
	return ctx.element.engine.logger
}

// Send inserts value into the kind inbox of another element under the given
// key, with the executing element as sender. Delivery is asynchronous: it
// wakes the receiver when suspended and otherwise leaves the data for the
// receiver's next consumption. Sending to the executing element itself is
// allowed and simply makes the data visible to the next consume call.
func (ctx *ActionContext) Send(to address.Address, kind string, key inbox.Key, value any) error {
	elem := ctx.element
	if err := elem.engine.deliver(to, kind, key, elem.addr, value); err != nil {
		elem.failure = err
		return err
	}
	return nil
}

// Contribute reports the executing element's value for the reduction
// identified by id. See Engine.Contribute for the reduction contract.
func (ctx *ActionContext) Contribute(id ReductionID, target address.Address, kind string, key inbox.Key, value any, op CombineOp) error {
	elem := ctx.element
	if err := elem.engine.contribute(id, target, kind, key, elem.addr, value, op); err != nil {
		elem.failure = err
		return err
	}
	return nil
}

// Query runs fn against another element's box under that element's box lock
// and returns fn's result. Querying the executing element itself would
// deadlock on its own box lock and is rejected as reentrant execution.
// Cross-queries between two concurrently executing elements can still
// deadlock; queries are meant for setup-time reads and lock-handle
// retrieval, not for data exchange between actions.
func (ctx *ActionContext) Query(target address.Address, fn func(box any) any) (any, error) {
	elem := ctx.element
	if target.Equal(elem.addr) {
		elem.failure = errors.ErrReentrantExecution
		return nil, errors.ErrReentrantExecution
	}
	out, err := elem.engine.Query(target, fn)
	if err != nil {
		elem.failure = err
		return nil, err
	}
	return out, nil
}
