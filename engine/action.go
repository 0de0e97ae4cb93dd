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

// Action is one unit of element work. An element executes the action list
// registered for the current phase in order, one action at a time, under its
// box lock. The returned Outcome tells the executor how to move the cursor.
//
// Apply runs on the element's owning worker goroutine and must not retain
// the context beyond the call.
type Action interface {
	// Name returns the identifier shown in diagnostics and violations.
	Name() string
	// Apply runs the action against the element behind ctx.
	Apply(ctx *ActionContext) Outcome
}

// funcAction adapts a plain function into an Action.
type funcAction struct {
	name string
	fn   func(ctx *ActionContext) Outcome
}

// enforce compilation error
var _ Action = (*funcAction)(nil)

// NewAction creates an Action from a function.
func NewAction(name string, fn func(ctx *ActionContext) Outcome) Action {
	return &funcAction{name: name, fn: fn}
}

// Name implements Action.
func (a *funcAction) Name() string {
	return a.name
}

// Apply implements Action.
func (a *funcAction) Apply(ctx *ActionContext) Outcome {
	return a.fn(ctx)
}

// outcomeKind enumerates the executor directives an action can return.
type outcomeKind int

const (
	outcomeAdvance outcomeKind = iota
	outcomeRestart
	outcomeSuspend
	outcomeTerminate
)

// Outcome is the directive an action returns to the executor.
type Outcome struct {
	kind   outcomeKind
	reason string
}

// Advance moves the element to the next action in the list.
func Advance() Outcome {
	return Outcome{kind: outcomeAdvance}
}

// Restart rewinds the element to the first action of the current phase.
func Restart() Outcome {
	return Outcome{kind: outcomeRestart}
}

// Suspend parks the element on the current action until new inbox data
// arrives; the same action runs again on wake. The reason is surfaced in
// diagnostics to explain what the element is waiting for.
func Suspend(reason string) Outcome {
	return Outcome{kind: outcomeSuspend, reason: reason}
}

// Terminate retires the element for the remainder of the run. A terminated
// element skips all later phases but remains addressable for reads and
// diagnostics.
func Terminate() Outcome {
	return Outcome{kind: outcomeTerminate}
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o.kind {
	case outcomeAdvance:
		return "advance"
	case outcomeRestart:
		return "restart"
	case outcomeSuspend:
		if o.reason == "" {
			return "suspend"
		}
		return "suspend: " + o.reason
	case outcomeTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}
