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

// Scheduling states of an element. Exactly one holds at a time, stored in
// element.sched. Transitions are CAS-guarded so that a single executor owns
// the element between queued -> running and park.
const (
	// idle means the element finished its action list for the current phase
	// (or has none) and waits for the next phase broadcast.
	idle int32 = iota
	// queued means the element sits on a worker run queue awaiting execution.
	queued
	// running means a worker is currently draining the element's action list.
	running
	// suspended means an action parked the element until new inbox data
	// arrives. Insertions wake suspended elements; idle elements keep the
	// data for a later phase.
	suspended
)

// schedName renders a scheduling state for diagnostics.
func schedName(state int32) string {
	switch state {
	case idle:
		return "idle"
	case queued:
		return "queued"
	case running:
		return "running"
	case suspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// elementFlag models the bitmask tracking the element's sticky markers.
// Instead of sprinkling multiple atomic.Bool fields across the struct, we
// flip individual bits inside a single atomic.Uint32. The markers are
// orthogonal to the scheduling state above.
type elementFlag uint32

// Element flag definitions. Each flag occupies a dedicated bit inside
// element.flags.
//
//   - terminatedFlag: a Terminate outcome retired the element; it skips all
//     later phase broadcasts but stays addressable for reads and dumps.
//   - dirtyFlag: inbox data arrived since the executor last started draining.
//     The executor clears it before running and rechecks it after parking so
//     a delivery racing the park is never lost.
const (
	terminatedFlag elementFlag = 1 << iota
	dirtyFlag
)

func (e *element) isFlagEnabled(flag elementFlag) bool {
	return e.flags.Load()&uint32(flag) != 0
}

// toggleFlag sets or clears the given flag. It uses a CAS loop to avoid
// races when several goroutines update different element bits at the same
// time. If the flag already matches the requested state we exit early to
// avoid an unnecessary write.
func (e *element) toggleFlag(flag elementFlag, enabled bool) {
	for {
		state := e.flags.Load()
		var desired uint32
		if enabled {
			desired = state | uint32(flag)
		} else {
			desired = state &^ uint32(flag)
		}
		if desired == state {
			return
		}
		if e.flags.CompareAndSwap(state, desired) {
			return
		}
	}
}
