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
	"time"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/inbox"
)

// eventsTopic is the eventstream topic carrying engine lifecycle events.
const eventsTopic = "topic.events"

// EngineStarted is published once the engine finished starting, before the
// first phase broadcast.
type EngineStarted struct {
	Name string
}

// EngineStopped is published when the run ends, after the last phase or on
// abort.
type EngineStopped struct {
	Name string
}

// PhaseStarted is published when a phase broadcast armed the elements.
type PhaseStarted struct {
	Phase    Phase
	Elements int
}

// PhaseCompleted is published when a phase reached global quiescence.
type PhaseCompleted struct {
	Phase    Phase
	Duration time.Duration
}

// ElementTerminated is published when a Terminate outcome retires an
// element.
type ElementTerminated struct {
	Address address.Address
	Phase   Phase
}

// ElementRelocated is published when a worker adopts a relocated element.
type ElementRelocated struct {
	Address address.Address
	From    int
	To      int
}

// ReductionCompleted is published when a reduction folds and delivers its
// result to the target.
type ReductionCompleted struct {
	ID           ReductionID
	Target       address.Address
	Kind         string
	Key          inbox.Key
	Contributors int
}
