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

// Package errors defines the error taxonomy of the engine.
//
// Errors fall into three groups with distinct handling:
//
//   - Configuration errors are raised while an engine is being assembled and
//     are fatal before anything runs.
//   - Protocol violations are programming errors detected mid-run (duplicate
//     insertions, unexpected reduction contributors, reentrant execution).
//     The engine wraps them in a ViolationError carrying the offending
//     element's context and aborts the run.
//   - Resource exhaustion (a full bounded queue) is transient: the caller is
//     expected to retry.
//
// Liveness problems (an element suspended forever on data that never
// arrives) are deliberately not represented here: the engine never times
// out on them and only surfaces them through diagnostics.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNameRequired is returned when an engine name is required but not provided.
	ErrNameRequired = errors.New("engine name is required")

	// ErrInvalidName is returned when an engine or component name contains invalid
	// characters. A valid name consists of alphanumeric characters ([a-zA-Z0-9])
	// with optional non-leading hyphens or underscores.
	ErrInvalidName = errors.New("invalid name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

	// ErrAlreadyRegistered indicates an attempt to register a component under a
	// name the directory already holds.
	ErrAlreadyRegistered = errors.New("component is already registered")

	// ErrUnknownComponent is returned when a directory lookup names a component
	// that was never registered. This is a configuration error: component
	// wiring is fixed before the engine runs.
	ErrUnknownComponent = errors.New("component is not registered")

	// ErrDirectoryFrozen indicates a mutation of the directory after the engine
	// has started. Registrations and global parameters are setup-time only.
	ErrDirectoryFrozen = errors.New("directory is frozen")

	// ErrUnknownParameter is returned when a global parameter lookup misses.
	ErrUnknownParameter = errors.New("global parameter is not defined")

	// ErrParameterType is returned when a global parameter exists but does not
	// hold the requested type.
	ErrParameterType = errors.New("global parameter holds a different type")

	// ErrInvalidCapacity is returned when a bounded queue is created with a
	// capacity lower than one.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrNoPhases is returned when an engine is built without any phase.
	ErrNoPhases = errors.New("at least one phase is required")

	// ErrInvalidPhaseOrder is returned when the configured phase sequence is not
	// strictly increasing.
	ErrInvalidPhaseOrder = errors.New("phases must be strictly increasing")

	// ErrReservedPhase is returned when a configured phase collides with the
	// reserved terminal phase.
	ErrReservedPhase = errors.New("phase value is reserved for engine exit")

	// ErrUnknownPhase is returned when an action list is registered for a phase
	// the engine was not configured with.
	ErrUnknownPhase = errors.New("phase is not configured")

	// ErrNoElements is returned when a component is registered without elements.
	ErrNoElements = errors.New("component requires at least one element")

	// ErrNoComponents is returned when an engine is run before any component
	// has been registered.
	ErrNoComponents = errors.New("at least one component is required")

	// ErrEngineStarted indicates a setup-time operation attempted after Run.
	ErrEngineStarted = errors.New("engine has already started")

	// ErrEngineNotStarted indicates a run-time operation attempted before Run.
	ErrEngineNotStarted = errors.New("engine has not started")

	// ErrEngineStopped indicates an operation on an engine whose run finished.
	ErrEngineStopped = errors.New("engine has stopped")

	// ErrNotRelocatable is returned when a relocation is requested for an
	// element whose box does not implement the snapshot protocol.
	ErrNotRelocatable = errors.New("element state does not support relocation")

	// ErrUnknownWorker is returned when a relocation names a worker outside the
	// configured pool.
	ErrUnknownWorker = errors.New("worker is not defined")

	// ErrInvalidWorkerCount is returned when an engine is configured with a
	// worker pool size lower than one.
	ErrInvalidWorkerCount = errors.New("worker count must be positive")
)

var (
	// ErrUnknownElement is returned when a send or query targets an element
	// index outside its component's membership.
	ErrUnknownElement = errors.New("element is not defined")

	// ErrUnknownKind is returned when an insertion names an inbox kind the
	// receiving element never declared.
	ErrUnknownKind = errors.New("inbox kind is not declared")

	// ErrDuplicateInsertion indicates two insertions for the same
	// (kind, key, sender) triple on a kind that requires unique senders.
	ErrDuplicateInsertion = errors.New("duplicate insertion for inbox key")

	// ErrDuplicateContribution indicates a contributor reported twice for the
	// same reduction before it completed.
	ErrDuplicateContribution = errors.New("duplicate reduction contribution")

	// ErrContributorNotExpected indicates a contribution from an address outside
	// the membership frozen when the reduction was initiated.
	ErrContributorNotExpected = errors.New("contributor is not part of the reduction membership")

	// ErrReductionMismatch indicates a contribution whose target, kind or key
	// disagrees with the reduction already in flight under the same identifier.
	ErrReductionMismatch = errors.New("contribution does not match the reduction in flight")

	// ErrReentrantExecution indicates an element was handed to an executor
	// while already executing. One executor per element at a time is a core
	// invariant; hitting this is always an engine bug or a corrupted handoff.
	ErrReentrantExecution = errors.New("element is already executing")

	// ErrActionPanic is returned when an action implementation panics. The
	// panic is recovered by the executor and surfaced as a phase violation.
	ErrActionPanic = errors.New("action panicked")
)

var (
	// ErrQueueFull is returned by bounded queues when an offer would exceed
	// capacity. The producer decides whether to retry, not the queue.
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueClosed is returned when pushing to a queue that was shut down.
	ErrQueueClosed = errors.New("queue is closed")
)

// NewErrInvalidName wraps a base error with ErrInvalidName for context.
func NewErrInvalidName(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidName, err)
}

// NewErrAlreadyRegistered formats an ErrAlreadyRegistered with the component name.
func NewErrAlreadyRegistered(component string) error {
	return fmt.Errorf("%w: %s", ErrAlreadyRegistered, component)
}

// NewErrUnknownComponent formats an ErrUnknownComponent with the component name.
func NewErrUnknownComponent(component string) error {
	return fmt.Errorf("%w: %s", ErrUnknownComponent, component)
}

// NewErrUnknownParameter formats an ErrUnknownParameter with the parameter key.
func NewErrUnknownParameter(key string) error {
	return fmt.Errorf("%w: %s", ErrUnknownParameter, key)
}

// NewErrUnknownElement formats an ErrUnknownElement with the element address.
func NewErrUnknownElement(addr fmt.Stringer) error {
	return fmt.Errorf("%w: %s", ErrUnknownElement, addr)
}

// NewErrUnknownKind formats an ErrUnknownKind with the kind name.
func NewErrUnknownKind(kind string) error {
	return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

// NewErrUnknownPhase formats an ErrUnknownPhase with the offending phase.
func NewErrUnknownPhase(phase fmt.Stringer) error {
	return fmt.Errorf("%w: %s", ErrUnknownPhase, phase)
}
