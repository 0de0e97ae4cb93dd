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
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/inbox"
	"github.com/stelliform/lockstep/internal/xsync"
)

// ReductionID identifies one reduction instance across its contributors.
type ReductionID string

// NewReductionID returns a fresh reduction identifier.
func NewReductionID() ReductionID {
	return ReductionID(uuid.NewString())
}

// CombineOp folds an accumulated reduction value with one contribution. The
// engine folds left to right in contributor address order, so op need not be
// commutative, only total over the contributed values.
type CombineOp func(acc, value any) any

// reducer buffers in-flight reductions keyed by id and delivers the folded
// value to the target once every expected contributor reported.
type reducer struct {
	engine *Engine
	states *xsync.Map[ReductionID, *reductionState]
}

// reductionState tracks one in-flight reduction. The expected contributor
// set, fold order and shape (target, kind, key, op) are frozen when the
// first contribution creates the state.
type reductionState struct {
	mu       sync.Mutex
	target   address.Address
	kind     string
	key      inbox.Key
	op       CombineOp
	expected mapset.Set[address.Address]
	order    []address.Address
	received map[address.Address]any
	done     bool
}

func newReducer(engine *Engine) *reducer {
	return &reducer{
		engine: engine,
		states: xsync.NewMap[ReductionID, *reductionState](),
	}
}

// contribute records one contributor's value for the reduction identified by
// id. The first contribution freezes the expected set as the live membership
// of the contributor's component; the target, kind and key of every later
// contribution must agree with the first. When the last expected contributor
// reports, the values are folded in contributor address order and delivered
// to the target as a plain inbox insertion from the zero sender.
//
// Reduction state is destroyed on delivery, so reusing an id afterwards
// starts a fresh reduction round under that id.
func (r *reducer) contribute(id ReductionID, target address.Address, kind string, key inbox.Key, contributor address.Address, value any, op CombineOp) error {
	for {
		state, err := r.getOrCreate(id, contributor, target, kind, key, op)
		if err != nil {
			return err
		}

		state.mu.Lock()
		if state.done {
			// delivered and deleted between lookup and lock; start over
			// against a fresh state
			state.mu.Unlock()
			continue
		}
		if !state.target.Equal(target) || state.kind != kind || state.key != key {
			state.mu.Unlock()
			return fmt.Errorf("%w: %s", errors.ErrReductionMismatch, id)
		}
		if !state.expected.Contains(contributor) {
			state.mu.Unlock()
			return fmt.Errorf("%w: %s", errors.ErrContributorNotExpected, contributor)
		}
		if _, duplicate := state.received[contributor]; duplicate {
			state.mu.Unlock()
			return fmt.Errorf("%w: %s", errors.ErrDuplicateContribution, contributor)
		}

		state.received[contributor] = value
		complete := len(state.received) == state.expected.Cardinality()
		if complete {
			state.done = true
		}
		state.mu.Unlock()

		if !complete {
			return nil
		}
		return r.complete(id, state)
	}
}

// getOrCreate returns the in-flight state for id, creating it on first
// contact. The expected set is the live membership of the contributor's
// component, sorted by address so the final fold is deterministic.
func (r *reducer) getOrCreate(id ReductionID, contributor address.Address, target address.Address, kind string, key inbox.Key, op CombineOp) (*reductionState, error) {
	for {
		if state, ok := r.states.Get(id); ok {
			return state, nil
		}

		component, err := r.engine.directory.Get(contributor.Component())
		if err != nil {
			return nil, err
		}
		members := component.liveMembers()
		address.Sort(members)

		state := &reductionState{
			target:   target,
			kind:     kind,
			key:      key,
			op:       op,
			expected: mapset.NewSet(members...),
			order:    members,
			received: make(map[address.Address]any, len(members)),
		}
		if r.states.SetIfAbsent(id, state) {
			return state, nil
		}
		// lost the creation race; loop to pick up the winner's state
	}
}

// complete folds the contributions and delivers the result. Called exactly
// once per reduction, by the goroutine that flipped done.
func (r *reducer) complete(id ReductionID, state *reductionState) error {
	r.states.Delete(id)

	acc := state.received[state.order[0]]
	for _, contributor := range state.order[1:] {
		acc = state.op(acc, state.received[contributor])
	}

	if err := r.engine.deliver(state.target, state.kind, state.key, address.None, acc); err != nil {
		return err
	}
	r.engine.reductionsCount.Inc()
	r.engine.publishEvent(&ReductionCompleted{
		ID:           id,
		Target:       state.target,
		Kind:         state.kind,
		Key:          state.key,
		Contributors: len(state.order),
	})
	return nil
}
