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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelliform/lockstep/address"
)

// newTestElement builds a single registered element without running the
// engine.
func newTestElement(t *testing.T, opts ...ComponentOption) *element {
	t.Helper()
	engine, err := New("element-test", WithPhases(1))
	require.NoError(t, err)
	component, err := engine.Register("cells", opts...)
	require.NoError(t, err)
	return component.elements[0]
}

func TestElementFlags(t *testing.T) {
	t.Run("With independent flag toggling", func(t *testing.T) {
		elem := newTestElement(t)

		require.False(t, elem.isFlagEnabled(dirtyFlag))
		require.False(t, elem.isFlagEnabled(terminatedFlag))

		elem.toggleFlag(dirtyFlag, true)
		assert.True(t, elem.isFlagEnabled(dirtyFlag))
		assert.False(t, elem.isFlagEnabled(terminatedFlag))

		elem.toggleFlag(terminatedFlag, true)
		assert.True(t, elem.isFlagEnabled(dirtyFlag))
		assert.True(t, elem.isFlagEnabled(terminatedFlag))
		assert.True(t, elem.terminated())

		elem.toggleFlag(dirtyFlag, false)
		assert.False(t, elem.isFlagEnabled(dirtyFlag))
		assert.True(t, elem.isFlagEnabled(terminatedFlag))
	})

	t.Run("With idempotent toggles", func(t *testing.T) {
		elem := newTestElement(t)

		elem.toggleFlag(dirtyFlag, true)
		elem.toggleFlag(dirtyFlag, true)
		assert.True(t, elem.isFlagEnabled(dirtyFlag))

		elem.toggleFlag(dirtyFlag, false)
		elem.toggleFlag(dirtyFlag, false)
		assert.False(t, elem.isFlagEnabled(dirtyFlag))
	})
}

func TestElementActionList(t *testing.T) {
	t.Run("With the cursor naming the next action", func(t *testing.T) {
		elem := newTestElement(t)
		noop := func(*ActionContext) Outcome { return Advance() }
		elem.setActionList([]Action{NewAction("first", noop), NewAction("second", noop)})

		assert.Equal(t, "first", elem.nextActionName())

		elem.cursor.Store(1)
		assert.Equal(t, "second", elem.nextActionName())
	})

	t.Run("With the cursor beyond the list", func(t *testing.T) {
		elem := newTestElement(t)
		elem.setActionList([]Action{NewAction("only", func(*ActionContext) Outcome { return Advance() })})

		elem.cursor.Store(5)
		assert.Empty(t, elem.nextActionName())
	})

	t.Run("With no action list armed", func(t *testing.T) {
		elem := newTestElement(t)
		assert.Empty(t, elem.nextActionName())
		assert.Nil(t, elem.actionList())
	})
}

func TestElementSuspendReason(t *testing.T) {
	elem := newTestElement(t)
	assert.Empty(t, elem.currentSuspendReason())

	elem.setSuspendReason("awaiting halo")
	assert.Equal(t, "awaiting halo", elem.currentSuspendReason())

	elem.clearSuspendReason()
	assert.Empty(t, elem.currentSuspendReason())
}

func TestSchedulingStateNames(t *testing.T) {
	assert.Equal(t, "idle", schedName(idle))
	assert.Equal(t, "queued", schedName(queued))
	assert.Equal(t, "running", schedName(running))
	assert.Equal(t, "suspended", schedName(suspended))
	assert.Equal(t, "unknown", schedName(99))
}

func TestElementBox(t *testing.T) {
	t.Run("With a box factory fed the element address", func(t *testing.T) {
		engine, err := New("element-box", WithPhases(1))
		require.NoError(t, err)
		component, err := engine.Register("cells",
			WithElements(3),
			WithBox(func(addr address.Address) any { return &plainBox{n: addr.Index() * 10} }))
		require.NoError(t, err)

		for i, elem := range component.elements {
			require.IsType(t, &plainBox{}, elem.box)
			assert.Equal(t, i*10, elem.box.(*plainBox).n)
		}
	})

	t.Run("With no factory", func(t *testing.T) {
		elem := newTestElement(t)
		assert.Nil(t, elem.box)
	})
}
