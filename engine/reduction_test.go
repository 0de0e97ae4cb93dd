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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/inbox"
)

// concat is deliberately non-commutative so the tests observe the fold order.
func concat(acc, value any) any {
	return acc.(string) + value.(string)
}

// newReductionFixture builds an engine with one three-element component that
// accepts the "total" kind, without running it.
func newReductionFixture(t *testing.T) (*Engine, *Component) {
	t.Helper()
	engine, err := New("reductions", WithPhases(1))
	require.NoError(t, err)
	component, err := engine.Register("cells",
		WithElements(3),
		WithInboxKinds(inbox.NewKind("total")))
	require.NoError(t, err)
	return engine, component
}

func TestContribute(t *testing.T) {
	t.Run("With values folded in contributor address order", func(t *testing.T) {
		engine, component := newReductionFixture(t)
		target := address.New("cells", 0)

		// arrival order B, A, C must still fold to ABC
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 1), "B", concat))
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 0), "A", concat))
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 2), "C", concat))

		entries, ok := component.elements[0].inbox.Peek("total", 7)
		require.True(t, ok)
		require.Len(t, entries, 1)
		assert.Equal(t, "ABC", entries[0].Value)
		assert.Equal(t, address.None, entries[0].Sender)
		assert.EqualValues(t, 1, engine.reductionsCount.Load())
	})

	t.Run("With a duplicate contribution rejected", func(t *testing.T) {
		engine, component := newReductionFixture(t)
		target := address.New("cells", 0)

		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 0), "A", concat))
		err := engine.Contribute("round-1", target, "total", 7, address.New("cells", 0), "X", concat)
		require.ErrorIs(t, err, errors.ErrDuplicateContribution)

		// the round still completes with the first value
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 1), "B", concat))
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 2), "C", concat))

		entries, ok := component.elements[0].inbox.Peek("total", 7)
		require.True(t, ok)
		assert.Equal(t, "ABC", entries[0].Value)
	})

	t.Run("With a contributor outside the membership", func(t *testing.T) {
		engine, _ := newReductionFixture(t)
		target := address.New("cells", 0)

		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 0), "A", concat))
		err := engine.Contribute("round-1", target, "total", 7, address.New("cells", 9), "Z", concat)
		require.ErrorIs(t, err, errors.ErrContributorNotExpected)
	})

	t.Run("With a contributor from an unknown component", func(t *testing.T) {
		engine, _ := newReductionFixture(t)
		target := address.New("cells", 0)

		err := engine.Contribute("round-1", target, "total", 7, address.New("ghost", 0), "A", concat)
		require.ErrorIs(t, err, errors.ErrUnknownComponent)
	})

	t.Run("With a mismatched shape rejected", func(t *testing.T) {
		engine, _ := newReductionFixture(t)
		target := address.New("cells", 0)

		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 0), "A", concat))

		err := engine.Contribute("round-1", target, "total", 8, address.New("cells", 1), "B", concat)
		require.ErrorIs(t, err, errors.ErrReductionMismatch)

		err = engine.Contribute("round-1", address.New("cells", 1), "total", 7, address.New("cells", 1), "B", concat)
		require.ErrorIs(t, err, errors.ErrReductionMismatch)
	})

	t.Run("With terminated members excluded from the expected set", func(t *testing.T) {
		engine, component := newReductionFixture(t)
		target := address.New("cells", 0)

		component.elements[1].toggleFlag(terminatedFlag, true)

		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 2), "C", concat))
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 0), "A", concat))

		entries, ok := component.elements[0].inbox.Peek("total", 7)
		require.True(t, ok)
		assert.Equal(t, "AC", entries[0].Value)
	})

	t.Run("With an identifier reused after delivery", func(t *testing.T) {
		engine, component := newReductionFixture(t)
		target := address.New("cells", 0)

		for round, key := range []inbox.Key{7, 8} {
			prefix := fmt.Sprintf("r%d-", round)
			require.NoError(t, engine.Contribute("round-1", target, "total", key, address.New("cells", 0), prefix+"A", concat))
			require.NoError(t, engine.Contribute("round-1", target, "total", key, address.New("cells", 1), prefix+"B", concat))
			require.NoError(t, engine.Contribute("round-1", target, "total", key, address.New("cells", 2), prefix+"C", concat))
		}

		entries, ok := component.elements[0].inbox.Peek("total", 7)
		require.True(t, ok)
		assert.Equal(t, "r0-Ar0-Br0-C", entries[0].Value)

		entries, ok = component.elements[0].inbox.Peek("total", 8)
		require.True(t, ok)
		assert.Equal(t, "r1-Ar1-Br1-C", entries[0].Value)
		assert.EqualValues(t, 2, engine.reductionsCount.Load())
	})

	t.Run("With a completion event published", func(t *testing.T) {
		engine, _ := newReductionFixture(t)
		target := address.New("cells", 0)

		subscriber, err := engine.Subscribe()
		require.NoError(t, err)

		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 0), "A", concat))
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 1), "B", concat))
		require.NoError(t, engine.Contribute("round-1", target, "total", 7, address.New("cells", 2), "C", concat))

		var completions []*ReductionCompleted
		for message := range subscriber.Iterator() {
			if event, ok := message.Payload().(*ReductionCompleted); ok {
				completions = append(completions, event)
			}
		}
		require.Len(t, completions, 1)
		assert.Equal(t, ReductionID("round-1"), completions[0].ID)
		assert.Equal(t, target, completions[0].Target)
		assert.Equal(t, "total", completions[0].Kind)
		assert.Equal(t, inbox.Key(7), completions[0].Key)
		assert.Equal(t, 3, completions[0].Contributors)
	})
}

func TestReductionInRun(t *testing.T) {
	t.Run("With elements contributing and the target consuming the fold", func(t *testing.T) {
		engine, err := New("reduce-run", WithPhases(1), WithWorkers(2))
		require.NoError(t, err)

		sum := func(acc, value any) any { return acc.(int) + value.(int) }
		rec := new(recorder)
		id := NewReductionID()
		target := address.New("cells", 0)

		_, err = engine.Register("cells",
			WithElements(4),
			WithInboxKinds(inbox.NewKind("sum")),
			WithActions(1,
				NewAction("contribute", func(ctx *ActionContext) Outcome {
					_ = ctx.Contribute(id, target, "sum", 1, ctx.Address().Index()+1, sum)
					return Advance()
				}),
				NewAction("collect", func(ctx *ActionContext) Outcome {
					if ctx.Address().Index() != 0 {
						return Advance()
					}
					entries, ok := ctx.Inbox().TryConsume("sum", 1)
					if !ok {
						return Suspend("awaiting the fold")
					}
					rec.record(fmt.Sprintf("total=%d", entries[0].Value))
					return Advance()
				})))
		require.NoError(t, err)

		require.NoError(t, engine.Run(context.Background()))
		assert.Equal(t, []string{"total=10"}, rec.recorded())
		assert.EqualValues(t, 1, engine.reductionsCount.Load())
	})
}

func TestNewReductionID(t *testing.T) {
	first := NewReductionID()
	second := NewReductionID()
	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
}
