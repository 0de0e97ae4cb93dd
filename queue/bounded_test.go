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

package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelliform/lockstep/errors"
)

func TestBounded(t *testing.T) {
	t.Run("With invalid capacity", func(t *testing.T) {
		q, err := NewBounded[int](0)
		require.Nil(t, q)
		assert.ErrorIs(t, err, errors.ErrInvalidCapacity)

		q, err = NewBounded[int](-3)
		require.Nil(t, q)
		assert.ErrorIs(t, err, errors.ErrInvalidCapacity)
	})

	t.Run("With FIFO order", func(t *testing.T) {
		q, err := NewBounded[string](4)
		require.NoError(t, err)
		require.True(t, q.IsEmpty())
		assert.EqualValues(t, 4, q.Capacity())

		require.NoError(t, q.TryPush("a"))
		require.NoError(t, q.TryPush("b"))
		require.NoError(t, q.TryPush("c"))
		assert.EqualValues(t, 3, q.Len())

		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, "a", v)
		v, ok = q.TryPop()
		require.True(t, ok)
		assert.Equal(t, "b", v)
		v, ok = q.TryPop()
		require.True(t, ok)
		assert.Equal(t, "c", v)
		assert.True(t, q.IsEmpty())
	})

	t.Run("With full queue", func(t *testing.T) {
		q, err := NewBounded[int](2)
		require.NoError(t, err)
		require.NoError(t, q.TryPush(1))
		require.NoError(t, q.TryPush(2))

		err = q.TryPush(3)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrQueueFull)
		// the rejected push leaves the queue untouched
		assert.EqualValues(t, 2, q.Len())

		// draining one slot makes the next push succeed
		_, ok := q.TryPop()
		require.True(t, ok)
		require.NoError(t, q.TryPush(3))

		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, 2, v)
		v, ok = q.TryPop()
		require.True(t, ok)
		assert.Equal(t, 3, v)
	})

	t.Run("With empty queue", func(t *testing.T) {
		q, err := NewBounded[int](2)
		require.NoError(t, err)

		// a miss is idempotent: repeated polls keep reporting empty
		for i := 0; i < 3; i++ {
			v, ok := q.TryPop()
			assert.False(t, ok)
			assert.Zero(t, v)
		}
	})

	t.Run("With disposed queue", func(t *testing.T) {
		q, err := NewBounded[int](2)
		require.NoError(t, err)
		q.Dispose()

		err = q.TryPush(1)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrQueueClosed)
	})

	t.Run("With one producer and one consumer", func(t *testing.T) {
		q, err := NewBounded[int](8)
		require.NoError(t, err)

		const total = 10_000
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for i := 0; i < total; {
				if err := q.TryPush(i); err == nil {
					i++
				}
			}
		}()

		received := make([]int, 0, total)
		go func() {
			defer wg.Done()
			for len(received) < total {
				if v, ok := q.TryPop(); ok {
					received = append(received, v)
				}
			}
		}()

		wg.Wait()
		require.Len(t, received, total)
		for i, v := range received {
			require.Equal(t, i, v)
		}
	})
}
