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

package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Run("With FailFast stopping at the first failure", func(t *testing.T) {
		var calls []string

		chain := New(WithFailFast()).
			AddRunner(func() error { calls = append(calls, "first"); return nil }).
			AddRunner(func() error { calls = append(calls, "second"); return errors.New("second failed") }).
			AddRunner(func() error { calls = append(calls, "third"); return errors.New("third failed") })

		require.EqualError(t, chain.Run(), "second failed")
		require.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("With FailFast and no failure", func(t *testing.T) {
		ran := 0
		chain := New(WithFailFast()).AddRunners(
			func() error { ran++; return nil },
			func() error { ran++; return nil },
		)

		require.NoError(t, chain.Run())
		require.Equal(t, 2, ran)
	})

	t.Run("With RunAll collecting every failure", func(t *testing.T) {
		chain := New(WithRunAll()).
			AddRunner(func() error { return errors.New("first failed") }).
			AddRunner(func() error { return nil }).
			AddRunner(func() error { return errors.New("third failed") })

		require.EqualError(t, chain.Run(), "first failed; third failed")
	})

	t.Run("With an empty chain", func(t *testing.T) {
		require.NoError(t, New().Run())
	})
}

func TestContextRunners(t *testing.T) {
	t.Run("With the configured context handed to steps", func(t *testing.T) {
		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "configured")

		var seen any
		chain := New(WithFailFast(), WithContext(ctx)).
			AddContextRunner(func(ctx context.Context) error {
				seen = ctx.Value(key{})
				return nil
			})

		require.NoError(t, chain.Run())
		require.Equal(t, "configured", seen)
	})

	t.Run("With a conditional step skipped", func(t *testing.T) {
		called := false
		chain := New(WithFailFast()).
			AddContextRunnerIf(false, func(context.Context) error {
				called = true
				return errors.New("should not run")
			})

		require.NoError(t, chain.Run())
		require.False(t, called)
	})

	t.Run("With a conditional step failing", func(t *testing.T) {
		chain := New(WithFailFast()).
			AddContextRunnerIf(true, func(context.Context) error {
				return errors.New("step failed")
			})

		require.EqualError(t, chain.Run(), "step failed")
	})

	t.Run("With steps skipped after a fail fast failure", func(t *testing.T) {
		called := false
		chain := New(WithFailFast()).
			AddRunner(func() error { return errors.New("boom") }).
			AddContextRunner(func(context.Context) error {
				called = true
				return nil
			})

		require.EqualError(t, chain.Run(), "boom")
		require.False(t, called)
	})
}
