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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Run("With no violations", func(t *testing.T) {
		err := New().
			AddValidator(NewEmptyStringValidator("name", "cells")).
			AddAssertion(true, "unused").
			Validate()
		require.NoError(t, err)
	})
	t.Run("With fail fast returning only the first violation", func(t *testing.T) {
		err := New(FailFast()).
			AddValidator(NewEmptyStringValidator("name", "")).
			AddAssertion(false, "second violation").
			Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "the [name] is required")
	})
	t.Run("With all errors combining the violations", func(t *testing.T) {
		err := New(AllErrors()).
			AddValidator(NewEmptyStringValidator("name", "")).
			AddAssertion(false, "second violation").
			Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "the [name] is required; second violation")
	})
	t.Run("With an empty chain", func(t *testing.T) {
		require.NoError(t, New().Validate())
	})
}

func TestBooleanValidator(t *testing.T) {
	require.NoError(t, NewBooleanValidator(true, "never seen").Validate())
	err := NewBooleanValidator(false, "count must be positive").Validate()
	require.Error(t, err)
	assert.EqualError(t, err, "count must be positive")
}

func TestEmptyStringValidator(t *testing.T) {
	require.NoError(t, NewEmptyStringValidator("name", "cells").Validate())
	require.Error(t, NewEmptyStringValidator("name", "").Validate())
	// whitespace only counts as empty
	err := NewEmptyStringValidator("name", "   ").Validate()
	require.Error(t, err)
	assert.EqualError(t, err, "the [name] is required")
}

func TestPatternValidator(t *testing.T) {
	t.Run("With a matching expression", func(t *testing.T) {
		require.NoError(t, NewPatternValidator("^[a-z]+$", "cells", nil).Validate())
	})
	t.Run("With a custom error returned as is", func(t *testing.T) {
		sentinel := errors.New("invalid name")
		err := NewPatternValidator("^[a-z]+$", "Cells-7", sentinel).Validate()
		require.Error(t, err)
		require.ErrorIs(t, err, sentinel)
	})
	t.Run("With the default error", func(t *testing.T) {
		err := NewPatternValidator("^[a-z]+$", "Cells-7", nil).Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "invalid expression")
	})
}
