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
)

func TestNewAction(t *testing.T) {
	called := false
	action := NewAction("bump", func(*ActionContext) Outcome {
		called = true
		return Advance()
	})

	require.Equal(t, "bump", action.Name())
	outcome := action.Apply(nil)
	require.True(t, called)
	assert.Equal(t, Advance(), outcome)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "advance", Advance().String())
	assert.Equal(t, "restart", Restart().String())
	assert.Equal(t, "terminate", Terminate().String())
	assert.Equal(t, "suspend", Suspend("").String())
	assert.Equal(t, "suspend: awaiting halo", Suspend("awaiting halo").String())
}
