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
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stelliform/lockstep/log"
)

func TestOption(t *testing.T) {
	testCases := []struct {
		name     string
		option   Option
		expected Engine
	}{
		{
			name:     "WithLogger",
			option:   WithLogger(log.DiscardLogger),
			expected: Engine{logger: log.DiscardLogger},
		},
		{
			name:     "WithPhases",
			option:   WithPhases(1, 2, 3),
			expected: Engine{phases: []Phase{1, 2, 3}},
		},
		{
			name:     "WithWorkers",
			option:   WithWorkers(8),
			expected: Engine{workerCount: 8},
		},
		{
			name:     "WithWatchdog",
			option:   WithWatchdog(time.Second),
			expected: Engine{watchdogInterval: time.Second},
		},
		{
			name:     "WithRebalancing",
			option:   WithRebalancing(),
			expected: Engine{rebalancing: true},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var engine Engine
			testCase.option.Apply(&engine)
			assert.Equal(t, testCase.expected, engine)
		})
	}

	t.Run("WithMetric", func(t *testing.T) {
		var engine Engine
		WithMetric().Apply(&engine)
		assert.NotNil(t, engine.metricProvider)
	})
}
