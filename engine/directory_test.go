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

	"github.com/stelliform/lockstep/errors"
)

func TestDirectory(t *testing.T) {
	t.Run("With components listed in name order", func(t *testing.T) {
		engine, err := New("directory", WithPhases(1))
		require.NoError(t, err)

		for _, name := range []string{"zebra", "alpha", "middle"} {
			_, err = engine.Register(name)
			require.NoError(t, err)
		}

		var names []string
		for _, component := range engine.Directory().Components() {
			names = append(names, component.Name())
		}
		assert.Equal(t, []string{"alpha", "middle", "zebra"}, names)
	})

	t.Run("With an unknown component", func(t *testing.T) {
		engine, err := New("directory", WithPhases(1))
		require.NoError(t, err)

		_, err = engine.Directory().Get("ghost")
		require.ErrorIs(t, err, errors.ErrUnknownComponent)
	})

	t.Run("With registration rejected once frozen", func(t *testing.T) {
		engine, err := New("directory", WithPhases(1))
		require.NoError(t, err)
		_, err = engine.Register("cells")
		require.NoError(t, err)

		engine.Directory().freeze()
		require.True(t, engine.Directory().Frozen())

		err = engine.Directory().register(&Component{name: "late"})
		require.ErrorIs(t, err, errors.ErrDirectoryFrozen)
	})
}

func TestParams(t *testing.T) {
	t.Run("With a typed read", func(t *testing.T) {
		engine, err := New("params", WithPhases(1))
		require.NoError(t, err)

		directory := engine.Directory()
		require.NoError(t, directory.SetParam("timestep", 0.25))
		require.NoError(t, directory.SetParam("label", "run-42"))

		timestep, err := Param[float64](directory, "timestep")
		require.NoError(t, err)
		assert.Equal(t, 0.25, timestep)

		label, err := Param[string](directory, "label")
		require.NoError(t, err)
		assert.Equal(t, "run-42", label)
	})

	t.Run("With a missing parameter", func(t *testing.T) {
		engine, err := New("params", WithPhases(1))
		require.NoError(t, err)

		_, err = Param[int](engine.Directory(), "missing")
		require.ErrorIs(t, err, errors.ErrUnknownParameter)
	})

	t.Run("With a mismatched type", func(t *testing.T) {
		engine, err := New("params", WithPhases(1))
		require.NoError(t, err)

		directory := engine.Directory()
		require.NoError(t, directory.SetParam("timestep", 0.25))

		_, err = Param[string](directory, "timestep")
		require.ErrorIs(t, err, errors.ErrParameterType)
	})

	t.Run("With writes rejected once frozen", func(t *testing.T) {
		engine, err := New("params", WithPhases(1))
		require.NoError(t, err)

		directory := engine.Directory()
		require.NoError(t, directory.SetParam("timestep", 0.25))
		directory.freeze()

		require.ErrorIs(t, directory.SetParam("late", 1), errors.ErrDirectoryFrozen)

		// reads keep working lock-free
		timestep, err := Param[float64](directory, "timestep")
		require.NoError(t, err)
		assert.Equal(t, 0.25, timestep)
	})
}
