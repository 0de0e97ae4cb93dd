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
	"math"

	"github.com/stelliform/lockstep/errors"
)

// Phase identifies one globally synchronized stage of a run. Phases are
// ordered by value; the engine executes the configured phases in ascending
// order, each one starting only after the previous one quiesced on every
// element, and never revisits a completed phase.
type Phase uint32

// ExitPhase is the reserved terminal phase. The engine enters it after the
// last configured phase completes. It cannot carry actions.
const ExitPhase Phase = math.MaxUint32

// String implements fmt.Stringer.
func (p Phase) String() string {
	if p == ExitPhase {
		return "exit"
	}
	return fmt.Sprintf("phase-%d", uint32(p))
}

// validatePhases enforces the phase sequence contract: non-empty, strictly
// increasing and clear of the reserved exit phase.
func validatePhases(phases []Phase) error {
	if len(phases) == 0 {
		return errors.ErrNoPhases
	}
	for i, phase := range phases {
		if phase == ExitPhase {
			return errors.ErrReservedPhase
		}
		if i > 0 && phases[i-1] >= phase {
			return fmt.Errorf("%w: %s follows %s", errors.ErrInvalidPhaseOrder, phase, phases[i-1])
		}
	}
	return nil
}
