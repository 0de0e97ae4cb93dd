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

package errors

import (
	"fmt"

	"github.com/stelliform/lockstep/address"
)

// ViolationError wraps a protocol violation with the execution context of
// the element that raised it. The engine aborts the run on the first
// ViolationError and returns it from Run.
type ViolationError struct {
	err         error
	addr        address.Address
	phase       uint32
	actionIndex int
	actionName  string
}

// enforce compilation error
var _ error = (*ViolationError)(nil)

// NewViolation creates an instance of ViolationError. The action index and
// name describe the action that was executing when the violation surfaced;
// pass index -1 and an empty name when the violation was raised outside any
// action (for example by an external Send).
func NewViolation(err error, addr address.Address, phase uint32, actionIndex int, actionName string) *ViolationError {
	return &ViolationError{
		err:         err,
		addr:        addr,
		phase:       phase,
		actionIndex: actionIndex,
		actionName:  actionName,
	}
}

// Error implements the standard error interface.
func (e *ViolationError) Error() string {
	if e.actionIndex < 0 {
		return fmt.Sprintf("protocol violation at %s (phase %d): %v", e.addr, e.phase, e.err)
	}
	return fmt.Sprintf("protocol violation at %s (phase %d, action %d %s): %v",
		e.addr, e.phase, e.actionIndex, e.actionName, e.err)
}

// Unwrap exposes the underlying sentinel for errors.Is matching.
func (e *ViolationError) Unwrap() error {
	return e.err
}

// Address returns the address of the element the violation occurred on.
func (e *ViolationError) Address() address.Address {
	return e.addr
}

// Phase returns the phase that was running when the violation surfaced.
func (e *ViolationError) Phase() uint32 {
	return e.phase
}

// ActionIndex returns the index of the executing action, or -1 when the
// violation was raised outside the action list.
func (e *ViolationError) ActionIndex() int {
	return e.actionIndex
}

// ActionName returns the name of the executing action, if any.
func (e *ViolationError) ActionName() string {
	return e.actionName
}
