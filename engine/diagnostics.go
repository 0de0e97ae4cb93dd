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
	"io"
	"sort"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/inbox"
)

// ElementDiagnostic is a point-in-time view of one element. Diagnostics are
// safe to take while the engine runs; the fields of a single entry may
// belong to adjacent instants but never tear.
type ElementDiagnostic struct {
	Address       address.Address
	Phase         Phase
	State         string
	ActionIndex   int
	ActionName    string
	SuspendReason string
	Terminated    bool
	Worker        int
	Pending       map[string][]inbox.Key
}

// Diagnostics returns a diagnostic view of every element, sorted by address.
func (x *Engine) Diagnostics() []ElementDiagnostic {
	var diagnostics []ElementDiagnostic
	for _, component := range x.directory.Components() {
		for _, elem := range component.elements {
			diagnostics = append(diagnostics, elem.diagnostic())
		}
	}
	sort.Slice(diagnostics, func(i, j int) bool {
		return diagnostics[i].Address.Less(diagnostics[j].Address)
	})
	return diagnostics
}

// DumpDiagnostics writes a human-readable report of every element to w, in
// address order. The report names, per element, whether it terminated, the
// action it would run next and the inbox kinds holding undelivered keys;
// that is usually enough to tell which element a stalled run is waiting on.
func (x *Engine) DumpDiagnostics(w io.Writer) error {
	for _, diag := range x.Diagnostics() {
		if diag.Terminated {
			if _, err := fmt.Fprintf(w, "Element %s terminated\n", diag.Address); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "Element %s did NOT terminate\n", diag.Address); err != nil {
			return err
		}

		state := diag.State
		if diag.SuspendReason != "" {
			state = fmt.Sprintf("%s (%s)", state, diag.SuspendReason)
		}
		if _, err := fmt.Fprintf(w, " State: %s in %s on worker %d\n", state, diag.Phase, diag.Worker); err != nil {
			return err
		}
		if diag.ActionName != "" {
			if _, err := fmt.Fprintf(w, " Next action: %s (index %d)\n", diag.ActionName, diag.ActionIndex); err != nil {
				return err
			}
		}
		if len(diag.Pending) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, " Inboxes:"); err != nil {
			return err
		}
		kinds := make([]string, 0, len(diag.Pending))
		for kind := range diag.Pending {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			if _, err := fmt.Fprintf(w, "  %s: pending keys %v\n", kind, diag.Pending[kind]); err != nil {
				return err
			}
		}
	}
	return nil
}

// diagnostic snapshots the element's externally visible state. Every field
// read here sits behind an atomic, so the snapshot is race-free mid-run.
func (e *element) diagnostic() ElementDiagnostic {
	pending := make(map[string][]inbox.Key)
	for _, kind := range e.inbox.Kinds() {
		if keys := e.inbox.PendingKeys(kind); len(keys) > 0 {
			pending[kind] = keys
		}
	}
	return ElementDiagnostic{
		Address:       e.addr,
		Phase:         Phase(e.phase.Load()),
		State:         schedName(e.sched.Load()),
		ActionIndex:   int(e.cursor.Load()),
		ActionName:    e.nextActionName(),
		SuspendReason: e.currentSuspendReason(),
		Terminated:    e.terminated(),
		Worker:        int(e.workerID.Load()),
		Pending:       pending,
	}
}
