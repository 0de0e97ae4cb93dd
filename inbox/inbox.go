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

// Package inbox implements the per-element buffered mailbox. Messages
// arrive keyed by an iteration identifier and accumulate until an action
// consumes them; consumption removes, misses change nothing, and keys are
// handed out smallest first so temporal sequences stay ordered.
package inbox

import (
	"fmt"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/internal/locker"
)

// Key identifies one iteration or time slice of a kind. Keys are totally
// ordered; an inbox always offers the smallest pending key first.
type Key uint64

// Entry is a single received value together with its sender.
type Entry struct {
	Sender address.Address
	Value  any
}

// slot buffers everything received under one (kind, key) pair.
type slot struct {
	entries []Entry
	senders mapset.Set[address.Address]
}

// box holds the state of a single kind.
type box struct {
	kind  Kind
	slots map[Key]*slot
}

// Inbox is the buffered mailbox of a single element.
//
// Producers are other elements' workers inserting concurrently; the
// consumer is the owning element. A mutex serializes both sides: entries
// are small and critical sections are short, so contention stays on the
// producers where it belongs.
type Inbox struct {
	_     locker.NoCopy
	mu    sync.Mutex
	boxes map[string]*box
}

// New creates an inbox accepting exactly the given kinds. The kind set is
// fixed for the life of the inbox.
func New(kinds ...Kind) (*Inbox, error) {
	boxes := make(map[string]*box, len(kinds))
	for _, kind := range kinds {
		if err := kind.Validate(); err != nil {
			return nil, err
		}
		if _, ok := boxes[kind.Name]; ok {
			return nil, fmt.Errorf("inbox kind %s is declared twice", kind.Name)
		}
		boxes[kind.Name] = &box{
			kind:  kind,
			slots: make(map[Key]*slot),
		}
	}
	return &Inbox{boxes: boxes}, nil
}

// Insert appends a value under (kind, key, sender).
//
// It fails with errors.ErrUnknownKind when the kind was never declared and
// with errors.ErrDuplicateInsertion when the sender already reported under
// that key and the kind does not allow accumulation. A failed insert leaves
// the inbox exactly as it was: buffered data is never overwritten.
func (in *Inbox) Insert(kind string, key Key, sender address.Address, value any) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	b, ok := in.boxes[kind]
	if !ok {
		return errors.NewErrUnknownKind(kind)
	}

	s, ok := b.slots[key]
	if !ok {
		s = &slot{senders: mapset.NewThreadUnsafeSet[address.Address]()}
		b.slots[key] = s
	}

	if !b.kind.AllowMultiple && s.senders.Contains(sender) {
		return fmt.Errorf("%w: kind %s key %d sender %s", errors.ErrDuplicateInsertion, kind, key, sender)
	}

	s.entries = append(s.entries, Entry{Sender: sender, Value: value})
	s.senders.Add(sender)
	return nil
}

// TryConsume removes and returns everything buffered under (kind, key).
//
// For kinds with a quorum the key is only consumable once the configured
// number of distinct senders has reported; otherwise whatever is present is
// returned. A miss (no data, quorum incomplete, unknown kind) reports false
// and changes nothing, so polling is idempotent.
//
// The returned entries are ordered by sender address, with a sender's own
// values kept in arrival order, so that folding over them is deterministic
// regardless of arrival interleaving.
func (in *Inbox) TryConsume(kind string, key Key) ([]Entry, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	b, ok := in.boxes[kind]
	if !ok {
		return nil, false
	}
	return in.consumeLocked(b, key)
}

// TryConsumeNext behaves like TryConsume for the smallest pending key of
// the kind. Larger keys are never offered while a smaller one is pending,
// even when the smaller one is still short of its quorum: temporal
// sequences are consumed strictly in key order.
func (in *Inbox) TryConsumeNext(kind string) (Key, []Entry, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	b, ok := in.boxes[kind]
	if !ok || len(b.slots) == 0 {
		return 0, nil, false
	}

	smallest := smallestKey(b.slots)
	entries, ok := in.consumeLocked(b, smallest)
	if !ok {
		return 0, nil, false
	}
	return smallest, entries, true
}

// consumeLocked removes the slot for key when it is ready. Callers hold the
// inbox mutex.
func (in *Inbox) consumeLocked(b *box, key Key) ([]Entry, bool) {
	s, ok := b.slots[key]
	if !ok {
		return nil, false
	}
	if b.kind.Quorum > 0 && s.senders.Cardinality() < b.kind.Quorum {
		return nil, false
	}

	delete(b.slots, key)
	entries := s.entries
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Sender.Less(entries[j].Sender)
	})
	return entries, true
}

// HasPending reports whether any data is buffered under the kind,
// consumable or not.
func (in *Inbox) HasPending(kind string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	b, ok := in.boxes[kind]
	return ok && len(b.slots) > 0
}

// PendingKeys returns the sorted keys currently buffered under the kind.
// Intended for diagnostics; the snapshot may be stale immediately.
func (in *Inbox) PendingKeys(kind string) []Key {
	in.mu.Lock()
	defer in.mu.Unlock()

	b, ok := in.boxes[kind]
	if !ok || len(b.slots) == 0 {
		return nil
	}
	keys := make([]Key, 0, len(b.slots))
	for key := range b.slots {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Peek returns a copy of the entries buffered under (kind, key) without
// removing them. This is the explicit diagnostics escape hatch from the
// consume-on-read rule; the copy is ordered like TryConsume output.
func (in *Inbox) Peek(kind string, key Key) ([]Entry, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	b, ok := in.boxes[kind]
	if !ok {
		return nil, false
	}
	s, ok := b.slots[key]
	if !ok {
		return nil, false
	}

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Sender.Less(entries[j].Sender)
	})
	return entries, true
}

// Kinds returns the sorted names of the declared kinds.
func (in *Inbox) Kinds() []string {
	in.mu.Lock()
	defer in.mu.Unlock()

	names := make([]string, 0, len(in.boxes))
	for name := range in.boxes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasKind reports whether the kind was declared on this inbox.
func (in *Inbox) HasKind(kind string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	_, ok := in.boxes[kind]
	return ok
}

// Len returns the total number of buffered entries across all kinds.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	total := 0
	for _, b := range in.boxes {
		for _, s := range b.slots {
			total += len(s.entries)
		}
	}
	return total
}

func smallestKey(slots map[Key]*slot) Key {
	first := true
	var smallest Key
	for key := range slots {
		if first || key < smallest {
			smallest = key
			first = false
		}
	}
	return smallest
}
