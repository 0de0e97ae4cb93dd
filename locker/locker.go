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

// Package locker provides the exclusive lock elements use to guard state
// that is shared outside of message passing, such as an output resource
// owned by one element and written by several.
//
// A Lock is typically created by the element owning the shared resource and
// handed to peers through the engine's synchronous query hook. Holders are
// expected to keep it briefly; there is no fairness or queuing guarantee
// among waiters.
package locker

import (
	"sync"

	ilocker "github.com/stelliform/lockstep/internal/locker"
)

// Lock is an exclusive lock with scoped acquisition helpers.
//
// The zero value is ready to use. A Lock must not be copied after first use.
type Lock struct {
	_  ilocker.NoCopy
	mu sync.Mutex
}

// New creates a new Lock.
func New() *Lock {
	return &Lock{}
}

// Acquire blocks until the lock is held by the caller.
func (l *Lock) Acquire() {
	l.mu.Lock()
}

// Release releases the lock. Releasing a lock that is not held panics, as
// with sync.Mutex.
func (l *Lock) Release() {
	l.mu.Unlock()
}

// TryAcquire attempts to take the lock without blocking and reports whether
// it succeeded. Use it to poll from code that must stay responsive.
func (l *Lock) TryAcquire() bool {
	return l.mu.TryLock()
}

// With runs fn while holding the lock. The lock is released on every exit
// path, including a panic inside fn.
func (l *Lock) With(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}

// TryWith runs fn while holding the lock only if the lock is immediately
// available, and reports whether fn ran. The lock is released on every exit
// path, including a panic inside fn.
func (l *Lock) TryWith(fn func()) bool {
	if !l.mu.TryLock() {
		return false
	}
	defer l.mu.Unlock()
	fn()
	return true
}
