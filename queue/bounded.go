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

package queue

import (
	gods "github.com/Workiva/go-datastructures/queue"

	"github.com/stelliform/lockstep/errors"
)

// Bounded is a bounded, non-blocking single-producer single-consumer FIFO
// queue backed by a ring buffer.
//
// Characteristics
//   - Fixed capacity set at construction; it never grows.
//   - TryPush never blocks and never overwrites: pushing into a full queue
//     fails with errors.ErrQueueFull and the producer decides how to react.
//   - TryPop never blocks: popping from an empty queue reports a miss.
//   - One producer goroutine and one consumer goroutine; neither side
//     coordinates with the other beyond the buffer itself.
type Bounded[T any] struct {
	underlying *gods.RingBuffer
}

// NewBounded creates a bounded queue with the given capacity.
// A capacity lower than one is a configuration error.
func NewBounded[T any](capacity int) (*Bounded[T], error) {
	if capacity < 1 {
		return nil, errors.ErrInvalidCapacity
	}
	return &Bounded[T]{
		underlying: gods.NewRingBuffer(uint64(capacity)),
	}, nil
}

// TryPush inserts the value at the back of the queue.
//
// It returns errors.ErrQueueFull when the queue is at capacity and
// errors.ErrQueueClosed when the queue was disposed. The value is never
// partially inserted: on error the queue is unchanged.
func (q *Bounded[T]) TryPush(value T) error {
	ok, err := q.underlying.Offer(value)
	switch {
	case err != nil:
		return errors.ErrQueueClosed
	case !ok:
		return errors.ErrQueueFull
	default:
		return nil
	}
}

// TryPop removes and returns the value at the front of the queue.
// It reports false when the queue is empty or disposed; a miss changes
// nothing so the consumer can simply try again later.
func (q *Bounded[T]) TryPop() (T, bool) {
	var tnil T
	if q.underlying.Len() == 0 {
		return tnil, false
	}
	item, err := q.underlying.Get()
	if err != nil {
		return tnil, false
	}
	value, ok := item.(T)
	if !ok {
		return tnil, false
	}
	return value, true
}

// Len returns the number of queued values. The value is a snapshot and may
// change immediately under concurrency.
func (q *Bounded[T]) Len() int64 {
	return int64(q.underlying.Len())
}

// Capacity returns the fixed capacity of the queue.
func (q *Bounded[T]) Capacity() int64 {
	return int64(q.underlying.Cap())
}

// IsEmpty reports whether the queue currently has no values.
func (q *Bounded[T]) IsEmpty() bool {
	return q.underlying.Len() == 0
}

// Dispose releases the underlying ring buffer and unblocks its internal
// waiters. Do not use the queue after calling Dispose.
func (q *Bounded[T]) Dispose() {
	q.underlying.Dispose()
}
