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

// Package address provides the canonical identity of an element inside an
// engine.
//
// An Address names exactly one element and is made of two parts:
//
//   - Component: the name of the element collection the element belongs to
//   - Index: the element's position within that collection
//
// The canonical textual representation of an Address is:
//
//	<component>[<index>]
//
// Address is a small value type. It carries no location information: where
// the element currently executes is an engine concern and never part of its
// identity. Addresses are comparable, usable as map keys, and totally
// ordered (component name first, then index) so that iteration, reduction
// folds, and diagnostics stay deterministic.
package address

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/stelliform/lockstep/internal/validation"
)

// componentPattern constrains component names to word characters with
// non-leading '-' or '_'.
const componentPattern = "^[a-zA-Z0-9][a-zA-Z0-9-_]*$"

// None is the zero Address. It names no element and is used as a sentinel
// where a sender or target is absent.
var None = Address{}

// ErrInvalidComponent is returned when the component part of an address
// contains invalid characters.
var ErrInvalidComponent = errors.New("invalid component name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

// ErrInvalidIndex is returned when the index part of an address is negative.
var ErrInvalidIndex = errors.New("invalid element index, must not be negative")

// Address identifies a single element of a component collection.
//
// The zero value is None. Addresses are immutable once created; all methods
// take value receivers and never mutate.
type Address struct {
	component string
	index     int
}

var _ validation.Validator = (*Address)(nil)

// New creates an Address for the element at the given index of the named
// component collection.
//
// New does not validate its inputs; call Validate to verify the result.
func New(component string, index int) Address {
	return Address{component: component, index: index}
}

// Component returns the component collection name.
func (a Address) Component() string {
	return a.component
}

// Index returns the element index within the collection.
func (a Address) Index() int {
	return a.index
}

// IsZero reports whether the address is the None sentinel.
func (a Address) IsZero() bool {
	return a == None
}

// Equal reports whether a and b name the same element.
func (a Address) Equal(b Address) bool {
	return a == b
}

// Compare orders addresses by component name first, then by index.
// It returns a negative number when a sorts before b, zero when they are
// equal and a positive number otherwise.
func (a Address) Compare(b Address) int {
	if c := strings.Compare(a.component, b.component); c != 0 {
		return c
	}
	switch {
	case a.index < b.index:
		return -1
	case a.index > b.index:
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts before b in the total order used across the
// engine.
func (a Address) Less(b Address) bool {
	return a.Compare(b) < 0
}

// String returns the canonical textual form of the address:
//
//	<component>[<index>]
//
// The zero address renders as "[0]"; format a known-valid address only.
func (a Address) String() string {
	var idxBuf [20]byte
	idxBytes := strconv.AppendInt(idxBuf[:0], int64(a.index), 10)

	var builder strings.Builder
	builder.Grow(len(a.component) + len(idxBytes) + 2)
	_, _ = builder.WriteString(a.component)
	_ = builder.WriteByte('[')
	_, _ = builder.Write(idxBytes)
	_ = builder.WriteByte(']')
	return builder.String()
}

// Hash returns a stable 64-bit hash of the address, suitable for sharding
// elements across workers. The hash is derived from the canonical form and
// is not part of the address identity.
func (a Address) Hash() uint64 {
	buf := make([]byte, 0, len(a.component)+22)
	buf = append(buf, a.component...)
	buf = append(buf, '[')
	buf = strconv.AppendInt(buf, int64(a.index), 10)
	buf = append(buf, ']')
	return xxh3.Hash(buf)
}

// Validate checks whether the Address is well-formed.
//
// Validation rules:
//   - The zero address (None) is considered valid so it can be used as a
//     sentinel.
//   - Component must be non-empty and match ^[a-zA-Z0-9][a-zA-Z0-9-_]*$.
//   - Index must not be negative.
//
// Validate fails fast and returns the first violation.
func (a Address) Validate() error {
	if a.IsZero() {
		return nil
	}
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("component", a.component)).
		AddValidator(validation.NewPatternValidator(componentPattern, a.component, ErrInvalidComponent)).
		AddAssertion(a.index >= 0, ErrInvalidIndex.Error()).
		Validate()
}

// Parse parses the canonical form "<component>[<index>]" back into an
// Address. No semantic validation is performed; call Validate on the result.
func Parse(s string) (Address, error) {
	if s == "" {
		return None, errors.New("address is required")
	}

	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return None, errors.New("address format is invalid")
	}

	component := s[:open]
	idxPart := s[open+1 : len(s)-1]
	index, err := strconv.Atoi(idxPart)
	if err != nil {
		return None, errors.New("address format is invalid")
	}

	return New(component, index), nil
}

// Sort orders the given addresses in place using the canonical total order.
func Sort(addresses []Address) {
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Less(addresses[j])
	})
}
