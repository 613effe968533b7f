// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dynarray provides Array, the growable index-addressed sequence
// that backs every collection in the Shelf catalog.
//
// Array manages its own buffer instead of delegating to append so that the
// growth policy is explicit and observable:
//
//   - a new Array starts with DefaultCapacity slots
//   - PushBack and InsertAt double the capacity when the buffer is full
//   - Reserve grows to exactly the requested capacity
//   - the buffer never shrinks on its own
//
// Get and Set are unchecked and intended for loops whose bounds were already
// validated. At, InsertAt, RemoveAt and PopBack validate their index and
// return ErrIndexOutOfRange or ErrUnderflow instead of panicking.
//
// # Thread Safety
//
// Array is NOT safe for concurrent use. Callers that share an Array across
// goroutines must serialize access themselves.
package dynarray

import (
	"errors"
	"fmt"
	"iter"
)

// DefaultCapacity is the capacity of a freshly created or cloned Array.
const DefaultCapacity = 2

// NotFound is returned by IndexOf and IndexFunc when nothing matches.
const NotFound = -1

// Sentinel errors for Array operations.
var (
	// ErrIndexOutOfRange is returned by checked accessors and mutators when
	// the index lies outside the range valid for that operation.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnderflow is returned by PopBack on an empty Array.
	ErrUnderflow = errors.New("pop from empty array")
)

// IndexError describes a rejected index.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// =============================================================================
// Array
// =============================================================================

// Array is an owning, growable sequence of T.
//
// # Description
//
// The backing buffer always has len(buf) == Cap(). Slots [0, Len()) hold
// live elements; slots beyond Len() are unspecified. The zero value is an
// empty Array with no buffer; its first insertion allocates
// DefaultCapacity slots.
//
// # Invariants
//
//   - 0 <= Len() <= Cap()
//   - no two Arrays share a buffer (Clone and Assign copy)
type Array[T any] struct {
	buf []T
	n   int
}

// New returns an empty Array with DefaultCapacity slots.
func New[T any]() *Array[T] {
	return &Array[T]{buf: make([]T, DefaultCapacity)}
}

// Of returns an Array holding the given values in order.
func Of[T any](values ...T) *Array[T] {
	a := New[T]()
	a.Reserve(len(values))
	for _, v := range values {
		a.PushBack(v)
	}
	return a
}

// Len returns the number of live elements.
func (a *Array[T]) Len() int { return a.n }

// Cap returns the number of allocated slots.
func (a *Array[T]) Cap() int { return len(a.buf) }

// Empty reports whether the Array holds no elements.
func (a *Array[T]) Empty() bool { return a.n == 0 }

// Clear makes every element logically absent in O(1).
//
// # Description
//
// The buffer and its capacity are retained. Held values are NOT released;
// when T is a handle to something the caller owns, the caller must release
// those resources before clearing.
func (a *Array[T]) Clear() {
	a.n = 0
}

// Reserve guarantees capacity for at least n elements.
//
// # Description
//
// If n <= Cap() this is a no-op. Otherwise a buffer of exactly n slots is
// allocated, the live elements are copied in order and the old buffer is
// dropped. The Array is untouched until the new buffer is fully populated.
func (a *Array[T]) Reserve(n int) {
	if n <= len(a.buf) {
		return
	}
	next := make([]T, n)
	for i := 0; i < a.n; i++ {
		next[i] = a.buf[i]
	}
	a.buf = next
}

// grow doubles the capacity, starting from DefaultCapacity for an unallocated Array.
func (a *Array[T]) grow() {
	if len(a.buf) == 0 {
		a.Reserve(DefaultCapacity)
		return
	}
	a.Reserve(len(a.buf) * 2)
}

// Get returns the element at i without bounds validation against Len().
//
// Callers must guarantee 0 <= i < Len(). Indexes in [Len(), Cap()) return
// whatever the slot holds; indexes outside the buffer panic.
func (a *Array[T]) Get(i int) T {
	return a.buf[i]
}

// Set overwrites the element at i without bounds validation against Len().
func (a *Array[T]) Set(i int, v T) {
	a.buf[i] = v
}

// At returns the element at i.
//
// # Outputs
//
//   - T: the element, or the zero value on error
//   - error: *IndexError wrapping ErrIndexOutOfRange when i is outside [0, Len())
func (a *Array[T]) At(i int) (T, error) {
	if i < 0 || i >= a.n {
		var zero T
		return zero, &IndexError{Op: "at", Index: i, Len: a.n}
	}
	return a.buf[i], nil
}

// PushBack appends v, doubling the capacity first when the buffer is full.
func (a *Array[T]) PushBack(v T) {
	if a.n == len(a.buf) {
		a.grow()
	}
	a.buf[a.n] = v
	a.n++
}

// InsertAt places v at index i, shifting [i, Len()) one slot right.
//
// # Description
//
// Valid indexes are [0, Len()]; i == Len() appends. The shift walks from
// the end backwards so no element is overwritten before it is moved.
// Growth happens before any element moves, so a rejected or failed insert
// leaves the Array as it was.
//
// # Outputs
//
//   - error: *IndexError wrapping ErrIndexOutOfRange for an invalid index
func (a *Array[T]) InsertAt(i int, v T) error {
	if i < 0 || i > a.n {
		return &IndexError{Op: "insert", Index: i, Len: a.n + 1}
	}
	if a.n == len(a.buf) {
		a.grow()
	}
	for j := a.n; j > i; j-- {
		a.buf[j] = a.buf[j-1]
	}
	a.buf[i] = v
	a.n++
	return nil
}

// RemoveAt deletes the element at i, shifting [i+1, Len()) one slot left.
//
// The removed value is not released beyond clearing the vacated tail slot
// so the garbage collector does not see a stale reference; owners of
// resources held by T must release them before removing.
func (a *Array[T]) RemoveAt(i int) error {
	if i < 0 || i >= a.n {
		return &IndexError{Op: "remove", Index: i, Len: a.n}
	}
	for j := i; j < a.n-1; j++ {
		a.buf[j] = a.buf[j+1]
	}
	a.n--
	var zero T
	a.buf[a.n] = zero
	return nil
}

// PopBack drops the last element. It returns ErrUnderflow when empty.
func (a *Array[T]) PopBack() error {
	if a.n == 0 {
		return ErrUnderflow
	}
	a.n--
	var zero T
	a.buf[a.n] = zero
	return nil
}

// IndexFunc returns the index of the first element satisfying pred, or NotFound.
func (a *Array[T]) IndexFunc(pred func(T) bool) int {
	for i := 0; i < a.n; i++ {
		if pred(a.buf[i]) {
			return i
		}
	}
	return NotFound
}

// IndexOf returns the index of the first element equal to v, or NotFound.
func IndexOf[T comparable](a *Array[T], v T) int {
	return a.IndexFunc(func(x T) bool { return x == v })
}

// Clone returns an independent copy with its own buffer.
//
// The copy's capacity is max(Len(), DefaultCapacity); elements are copied
// by value, so pointer elements still refer to the same targets.
func (a *Array[T]) Clone() *Array[T] {
	c := &Array[T]{}
	c.buf = a.copyBuffer()
	c.n = a.n
	return c
}

// Assign replaces the contents of a with a copy of src.
//
// # Description
//
// The new buffer is fully built before a is modified (copy-then-swap), so
// a is unchanged if building the copy fails. Assigning an Array to itself
// is a no-op.
func (a *Array[T]) Assign(src *Array[T]) {
	if a == src {
		return
	}
	buf := src.copyBuffer()
	a.buf, a.n = buf, src.n
}

func (a *Array[T]) copyBuffer() []T {
	size := a.n
	if size < DefaultCapacity {
		size = DefaultCapacity
	}
	buf := make([]T, size)
	for i := 0; i < a.n; i++ {
		buf[i] = a.buf[i]
	}
	return buf
}

// All yields index/element pairs for the live elements in order.
//
// Mutating the Array during iteration is not supported.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < a.n; i++ {
			if !yield(i, a.buf[i]) {
				return
			}
		}
	}
}

// Slice returns a copy of the live elements, or nil when empty.
func (a *Array[T]) Slice() []T {
	if a.n == 0 {
		return nil
	}
	out := make([]T, a.n)
	copy(out, a.buf[:a.n])
	return out
}
