// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dynarray

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Constructor and Capacity Tests
// =============================================================================

func TestNew_StartsEmptyWithDefaultCapacity(t *testing.T) {
	a := New[int]()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, DefaultCapacity, a.Cap())
	assert.True(t, a.Empty())
}

func TestZeroValue_GrowsOnFirstPush(t *testing.T) {
	var a Array[string]
	assert.Equal(t, 0, a.Cap())

	a.PushBack("x")
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, DefaultCapacity, a.Cap())
}

func TestPushBack_DoublesCapacity(t *testing.T) {
	a := New[int]()
	caps := []int{}
	for i := 0; i < 9; i++ {
		a.PushBack(i)
		caps = append(caps, a.Cap())
	}
	assert.Equal(t, []int{2, 2, 4, 4, 8, 8, 8, 8, 16}, caps)
	assert.Equal(t, 9, a.Len())
}

func TestReserve(t *testing.T) {
	t.Run("no-op when not larger", func(t *testing.T) {
		a := Of(1, 2)
		before := a.Cap()
		a.Reserve(1)
		assert.Equal(t, before, a.Cap())
	})

	t.Run("grows to exact size and keeps order", func(t *testing.T) {
		a := Of(3, 1, 4, 1, 5)
		a.Reserve(37)
		assert.Equal(t, 37, a.Cap())
		assert.Equal(t, []int{3, 1, 4, 1, 5}, a.Slice())
	})
}

func TestClear_RetainsBuffer(t *testing.T) {
	a := Of(1, 2, 3, 4, 5)
	capBefore := a.Cap()
	a.Clear()
	assert.True(t, a.Empty())
	assert.Equal(t, capBefore, a.Cap())

	a.PushBack(7)
	assert.Equal(t, []int{7}, a.Slice())
}

// =============================================================================
// Access Tests
// =============================================================================

func TestAt_BoundsChecked(t *testing.T) {
	a := Of("a", "b")

	v, err := a.At(1)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	for _, idx := range []int{-1, 2, 100} {
		_, err := a.At(idx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))

		var ie *IndexError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, idx, ie.Index)
	}
}

func TestGetSet_Unchecked(t *testing.T) {
	a := Of(10, 20, 30)
	a.Set(1, 25)
	assert.Equal(t, 25, a.Get(1))
}

// =============================================================================
// Mutation Tests
// =============================================================================

func TestInsertAt(t *testing.T) {
	t.Run("front middle end", func(t *testing.T) {
		a := Of(2, 4)
		require.NoError(t, a.InsertAt(0, 1))
		require.NoError(t, a.InsertAt(2, 3))
		require.NoError(t, a.InsertAt(a.Len(), 5))
		assert.Equal(t, []int{1, 2, 3, 4, 5}, a.Slice())
	})

	t.Run("rejects out of range and leaves array unchanged", func(t *testing.T) {
		a := Of(1, 2)
		err := a.InsertAt(3, 9)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		err = a.InsertAt(-1, 9)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.Equal(t, []int{1, 2}, a.Slice())
		assert.Equal(t, 2, a.Cap())
	})

	t.Run("grows when full", func(t *testing.T) {
		a := Of(1, 2)
		require.Equal(t, 2, a.Cap())
		require.NoError(t, a.InsertAt(1, 9))
		assert.Equal(t, 4, a.Cap())
		assert.Equal(t, []int{1, 9, 2}, a.Slice())
	})
}

func TestRemoveAt(t *testing.T) {
	a := Of(1, 2, 3, 4)
	require.NoError(t, a.RemoveAt(0))
	require.NoError(t, a.RemoveAt(2))
	assert.Equal(t, []int{2, 3}, a.Slice())

	assert.ErrorIs(t, a.RemoveAt(2), ErrIndexOutOfRange)
	assert.ErrorIs(t, a.RemoveAt(-1), ErrIndexOutOfRange)
}

func TestRemoveAt_ClearsVacatedSlot(t *testing.T) {
	x, y := new(int), new(int)
	a := Of(x, y)
	require.NoError(t, a.RemoveAt(0))
	assert.Nil(t, a.Get(1))
}

func TestPopBack(t *testing.T) {
	a := Of(1)
	require.NoError(t, a.PopBack())
	assert.True(t, a.Empty())
	assert.ErrorIs(t, a.PopBack(), ErrUnderflow)
}

func TestIndexOf(t *testing.T) {
	a := Of("x", "y", "x")
	assert.Equal(t, 0, IndexOf(a, "x"))
	assert.Equal(t, 1, IndexOf(a, "y"))
	assert.Equal(t, NotFound, IndexOf(a, "z"))
	assert.Equal(t, 1, a.IndexFunc(func(s string) bool { return s != "x" }))
	assert.Equal(t, NotFound, a.IndexFunc(func(s string) bool { return s == "" }))
}

// =============================================================================
// Copy Tests
// =============================================================================

func TestClone_IsIndependent(t *testing.T) {
	a := Of(1, 2, 3)
	c := a.Clone()
	c.Set(0, 99)
	c.PushBack(4)

	assert.Equal(t, []int{1, 2, 3}, a.Slice())
	assert.Equal(t, []int{99, 2, 3, 4}, c.Slice())
}

func TestClone_EmptyHasMinimumCapacity(t *testing.T) {
	var a Array[int]
	c := a.Clone()
	assert.Equal(t, DefaultCapacity, c.Cap())
	assert.True(t, c.Empty())
}

func TestAssign(t *testing.T) {
	t.Run("copies source", func(t *testing.T) {
		dst := Of(7, 7, 7, 7, 7)
		src := Of(1, 2)
		dst.Assign(src)
		assert.Equal(t, []int{1, 2}, dst.Slice())

		src.Set(0, 100)
		assert.Equal(t, 1, dst.Get(0))
	})

	t.Run("self assignment is a no-op", func(t *testing.T) {
		a := Of(1, 2, 3)
		a.Assign(a)
		assert.Equal(t, []int{1, 2, 3}, a.Slice())
	})
}

func TestAll_StopsEarly(t *testing.T) {
	a := Of(1, 2, 3, 4)
	var seen []int
	for i, v := range a.All() {
		if i == 2 {
			break
		}
		seen = append(seen, v)
	}
	assert.Equal(t, []int{1, 2}, seen)
}

// =============================================================================
// Scenario and Model Tests
// =============================================================================

// TestScenario_PushRemoveInsert walks the reference sequence from the catalog
// design notes.
func TestScenario_PushRemoveInsert(t *testing.T) {
	a := New[int]()
	assert.Equal(t, 2, a.Cap())
	for _, v := range []int{1, 2, 3, 4, 5} {
		a.PushBack(v)
	}
	assert.Equal(t, 5, a.Len())
	assert.GreaterOrEqual(t, a.Cap(), 5)

	require.NoError(t, a.RemoveAt(2))
	assert.Equal(t, []int{1, 2, 4, 5}, a.Slice())

	require.NoError(t, a.InsertAt(0, 9))
	assert.Equal(t, []int{9, 1, 2, 4, 5}, a.Slice())

	assert.Equal(t, 3, IndexOf(a, 4))
}

// TestRandomOps_MatchSliceModel runs random operation sequences against a
// plain slice and compares every element afterwards.
func TestRandomOps_MatchSliceModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		a := New[int]()
		var model []int

		for step := 0; step < 200; step++ {
			switch rng.Intn(4) {
			case 0:
				v := rng.Int()
				a.PushBack(v)
				model = append(model, v)
			case 1:
				i := rng.Intn(len(model) + 1)
				v := rng.Int()
				require.NoError(t, a.InsertAt(i, v))
				model = append(model[:i], append([]int{v}, model[i:]...)...)
			case 2:
				if len(model) == 0 {
					assert.ErrorIs(t, a.RemoveAt(0), ErrIndexOutOfRange)
					continue
				}
				i := rng.Intn(len(model))
				require.NoError(t, a.RemoveAt(i))
				model = append(model[:i], model[i+1:]...)
			case 3:
				if len(model) == 0 {
					assert.ErrorIs(t, a.PopBack(), ErrUnderflow)
					continue
				}
				require.NoError(t, a.PopBack())
				model = model[:len(model)-1]
			}
		}

		require.Equal(t, len(model), a.Len())
		require.LessOrEqual(t, a.Len(), a.Cap())
		for i, want := range model {
			got, err := a.At(i)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}
