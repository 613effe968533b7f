// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Path Tests
// =============================================================================

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"only separators", "///", []string{}},
		{"single", "Science", []string{"Science"}},
		{"nested", "Science/Physics", []string{"Science", "Physics"}},
		{"leading trailing doubled", "/Science//Physics/", []string{"Science", "Physics"}},
		{"spaces kept", " A / B ", []string{" A ", " B "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPath(tt.in))
		})
	}
}

func TestResolve(t *testing.T) {
	tr := New(DefaultRootName)
	phys := tr.CreatePath("Science/Physics")

	root, ok := tr.Resolve("")
	require.True(t, ok)
	assert.True(t, root.IsRoot())

	got, ok := tr.Resolve("/Science/Physics/")
	require.True(t, ok)
	assert.Equal(t, phys.ID(), got.ID())

	_, ok = tr.Resolve("science/physics")
	assert.False(t, ok, "matching is case-sensitive")

	_, ok = tr.Resolve("Science/Chemistry")
	assert.False(t, ok)
}

func TestCreatePath_Idempotent(t *testing.T) {
	tr := New(DefaultRootName)
	a := tr.CreatePath("A/B/C")
	size := tr.Size()

	b := tr.CreatePath("A/B/C")
	assert.Equal(t, a.ID(), b.ID())
	assert.Equal(t, size, tr.Size())
	assert.Equal(t, 4, tr.Size())

	assert.True(t, tr.CreatePath("").IsRoot())
}

func TestRemoveByPath(t *testing.T) {
	tr := New(DefaultRootName)
	tr.CreatePath("A/B")

	assert.ErrorIs(t, tr.RemoveByPath(""), ErrRootRemoval)
	assert.ErrorIs(t, tr.RemoveByPath("/"), ErrRootRemoval)
	assert.ErrorIs(t, tr.RemoveByPath("X/B"), ErrNotFound)
	assert.ErrorIs(t, tr.RemoveByPath("A/X"), ErrNotFound)

	require.NoError(t, tr.RemoveByPath("A/B"))
	_, ok := tr.Resolve("A/B")
	assert.False(t, ok)
	_, ok = tr.Resolve("A")
	assert.True(t, ok)
}

// =============================================================================
// Book Search Tests
// =============================================================================

func TestFindAndRemoveBookByTitle_Preorder(t *testing.T) {
	tr := New(DefaultRootName)
	first := NewBook("Dup", "A1", "", 1)
	second := NewBook("Dup", "A2", "", 2)
	require.NoError(t, tr.CreatePath("X").AddBook(first))
	require.NoError(t, tr.CreatePath("Y").AddBook(second))

	got, ok := tr.FindBookByTitle("Dup")
	require.True(t, ok)
	assert.Same(t, first, got)

	require.True(t, tr.RemoveBookByTitle("Dup"))
	got, ok = tr.FindBookByTitle("Dup")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, uint(1), tr.TotalBooks())

	assert.False(t, tr.RemoveBookByTitle("Missing"))
}

func TestFindBook_ReturnsCategory(t *testing.T) {
	tr := New(DefaultRootName)
	b := NewBook("T", "A", "1", 2000)
	require.NoError(t, tr.CreatePath("P/Q").AddBook(b))

	got, where, ok := tr.FindBook(func(x *Book) bool { return x.ISBN == "1" })
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, "P/Q", where.Path())

	_, _, ok = tr.FindBook(func(*Book) bool { return false })
	assert.False(t, ok)
}

func TestContainsBook(t *testing.T) {
	tr := New(DefaultRootName)
	b := NewBook("T", "A", "", 2000)
	require.NoError(t, tr.CreatePath("P").AddBook(b))

	assert.True(t, tr.ContainsBook(NewBook("T", "A", "", 2000), nil))
	assert.False(t, tr.ContainsBook(b, b), "the excepted instance is ignored")
	assert.False(t, tr.ContainsBook(NewBook("T", "A", "", 2001), nil))
}

func TestWalk_PreorderAndStop(t *testing.T) {
	tr := New("R")
	tr.CreatePath("A/A1")
	tr.CreatePath("B")
	tr.CreatePath("A/A2")

	var names []string
	require.NoError(t, tr.Walk(func(n Node) error {
		names = append(names, n.Name())
		return nil
	}))
	assert.Equal(t, []string{"R", "A", "A1", "A2", "B"}, names)

	boom := errors.New("boom")
	visited := 0
	err := tr.Walk(func(n Node) error {
		visited++
		if n.Name() == "A1" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, visited)
}

// =============================================================================
// Scenario Tests
// =============================================================================

func TestScenario_AddRemoveSubtree(t *testing.T) {
	tr := New("Library")
	phys := tr.CreatePath("Science/Physics")
	sci, ok := tr.Resolve("Science")
	require.True(t, ok)

	require.NoError(t, phys.AddBook(NewBook("T1", "A1", "", 1905)))
	assert.Equal(t, uint(1), phys.Count())
	assert.Equal(t, uint(1), sci.Count())
	assert.Equal(t, uint(1), tr.Root().Count())

	err := phys.AddBook(NewBook("T1", "A1", "", 1905))
	assert.ErrorIs(t, err, ErrDuplicateRecord)
	assert.Equal(t, uint(1), tr.Root().Count())

	require.NoError(t, tr.RemoveByPath("Science/Physics"))
	assert.Equal(t, uint(0), tr.Root().Count())
	assert.Equal(t, uint(0), sci.Count())
	_, found := tr.FindBookByTitle("T1")
	assert.False(t, found)

	assert.False(t, phys.Valid())
	require.NoError(t, tr.Verify())
}

func TestStaleHandle_NotAliasedBySlotReuse(t *testing.T) {
	tr := New(DefaultRootName)
	old := tr.CreatePath("Old")
	require.NoError(t, tr.RemoveByPath("Old"))

	fresh := tr.CreatePath("Fresh")
	assert.Equal(t, old.ID().index, fresh.ID().index, "slot is recycled")
	assert.NotEqual(t, old.ID(), fresh.ID())

	assert.False(t, old.Valid())
	assert.Equal(t, "", old.Name())
	assert.ErrorIs(t, old.AddBook(NewBook("T", "A", "", 1)), ErrStaleNode)
	_, err := old.AddChild("x")
	assert.ErrorIs(t, err, ErrStaleNode)
	assert.ErrorIs(t, old.Rename("y"), ErrStaleNode)
	assert.False(t, old.RemoveChild("x"))

	_, ok := tr.Node(old.ID())
	assert.False(t, ok)
	_, ok = tr.Node(fresh.ID())
	assert.True(t, ok)
	assert.Equal(t, uint(0), tr.Root().Count())
}

// TestRandomOps_CountsStayConsistent applies random mutations and checks
// every aggregate against an independent recount after each step.
func TestRandomOps_CountsStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	paths := []string{"A", "A/B", "A/B/C", "A/D", "E", "E/F", "G/H/I"}

	for round := 0; round < 20; round++ {
		tr := New(DefaultRootName)
		books := 0

		for step := 0; step < 300; step++ {
			path := paths[rng.Intn(len(paths))]
			switch rng.Intn(5) {
			case 0, 1:
				b := NewBook(fmt.Sprintf("T%d", rng.Intn(40)), "A", "", rng.Intn(3))
				if tr.CreatePath(path).AddBook(b) == nil {
					books++
				}
			case 2:
				if n, ok := tr.Resolve(path); ok {
					title := fmt.Sprintf("T%d", rng.Intn(40))
					if n.RemoveBookByTitle(title) {
						books--
					}
				}
			case 3:
				if n, ok := tr.Resolve(path); ok {
					c := int(n.Count())
					if tr.RemoveByPath(path) == nil {
						books -= c
					}
				}
			case 4:
				tr.CreatePath(path)
			}

			require.NoError(t, tr.Verify(), "round %d step %d", round, step)
			require.Equal(t, uint(books), tr.TotalBooks())
		}
	}
}
