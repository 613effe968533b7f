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
	"strings"

	"github.com/AleutianAI/AleutianShelf/pkg/dynarray"
)

// Separator delimits category names in a path.
const Separator = '/'

// DefaultRootName labels the root of a new library.
const DefaultRootName = "Library"

// errStopWalk ends a Walk early without surfacing an error.
var errStopWalk = errors.New("stop walk")

// =============================================================================
// Tree
// =============================================================================

// Tree is a category tree rooted at a single, non-removable root.
//
// # Description
//
// Tree owns the node arena. Categories are addressed by slash-delimited
// paths relative to the root; the root itself has the empty path.
// Path matching is exact and case-sensitive per segment.
//
// # Thread Safety
//
// Not safe for concurrent use.
//
// # Performance
//
//	| Operation | Complexity |
//	|-----------|------------|
//	| Resolve / CreatePath | O(depth × fan-out) |
//	| AddBook / RemoveBookByTitle | O(books here + depth) |
//	| RemoveByPath | O(subtree + depth) |
//	| FindBookByTitle / Walk | O(nodes + books) |
type Tree struct {
	nodes *dynarray.Array[*node]
	free  *dynarray.Array[int32]
	root  NodeID
	live  int
}

// New creates a tree whose root is labeled rootName.
func New(rootName string) *Tree {
	t := &Tree{
		nodes: dynarray.New[*node](),
		free:  dynarray.New[int32](),
	}
	t.root = t.alloc(rootName, NoNode)
	return t
}

// Root returns the root category.
func (t *Tree) Root() Node {
	return Node{t: t, id: t.root}
}

// Node returns the category addressed by id, if it is still live.
func (t *Tree) Node(id NodeID) (Node, bool) {
	if t.lookup(id) == nil {
		return Node{}, false
	}
	return Node{t: t, id: id}, true
}

// Size returns the number of live categories, root included.
func (t *Tree) Size() int {
	return t.live
}

// TotalBooks returns the number of books in the whole tree.
func (t *Tree) TotalBooks() uint {
	return t.lookup(t.root).count
}

// =============================================================================
// Path Operations
// =============================================================================

// SplitPath splits path on "/" and drops empty segments, so leading,
// trailing and doubled separators are tolerated. Segments are not trimmed.
func SplitPath(path string) []string {
	raw := strings.Split(path, string(Separator))
	segs := raw[:0]
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// JoinPath joins segments with the separator.
func JoinPath(segs ...string) string {
	return strings.Join(segs, string(Separator))
}

// Resolve returns the category at path.
//
// An empty path, or one made only of separators, resolves to the root.
// Resolution stops as soon as a segment is missing.
func (t *Tree) Resolve(path string) (Node, bool) {
	cur := t.Root()
	for _, seg := range SplitPath(path) {
		next, ok := cur.Child(seg)
		if !ok {
			return Node{}, false
		}
		cur = next
	}
	return cur, true
}

// CreatePath returns the category at path, creating missing segments.
//
// # Description
//
// Follows the same traversal as Resolve but calls AddChild at each step,
// so repeated calls with the same path return the same category and
// create nothing new. An empty path returns the root.
func (t *Tree) CreatePath(path string) Node {
	cur := t.Root()
	for _, seg := range SplitPath(path) {
		next, err := cur.AddChild(seg)
		// Segments from SplitPath are non-empty and separator-free, and cur
		// is always live here.
		must(err)
		cur = next
	}
	return cur
}

// RemoveByPath removes the category at path together with its subtree.
//
// # Outputs
//
//   - error: ErrRootRemoval for an empty or root path; ErrNotFound if the
//     parent or the category itself does not exist
func (t *Tree) RemoveByPath(path string) error {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return ErrRootRemoval
	}
	parent, ok := t.Resolve(JoinPath(segs[:len(segs)-1]...))
	if !ok {
		return ErrNotFound
	}
	if !parent.RemoveChild(segs[len(segs)-1]) {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// Whole-Tree Operations
// =============================================================================

// Walk visits every category once in preorder, children in insertion order.
//
// An error returned by fn stops the walk and is returned by Walk.
func (t *Tree) Walk(fn func(Node) error) error {
	return t.Root().Walk(fn)
}

// FindBook returns the first book, in preorder, satisfying pred, together
// with the category it is filed in.
func (t *Tree) FindBook(pred func(*Book) bool) (*Book, Node, bool) {
	var (
		found *Book
		where Node
	)
	_ = t.Walk(func(n Node) error {
		for b := range n.Books() {
			if pred(b) {
				found, where = b, n
				return errStopWalk
			}
		}
		return nil
	})
	return found, where, found != nil
}

// FindBookByTitle returns the first book in the tree whose title matches exactly.
func (t *Tree) FindBookByTitle(title string) (*Book, bool) {
	b, _, ok := t.FindBook(func(b *Book) bool { return b.Title == title })
	return b, ok
}

// ContainsBook reports whether any book equal to b is filed anywhere in
// the tree, ignoring the instance except (which may be nil).
func (t *Tree) ContainsBook(b *Book, except *Book) bool {
	_, _, ok := t.FindBook(func(x *Book) bool {
		return x != except && x.Equal(b)
	})
	return ok
}

// RemoveBookByTitle removes the first book, in preorder, whose title
// matches exactly. Returns false if no category holds such a book.
func (t *Tree) RemoveBookByTitle(title string) bool {
	removed := false
	_ = t.Walk(func(n Node) error {
		if n.RemoveBookByTitle(title) {
			removed = true
			return errStopWalk
		}
		return nil
	})
	return removed
}

// =============================================================================
// Arena
// =============================================================================

// lookup returns the live slot for id, or nil.
func (t *Tree) lookup(id NodeID) *node {
	if id.index < 0 || int(id.index) >= t.nodes.Len() {
		return nil
	}
	nd := t.nodes.Get(int(id.index))
	if !nd.live || nd.gen != id.gen {
		return nil
	}
	return nd
}

// alloc takes a slot from the free list, or appends one, and initializes it.
func (t *Tree) alloc(name string, parent NodeID) NodeID {
	var (
		idx int32
		nd  *node
	)
	if !t.free.Empty() {
		idx = t.free.Get(t.free.Len() - 1)
		must(t.free.PopBack())
		nd = t.nodes.Get(int(idx))
		nd.gen++
	} else {
		idx = int32(t.nodes.Len())
		nd = &node{}
		t.nodes.PushBack(nd)
	}
	nd.name = name
	nd.parent = parent
	nd.children = dynarray.New[NodeID]()
	nd.books = dynarray.New[*Book]()
	nd.count = 0
	nd.live = true
	t.live++
	return NodeID{index: idx, gen: nd.gen}
}

// freeSubtree releases root and every descendant back to the arena.
//
// Books are dropped from their slots before the slots are recycled. The
// traversal uses an explicit stack, so depth is bounded only by memory.
// The caller is responsible for unlinking root from its parent and for
// adjusting ancestor counts.
func (t *Tree) freeSubtree(root NodeID) {
	stack := dynarray.Of(root)
	for !stack.Empty() {
		id := stack.Get(stack.Len() - 1)
		must(stack.PopBack())

		nd := t.lookup(id)
		if nd == nil {
			continue
		}
		for _, child := range nd.children.All() {
			stack.PushBack(child)
		}
		for i := range nd.books.Len() {
			nd.books.Set(i, nil)
		}
		nd.books.Clear()
		nd.children.Clear()
		nd.name = ""
		nd.parent = NoNode
		nd.count = 0
		nd.live = false
		t.free.PushBack(id.index)
		t.live--
	}
}

// propagate adds delta to the aggregate of id and every ancestor.
func (t *Tree) propagate(id NodeID, delta int) {
	for nd := t.lookup(id); nd != nil; nd = t.lookup(nd.parent) {
		if delta < 0 {
			nd.count -= uint(-delta)
		} else {
			nd.count += uint(delta)
		}
	}
}

// childIndex returns the position of the child called name, or NotFound.
func (t *Tree) childIndex(parent *node, name string) int {
	return parent.children.IndexFunc(func(id NodeID) bool {
		c := t.lookup(id)
		return c != nil && c.name == name
	})
}
