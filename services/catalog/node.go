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
	"iter"
	"strings"

	"github.com/AleutianAI/AleutianShelf/pkg/dynarray"
)

// NodeID addresses a category in its Tree's arena.
//
// The generation distinguishes successive occupants of the same arena slot,
// so an ID kept after its category was removed never resolves to a newer
// category.
type NodeID struct {
	index int32
	gen   uint32
}

// NoNode is the parent of the root and the ID of the zero Node.
var NoNode = NodeID{index: -1}

// node is an arena slot.
type node struct {
	name     string
	parent   NodeID
	children *dynarray.Array[NodeID]
	books    *dynarray.Array[*Book]
	count    uint
	gen      uint32
	live     bool
}

// Node is a handle to a category in a Tree.
//
// # Description
//
// Node is a small value type; copying it copies the handle, not the
// category. The zero Node is invalid. All mutators keep the aggregate
// counts of the node and every ancestor consistent.
//
// # Stale Handles
//
// After the category is removed, Valid reports false, accessors return zero
// values, and mutators return ErrStaleNode or false.
type Node struct {
	t  *Tree
	id NodeID
}

func (n Node) get() *node {
	if n.t == nil {
		return nil
	}
	return n.t.lookup(n.id)
}

// ID returns the arena address of the category.
func (n Node) ID() NodeID { return n.id }

// Valid reports whether the handle refers to a live category.
func (n Node) Valid() bool { return n.get() != nil }

// IsRoot reports whether the node is the root of its tree.
func (n Node) IsRoot() bool {
	nd := n.get()
	return nd != nil && nd.parent == NoNode
}

// Name returns the category label.
func (n Node) Name() string {
	if nd := n.get(); nd != nil {
		return nd.name
	}
	return ""
}

// Count returns the number of books in this category and all descendants.
func (n Node) Count() uint {
	if nd := n.get(); nd != nil {
		return nd.count
	}
	return 0
}

// Parent returns the parent category; ok is false for the root.
func (n Node) Parent() (Node, bool) {
	nd := n.get()
	if nd == nil || nd.parent == NoNode {
		return Node{}, false
	}
	return Node{t: n.t, id: nd.parent}, true
}

// NumChildren returns the number of direct sub-categories.
func (n Node) NumChildren() int {
	if nd := n.get(); nd != nil {
		return nd.children.Len()
	}
	return 0
}

// NumBooks returns the number of books filed directly here.
func (n Node) NumBooks() int {
	if nd := n.get(); nd != nil {
		return nd.books.Len()
	}
	return 0
}

// Children yields the direct sub-categories in insertion order.
func (n Node) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		nd := n.get()
		if nd == nil {
			return
		}
		for _, id := range nd.children.All() {
			if !yield(Node{t: n.t, id: id}) {
				return
			}
		}
	}
}

// Books yields the books filed directly here in insertion order.
func (n Node) Books() iter.Seq[*Book] {
	return func(yield func(*Book) bool) {
		nd := n.get()
		if nd == nil {
			return
		}
		for _, b := range nd.books.All() {
			if !yield(b) {
				return
			}
		}
	}
}

// Child returns the direct sub-category with the given name.
func (n Node) Child(name string) (Node, bool) {
	nd := n.get()
	if nd == nil {
		return Node{}, false
	}
	i := n.t.childIndex(nd, name)
	if i == dynarray.NotFound {
		return Node{}, false
	}
	return Node{t: n.t, id: nd.children.Get(i)}, true
}

// Path returns the ancestor names joined by "/" with the root excluded.
// The root's path is "".
func (n Node) Path() string {
	if n.t == nil {
		return ""
	}
	chain := dynarray.New[string]()
	for cur := n.id; ; {
		nd := n.t.lookup(cur)
		if nd == nil || nd.parent == NoNode {
			break
		}
		chain.PushBack(nd.name)
		cur = nd.parent
	}
	var sb strings.Builder
	for i := chain.Len() - 1; i >= 0; i-- {
		sb.WriteString(chain.Get(i))
		if i > 0 {
			sb.WriteByte(Separator)
		}
	}
	return sb.String()
}

// AddChild returns the sub-category named name, creating it if needed.
//
// # Description
//
// Idempotent: if a child with this name exists it is returned unchanged,
// so siblings never share a name. A new child starts with a zero count,
// which leaves every ancestor's aggregate unchanged.
//
// # Outputs
//
//   - Node: the existing or new child
//   - error: ErrStaleNode, or ErrInvalidName for "" or names containing "/"
func (n Node) AddChild(name string) (Node, error) {
	nd := n.get()
	if nd == nil {
		return Node{}, ErrStaleNode
	}
	if !validName(name) {
		return Node{}, ErrInvalidName
	}
	if i := n.t.childIndex(nd, name); i != dynarray.NotFound {
		return Node{t: n.t, id: nd.children.Get(i)}, nil
	}
	id := n.t.alloc(name, n.id)
	nd.children.PushBack(id)
	return Node{t: n.t, id: id}, nil
}

// RemoveChild destroys the sub-category named name and its whole subtree.
//
// # Description
//
// The child's aggregate is captured, its subtree is released to the arena
// (dropping every book it owns), the child is removed from this node's
// children, and the captured aggregate is subtracted from this node and
// every ancestor. Returns false if no such child exists.
func (n Node) RemoveChild(name string) bool {
	nd := n.get()
	if nd == nil {
		return false
	}
	i := n.t.childIndex(nd, name)
	if i == dynarray.NotFound {
		return false
	}
	childID := nd.children.Get(i)
	delta := n.t.lookup(childID).count

	n.t.freeSubtree(childID)
	must(nd.children.RemoveAt(i))
	n.t.propagate(n.id, -int(delta))
	return true
}

// AddBook files b directly under this category.
//
// # Description
//
// Duplicate detection covers this category's own books only; descendants
// and the rest of the tree are not searched. Library-wide deduplication is
// a separate policy layered on top by callers (see Tree.ContainsBook). On
// success the aggregate of this node and every ancestor grows by one and
// the category takes ownership of b.
//
// # Outputs
//
//   - error: ErrDuplicateRecord, ErrInvalidRecord for nil, ErrStaleNode, or nil
func (n Node) AddBook(b *Book) error {
	nd := n.get()
	if nd == nil {
		return ErrStaleNode
	}
	if b == nil {
		return ErrInvalidRecord
	}
	if nd.books.IndexFunc(b.Equal) != dynarray.NotFound {
		return ErrDuplicateRecord
	}
	nd.books.PushBack(b)
	n.t.propagate(n.id, 1)
	return nil
}

// RemoveBookByTitle drops the first book filed directly here whose title
// matches exactly. Descendants are not searched.
func (n Node) RemoveBookByTitle(title string) bool {
	nd := n.get()
	if nd == nil {
		return false
	}
	i := nd.books.IndexFunc(func(b *Book) bool { return b.Title == title })
	if i == dynarray.NotFound {
		return false
	}
	must(nd.books.RemoveAt(i))
	n.t.propagate(n.id, -1)
	return true
}

// FindBookHere returns the first book filed directly here with the given title.
func (n Node) FindBookHere(title string) (*Book, bool) {
	nd := n.get()
	if nd == nil {
		return nil, false
	}
	i := nd.books.IndexFunc(func(b *Book) bool { return b.Title == title })
	if i == dynarray.NotFound {
		return nil, false
	}
	return nd.books.Get(i), true
}

// Collect appends every book in this subtree to out in preorder: the books
// filed here first, then each child's subtree in child order.
func (n Node) Collect(out *dynarray.Array[*Book]) {
	nd := n.get()
	if nd == nil {
		return
	}
	for _, b := range nd.books.All() {
		out.PushBack(b)
	}
	for _, id := range nd.children.All() {
		Node{t: n.t, id: id}.Collect(out)
	}
}

// Walk visits this category and its descendants in preorder, children in
// insertion order. An error returned by fn stops the walk and is returned.
func (n Node) Walk(fn func(Node) error) error {
	if !n.Valid() {
		return nil
	}
	err := n.walk(fn)
	if errors.Is(err, errStopWalk) {
		return nil
	}
	return err
}

func (n Node) walk(fn func(Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for child := range n.Children() {
		if err := child.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Rename changes the category label.
//
// Counts are unaffected. The root may be renamed. A non-root category
// cannot take the name of one of its siblings.
func (n Node) Rename(name string) error {
	nd := n.get()
	if nd == nil {
		return ErrStaleNode
	}
	if !validName(name) {
		return ErrInvalidName
	}
	if nd.name == name {
		return nil
	}
	if parent := n.t.lookup(nd.parent); parent != nil {
		if n.t.childIndex(parent, name) != dynarray.NotFound {
			return ErrDuplicateCategory
		}
	}
	nd.name = name
	return nil
}

func validName(name string) bool {
	return name != "" && !strings.ContainsRune(name, Separator)
}
