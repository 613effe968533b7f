// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog provides the category tree at the heart of Shelf.
//
// A catalog is a labeled tree of categories. Every category owns an ordered
// list of sub-categories and an ordered list of books filed directly under
// it, and keeps an aggregate count of all books in its subtree.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                              Tree                                │
//	│  ┌────────────────────────────────────────────────────────────┐  │
//	│  │ arena: dynarray.Array[*node]   free: dynarray.Array[int32] │  │
//	│  └────────────────────────────────────────────────────────────┘  │
//	│        ▲ NodeID{index, gen}                                      │
//	│        │                                                         │
//	│  ┌─────┴─────┐   children: dynarray.Array[NodeID]                │
//	│  │   node    │   books:    dynarray.Array[*Book]                 │
//	│  │ count ────┼──▶ propagated to every ancestor on each mutation  │
//	│  └───────────┘                                                   │
//	└──────────────────────────────────────────────────────────────────┘
//
// Nodes are addressed by generation-stamped NodeIDs into an arena owned by
// the Tree. Node is a small value handle over (tree, id). Removing a
// category frees its whole subtree back to the arena; a handle that still
// points at a freed slot reports Valid() == false and never aliases the
// node that later reuses the slot.
//
// # Ownership Model
//
// The Tree owns every node. Each node owns the books filed under it: a book
// passed to AddBook must not be filed anywhere else, and it is dropped when
// its category is removed.
//
// # Invariants
//
// After every single call to AddChild, RemoveChild, AddBook or
// RemoveBookByTitle, the aggregate count of every node on the path from the
// mutated node to the root equals the true number of books in that node's
// subtree. Tree.Verify recomputes the counts independently.
//
// # Thread Safety
//
// Tree is NOT safe for concurrent use. Callers sharing a Tree across
// goroutines must serialize access (the library package holds one lock per
// tree).
package catalog
