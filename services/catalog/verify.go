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
	"fmt"

	"github.com/AleutianAI/AleutianShelf/pkg/dynarray"
)

// Verify recomputes every aggregate count from scratch and checks the
// structural links of the arena.
//
// # Description
//
// Counts are recomputed bottom-up with an explicit postorder stack, without
// reading any stored aggregate, and compared against the stored value of
// each node. Parent links and sibling name uniqueness are checked on the
// way down.
//
// # Outputs
//
//   - error: *CountMismatchError for the first node whose aggregate is
//     wrong, an error wrapping ErrCorruptTree for a broken link or
//     duplicate sibling name, or nil
func (t *Tree) Verify() error {
	type frame struct {
		id       NodeID
		expanded bool
	}

	actual := make(map[NodeID]uint, t.live)
	stack := dynarray.Of(frame{id: t.root})
	seen := 0

	for !stack.Empty() {
		f := stack.Get(stack.Len() - 1)
		must(stack.PopBack())

		nd := t.lookup(f.id)
		if nd == nil {
			return fmt.Errorf("%w: dangling child id %v", ErrCorruptTree, f.id)
		}

		if !f.expanded {
			seen++
			stack.PushBack(frame{id: f.id, expanded: true})
			names := make(map[string]struct{}, nd.children.Len())
			for _, cid := range nd.children.All() {
				child := t.lookup(cid)
				if child == nil {
					return fmt.Errorf("%w: dangling child of %q", ErrCorruptTree, Node{t: t, id: f.id}.Path())
				}
				if child.parent != f.id {
					return fmt.Errorf("%w: %q has wrong parent link", ErrCorruptTree, child.name)
				}
				if _, dup := names[child.name]; dup {
					return fmt.Errorf("%w: duplicate sibling %q", ErrCorruptTree, child.name)
				}
				names[child.name] = struct{}{}
				stack.PushBack(frame{id: cid})
			}
			continue
		}

		sum := uint(nd.books.Len())
		for _, cid := range nd.children.All() {
			sum += actual[cid]
		}
		actual[f.id] = sum
		if sum != nd.count {
			return &CountMismatchError{
				Path:   Node{t: t, id: f.id}.Path(),
				Stored: nd.count,
				Actual: sum,
			}
		}
	}

	if seen != t.live {
		return fmt.Errorf("%w: %d reachable categories, %d live", ErrCorruptTree, seen, t.live)
	}
	return nil
}
