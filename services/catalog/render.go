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
	"bufio"
	"fmt"
	"io"
)

// RenderOptions controls Tree.Render output.
type RenderOptions struct {
	// Books lists the titles filed directly under each category, ahead of
	// its sub-categories.
	Books bool

	// MaxDepth limits how many levels below the root are drawn. Zero means
	// unlimited.
	MaxDepth int
}

// Render writes an outline of the tree to w, one category per line as
// "name (count)", with box-drawing connectors.
//
//	Library (3)
//	├── Fiction (1)
//	└── Science (2)
//	    └── Physics (2)
func (t *Tree) Render(w io.Writer, opts RenderOptions) error {
	bw := bufio.NewWriter(w)
	root := t.Root()
	fmt.Fprintf(bw, "%s (%d)\n", root.Name(), root.Count())
	t.renderChildren(bw, root, "", 1, opts)
	return bw.Flush()
}

func (t *Tree) renderChildren(w *bufio.Writer, n Node, prefix string, depth int, opts RenderOptions) {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return
	}

	total := n.NumChildren()
	if opts.Books {
		total += n.NumBooks()
	}
	i := 0
	branch := func() (string, string) {
		i++
		if i == total {
			return "└── ", "    "
		}
		return "├── ", "│   "
	}

	if opts.Books {
		for b := range n.Books() {
			br, _ := branch()
			fmt.Fprintf(w, "%s%s• %s\n", prefix, br, b.Title)
		}
	}
	for child := range n.Children() {
		br, ext := branch()
		fmt.Fprintf(w, "%s%s%s (%d)\n", prefix, br, child.Name(), child.Count())
		t.renderChildren(w, child, prefix+ext, depth+1, opts)
	}
}
