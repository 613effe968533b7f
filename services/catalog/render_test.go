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
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	tr := New("Library")
	require.NoError(t, tr.CreatePath("Science/Physics").AddBook(NewBook("T1", "A1", "", 1905)))
	tr.CreatePath("Fiction")
	return tr
}

func TestRender(t *testing.T) {
	tr := sampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf, RenderOptions{}))
	assert.Equal(t, "Library (1)\n"+
		"├── Science (1)\n"+
		"│   └── Physics (1)\n"+
		"└── Fiction (0)\n", buf.String())
}

func TestRender_WithBooks(t *testing.T) {
	tr := sampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf, RenderOptions{Books: true}))
	assert.Equal(t, "Library (1)\n"+
		"├── Science (1)\n"+
		"│   └── Physics (1)\n"+
		"│       └── • T1\n"+
		"└── Fiction (0)\n", buf.String())
}

func TestRender_MaxDepth(t *testing.T) {
	tr := sampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf, RenderOptions{MaxDepth: 1}))
	assert.Equal(t, "Library (1)\n"+
		"├── Science (1)\n"+
		"└── Fiction (0)\n", buf.String())
}

func TestVerify_DetectsCountMismatch(t *testing.T) {
	tr := sampleTree(t)
	require.NoError(t, tr.Verify())

	phys, _ := tr.Resolve("Science/Physics")
	tr.lookup(phys.ID()).count = 5

	err := tr.Verify()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCountMismatch))

	var cm *CountMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, "Science/Physics", cm.Path)
	assert.Equal(t, uint(5), cm.Stored)
	assert.Equal(t, uint(1), cm.Actual)
}

func TestVerify_DetectsDuplicateSibling(t *testing.T) {
	tr := sampleTree(t)
	fic, _ := tr.Resolve("Fiction")
	tr.lookup(fic.ID()).name = "Science"

	assert.ErrorIs(t, tr.Verify(), ErrCorruptTree)
}
