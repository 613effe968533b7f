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
)

// Sentinel errors for catalog operations.
var (
	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Mutation errors
	ErrDuplicateRecord   = errors.New("an equal book is already filed in this category")
	ErrDuplicateCategory = errors.New("a sibling category with this name already exists")
	ErrRootRemoval       = errors.New("the root category cannot be removed")
	ErrInvalidName       = errors.New("category name must be non-empty and must not contain '/'")
	ErrInvalidRecord     = errors.New("invalid book")

	// Handle errors
	ErrStaleNode = errors.New("node handle refers to a removed category")

	// Invariant errors
	ErrCountMismatch = errors.New("aggregate count does not match subtree contents")
	ErrCorruptTree   = errors.New("tree structure is inconsistent")
)

// CountMismatchError reports a node whose stored aggregate differs from the
// recomputed one.
type CountMismatchError struct {
	Path   string
	Stored uint
	Actual uint
}

// Error implements the error interface.
func (e *CountMismatchError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("category %s: stored count %d, actual %d", path, e.Stored, e.Actual)
}

// Unwrap returns the sentinel error.
func (e *CountMismatchError) Unwrap() error {
	return ErrCountMismatch
}

// must panics on container errors that can only come from a bug in this
// package, since every index passed to the arrays here is derived from the
// arrays themselves.
func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("catalog: internal invariant violated: %v", err))
	}
}
