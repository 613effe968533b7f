// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package library

import (
	"github.com/AleutianAI/AleutianShelf/services/catalog"
	"github.com/AleutianAI/AleutianShelf/services/catalog/csvrow"
)

// ImportReport summarizes one import.
type ImportReport struct {
	// Imported is the number of books added.
	Imported int `json:"imported"`

	// Duplicates counts rows skipped because an equal book was already
	// somewhere in the library.
	Duplicates int `json:"duplicates"`

	// Malformed holds one entry per rejected line.
	Malformed []*csvrow.RowError `json:"-"`
}

// Skipped returns the number of rows that were not imported.
func (r ImportReport) Skipped() int {
	return r.Duplicates + len(r.Malformed)
}

// BookHit is a book together with the path of its category.
type BookHit struct {
	Book     catalog.Book `json:"book"`
	Category string       `json:"category"`
}

// SearchResult holds keyword matches.
type SearchResult struct {
	// Categories are the paths of matching categories, in preorder.
	Categories []string `json:"categories"`

	// Books are the matching books, in preorder.
	Books []BookHit `json:"books"`
}

// Empty reports whether nothing matched.
func (r SearchResult) Empty() bool {
	return len(r.Categories) == 0 && len(r.Books) == 0
}

// CategoryInfo describes one category.
type CategoryInfo struct {
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Count    uint           `json:"count"`
	Books    []catalog.Book `json:"books"`
	Children []string       `json:"children"`
}

// BookEdit lists the fields to change. Nil fields keep their current value.
type BookEdit struct {
	Title  *string
	Author *string
	ISBN   *string
	Year   *int
}

// Empty reports whether the edit changes nothing.
func (e BookEdit) Empty() bool {
	return e.Title == nil && e.Author == nil && e.ISBN == nil && e.Year == nil
}

// Stats summarizes the library.
type Stats struct {
	Books      uint `json:"books"`
	Categories int  `json:"categories"`
	Depth      int  `json:"depth"`
}
