// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package library is the catalog-management layer over a category tree.
//
// Library owns one catalog.Tree and adds the policies the tree itself does
// not enforce:
//
//   - library-wide duplicate detection before a book is filed
//   - category path normalization (segments trimmed, empty segments dropped)
//   - edit-with-revert for book fields
//   - CSV import and export of flat rows
//
// Every operation returns values and errors; nothing is printed. Rendering
// and prompting belong to the caller.
//
// # Thread Safety
//
// Library is safe for concurrent use. Reads share a sync.RWMutex; every
// mutation takes it exclusively.
package library

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianShelf/pkg/dynarray"
	"github.com/AleutianAI/AleutianShelf/pkg/logging"
	"github.com/AleutianAI/AleutianShelf/services/catalog"
	"github.com/AleutianAI/AleutianShelf/services/catalog/csvrow"
	"github.com/AleutianAI/AleutianShelf/services/catalog/telemetry"
)

const (
	tracerName = "shelf.library"
	meterName  = "shelf.library"
)

// Options configures a Library.
type Options struct {
	// Logger receives operational logs. Nil discards them.
	Logger *logging.Logger
}

// Library is a catalog of books filed under a category tree.
type Library struct {
	mu     sync.RWMutex
	tree   *catalog.Tree
	logger *logging.Logger

	importedRows metric.Int64Counter
}

// New creates an empty library whose root category is rootName.
// An empty rootName selects catalog.DefaultRootName.
func New(rootName string, opts Options) *Library {
	if rootName == "" {
		rootName = catalog.DefaultRootName
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	counter, err := otel.Meter(meterName).Int64Counter(
		"shelf.library.imported_rows",
		metric.WithDescription("Rows added to the library by import"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		logger.Warn("imported rows counter unavailable", "error", err)
		counter = noop.Int64Counter{}
	}

	l := &Library{
		tree:         catalog.New(rootName),
		logger:       logger,
		importedRows: counter,
	}
	l.observeLocked()
	return l
}

// RootName returns the label of the root category.
func (l *Library) RootName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Root().Name()
}

// =============================================================================
// Books
// =============================================================================

// AddBook files a copy of b under category, creating the path as needed.
//
// # Description
//
// Checks run in order: field validation, path normalization, then the
// library-wide duplicate check. Only then is the path created and the book
// handed to the category, which applies its own local duplicate check.
//
// # Outputs
//
//   - BookHit: the stored book and its normalized category path
//   - error: catalog.ErrInvalidRecord, ErrInvalidPath, or ErrDuplicateBook
func (l *Library) AddBook(ctx context.Context, b catalog.Book, category string) (BookHit, error) {
	_, span := telemetry.StartSpan(ctx, tracerName, "Library.AddBook",
		trace.WithAttributes(attribute.String("shelf.category", category)))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	stored := b.Clone()
	n, err := l.insertLocked(stored, category)
	recordOp("add_book", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return BookHit{}, err
	}
	l.observeLocked()
	l.logger.Info("book added", "title", stored.Title, "category", n.Path())
	return BookHit{Book: *stored, Category: n.Path()}, nil
}

// insertLocked applies the add-book checks and files b. The caller holds mu.
func (l *Library) insertLocked(b *catalog.Book, category string) (catalog.Node, error) {
	trimBook(b)
	if err := b.Validate(); err != nil {
		return catalog.Node{}, err
	}
	path := csvrow.NormalizePath(category)
	if path == "" {
		return catalog.Node{}, ErrInvalidPath
	}
	if l.tree.ContainsBook(b, nil) {
		return catalog.Node{}, ErrDuplicateBook
	}
	n := l.tree.CreatePath(path)
	if err := n.AddBook(b); err != nil {
		return catalog.Node{}, err
	}
	return n, nil
}

// trimBook strips the blanks the row codec drops on read, so a stored book
// comes back from an export or snapshot with the same fields.
func trimBook(b *catalog.Book) {
	b.Title = csvrow.Trim(b.Title)
	b.Author = csvrow.Trim(b.Author)
	b.ISBN = csvrow.Trim(b.ISBN)
}

// FindBook returns the first book, in preorder, with the given title.
// Blanks around title are ignored, as they are when books are stored.
func (l *Library) FindBook(title string) (BookHit, error) {
	title = csvrow.Trim(title)
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, where, ok := l.tree.FindBook(func(b *catalog.Book) bool { return b.Title == title })
	if !ok {
		return BookHit{}, fmt.Errorf("%w: %q", ErrBookNotFound, title)
	}
	return BookHit{Book: *b, Category: where.Path()}, nil
}

// EditBook changes the fields of the first book titled title.
//
// # Description
//
// The non-nil fields of edit are applied to the stored book. If the result
// fails validation, or equals another book anywhere in the library, every
// field is restored and the error is returned.
//
// # Outputs
//
//   - BookHit: the book as stored after the call
//   - error: ErrBookNotFound, catalog.ErrInvalidRecord, or ErrDuplicateBook
func (l *Library) EditBook(title string, edit BookEdit) (BookHit, error) {
	title = csvrow.Trim(title)
	l.mu.Lock()
	defer l.mu.Unlock()

	b, where, ok := l.tree.FindBook(func(b *catalog.Book) bool { return b.Title == title })
	if !ok {
		err := fmt.Errorf("%w: %q", ErrBookNotFound, title)
		recordOp("edit_book", err)
		return BookHit{}, err
	}

	old := *b
	if edit.Title != nil {
		b.Title = *edit.Title
	}
	if edit.Author != nil {
		b.Author = *edit.Author
	}
	if edit.ISBN != nil {
		b.ISBN = *edit.ISBN
	}
	if edit.Year != nil {
		b.Year = *edit.Year
	}
	trimBook(b)

	var err error
	if verr := b.Validate(); verr != nil {
		err = verr
	} else if l.tree.ContainsBook(b, b) {
		err = ErrDuplicateBook
	}
	recordOp("edit_book", err)
	if err != nil {
		*b = old
		l.logger.Info("book edit reverted", "title", title, "error", err)
		return BookHit{Book: *b, Category: where.Path()}, err
	}

	l.logger.Info("book edited", "title", title, "new_title", b.Title)
	return BookHit{Book: *b, Category: where.Path()}, nil
}

// RemoveBook removes the first book, in preorder, with the given title.
func (l *Library) RemoveBook(title string) error {
	title = csvrow.Trim(title)
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if !l.tree.RemoveBookByTitle(title) {
		err = fmt.Errorf("%w: %q", ErrBookNotFound, title)
	}
	recordOp("remove_book", err)
	if err != nil {
		return err
	}
	l.observeLocked()
	l.logger.Info("book removed", "title", title)
	return nil
}

// =============================================================================
// Search
// =============================================================================

// Find matches keyword against category names and book titles and authors.
//
// Matching is a case-insensitive substring test. The root category is not
// a candidate. An empty or blank keyword returns ErrEmptyKeyword.
func (l *Library) Find(keyword string) (SearchResult, error) {
	kw := strings.ToLower(csvrow.Trim(keyword))
	if kw == "" {
		return SearchResult{}, ErrEmptyKeyword
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var res SearchResult
	_ = l.tree.Walk(func(n catalog.Node) error {
		if !n.IsRoot() && strings.Contains(strings.ToLower(n.Name()), kw) {
			res.Categories = append(res.Categories, n.Path())
		}
		for b := range n.Books() {
			if strings.Contains(strings.ToLower(b.Title), kw) ||
				strings.Contains(strings.ToLower(b.Author), kw) {
				res.Books = append(res.Books, BookHit{Book: *b, Category: n.Path()})
			}
		}
		return nil
	})
	return res, nil
}

// FindAll returns every book under category and its descendants, in
// preorder. An empty category lists the whole library.
func (l *Library) FindAll(category string) ([]BookHit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start, err := l.resolveLocked(category)
	if err != nil {
		return nil, err
	}

	var hits []BookHit
	_ = start.Walk(func(n catalog.Node) error {
		for b := range n.Books() {
			hits = append(hits, BookHit{Book: *b, Category: n.Path()})
		}
		return nil
	})
	return hits, nil
}

// List renders the category tree to w, with book titles when withBooks is set.
func (l *Library) List(w io.Writer, withBooks bool) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Render(w, catalog.RenderOptions{Books: withBooks})
}

// =============================================================================
// Categories
// =============================================================================

// FindCategory describes the category at path. An empty path is the root.
func (l *Library) FindCategory(path string) (CategoryInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n, err := l.resolveLocked(path)
	if err != nil {
		return CategoryInfo{}, err
	}
	info := CategoryInfo{Path: n.Path(), Name: n.Name(), Count: n.Count()}
	for b := range n.Books() {
		info.Books = append(info.Books, *b)
	}
	for c := range n.Children() {
		info.Children = append(info.Children, c.Name())
	}
	return info, nil
}

// AddCategory ensures the category path exists and returns its normalized form.
func (l *Library) AddCategory(path string) (string, error) {
	norm := csvrow.NormalizePath(path)
	if norm == "" {
		recordOp("add_category", ErrInvalidPath)
		return "", ErrInvalidPath
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	before := l.tree.Size()
	l.tree.CreatePath(norm)
	recordOp("add_category", nil)
	l.observeLocked()
	if l.tree.Size() > before {
		l.logger.Info("category added", "path", norm, "created", l.tree.Size()-before)
	}
	return norm, nil
}

// RenameCategory relabels the category at path. An empty path renames the root.
//
// # Outputs
//
//   - error: ErrCategoryNotFound, catalog.ErrInvalidName, or
//     catalog.ErrDuplicateCategory
func (l *Library) RenameCategory(path, newName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.resolveLocked(path)
	if err == nil {
		err = n.Rename(csvrow.Trim(newName))
	}
	recordOp("rename_category", err)
	if err != nil {
		return err
	}
	l.logger.Info("category renamed", "path", csvrow.NormalizePath(path), "name", n.Name())
	return nil
}

// RemoveCategory removes the category at path with everything under it.
//
// # Outputs
//
//   - int: the number of books removed
//   - error: catalog.ErrRootRemoval for an empty path, or ErrCategoryNotFound
func (l *Library) RemoveCategory(path string) (int, error) {
	norm := csvrow.NormalizePath(path)
	if norm == "" {
		recordOp("remove_category", catalog.ErrRootRemoval)
		return 0, catalog.ErrRootRemoval
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.resolveLocked(norm)
	if err != nil {
		recordOp("remove_category", err)
		return 0, err
	}

	doomed := dynarray.New[*catalog.Book]()
	n.Collect(doomed)
	for _, b := range doomed.All() {
		l.logger.Debug("dropping book with category", "title", b.Title, "path", norm)
	}

	err = l.tree.RemoveByPath(norm)
	recordOp("remove_category", err)
	if err != nil {
		return 0, err
	}
	l.observeLocked()
	l.logger.Info("category removed", "path", norm, "books", doomed.Len())
	return doomed.Len(), nil
}

// resolveLocked normalizes path and resolves it; "" is the root.
func (l *Library) resolveLocked(path string) (catalog.Node, error) {
	norm := csvrow.NormalizePath(path)
	n, ok := l.tree.Resolve(norm)
	if !ok {
		return catalog.Node{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, norm)
	}
	return n, nil
}

// =============================================================================
// Inspection
// =============================================================================

// Stats returns book and category totals and the maximum category depth.
func (l *Library) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := Stats{Books: l.tree.TotalBooks(), Categories: l.tree.Size() - 1}
	_ = l.tree.Walk(func(n catalog.Node) error {
		if d := len(catalog.SplitPath(n.Path())); d > st.Depth {
			st.Depth = d
		}
		return nil
	})
	return st
}

// Verify checks the aggregate counts of the tree against a full recount.
func (l *Library) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Verify()
}

// observeLocked publishes the current totals to the gauges.
func (l *Library) observeLocked() {
	booksGauge.Set(float64(l.tree.TotalBooks()))
	categoriesGauge.Set(float64(l.tree.Size() - 1))
}
