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
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianShelf/services/catalog"
	"github.com/AleutianAI/AleutianShelf/services/catalog/csvrow"
	"github.com/AleutianAI/AleutianShelf/services/catalog/telemetry"
)

// =============================================================================
// Import
// =============================================================================

// ImportFile opens path and imports it. See Import.
//
// # Outputs
//
//   - error: wraps ErrFileNotAccessible when the file cannot be opened
func (l *Library) ImportFile(ctx context.Context, path string) (ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		recordOp("import", err)
		return ImportReport{}, fmt.Errorf("%w: %w", ErrFileNotAccessible, err)
	}
	defer f.Close()
	return l.Import(ctx, f)
}

// Import reads rows from r and files every acceptable book.
//
// # Description
//
// A leading header line is skipped. Rows with the wrong field count, a
// malformed year, an empty category path, or an empty title are recorded
// as malformed and skipped. Rows equal to a book already anywhere in the
// library, including one added earlier in the same import, are counted as
// duplicates and skipped. Everything else is filed under its category,
// creating the path as needed.
//
// Import stops early only on a read error or context cancellation; the
// books added up to that point stay in the library.
func (l *Library) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Library.Import")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	var rep ImportReport
	rd := csvrow.NewReader(r)
	err := func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := rd.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			var rowErr *csvrow.RowError
			if errors.As(err, &rowErr) {
				rep.Malformed = append(rep.Malformed, rowErr)
				continue
			}
			if err != nil {
				return fmt.Errorf("read after line %d: %w", rd.Line(), err)
			}

			b := catalog.NewBook(row.Title, row.Author, row.ISBN, row.Year)
			_, err = l.insertLocked(b, row.Category)
			switch {
			case err == nil:
				rep.Imported++
			case errors.Is(err, ErrDuplicateBook):
				rep.Duplicates++
				l.logger.Debug("skipping duplicate row", "line", rd.Line(), "title", row.Title)
			default:
				rep.Malformed = append(rep.Malformed, &csvrow.RowError{Line: rd.Line(), Err: err})
			}
		}
	}()

	l.observeLocked()
	l.importedRows.Add(ctx, int64(rep.Imported))
	span.SetAttributes(
		attribute.Int("shelf.import.imported", rep.Imported),
		attribute.Int("shelf.import.duplicates", rep.Duplicates),
		attribute.Int("shelf.import.malformed", len(rep.Malformed)),
	)
	recordOp("import", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return rep, err
	}

	for _, m := range rep.Malformed {
		l.logger.Debug("skipped malformed row", "line", m.Line, "error", m.Err)
	}
	l.logger.Info("import finished",
		"imported", rep.Imported,
		"duplicates", rep.Duplicates,
		"malformed", len(rep.Malformed))
	return rep, nil
}

// =============================================================================
// Export
// =============================================================================

// ExportFile writes the library to path, truncating any existing file.
func (l *Library) ExportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		recordOp("export", err)
		return 0, fmt.Errorf("%w: %w", ErrFileNotAccessible, err)
	}
	n, err := l.Export(ctx, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	return n, err
}

// Export writes the header and then one row per book in preorder, each with
// its category path relative to the root.
//
// # Outputs
//
//   - int: the number of rows written, header excluded
func (l *Library) Export(ctx context.Context, w io.Writer) (int, error) {
	_, span := telemetry.StartSpan(ctx, tracerName, "Library.Export")
	defer span.End()

	rows := l.Rows()
	cw := csvrow.NewWriter(w)
	err := cw.WriteHeader()
	for i := 0; err == nil && i < len(rows); i++ {
		err = cw.Write(rows[i])
	}
	if ferr := cw.Flush(); err == nil {
		err = ferr
	}
	recordOp("export", err)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("export: %w", err)
	}
	span.SetAttributes(attribute.Int("shelf.export.rows", len(rows)))
	return len(rows), nil
}

// =============================================================================
// Snapshot Rows
// =============================================================================

// Rows returns every book as a flat row, in export order.
func (l *Library) Rows() []csvrow.Row {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows := make([]csvrow.Row, 0, l.tree.TotalBooks())
	_ = l.tree.Walk(func(n catalog.Node) error {
		path := n.Path()
		for b := range n.Books() {
			rows = append(rows, csvrow.Row{
				Title:    b.Title,
				Author:   b.Author,
				ISBN:     b.ISBN,
				Year:     b.Year,
				Category: path,
			})
		}
		return nil
	})
	return rows
}

// CategoryPaths returns the path of every category except the root, in
// preorder with children in insertion order.
func (l *Library) CategoryPaths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	paths := make([]string, 0, l.tree.Size()-1)
	_ = l.tree.Walk(func(n catalog.Node) error {
		if !n.IsRoot() {
			paths = append(paths, n.Path())
		}
		return nil
	})
	return paths
}

// LoadRows replaces the whole library with rows under a root named rootName.
func (l *Library) LoadRows(ctx context.Context, rootName string, rows []csvrow.Row) error {
	return l.Restore(ctx, rootName, nil, rows)
}

// Restore replaces the whole library with the given categories and rows.
//
// # Description
//
// Categories are created first, in order, so empty categories and sibling
// order come back as saved; rows then file their books, creating any
// category the list did not mention. The replacement tree is built first
// and swapped in only if every category and row is accepted, so a failing
// restore leaves the library untouched.
func (l *Library) Restore(ctx context.Context, rootName string, categories []string, rows []csvrow.Row) error {
	_, span := telemetry.StartSpan(ctx, tracerName, "Library.Restore",
		trace.WithAttributes(
			attribute.Int("shelf.categories", len(categories)),
			attribute.Int("shelf.rows", len(rows))))
	defer span.End()

	fail := func(err error) error {
		telemetry.RecordError(span, err)
		recordOp("load", err)
		return err
	}

	if rootName == "" {
		rootName = catalog.DefaultRootName
	}
	next := &Library{tree: catalog.New(rootName), logger: l.logger}
	for i, path := range categories {
		norm := csvrow.NormalizePath(path)
		if norm == "" {
			return fail(fmt.Errorf("category %d: %w", i+1, ErrInvalidPath))
		}
		next.tree.CreatePath(norm)
	}
	for i, row := range rows {
		b := catalog.NewBook(row.Title, row.Author, row.ISBN, row.Year)
		if _, err := next.insertLocked(b, row.Category); err != nil {
			return fail(fmt.Errorf("row %d: %w", i+1, err))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tree = next.tree
	l.observeLocked()
	recordOp("load", nil)
	return nil
}
