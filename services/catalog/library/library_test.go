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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianShelf/pkg/logging"
	"github.com/AleutianAI/AleutianShelf/services/catalog"
	"github.com/AleutianAI/AleutianShelf/services/catalog/csvrow"
	shelfbadger "github.com/AleutianAI/AleutianShelf/services/catalog/storage/badger"
	"github.com/AleutianAI/AleutianShelf/services/catalog/storage/snapshot"
)

const sampleCSV = `Title,Author,ISBN,Publication Year,Category
Introduction to Algorithms,Cormen,978-0262033848,2009,Computer Science/Algorithms
"Gödel, Escher, Bach",Hofstadter,978-0465026562,1979, Science // Mathematics
The Republic,Plato,,-375,Philosophy
Intro Algorithms Reprint,Someone,978-0262033848,2010,Computer Science
not,enough,fields
Bad Year,X,,MCM,History
No Category,X,,1900, /
,No Title,,1900,History
The Republic,Plato,,-375,Classics
`

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib := New("Library", Options{})
	rep, err := lib.Import(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 3, rep.Imported)
	return lib
}

// =============================================================================
// Import / Export Tests
// =============================================================================

func TestImport_Report(t *testing.T) {
	buf := logging.NewBufferedExporter()
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Quiet: true, Exporter: buf})
	lib := New("Library", Options{Logger: logger})

	rep, err := lib.Import(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Imported)
	assert.Equal(t, 2, rep.Duplicates, "same ISBN and same title/author/year are both duplicates")
	require.Len(t, rep.Malformed, 4)

	lines := make([]int, 0, len(rep.Malformed))
	for _, m := range rep.Malformed {
		lines = append(lines, m.Line)
	}
	assert.Equal(t, []int{6, 7, 8, 9}, lines)
	assert.ErrorIs(t, rep.Malformed[0], csvrow.ErrFieldCount)
	assert.ErrorIs(t, rep.Malformed[1], csvrow.ErrMalformedYear)
	assert.ErrorIs(t, rep.Malformed[2], csvrow.ErrEmptyCategory)
	assert.ErrorIs(t, rep.Malformed[3], catalog.ErrInvalidRecord)
	assert.Equal(t, 6, rep.Skipped())

	hit, err := lib.FindBook("Gödel, Escher, Bach")
	require.NoError(t, err)
	assert.Equal(t, "Science/Mathematics", hit.Category)

	require.NoError(t, logger.Close())
	var sawSummary bool
	for _, e := range buf.Entries() {
		if e.Message == "import finished" {
			sawSummary = true
			assert.EqualValues(t, 3, e.Attrs["imported"])
		}
	}
	assert.True(t, sawSummary)
}

func TestImport_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lib := New("", Options{})
	_, err := lib.Import(ctx, strings.NewReader(sampleCSV))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, catalog.DefaultRootName, lib.RootName())
}

func TestImportFile_NotAccessible(t *testing.T) {
	lib := New("Library", Options{})
	_, err := lib.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrFileNotAccessible)
}

func TestExport_RoundTrip(t *testing.T) {
	lib := newTestLibrary(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	n, err := lib.ExportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, csvrow.Header, lines[0])
	assert.Equal(t, "Introduction to Algorithms,Cormen,978-0262033848,2009,Computer Science/Algorithms", lines[1])
	assert.Equal(t, `"Gödel, Escher, Bach",Hofstadter,978-0465026562,1979,Science/Mathematics`, lines[2])

	again := New("Library", Options{})
	rep, err := again.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Imported)
	assert.Equal(t, lib.Rows(), again.Rows())
}

func TestExport_SpecialCharactersRoundTrip(t *testing.T) {
	ctx := context.Background()
	lib := New("Library", Options{})
	books := []catalog.Book{
		{Title: `The "Republic", Book I`, Author: "Plato", Year: -375},
		{Title: "Gödel, Escher, Bach", Author: "Hofstadter", ISBN: "978-0465026562", Year: 1979},
		{Title: "Tab\tInside", Author: `O"Brien`, Year: 2001},
		{Title: "Ünïcödé", Author: "Ω", Year: 0},
	}
	for _, b := range books {
		_, err := lib.AddBook(ctx, b, "Mixed/Special, Chars")
		require.NoError(t, err, b.Title)
	}
	_, err := lib.AddBook(ctx, catalog.Book{Title: "Line one\nLine two", Author: "X"}, "Mixed")
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

	var buf bytes.Buffer
	n, err := lib.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, len(books), n)

	again := New("Library", Options{})
	rep, err := again.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Empty(t, rep.Malformed)
	assert.Equal(t, len(books), rep.Imported)
	assert.Equal(t, lib.Rows(), again.Rows())
}

func TestSnapshotRoundTrip_PaddedFields(t *testing.T) {
	ctx := context.Background()
	db, err := shelfbadger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := snapshot.New(db, nil)

	lib := New("Library", Options{})
	_, err = lib.AddBook(ctx, catalog.Book{Title: "Dune", Author: "Herbert", Year: 1965}, "Fiction")
	require.NoError(t, err)
	_, err = lib.AddBook(ctx, catalog.Book{Title: "Dune ", Author: " Herbert", Year: 1965}, "Fiction")
	assert.ErrorIs(t, err, ErrDuplicateBook)
	_, err = lib.AddBook(ctx, catalog.Book{Title: " X", Author: "A\t", ISBN: " 123 ", Year: 1}, "Fiction")
	require.NoError(t, err)

	_, err = store.Save(ctx, lib.RootName(), lib.CategoryPaths(), lib.Rows())
	require.NoError(t, err)
	snap, err := store.Load(ctx)
	require.NoError(t, err)

	restored := New("Other", Options{})
	require.NoError(t, restored.Restore(ctx, snap.Meta.RootName, snap.Categories, snap.Rows))
	assert.Equal(t, lib.Rows(), restored.Rows())
	require.NoError(t, restored.Verify())

	hit, err := restored.FindBook(" X")
	require.NoError(t, err)
	assert.Equal(t, catalog.Book{Title: "X", Author: "A", ISBN: "123", Year: 1}, hit.Book)
	require.NoError(t, restored.RemoveBook(" X"))
	assert.Equal(t, uint(1), restored.Stats().Books)
}

func TestLoadRows(t *testing.T) {
	src := newTestLibrary(t)
	rows := src.Rows()

	dst := New("Other", Options{})
	require.NoError(t, dst.LoadRows(context.Background(), "Library", rows))
	assert.Equal(t, "Library", dst.RootName())
	assert.Equal(t, rows, dst.Rows())
	require.NoError(t, dst.Verify())

	bad := append(append([]csvrow.Row{}, rows...), rows[0])
	err := dst.LoadRows(context.Background(), "Broken", bad)
	assert.ErrorIs(t, err, ErrDuplicateBook)
	assert.Equal(t, "Library", dst.RootName(), "failed load leaves the library untouched")
	assert.Equal(t, rows, dst.Rows())
}

func TestRestore_KeepsEmptyCategoriesAndOrder(t *testing.T) {
	ctx := context.Background()
	src := newTestLibrary(t)
	_, err := src.AddCategory("Art/Sculpture")
	require.NoError(t, err)
	_, err = src.AddCategory("Computer Science/Theory")
	require.NoError(t, err)

	dst := New("Other", Options{})
	require.NoError(t, dst.Restore(ctx, src.RootName(), src.CategoryPaths(), src.Rows()))
	assert.Equal(t, src.CategoryPaths(), dst.CategoryPaths())
	assert.Equal(t, src.Rows(), dst.Rows())
	assert.Equal(t, src.Stats(), dst.Stats())

	var want, got bytes.Buffer
	require.NoError(t, src.List(&want, true))
	require.NoError(t, dst.List(&got, true))
	assert.Equal(t, want.String(), got.String())

	err = dst.Restore(ctx, "Broken", []string{"ok", " / "}, nil)
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Equal(t, src.RootName(), dst.RootName())
}

// =============================================================================
// Book Tests
// =============================================================================

func TestAddBook(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	hit, err := lib.AddBook(ctx, catalog.Book{Title: "Dune", Author: "Herbert", Year: 1965}, " Fiction // Sci-Fi ")
	require.NoError(t, err)
	assert.Equal(t, "Fiction/Sci-Fi", hit.Category)

	_, err = lib.AddBook(ctx, catalog.Book{Title: "Dune", Author: "Herbert", Year: 1965}, "Elsewhere")
	assert.ErrorIs(t, err, ErrDuplicateBook, "duplicates are detected library-wide")

	_, err = lib.AddBook(ctx, catalog.Book{Title: "X"}, "//")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = lib.AddBook(ctx, catalog.Book{Author: "Nobody"}, "A")
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

	assert.Equal(t, uint(4), lib.Stats().Books)
	assert.Equal(t, float64(4), testutil.ToFloat64(booksGauge))
}

func TestAddBook_TrimsFields(t *testing.T) {
	lib := New("Library", Options{})
	hit, err := lib.AddBook(context.Background(),
		catalog.Book{Title: "  Dune\t", Author: " Herbert ", ISBN: "\t978-0441013593 ", Year: 1965}, "Fiction")
	require.NoError(t, err)
	assert.Equal(t, catalog.Book{Title: "Dune", Author: "Herbert", ISBN: "978-0441013593", Year: 1965}, hit.Book)

	_, err = lib.AddBook(context.Background(), catalog.Book{Title: "   ", Author: "A"}, "Fiction")
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord, "a blank title is empty once trimmed")

	got, err := lib.FindBook("Dune ")
	require.NoError(t, err)
	assert.Equal(t, hit.Book, got.Book)
}

func TestAddBook_StoresCopy(t *testing.T) {
	lib := New("Library", Options{})
	b := catalog.Book{Title: "T", Author: "A"}
	_, err := lib.AddBook(context.Background(), b, "C")
	require.NoError(t, err)

	b.Title = "mutated"
	_, err = lib.FindBook("T")
	assert.NoError(t, err)
}

func TestEditBook(t *testing.T) {
	str := func(s string) *string { return &s }
	year := func(y int) *int { return &y }

	t.Run("applies fields", func(t *testing.T) {
		lib := newTestLibrary(t)
		hit, err := lib.EditBook("The Republic", BookEdit{Title: str("Republic"), Year: year(-380)})
		require.NoError(t, err)
		assert.Equal(t, "Republic", hit.Book.Title)
		assert.Equal(t, -380, hit.Book.Year)
		assert.Equal(t, "Plato", hit.Book.Author)
		assert.Equal(t, "Philosophy", hit.Category)

		_, err = lib.FindBook("The Republic")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("reverts on duplicate", func(t *testing.T) {
		lib := newTestLibrary(t)
		hit, err := lib.EditBook("The Republic", BookEdit{ISBN: str("978-0262033848")})
		assert.ErrorIs(t, err, ErrDuplicateBook)
		assert.Equal(t, "", hit.Book.ISBN)

		got, err := lib.FindBook("The Republic")
		require.NoError(t, err)
		assert.Equal(t, "", got.Book.ISBN)
	})

	t.Run("reverts on invalid record", func(t *testing.T) {
		lib := newTestLibrary(t)
		_, err := lib.EditBook("The Republic", BookEdit{Title: str(""), Author: str("Someone")})
		assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

		got, err := lib.FindBook("The Republic")
		require.NoError(t, err)
		assert.Equal(t, "Plato", got.Book.Author)
	})

	t.Run("trims edited fields", func(t *testing.T) {
		lib := newTestLibrary(t)
		hit, err := lib.EditBook(" The Republic ", BookEdit{Title: str(" Republic "), Author: str("Plato\t")})
		require.NoError(t, err)
		assert.Equal(t, "Republic", hit.Book.Title)
		assert.Equal(t, "Plato", hit.Book.Author)

		_, err = lib.EditBook("Republic", BookEdit{Title: str("Two\nLines")})
		assert.ErrorIs(t, err, catalog.ErrInvalidRecord)
		got, err := lib.FindBook("Republic")
		require.NoError(t, err)
		assert.Equal(t, "Republic", got.Book.Title)
	})

	t.Run("unknown title", func(t *testing.T) {
		lib := newTestLibrary(t)
		_, err := lib.EditBook("Nope", BookEdit{})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}

func TestRemoveBook(t *testing.T) {
	lib := newTestLibrary(t)
	require.NoError(t, lib.RemoveBook("The Republic"))
	assert.ErrorIs(t, lib.RemoveBook("The Republic"), ErrBookNotFound)
	assert.Equal(t, uint(2), lib.Stats().Books)

	info, err := lib.FindCategory("Philosophy")
	require.NoError(t, err)
	assert.Equal(t, uint(0), info.Count, "the category outlives its last book")
}

// =============================================================================
// Search Tests
// =============================================================================

func TestFind(t *testing.T) {
	lib := newTestLibrary(t)

	res, err := lib.Find("  ALGO ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Computer Science/Algorithms"}, res.Categories)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "Introduction to Algorithms", res.Books[0].Book.Title)

	res, err = lib.Find("plato")
	require.NoError(t, err)
	assert.Empty(t, res.Categories)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "Philosophy", res.Books[0].Category)

	res, err = lib.Find("library")
	require.NoError(t, err)
	assert.True(t, res.Empty(), "the root is never a match")

	_, err = lib.Find(" \t")
	assert.ErrorIs(t, err, ErrEmptyKeyword)
}

func TestFindAll(t *testing.T) {
	lib := newTestLibrary(t)

	all, err := lib.FindAll("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Introduction to Algorithms", all[0].Book.Title)

	cs, err := lib.FindAll(" Computer Science ")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Computer Science/Algorithms", cs[0].Category)

	_, err = lib.FindAll("Nope")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestList(t *testing.T) {
	lib := newTestLibrary(t)
	var buf bytes.Buffer
	require.NoError(t, lib.List(&buf, false))
	assert.Equal(t, "Library (3)\n"+
		"├── Computer Science (1)\n"+
		"│   └── Algorithms (1)\n"+
		"├── Science (1)\n"+
		"│   └── Mathematics (1)\n"+
		"└── Philosophy (1)\n", buf.String())
}

// =============================================================================
// Category Tests
// =============================================================================

func TestCategories(t *testing.T) {
	lib := newTestLibrary(t)

	path, err := lib.AddCategory(" Arts / Music ")
	require.NoError(t, err)
	assert.Equal(t, "Arts/Music", path)
	_, err = lib.AddCategory("/")
	assert.ErrorIs(t, err, ErrInvalidPath)

	info, err := lib.FindCategory("Computer Science")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", info.Name)
	assert.Equal(t, uint(1), info.Count)
	assert.Equal(t, []string{"Algorithms"}, info.Children)
	assert.Empty(t, info.Books)

	root, err := lib.FindCategory("")
	require.NoError(t, err)
	assert.Equal(t, "Library", root.Name)
	assert.Equal(t, uint(3), root.Count)

	require.NoError(t, lib.RenameCategory("Computer Science", "CS"))
	hit, err := lib.FindBook("Introduction to Algorithms")
	require.NoError(t, err)
	assert.Equal(t, "CS/Algorithms", hit.Category)
	assert.ErrorIs(t, lib.RenameCategory("CS", "Science"), catalog.ErrDuplicateCategory)
	assert.ErrorIs(t, lib.RenameCategory("CS", "a/b"), catalog.ErrInvalidName)
	assert.ErrorIs(t, lib.RenameCategory("Nope", "X"), ErrCategoryNotFound)
	require.NoError(t, lib.RenameCategory("", "Catalog"))
	assert.Equal(t, "Catalog", lib.RootName())

	removed, err := lib.RemoveCategory("CS")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = lib.RemoveCategory("CS")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	_, err = lib.RemoveCategory(" / ")
	assert.ErrorIs(t, err, catalog.ErrRootRemoval)

	assert.Equal(t, Stats{Books: 2, Categories: 5, Depth: 2}, lib.Stats())
	assert.Equal(t, float64(5), testutil.ToFloat64(categoriesGauge))
	require.NoError(t, lib.Verify())
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := lib.AddBook(ctx, catalog.Book{Title: fmt.Sprintf("W%d-%d", w, i)}, fmt.Sprintf("Bulk/%d", i%5))
				assert.NoError(t, err)
			}
		}(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = lib.Find("w")
				_ = lib.Stats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint(3+4*50), lib.Stats().Books)
	require.NoError(t, lib.Verify())
}
