// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianShelf/pkg/ux"
	"github.com/AleutianAI/AleutianShelf/services/catalog/csvrow"
	"github.com/AleutianAI/AleutianShelf/services/catalog/library"
	"github.com/AleutianAI/AleutianShelf/services/catalog/storage/snapshot"
)

// =============================================================================
// Import / Export
// =============================================================================

func (c *cli) importCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Add the books in a CSV file to the catalog",
		Long: `Reads rows of "title,author,isbn,year,category" and files each book
under its category path. An optional header line is skipped. Rows that
duplicate a book already in the catalog, and malformed rows, are reported
and skipped. With --watch the file is imported again whenever it changes
until interrupted.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.importOnce(ctx, args[0]); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			c.printer.Box("Watching "+args[0], "Changes are imported when the file is saved. Press Ctrl+C to stop.")
			return c.watchImport(ctx, args[0], nil)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-import whenever the file changes")
	return cmd
}

// importOnce imports path, reports the outcome and saves when anything was added.
func (c *cli) importOnce(ctx context.Context, path string) error {
	report, err := c.lib.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	for _, m := range report.Malformed {
		c.printer.Warning(m.Error())
	}
	if report.Duplicates > 0 {
		c.printer.Muted(fmt.Sprintf("%d duplicate rows skipped", report.Duplicates))
	}
	c.printer.Summary(report.Imported, report.Skipped(), report.Imported+report.Skipped())
	if report.Imported == 0 {
		return nil
	}
	return c.save(ctx)
}

func (c *cli) exportCmd() *cobra.Command {
	var object string
	cmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Write every book to a CSV file",
		Long: `Writes a header line and one row per book, in catalog order. The file
can be imported again. With --gcs-object the file is also uploaded to the
configured Google Cloud Storage bucket.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := c.lib.ExportFile(ctx, args[0])
			if err != nil {
				return err
			}
			c.printer.Success(fmt.Sprintf("exported %d books to %s", n, args[0]))
			if object == "" {
				return nil
			}
			return c.upload(ctx, args[0], object)
		},
	}
	cmd.Flags().StringVar(&object, "gcs-object", "", "also upload the export to this object in gcs.bucket")
	return cmd
}

func (c *cli) upload(ctx context.Context, path, object string) error {
	uploader, err := c.newUploader(ctx, c.cfg.GCS)
	if err != nil {
		return fmt.Errorf("gcs: %w", err)
	}
	defer uploader.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := uploader.Upload(ctx, f, object); err != nil {
		return err
	}
	c.log.Info("export uploaded", "object", object, "uri", uploader.URI(object))
	c.printer.Success("uploaded to " + uploader.URI(object))
	return nil
}

// =============================================================================
// Browsing
// =============================================================================

func (c *cli) listCmd() *cobra.Command {
	var books bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the category tree with book counts",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.lib.List(c.out, books)
		},
	}
	cmd.Flags().BoolVarP(&books, "books", "b", false, "include book titles")
	return cmd
}

func (c *cli) findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <keyword>",
		Short: "Search category names, titles and authors",
		Long: `Lists every category whose name contains the keyword and every book
whose title or author contains it. Matching ignores case.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.lib.Find(args[0])
			if err != nil {
				return err
			}
			if c.flags.json {
				return c.emitJSON(result)
			}
			if result.Empty() {
				c.printer.Info(fmt.Sprintf("nothing matches %q", args[0]))
				return nil
			}
			if len(result.Categories) > 0 {
				c.printer.Title("Categories")
				for _, path := range result.Categories {
					c.printer.Plain(c.categoryLine(path))
				}
			}
			if len(result.Books) > 0 {
				c.printer.Title("Books")
				c.printHits(result.Books)
			}
			return nil
		},
	}
}

func (c *cli) findAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find-all [category]",
		Short: "List every book in a category and its sub-categories",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			hits, err := c.lib.FindAll(category)
			if err != nil {
				return err
			}
			if c.flags.json {
				return c.emitJSON(hits)
			}
			if len(hits) == 0 {
				c.printer.Info("no books")
				return nil
			}
			c.printHits(hits)
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := c.lib.Stats()
			meta, err := c.store.Current(cmd.Context())
			if err != nil && !errors.Is(err, snapshot.ErrNoSnapshot) {
				return err
			}
			if c.flags.json {
				return c.emitJSON(struct {
					library.Stats
					Snapshot *snapshot.Meta `json:"snapshot,omitempty"`
				}{stats, metaOrNil(meta, err)})
			}
			pairs := [][2]string{
				{"root", c.lib.RootName()},
				{"books", fmt.Sprint(stats.Books)},
				{"categories", fmt.Sprint(stats.Categories)},
				{"depth", fmt.Sprint(stats.Depth)},
			}
			if err == nil {
				pairs = append(pairs,
					[2]string{"generation", meta.Generation},
					[2]string{"saved_at", meta.SavedAt.Local().Format("2006-01-02 15:04:05")})
			}
			c.printer.KeyValue(pairs...)
			return nil
		},
	}
}

func metaOrNil(meta snapshot.Meta, err error) *snapshot.Meta {
	if err != nil {
		return nil
	}
	return &meta
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Recount every category and check the tree structure",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.lib.Verify(); err != nil {
				return err
			}
			stats := c.lib.Stats()
			c.printer.Success(fmt.Sprintf("catalog is consistent: %d books in %d categories", stats.Books, stats.Categories))
			return nil
		},
	}
}

// =============================================================================
// Formatting
// =============================================================================

// printHits prints one line per book. Machine output is CSV rows.
func (c *cli) printHits(hits []library.BookHit) {
	for _, h := range hits {
		if c.printer.Machine() {
			c.printer.Plain(csvrow.FormatRow(hitRow(h)))
			continue
		}
		c.printer.Plain(fmt.Sprintf("  %s %s %s",
			ux.IconBullet.Render(), h.Book.String(), ux.Styles.Muted.Render("in "+c.displayPath(h.Category))))
	}
}

func (c *cli) categoryLine(path string) string {
	if c.printer.Machine() {
		return path
	}
	return fmt.Sprintf("  %s %s", ux.IconArrow.Render(), c.displayPath(path))
}

// displayPath shows the root by name instead of as "".
func (c *cli) displayPath(path string) string {
	if path == "" {
		return c.lib.RootName()
	}
	return path
}

func hitRow(h library.BookHit) csvrow.Row {
	return csvrow.Row{
		Title:    h.Book.Title,
		Author:   h.Book.Author,
		ISBN:     h.Book.ISBN,
		Year:     h.Book.Year,
		Category: h.Category,
	}
}
