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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianShelf/services/catalog"
	"github.com/AleutianAI/AleutianShelf/services/catalog/library"
)

func (c *cli) bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Show, add, edit and remove books",
	}
	cmd.AddCommand(c.bookShowCmd(), c.bookAddCmd(), c.bookEditCmd(), c.bookRemoveCmd())
	return cmd
}

func (c *cli) bookShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <title>",
		Short: "Show the first book with this exact title",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hit, err := c.lib.FindBook(args[0])
			if err != nil {
				return err
			}
			if c.flags.json {
				return c.emitJSON(hit)
			}
			c.printBook(hit)
			return nil
		},
	}
}

func (c *cli) printBook(hit library.BookHit) {
	b := hit.Book
	isbn := b.ISBN
	if isbn == "" {
		isbn = "-"
	}
	c.printer.KeyValue(
		[2]string{"title", b.Title},
		[2]string{"author", b.Author},
		[2]string{"isbn", isbn},
		[2]string{"year", fmt.Sprint(b.Year)},
		[2]string{"category", c.displayPath(hit.Category)},
	)
}

func (c *cli) bookAddCmd() *cobra.Command {
	var b catalog.Book
	cmd := &cobra.Command{
		Use:   "add <category> <title>",
		Short: "File a new book under a category path",
		Long: `Files a book under the category path, creating missing categories.
The book is rejected if an equal book is already anywhere in the catalog:
books with ISBNs are equal when the ISBNs match, otherwise when title,
author and year all match.`,
		Example: `  shelf book add "Science/Physics" "Relativity" --author Einstein --year 1916`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b.Title = args[1]
			hit, err := c.lib.AddBook(cmd.Context(), b, args[0])
			if err != nil {
				return err
			}
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			c.printer.Success(fmt.Sprintf("filed %q under %s", hit.Book.Title, c.displayPath(hit.Category)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&b.Author, "author", "", "author")
	f.StringVar(&b.ISBN, "isbn", "", "ISBN")
	f.IntVar(&b.Year, "year", 0, "publication year, negative for BCE")
	return cmd
}

func (c *cli) bookEditCmd() *cobra.Command {
	var title, author, isbn string
	var year int
	cmd := &cobra.Command{
		Use:   "edit <title>",
		Short: "Change fields of the first book with this exact title",
		Long: `Changes the given fields in place. If the result is invalid or equal to
another book in the catalog, the book keeps its previous values.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit library.BookEdit
			flags := cmd.Flags()
			if flags.Changed("title") {
				edit.Title = &title
			}
			if flags.Changed("author") {
				edit.Author = &author
			}
			if flags.Changed("isbn") {
				edit.ISBN = &isbn
			}
			if flags.Changed("year") {
				edit.Year = &year
			}
			if edit.Empty() {
				return ErrNothingToEdit
			}
			hit, err := c.lib.EditBook(args[0], edit)
			if err != nil {
				return err
			}
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			c.printer.Success(fmt.Sprintf("updated %q", hit.Book.Title))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&author, "author", "", "new author")
	f.StringVar(&isbn, "isbn", "", "new ISBN, empty to clear")
	f.IntVar(&year, "year", 0, "new publication year")
	return cmd
}

func (c *cli) bookRemoveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove <title>",
		Aliases: []string{"rm"},
		Short:   "Remove the first book with this exact title",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			hit, err := c.lib.FindBook(args[0])
			if err != nil {
				return err
			}
			question := fmt.Sprintf("Remove %s from %s?", hit.Book.String(), c.displayPath(hit.Category))
			if err := c.confirm(ctx, question, yes); err != nil {
				return err
			}
			if err := c.lib.RemoveBook(args[0]); err != nil {
				return err
			}
			if err := c.save(ctx); err != nil {
				return err
			}
			c.printer.Success(fmt.Sprintf("removed %q", args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
