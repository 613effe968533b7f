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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianShelf/pkg/ux"
	"github.com/AleutianAI/AleutianShelf/services/catalog"
)

// shellAction is one entry of the interactive menu.
type shellAction struct {
	label string
	run   func(ctx context.Context, p ux.Prompter) error
}

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Browse and edit the catalog from a menu",
		Long: `Opens a menu loop. On a terminal the menu uses interactive forms;
otherwise it reads numbered choices and answers one per line from stdin.
Every change is saved immediately.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShell(cmd.Context(), c.prompter())
		},
	}
}

func (c *cli) shellActions() []shellAction {
	return []shellAction{
		{"List categories", func(ctx context.Context, p ux.Prompter) error {
			return c.lib.List(c.out, false)
		}},
		{"List categories and books", func(ctx context.Context, p ux.Prompter) error {
			return c.lib.List(c.out, true)
		}},
		{"Find", c.shellFind},
		{"Show book", c.shellShowBook},
		{"Add book", c.shellAddBook},
		{"Remove book", c.shellRemoveBook},
		{"Add category", c.shellAddCategory},
		{"Remove category", c.shellRemoveCategory},
		{"Statistics", func(ctx context.Context, p ux.Prompter) error {
			s := c.lib.Stats()
			c.printer.KeyValue(
				[2]string{"books", fmt.Sprint(s.Books)},
				[2]string{"categories", fmt.Sprint(s.Categories)},
				[2]string{"depth", fmt.Sprint(s.Depth)},
			)
			return nil
		}},
	}
}

// runShell loops over the menu until Quit, end of input, or an abort.
// Errors from a single action are printed and the loop continues.
func (c *cli) runShell(ctx context.Context, p ux.Prompter) error {
	actions := c.shellActions()
	labels := make([]string, 0, len(actions)+1)
	for _, a := range actions {
		labels = append(labels, a.label)
	}
	labels = append(labels, "Quit")

	c.printer.Title(fmt.Sprintf("Shelf: %s", c.lib.RootName()))
	for {
		choice, err := p.Choose(ctx, "What would you like to do?", labels)
		if isShellExit(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == len(actions) {
			return nil
		}
		err = actions[choice].run(ctx, p)
		switch {
		case isShellExit(err):
			return nil
		case errors.Is(err, ErrCancelled):
			c.printer.Muted("cancelled")
		case err != nil:
			c.printer.Error(err.Error())
		}
	}
}

func isShellExit(err error) bool {
	return errors.Is(err, ux.ErrNoInput) || errors.Is(err, ux.ErrAborted) || errors.Is(err, context.Canceled)
}

func (c *cli) shellFind(ctx context.Context, p ux.Prompter) error {
	kw, err := p.Ask(ctx, "Keyword", "")
	if err != nil {
		return err
	}
	result, err := c.lib.Find(kw)
	if err != nil {
		return err
	}
	if result.Empty() {
		c.printer.Info(fmt.Sprintf("nothing matches %q", kw))
		return nil
	}
	for _, path := range result.Categories {
		c.printer.Plain(c.categoryLine(path))
	}
	c.printHits(result.Books)
	return nil
}

func (c *cli) shellShowBook(ctx context.Context, p ux.Prompter) error {
	title, err := p.Ask(ctx, "Title", "")
	if err != nil {
		return err
	}
	hit, err := c.lib.FindBook(title)
	if err != nil {
		return err
	}
	c.printBook(hit)
	return nil
}

func (c *cli) shellAddBook(ctx context.Context, p ux.Prompter) error {
	var b catalog.Book
	var err error
	if b.Title, err = p.Ask(ctx, "Title", ""); err != nil {
		return err
	}
	if b.Author, err = p.Ask(ctx, "Author", ""); err != nil {
		return err
	}
	if b.ISBN, err = p.Ask(ctx, "ISBN", ""); err != nil {
		return err
	}
	yearText, err := p.Ask(ctx, "Year", "0")
	if err != nil {
		return err
	}
	if b.Year, err = strconv.Atoi(yearText); err != nil {
		return fmt.Errorf("year %q: %w", yearText, catalog.ErrInvalidRecord)
	}
	category, err := p.Ask(ctx, "Category path", "")
	if err != nil {
		return err
	}
	hit, err := c.lib.AddBook(ctx, b, category)
	if err != nil {
		return err
	}
	if err := c.save(ctx); err != nil {
		return err
	}
	c.printer.Success(fmt.Sprintf("filed %q under %s", hit.Book.Title, c.displayPath(hit.Category)))
	return nil
}

func (c *cli) shellRemoveBook(ctx context.Context, p ux.Prompter) error {
	title, err := p.Ask(ctx, "Title", "")
	if err != nil {
		return err
	}
	hit, err := c.lib.FindBook(title)
	if err != nil {
		return err
	}
	ok, err := p.Confirm(ctx, fmt.Sprintf("Remove %s?", hit.Book.String()), false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	if err := c.lib.RemoveBook(title); err != nil {
		return err
	}
	if err := c.save(ctx); err != nil {
		return err
	}
	c.printer.Success(fmt.Sprintf("removed %q", title))
	return nil
}

func (c *cli) shellAddCategory(ctx context.Context, p ux.Prompter) error {
	path, err := p.Ask(ctx, "Category path", "")
	if err != nil {
		return err
	}
	norm, err := c.lib.AddCategory(path)
	if err != nil {
		return err
	}
	if err := c.save(ctx); err != nil {
		return err
	}
	c.printer.Success(fmt.Sprintf("category %s is ready", norm))
	return nil
}

func (c *cli) shellRemoveCategory(ctx context.Context, p ux.Prompter) error {
	path, err := p.Ask(ctx, "Category path", "")
	if err != nil {
		return err
	}
	info, err := c.lib.FindCategory(path)
	if err != nil {
		return err
	}
	if info.Path == "" {
		return catalog.ErrRootRemoval
	}
	ok, err := p.Confirm(ctx, fmt.Sprintf("Remove %s and the %d books under it?", info.Path, info.Count), false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	n, err := c.lib.RemoveCategory(path)
	if err != nil {
		return err
	}
	if err := c.save(ctx); err != nil {
		return err
	}
	c.printer.Success(fmt.Sprintf("removed %s and %d books", info.Path, n))
	return nil
}
