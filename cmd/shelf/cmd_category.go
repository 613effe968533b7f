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

	"github.com/AleutianAI/AleutianShelf/pkg/ux"
	"github.com/AleutianAI/AleutianShelf/services/catalog/csvrow"
)

func (c *cli) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Show, add, rename and remove categories",
		Long: `Categories are addressed by paths such as "Science/Physics". Empty
segments and surrounding blanks are ignored, so " Science // Physics "
is the same path. The root category has the empty path.`,
	}
	cmd.AddCommand(c.categoryShowCmd(), c.categoryAddCmd(), c.categoryRenameCmd(), c.categoryRemoveCmd())
	return cmd
}

func (c *cli) categoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Show a category's count, books and sub-categories",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			info, err := c.lib.FindCategory(path)
			if err != nil {
				return err
			}
			if c.flags.json {
				return c.emitJSON(info)
			}
			c.printer.KeyValue(
				[2]string{"path", c.displayPath(info.Path)},
				[2]string{"name", info.Name},
				[2]string{"count", fmt.Sprint(info.Count)},
			)
			if len(info.Books) > 0 {
				c.printer.Title("Books")
				for _, b := range info.Books {
					c.printer.Plain(fmt.Sprintf("  %s %s", ux.IconBullet.Render(), b.String()))
				}
			}
			if len(info.Children) > 0 {
				c.printer.Title("Sub-categories")
				for _, name := range info.Children {
					c.printer.Plain(fmt.Sprintf("  %s %s", ux.IconArrow.Render(), name))
				}
			}
			return nil
		},
	}
}

func (c *cli) categoryAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Create a category path",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			norm, err := c.lib.AddCategory(args[0])
			if err != nil {
				return err
			}
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			c.printer.Success(fmt.Sprintf("category %s is ready", norm))
			return nil
		},
	}
}

func (c *cli) categoryRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename the last segment of a category path",
		Long: `Renames one category; its books and sub-categories move with it.
Pass "" as the path to rename the root category.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.lib.RenameCategory(args[0], args[1]); err != nil {
				return err
			}
			if err := c.save(cmd.Context()); err != nil {
				return err
			}
			c.printer.Success(fmt.Sprintf("renamed %s to %s", c.displayPathOrRoot(args[0]), args[1]))
			return nil
		},
	}
}

func (c *cli) categoryRemoveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove <path>",
		Aliases: []string{"rm"},
		Short:   "Remove a category with all its books and sub-categories",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			info, err := c.lib.FindCategory(args[0])
			if err != nil {
				return err
			}
			if info.Path != "" && !yes && info.Count > 0 {
				c.printer.WarningBox("Removing "+info.Path,
					fmt.Sprintf("%d books and %d sub-categories are removed with it.", info.Count, len(info.Children)))
			}
			if info.Path != "" {
				question := fmt.Sprintf("Remove %s and the %d books under it?", info.Path, info.Count)
				if err := c.confirm(ctx, question, yes); err != nil {
					return err
				}
			}
			n, err := c.lib.RemoveCategory(args[0])
			if err != nil {
				return err
			}
			if err := c.save(ctx); err != nil {
				return err
			}
			c.printer.Success(fmt.Sprintf("removed %s and %d books", info.Path, n))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// displayPathOrRoot labels a user-typed path, naming the root "root".
func (c *cli) displayPathOrRoot(path string) string {
	if norm := csvrow.NormalizePath(path); norm != "" {
		return norm
	}
	return "root"
}
